package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-planner/internal/model"
)

// TagListRepository 学期标签数据访问接口
type TagListRepository interface {
	GetByTerm(ctx context.Context, year, semester int) (*model.TagList, error)
	Upsert(ctx context.Context, list *model.TagList) error
}

type tagListRepo struct {
	db *gorm.DB
}

// NewTagListRepo 创建 TagListRepository 实例
func NewTagListRepo(db *gorm.DB) TagListRepository {
	return &tagListRepo{db: db}
}

func (r *tagListRepo) GetByTerm(ctx context.Context, year, semester int) (*model.TagList, error) {
	var list model.TagList
	err := r.db.WithContext(ctx).
		Where("year = ? AND semester = ?", year, semester).
		First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *tagListRepo) Upsert(ctx context.Context, list *model.TagList) error {
	list.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "semester"}},
		DoUpdates: clause.AssignmentColumns([]string{"tags", "updated_at"}),
	}).Create(list).Error
}
