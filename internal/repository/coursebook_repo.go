package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"course-planner/internal/model"
)

// CoursebookRepository 学期目录登记数据访问接口
type CoursebookRepository interface {
	// GetRecent 最近的学期（按 year, semester 倒序）
	GetRecent(ctx context.Context) (*model.Coursebook, error)
	List(ctx context.Context) ([]model.Coursebook, error)
	// Touch 登记学期并刷新 updated_at；返回该学期此前是否已存在
	Touch(ctx context.Context, year, semester int) (existed bool, err error)
}

type coursebookRepo struct {
	db *gorm.DB
}

// NewCoursebookRepo 创建 CoursebookRepository 实例
func NewCoursebookRepo(db *gorm.DB) CoursebookRepository {
	return &coursebookRepo{db: db}
}

func (r *coursebookRepo) GetRecent(ctx context.Context) (*model.Coursebook, error) {
	var cb model.Coursebook
	err := r.db.WithContext(ctx).
		Order("year DESC, semester DESC").
		First(&cb).Error
	if err != nil {
		return nil, err
	}
	return &cb, nil
}

func (r *coursebookRepo) List(ctx context.Context) ([]model.Coursebook, error) {
	var list []model.Coursebook
	err := r.db.WithContext(ctx).
		Order("year DESC, semester DESC").
		Find(&list).Error
	return list, err
}

func (r *coursebookRepo) Touch(ctx context.Context, year, semester int) (bool, error) {
	existed := true
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cb model.Coursebook
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("year = ? AND semester = ?", year, semester).
			First(&cb).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existed = false
			return tx.Create(&model.Coursebook{Year: year, Semester: semester}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&cb).Update("updated_at", time.Now()).Error
	})
	return existed, err
}
