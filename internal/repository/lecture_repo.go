package repository

import (
	"context"

	"gorm.io/gorm"

	"course-planner/internal/model"
	"course-planner/internal/search"
)

// insertBatchSize 目录整学期写入的分批大小
const insertBatchSize = 500

// LectureRepository 课程目录数据访问接口
type LectureRepository interface {
	GetByID(ctx context.Context, id string) (*model.Lecture, error)
	GetByIdentity(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.Lecture, error)
	ListByTerm(ctx context.Context, year, semester int) ([]model.Lecture, error)
	Search(ctx context.Context, pred search.Predicate, offset, limit int) ([]model.Lecture, error)
	// ReplaceTerm 在事务中整学期替换目录：先删除该学期全部记录，再分批插入
	ReplaceTerm(ctx context.Context, year, semester int, lectures []model.Lecture) error
}

type lectureRepo struct {
	db *gorm.DB
}

// NewLectureRepo 创建 LectureRepository 实例
func NewLectureRepo(db *gorm.DB) LectureRepository {
	return &lectureRepo{db: db}
}

func (r *lectureRepo) GetByID(ctx context.Context, id string) (*model.Lecture, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var lec model.Lecture
	err := r.db.WithContext(ctx).Where("lecture_id = ?", id).First(&lec).Error
	if err != nil {
		return nil, err
	}
	return &lec, nil
}

func (r *lectureRepo) GetByIdentity(ctx context.Context, year, semester int, courseNumber, lectureNumber string) (*model.Lecture, error) {
	var lec model.Lecture
	err := r.db.WithContext(ctx).
		Where("year = ? AND semester = ? AND course_number = ? AND lecture_number = ?",
			year, semester, courseNumber, lectureNumber).
		First(&lec).Error
	if err != nil {
		return nil, err
	}
	return &lec, nil
}

func (r *lectureRepo) ListByTerm(ctx context.Context, year, semester int) ([]model.Lecture, error) {
	var lectures []model.Lecture
	err := r.db.WithContext(ctx).
		Where("year = ? AND semester = ?", year, semester).
		Order("course_number ASC, lecture_number ASC").
		Find(&lectures).Error
	return lectures, err
}

func (r *lectureRepo) Search(ctx context.Context, pred search.Predicate, offset, limit int) ([]model.Lecture, error) {
	where, args, err := predicateSQL(pred)
	if err != nil {
		return nil, err
	}
	var lectures []model.Lecture
	err = r.db.WithContext(ctx).
		Where(where, args...).
		Order("course_title ASC, course_number ASC, lecture_number ASC").
		Offset(offset).
		Limit(limit).
		Find(&lectures).Error
	return lectures, err
}

func (r *lectureRepo) ReplaceTerm(ctx context.Context, year, semester int, lectures []model.Lecture) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("year = ? AND semester = ?", year, semester).
			Delete(&model.Lecture{}).Error; err != nil {
			return err
		}
		if len(lectures) > 0 {
			if err := tx.CreateInBatches(&lectures, insertBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
