package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"course-planner/internal/model"
	pkgerrors "course-planner/pkg/errors"
)

// LecturePatchOp 针对单个条目的部分更新
type LecturePatchOp struct {
	UserLectureID string
	Patch         model.UserLecturePatch
}

// TimetableMutation 一次时间表条目变更（同一事务内按 删除→替换→补丁→插入 顺序执行）
type TimetableMutation struct {
	Delete  []string
	Replace []model.UserLecture
	Patch   []LecturePatchOp
	Insert  []model.UserLecture
}

// TimetableRepository 时间表数据访问接口
type TimetableRepository interface {
	Create(ctx context.Context, table *model.Timetable) error
	GetByUserAndID(ctx context.Context, userID, id string) (*model.Timetable, error)
	GetByID(ctx context.Context, id string) (*model.Timetable, error)
	// ListByUser year/semester 为 0 时不过滤学期；不加载条目
	ListByUser(ctx context.Context, userID string, year, semester int) ([]model.Timetable, error)
	ListTitles(ctx context.Context, userID string, year, semester int) ([]string, error)
	// ListContainingLecture 列出包含指定课程标识条目的时间表（含条目）
	ListContainingLecture(ctx context.Context, year, semester int, courseNumber, lectureNumber string) ([]model.Timetable, error)
	UpdateTitle(ctx context.Context, table *model.Timetable, title string) error
	Delete(ctx context.Context, userID, id string) error
	// Mutate 在事务中应用条目变更并递增版本号；版本不符返回 ErrOptimisticLock
	Mutate(ctx context.Context, table *model.Timetable, m TimetableMutation) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo 创建 TimetableRepository 实例
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func orderedLectures(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, user_lecture_id ASC")
}

func (r *timetableRepo) Create(ctx context.Context, table *model.Timetable) error {
	return r.db.WithContext(ctx).Create(table).Error
}

func (r *timetableRepo) GetByUserAndID(ctx context.Context, userID, id string) (*model.Timetable, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var table model.Timetable
	err := r.db.WithContext(ctx).
		Preload("Lectures", orderedLectures).
		Where("timetable_id = ? AND user_id = ?", id, userID).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *timetableRepo) GetByID(ctx context.Context, id string) (*model.Timetable, error) {
	if !isUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var table model.Timetable
	err := r.db.WithContext(ctx).
		Preload("Lectures", orderedLectures).
		Where("timetable_id = ?", id).
		First(&table).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *timetableRepo) ListByUser(ctx context.Context, userID string, year, semester int) ([]model.Timetable, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if year != 0 {
		q = q.Where("year = ?", year)
	}
	if semester != 0 {
		q = q.Where("semester = ?", semester)
	}
	var tables []model.Timetable
	err := q.Order("year DESC, semester DESC, updated_at DESC").Find(&tables).Error
	return tables, err
}

func (r *timetableRepo) ListTitles(ctx context.Context, userID string, year, semester int) ([]string, error) {
	var titles []string
	err := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("user_id = ? AND year = ? AND semester = ?", userID, year, semester).
		Pluck("title", &titles).Error
	return titles, err
}

func (r *timetableRepo) ListContainingLecture(ctx context.Context, year, semester int, courseNumber, lectureNumber string) ([]model.Timetable, error) {
	var tables []model.Timetable
	err := r.db.WithContext(ctx).
		Preload("Lectures", orderedLectures).
		Where("year = ? AND semester = ?", year, semester).
		Where("timetable_id IN (?)",
			r.db.Model(&model.UserLecture{}).
				Select("timetable_id").
				Where("course_number = ? AND lecture_number = ?", courseNumber, lectureNumber)).
		Find(&tables).Error
	return tables, err
}

func (r *timetableRepo) UpdateTitle(ctx context.Context, table *model.Timetable, title string) error {
	oldVersion := table.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Timetable{}).
		Where("timetable_id = ? AND version = ?", table.TimetableID, oldVersion).
		Updates(map[string]interface{}{
			"title":      title,
			"updated_at": now,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	table.Title = title
	table.UpdatedAt = now
	table.Version = oldVersion + 1
	return nil
}

func (r *timetableRepo) Delete(ctx context.Context, userID, id string) error {
	if !isUUID(id) {
		return gorm.ErrRecordNotFound
	}
	result := r.db.WithContext(ctx).
		Where("timetable_id = ? AND user_id = ?", id, userID).
		Delete(&model.Timetable{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *timetableRepo) Mutate(ctx context.Context, table *model.Timetable, m TimetableMutation) error {
	oldVersion := table.Version
	now := time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先占版本号，并发的同表变更在此处失败
		result := tx.Model(&model.Timetable{}).
			Where("timetable_id = ? AND version = ?", table.TimetableID, oldVersion).
			Updates(map[string]interface{}{
				"updated_at": now,
				"version":    oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		if len(m.Delete) > 0 {
			if err := tx.Where("timetable_id = ? AND user_lecture_id IN ?", table.TimetableID, m.Delete).
				Delete(&model.UserLecture{}).Error; err != nil {
				return err
			}
		}
		for i := range m.Replace {
			l := m.Replace[i]
			l.TimetableID = table.TimetableID
			l.UpdatedAt = now
			if err := tx.Select("*").Omit("created_at").
				Where("timetable_id = ?", table.TimetableID).
				Updates(&l).Error; err != nil {
				return err
			}
		}
		for _, op := range m.Patch {
			cols := op.Patch.Columns()
			cols["updated_at"] = now
			if err := tx.Model(&model.UserLecture{}).
				Where("timetable_id = ? AND user_lecture_id = ?", table.TimetableID, op.UserLectureID).
				Updates(cols).Error; err != nil {
				return err
			}
		}
		if len(m.Insert) > 0 {
			inserts := make([]model.UserLecture, len(m.Insert))
			for i, l := range m.Insert {
				l.TimetableID = table.TimetableID
				inserts[i] = l
			}
			if err := tx.Create(&inserts).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	table.Version = oldVersion + 1
	table.UpdatedAt = now
	return nil
}
