package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/repository"
)

// ── 时间表模块业务错误 ──

var (
	ErrTimetableNotFound       = errors.New("时间表不存在")
	ErrNoTimetableTitle        = errors.New("时间表标题不能为空")
	ErrDuplicateTimetableTitle = errors.New("同一学期已存在同名时间表")
)

// TimetableService 时间表 CRUD 业务接口
type TimetableService interface {
	List(ctx context.Context, userID string, req *dto.TimetableListRequest) ([]dto.TimetableSummary, error)
	Get(ctx context.Context, userID, id string) (*dto.TimetableResponse, error)
	Create(ctx context.Context, userID string, req *dto.CreateTimetableRequest) (*dto.TimetableResponse, error)
	// Copy 复制时间表，标题为 "<title> (n)"，条目全部以新 ID 复制
	Copy(ctx context.Context, userID, id string) (*dto.TimetableResponse, error)
	Rename(ctx context.Context, userID, id string, req *dto.RenameTimetableRequest) (*dto.TimetableResponse, error)
	Delete(ctx context.Context, userID, id string) error
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

// loadTimetable 读取用户自己的时间表（含条目）
func loadTimetable(ctx context.Context, repo *repository.Repository, logger *zap.Logger, userID, id string) (*model.Timetable, error) {
	table, err := repo.Timetable.GetByUserAndID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		logger.Error("查询时间表失败", zap.String("timetable_id", id), zap.Error(err))
		return nil, err
	}
	return table, nil
}

// ────────────────────── List ──────────────────────

func (s *timetableService) List(ctx context.Context, userID string, req *dto.TimetableListRequest) ([]dto.TimetableSummary, error) {
	tables, err := s.repo.Timetable.ListByUser(ctx, userID, req.Year, req.Semester)
	if err != nil {
		s.logger.Error("列出时间表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.TimetableSummary, 0, len(tables))
	for i := range tables {
		result = append(result, dto.NewTimetableSummary(&tables[i]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *timetableService) Get(ctx context.Context, userID, id string) (*dto.TimetableResponse, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, id)
	if err != nil {
		return nil, err
	}
	return dto.NewTimetableResponse(table), nil
}

// ────────────────────── Create ──────────────────────

func (s *timetableService) Create(ctx context.Context, userID string, req *dto.CreateTimetableRequest) (*dto.TimetableResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrNoTimetableTitle
	}

	titles, err := s.repo.Timetable.ListTitles(ctx, userID, req.Year, req.Semester)
	if err != nil {
		s.logger.Error("查询时间表标题失败", zap.Error(err))
		return nil, err
	}
	if slices.Contains(titles, title) {
		return nil, ErrDuplicateTimetableTitle
	}

	table := &model.Timetable{
		TimetableID: uuid.NewString(),
		UserID:      userID,
		Year:        req.Year,
		Semester:    req.Semester,
		Title:       title,
		Lectures:    []model.UserLecture{},
	}
	table.Version = 1

	if err := s.repo.Timetable.Create(ctx, table); err != nil {
		s.logger.Error("创建时间表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return dto.NewTimetableResponse(table), nil
}

// ────────────────────── Copy ──────────────────────

var copySuffix = regexp.MustCompile(`^(.*) \((\d+)\)$`)

// copyTitle 去掉已有的 " (n)" 后缀，取最小的未占用 n
func copyTitle(title string, taken []string) string {
	base := title
	if m := copySuffix.FindStringSubmatch(title); m != nil {
		base = m[1]
	}
	for n := 1; ; n++ {
		candidate := base + " (" + strconv.Itoa(n) + ")"
		if !slices.Contains(taken, candidate) {
			return candidate
		}
	}
}

func (s *timetableService) Copy(ctx context.Context, userID, id string) (*dto.TimetableResponse, error) {
	src, err := loadTimetable(ctx, s.repo, s.logger, userID, id)
	if err != nil {
		return nil, err
	}

	titles, err := s.repo.Timetable.ListTitles(ctx, userID, src.Year, src.Semester)
	if err != nil {
		s.logger.Error("查询时间表标题失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	dst := &model.Timetable{
		TimetableID: uuid.NewString(),
		UserID:      userID,
		Year:        src.Year,
		Semester:    src.Semester,
		Title:       copyTitle(src.Title, titles),
		Lectures:    make([]model.UserLecture, 0, len(src.Lectures)),
	}
	dst.Version = 1

	for _, l := range src.Lectures {
		l.UserLectureID = uuid.NewString()
		l.TimetableID = dst.TimetableID
		l.CreatedAt = now
		l.UpdatedAt = now
		dst.Lectures = append(dst.Lectures, l)
	}

	if err := s.repo.Timetable.Create(ctx, dst); err != nil {
		s.logger.Error("复制时间表失败", zap.String("source_id", id), zap.Error(err))
		return nil, err
	}
	return dto.NewTimetableResponse(dst), nil
}

// ────────────────────── Rename ──────────────────────

func (s *timetableService) Rename(ctx context.Context, userID, id string, req *dto.RenameTimetableRequest) (*dto.TimetableResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrNoTimetableTitle
	}

	table, err := loadTimetable(ctx, s.repo, s.logger, userID, id)
	if err != nil {
		return nil, err
	}
	if table.Title == title {
		return dto.NewTimetableResponse(table), nil
	}

	titles, err := s.repo.Timetable.ListTitles(ctx, userID, table.Year, table.Semester)
	if err != nil {
		s.logger.Error("查询时间表标题失败", zap.Error(err))
		return nil, err
	}
	if slices.Contains(titles, title) {
		return nil, ErrDuplicateTimetableTitle
	}

	if err := s.repo.Timetable.UpdateTitle(ctx, table, title); err != nil {
		s.logger.Error("修改时间表标题失败", zap.String("timetable_id", id), zap.Error(err))
		return nil, err
	}
	return dto.NewTimetableResponse(table), nil
}

// ────────────────────── Delete ──────────────────────

func (s *timetableService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Timetable.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimetableNotFound
		}
		s.logger.Error("删除时间表失败", zap.String("timetable_id", id), zap.Error(err))
		return fmt.Errorf("删除时间表: %w", err)
	}
	return nil
}
