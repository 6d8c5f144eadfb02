package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-planner/config"
	"course-planner/internal/dto"
	"course-planner/internal/repository"
	"course-planner/internal/search"
)

// ── 检索模块业务错误 ──

var (
	ErrNoYearOrSemester = errors.New("必须指定学年和学期")
	ErrTagListNotFound  = errors.New("该学期没有标签数据")
	ErrNoCoursebook     = errors.New("尚未导入任何学期目录")
)

// Cache 标签缓存（Redis 实现见 pkg/redis；为 nil 时直接读库）
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

func tagCacheKey(year, semester int) string {
	return fmt.Sprintf("tags:%d:%d", year, semester)
}

// LectureSearchService 目录检索、标签与学期目录查询
type LectureSearchService interface {
	Search(ctx context.Context, q *search.Query) (*dto.SearchLectureResponse, error)
	GetTags(ctx context.Context, year, semester int) (*dto.TagListResponse, error)
	RecentCoursebook(ctx context.Context) (*dto.CoursebookResponse, error)
	ListCoursebooks(ctx context.Context) ([]dto.CoursebookResponse, error)
}

type lectureSearchService struct {
	cfg    config.SearchConfig
	repo   *repository.Repository
	cache  Cache
	logger *zap.Logger
}

// NewLectureSearchService 创建 LectureSearchService 实例
func NewLectureSearchService(cfg config.SearchConfig, repo *repository.Repository, cache Cache, logger *zap.Logger) LectureSearchService {
	return &lectureSearchService{cfg: cfg, repo: repo, cache: cache, logger: logger}
}

// ────────────────────── Search ──────────────────────

func (s *lectureSearchService) Search(ctx context.Context, q *search.Query) (*dto.SearchLectureResponse, error) {
	if q.Year == 0 || q.Semester == 0 {
		return nil, ErrNoYearOrSemester
	}
	if unknown := search.UnknownEtcTags(q.Etc); len(unknown) > 0 {
		s.logger.Warn("忽略无法识别的附加标签", zap.Strings("etc", unknown))
	}

	pred, err := search.Build(*q)
	if err != nil {
		return nil, err
	}

	if q.Limit <= 0 && s.cfg.DefaultLimit > 0 {
		q.Limit = s.cfg.DefaultLimit
	}
	offset, limit := q.Page(s.cfg.MaxLimit)

	list, err := s.repo.Lecture.Search(ctx, pred, offset, limit)
	if err != nil {
		s.logger.Error("检索课程失败",
			zap.Int("year", q.Year),
			zap.Int("semester", q.Semester),
			zap.Error(err),
		)
		return nil, err
	}
	return &dto.SearchLectureResponse{List: list, Offset: offset, Limit: limit}, nil
}

// ────────────────────── GetTags ──────────────────────

func (s *lectureSearchService) GetTags(ctx context.Context, year, semester int) (*dto.TagListResponse, error) {
	key := tagCacheKey(year, semester)
	if s.cache != nil {
		var cached dto.TagListResponse
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("读取标签缓存失败", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	list, err := s.repo.TagList.GetByTerm(ctx, year, semester)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagListNotFound
		}
		s.logger.Error("查询标签失败", zap.Int("year", year), zap.Int("semester", semester), zap.Error(err))
		return nil, err
	}

	resp := &dto.TagListResponse{
		Year:      list.Year,
		Semester:  list.Semester,
		Tags:      list.Tags.Data(),
		UpdatedAt: list.UpdatedAt.UnixMilli(),
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, resp, s.cfg.TagCacheTTL); err != nil {
			s.logger.Warn("写入标签缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

// ────────────────────── Coursebook ──────────────────────

func (s *lectureSearchService) RecentCoursebook(ctx context.Context) (*dto.CoursebookResponse, error) {
	book, err := s.repo.Coursebook.GetRecent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCoursebook
		}
		s.logger.Error("查询最近学期目录失败", zap.Error(err))
		return nil, err
	}
	return &dto.CoursebookResponse{Year: book.Year, Semester: book.Semester, UpdatedAt: book.UpdatedAt}, nil
}

func (s *lectureSearchService) ListCoursebooks(ctx context.Context) ([]dto.CoursebookResponse, error) {
	books, err := s.repo.Coursebook.List(ctx)
	if err != nil {
		s.logger.Error("列出学期目录失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CoursebookResponse, 0, len(books))
	for _, b := range books {
		result = append(result, dto.CoursebookResponse{Year: b.Year, Semester: b.Semester, UpdatedAt: b.UpdatedAt})
	}
	return result, nil
}
