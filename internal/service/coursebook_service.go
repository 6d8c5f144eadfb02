package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"course-planner/config"
	"course-planner/internal/catalog"
	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/repository"
	pkgerrors "course-planner/pkg/errors"
)

// ErrInvalidTerm 学年/学期不合法
var ErrInvalidTerm = errors.New("学年或学期不合法")

// CoursebookService 学期目录刷新与差异同步
//
// 刷新流程：读取源 → 解析 → 与库中旧目录比对 → 同步受影响的时间表并通知
// → 整体替换目录 → 写入标签 → 登记学期目录。
type CoursebookService interface {
	Refresh(ctx context.Context, term catalog.Term) (*dto.RefreshResult, error)
	// RefreshCandidates 定时刷新应处理的学期
	RefreshCandidates(ctx context.Context, now time.Time) ([]catalog.Term, error)
	// RefreshRecent 依次刷新所有候选学期；没有目录源的学期跳过
	RefreshRecent(ctx context.Context, now time.Time) ([]dto.RefreshResult, error)
}

type coursebookService struct {
	cfg    config.CatalogConfig
	repo   *repository.Repository
	source catalog.Source
	notify NotificationService
	cache  Cache
	logger *zap.Logger
}

// NewCoursebookService 创建 CoursebookService 实例；cache 可为 nil
func NewCoursebookService(
	cfg config.CatalogConfig,
	repo *repository.Repository,
	source catalog.Source,
	notify NotificationService,
	cache Cache,
	logger *zap.Logger,
) CoursebookService {
	return &coursebookService{
		cfg:    cfg,
		repo:   repo,
		source: source,
		notify: notify,
		cache:  cache,
		logger: logger,
	}
}

// ────────────────────── RefreshCandidates ──────────────────────

func (s *coursebookService) RefreshCandidates(ctx context.Context, now time.Time) ([]catalog.Term, error) {
	book, err := s.repo.Coursebook.GetRecent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return catalog.UpdateCandidates(nil, now), nil
		}
		s.logger.Error("查询最近学期目录失败", zap.Error(err))
		return nil, err
	}
	return catalog.UpdateCandidates(&catalog.Term{Year: book.Year, Semester: book.Semester}, now), nil
}

func (s *coursebookService) RefreshRecent(ctx context.Context, now time.Time) ([]dto.RefreshResult, error) {
	terms, err := s.RefreshCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	results := make([]dto.RefreshResult, 0, len(terms))
	for _, term := range terms {
		result, err := s.Refresh(ctx, term)
		if err != nil {
			if errors.Is(err, catalog.ErrSourceNotFound) {
				s.logger.Info("学期没有目录源，跳过", zap.String("term", term.String()))
				continue
			}
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}

// ────────────────────── Refresh ──────────────────────

func (s *coursebookService) Refresh(ctx context.Context, term catalog.Term) (*dto.RefreshResult, error) {
	if !term.Valid() {
		return nil, ErrInvalidTerm
	}
	log := s.logger.With(zap.String("term", term.String()))
	result := &dto.RefreshResult{Year: term.Year, Semester: term.Semester}

	lines, err := s.source.Fetch(ctx, term)
	if err != nil {
		if !errors.Is(err, catalog.ErrSourceNotFound) {
			log.Error("读取目录源失败", zap.Error(err))
		}
		return nil, err
	}

	lectures, tags := catalog.ParseLines(term, lines, log)
	if len(lectures) == 0 {
		log.Warn("目录源为空，跳过刷新")
		result.Status = dto.RefreshStatusEmpty
		return result, nil
	}
	result.Lectures = len(lectures)

	old, err := s.repo.Lecture.ListByTerm(ctx, term.Year, term.Semester)
	if err != nil {
		log.Error("读取旧目录失败", zap.Error(err))
		return nil, err
	}

	diff := catalog.Compare(old, lectures)
	result.Created = len(diff.Created)
	result.Removed = len(diff.Removed)
	result.Updated = len(diff.Updated)
	result.Changed = diff.ChangedCount()
	if diff.IsEmpty() {
		log.Info("目录没有变化")
		result.Status = dto.RefreshStatusUnchanged
		return result, nil
	}

	affected, err := s.reconcile(ctx, term, &diff)
	if err != nil {
		log.Error("同步时间表失败", zap.Error(err))
		return nil, err
	}
	result.AffectedTables = affected

	carryLectureIDs(old, lectures)
	if err := s.repo.Lecture.ReplaceTerm(ctx, term.Year, term.Semester, lectures); err != nil {
		log.Error("替换目录失败", zap.Error(err))
		return nil, err
	}
	tagList := &model.TagList{Year: term.Year, Semester: term.Semester, Tags: datatypes.NewJSONType(tags)}
	if err := s.repo.TagList.Upsert(ctx, tagList); err != nil {
		log.Error("写入标签失败", zap.Error(err))
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, tagCacheKey(term.Year, term.Semester)); err != nil {
			log.Warn("清除标签缓存失败", zap.Error(err))
		}
	}

	existed, err := s.repo.Coursebook.Touch(ctx, term.Year, term.Semester)
	if err != nil {
		log.Error("登记学期目录失败", zap.Error(err))
		return nil, err
	}
	if !existed {
		result.NewCoursebook = true
		msg := fmt.Sprintf("%d년도 %s학기 수강편람이 추가되었습니다.", term.Year, catalog.SemesterName(term.Semester))
		s.notify.Notify(ctx, nil, model.NotificationCoursebook, msg, nil)
	}

	result.Status = dto.RefreshStatusUpdated
	log.Info("目录刷新完成",
		zap.Int("lectures", result.Lectures),
		zap.Int("created", result.Created),
		zap.Int("removed", result.Removed),
		zap.Int("updated", result.Updated),
		zap.Int("changed", result.Changed),
		zap.Int("affected_tables", result.AffectedTables),
	)
	return result, nil
}

// carryLectureIDs 匹配到旧记录的新记录沿用旧 ID（匹配规则与 catalog.Compare 一致）
func carryLectureIDs(old, cur []model.Lecture) {
	consumed := make([]bool, len(old))
	for i := range cur {
		for j := range old {
			if consumed[j] ||
				old[j].CourseNumber != cur[i].CourseNumber ||
				old[j].LectureNumber != cur[i].LectureNumber {
				continue
			}
			consumed[j] = true
			cur[i].LectureID = old[j].LectureID
			break
		}
	}
}

// ════════════════════════════════════════════════════════════
// 时间表同步
// ════════════════════════════════════════════════════════════

// reconcileOutcome 单个时间表同步的结果
type reconcileOutcome int

const (
	outcomeNone reconcileOutcome = iota
	outcomeUpdated
	outcomeRemoved
)

// reconcileStats 按用户汇总变更，供日志摘要使用
type reconcileStats struct {
	mu            sync.Mutex
	tables        map[string]struct{}
	updated       map[string]int
	removed       map[string]int
	notifications []model.Notification
}

func newReconcileStats() *reconcileStats {
	return &reconcileStats{
		tables:  make(map[string]struct{}),
		updated: make(map[string]int),
		removed: make(map[string]int),
	}
}

func (st *reconcileStats) record(table *model.Timetable, outcome reconcileOutcome, n model.Notification) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.tables[table.TimetableID] = struct{}{}
	switch outcome {
	case outcomeUpdated:
		st.updated[table.UserID]++
	case outcomeRemoved:
		st.removed[table.UserID]++
	}
	st.notifications = append(st.notifications, n)
}

// reconcile 将目录差异同步到所有包含相关课程的时间表，返回受影响的时间表数
//
// 不同课程之间并发处理；同一时间表的写入由版本号串行化，冲突时重新读取后重试。
func (s *coursebookService) reconcile(ctx context.Context, term catalog.Term, diff *catalog.LectureDiff) (int, error) {
	stats := newReconcileStats()

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.RefreshConcurrency > 0 {
		g.SetLimit(s.cfg.RefreshConcurrency)
	}

	for i := range diff.Updated {
		upd := diff.Updated[i]
		if upd.Patch.IsEmpty() && !s.cfg.NotifyUnchangedUpdates {
			continue
		}
		g.Go(func() error {
			return s.syncIdentity(gctx, term, upd.LectureIdent, &upd.Patch, stats)
		})
	}
	for i := range diff.Removed {
		ident := diff.Removed[i]
		g.Go(func() error {
			return s.syncIdentity(gctx, term, ident, nil, stats)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.notify.NotifyBatch(ctx, stats.notifications)

	users := make(map[string]struct{}, len(stats.updated)+len(stats.removed))
	for u := range stats.updated {
		users[u] = struct{}{}
	}
	for u := range stats.removed {
		users[u] = struct{}{}
	}
	for u := range users {
		s.logger.Info(fmt.Sprintf("수강편람이 업데이트되어 %d개 강의가 변경되고 %d개 강의가 삭제되었습니다.",
			stats.updated[u], stats.removed[u]),
			zap.String("user_id", u),
			zap.String("term", term.String()),
		)
	}
	return len(stats.tables), nil
}

// syncIdentity 处理一门课的差异；patch 为 nil 表示该课程已被删除
func (s *coursebookService) syncIdentity(ctx context.Context, term catalog.Term, ident catalog.LectureIdent, patch *catalog.LecturePatch, stats *reconcileStats) error {
	tables, err := s.repo.Timetable.ListContainingLecture(ctx, term.Year, term.Semester, ident.CourseNumber, ident.LectureNumber)
	if err != nil {
		return err
	}
	for i := range tables {
		if err := s.syncTable(ctx, &tables[i], ident, patch, stats); err != nil {
			return err
		}
	}
	return nil
}

// syncTable 在单个时间表上应用差异；版本冲突时重新读取该表后重试
func (s *coursebookService) syncTable(ctx context.Context, table *model.Timetable, ident catalog.LectureIdent, patch *catalog.LecturePatch, stats *reconcileStats) error {
	attempts := s.cfg.UpdateRetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	current := table
	first := true

	return retry.Do(func() error {
		if !first {
			fresh, err := s.repo.Timetable.GetByID(ctx, table.TimetableID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return retry.Unrecoverable(err)
			}
			current = fresh
		}
		first = false

		outcome, n, err := s.applyToTable(ctx, current, ident, patch)
		if err != nil {
			return err
		}
		if outcome != outcomeNone {
			stats.record(current, outcome, n)
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(50*time.Millisecond),
		retry.RetryIf(func(err error) bool { return errors.Is(err, pkgerrors.ErrOptimisticLock) }),
		retry.LastErrorOnly(true),
	)
}

// applyToTable 更新或删除表中对应条目，并生成通知；表中已无该课程时不做任何事
func (s *coursebookService) applyToTable(ctx context.Context, table *model.Timetable, ident catalog.LectureIdent, patch *catalog.LecturePatch) (reconcileOutcome, model.Notification, error) {
	target := findByIdentity(table, ident.CourseNumber, ident.LectureNumber)
	if target == nil {
		return outcomeNone, model.Notification{}, nil
	}
	userID := table.UserID
	oldTitle := target.CourseTitle

	if patch == nil {
		if err := s.repo.Timetable.Mutate(ctx, table, repository.TimetableMutation{
			Delete: []string{target.UserLectureID},
		}); err != nil {
			return outcomeNone, model.Notification{}, err
		}
		msg := fmt.Sprintf("'%s' 시간표의 '%s' 강의가 폐강되어 삭제되었습니다.", table.Title, oldTitle)
		n, err := NewNotification(&userID, model.NotificationLectureRemove, msg, lectureDetail(table, target))
		return outcomeRemoved, n, err
	}

	userPatch := patch.UserLecturePatch()
	patched := *target
	userPatch.Apply(&patched)

	if userPatch.Slots != nil && len(findOverlaps(table, patched.Slots(), target.UserLectureID)) > 0 {
		if err := s.repo.Timetable.Mutate(ctx, table, repository.TimetableMutation{
			Delete: []string{target.UserLectureID},
		}); err != nil {
			return outcomeNone, model.Notification{}, err
		}
		msg := fmt.Sprintf("'%s' 시간표의 '%s' 강의가 업데이트되었으나, 시간표가 겹쳐 삭제되었습니다.", table.Title, oldTitle)
		n, err := NewNotification(&userID, model.NotificationLectureRemove, msg, lectureDetail(table, &patched))
		return outcomeRemoved, n, err
	}

	if err := s.repo.Timetable.Mutate(ctx, table, repository.TimetableMutation{
		Patch: []repository.LecturePatchOp{{UserLectureID: target.UserLectureID, Patch: userPatch}},
	}); err != nil {
		return outcomeNone, model.Notification{}, err
	}
	msg := fmt.Sprintf("'%s' 시간표의 '%s' 강의가 업데이트 되었습니다.", table.Title, oldTitle)
	n, err := NewNotification(&userID, model.NotificationLectureUpdate, msg, lectureDetail(table, &patched))
	return outcomeUpdated, n, err
}

func findByIdentity(table *model.Timetable, courseNumber, lectureNumber string) *model.UserLecture {
	for i := range table.Lectures {
		l := &table.Lectures[i]
		if !l.IsCustom() && l.CourseNumber == courseNumber && l.LectureNumber == lectureNumber {
			return l
		}
	}
	return nil
}

func lectureDetail(table *model.Timetable, lecture *model.UserLecture) map[string]any {
	return map[string]any{
		"timetable_id": table.TimetableID,
		"lecture":      lecture,
	}
}
