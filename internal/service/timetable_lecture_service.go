package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/repository"
	"course-planner/internal/timeplace"
)

// ── 时间表条目业务错误 ──

var (
	ErrUserLectureNotFound = errors.New("时间表中不存在该课程")
	ErrRefLectureNotFound  = errors.New("课程目录中不存在该课程")
	ErrWrongSemester       = errors.New("课程与时间表不属于同一学期")
	ErrDuplicateLecture    = errors.New("时间表中已存在相同课程")
	ErrNoLectureTitle      = errors.New("课程名称不能为空")
	ErrNotCustomLecture    = errors.New("自定义课程不能指定课程号或班号")
	ErrIsCustomLecture     = errors.New("自定义课程没有可恢复的目录数据")
	ErrModifyIdentity      = errors.New("不允许修改课程号或班号")
)

// ── TimetableLectureService 接口 ──────────────────────────────
//
// 条目状态：不存在 → 目录课程 | 自定义课程；目录课程只在用户显式修改后偏离目录，
// 重置（reset）是唯一的重新同步途径。
//
// 冲突策略：与已有条目时间重叠时，非强制请求返回 *timeplace.OverlapError（带确认提示），
// 强制请求先删除所有冲突条目再写入。课程自身时段重叠直接拒绝，不提供强制覆盖。
// 所有校验在写库之前完成；写库由 TimetableRepository.Mutate 在单个事务内完成并递增版本号。
// ─────────────────────────────────────────────────────────────

// TimetableLectureService 时间表条目业务接口
type TimetableLectureService interface {
	AddRefLecture(ctx context.Context, userID, tableID, lectureID string, forced bool) (*dto.TimetableResponse, error)
	AddCustomLecture(ctx context.Context, userID, tableID string, req *dto.CustomLectureRequest) (*dto.TimetableResponse, error)
	ModifyLecture(ctx context.Context, userID, tableID, userLectureID string, req *dto.ModifyLectureRequest) (*dto.TimetableResponse, error)
	ResetLecture(ctx context.Context, userID, tableID, userLectureID string) (*dto.TimetableResponse, error)
	RemoveLecture(ctx context.Context, userID, tableID, userLectureID string) (*dto.TimetableResponse, error)
	RemoveLectureByCourseNumber(ctx context.Context, userID, tableID, courseNumber, lectureNumber string) (*dto.TimetableResponse, error)
}

type timetableLectureService struct {
	repo   *repository.Repository
	colors *ColorPicker
	logger *zap.Logger
}

// NewTimetableLectureService 创建 TimetableLectureService 实例
func NewTimetableLectureService(repo *repository.Repository, colors *ColorPicker, logger *zap.Logger) TimetableLectureService {
	return &timetableLectureService{repo: repo, colors: colors, logger: logger}
}

// ════════════════════════════════════════════════════════════
// 冲突检测
// ════════════════════════════════════════════════════════════

// findOverlaps 时间表中与 slots 冲突的条目（跳过 excludeID）
func findOverlaps(table *model.Timetable, slots []timeplace.MeetingSlot, excludeID string) []*model.UserLecture {
	var out []*model.UserLecture
	for i := range table.Lectures {
		l := &table.Lectures[i]
		if excludeID != "" && l.UserLectureID == excludeID {
			continue
		}
		if timeplace.SlotsOverlap(l.Slots(), slots) {
			out = append(out, l)
		}
	}
	return out
}

// overwriteConfirmMessage 列出最多两门冲突课程，超过两门时附加 "외 N개의 "
func overwriteConfirmMessage(overlaps []*model.UserLecture) string {
	titles := make([]string, 0, 2)
	for i := 0; i < len(overlaps) && i < 2; i++ {
		titles = append(titles, overlaps[i].CourseTitle)
	}
	more := ""
	if len(overlaps) >= 3 {
		more = fmt.Sprintf("외 %d개의 ", len(overlaps)-2)
	}
	return fmt.Sprintf("%s %s강의가 중복되어 있습니다. 강의를 덮어쓰시겠습니까?", strings.Join(titles, ", "), more)
}

// resolveOverlaps 非强制时返回 OverlapError；强制时返回需要删除的条目 ID
func resolveOverlaps(table *model.Timetable, slots []timeplace.MeetingSlot, excludeID string, forced bool) ([]string, error) {
	overlaps := findOverlaps(table, slots, excludeID)
	if len(overlaps) == 0 {
		return nil, nil
	}
	if !forced {
		return nil, &timeplace.OverlapError{ConfirmMessage: overwriteConfirmMessage(overlaps)}
	}
	ids := make([]string, len(overlaps))
	for i, l := range overlaps {
		ids[i] = l.UserLectureID
	}
	return ids, nil
}

func resolveSlots(reqs []dto.SlotRequest) ([]timeplace.MeetingSlot, error) {
	slots := make([]timeplace.MeetingSlot, 0, len(reqs))
	for _, r := range reqs {
		slot, err := r.Draft().Resolve()
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ════════════════════════════════════════════════════════════
// 添加
// ════════════════════════════════════════════════════════════

// addLecture 校验并写入一个新条目：身份去重 → 自身时段 → 颜色 → 与已有条目冲突
func (s *timetableLectureService) addLecture(ctx context.Context, table *model.Timetable, lecture model.UserLecture, forced bool) error {
	for i := range table.Lectures {
		if lecture.SameIdentity(&table.Lectures[i]) {
			return ErrDuplicateLecture
		}
	}

	if err := timeplace.ValidateSlots(lecture.Slots()); err != nil {
		return err
	}
	if err := validateLectureColor(lecture.ColorIndex, &lecture.Color); err != nil {
		return err
	}

	evict, err := resolveOverlaps(table, lecture.Slots(), "", forced)
	if err != nil {
		return err
	}
	if len(evict) > 0 {
		s.logger.Info("强制添加，删除冲突课程",
			zap.String("timetable_id", table.TimetableID),
			zap.Strings("evicted", evict),
		)
	}

	now := time.Now()
	lecture.UserLectureID = uuid.NewString()
	lecture.CreatedAt = now
	lecture.UpdatedAt = now

	return s.repo.Timetable.Mutate(ctx, table, repository.TimetableMutation{
		Delete: evict,
		Insert: []model.UserLecture{lecture},
	})
}

// ────────────────────── AddRefLecture ──────────────────────

func (s *timetableLectureService) AddRefLecture(ctx context.Context, userID, tableID, lectureID string, forced bool) (*dto.TimetableResponse, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, err
	}

	ref, err := s.repo.Lecture.GetByID(ctx, lectureID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefLectureNotFound
		}
		s.logger.Error("查询目录课程失败", zap.String("lecture_id", lectureID), zap.Error(err))
		return nil, err
	}
	if ref.Year != table.Year || ref.Semester != table.Semester {
		return nil, ErrWrongSemester
	}

	lecture := model.FromLecture(ref, s.colors.Pick(usedColors(table)))
	if err := s.addLecture(ctx, table, lecture, forced); err != nil {
		return nil, s.logWriteError("添加目录课程失败", table, err)
	}
	return s.reload(ctx, userID, tableID)
}

// ────────────────────── AddCustomLecture ──────────────────────

func (s *timetableLectureService) AddCustomLecture(ctx context.Context, userID, tableID string, req *dto.CustomLectureRequest) (*dto.TimetableResponse, error) {
	slots, err := resolveSlots(req.ClassTimeJSON)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.CourseTitle)
	if title == "" {
		return nil, ErrNoLectureTitle
	}
	if req.CourseNumber != "" || req.LectureNumber != "" {
		return nil, ErrNotCustomLecture
	}

	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, err
	}

	lecture := model.UserLecture{
		Classification: req.Classification,
		Department:     req.Department,
		AcademicYear:   req.AcademicYear,
		CourseTitle:    title,
		Credit:         req.Credit,
		ClassTime:      req.ClassTime,
		Instructor:     req.Instructor,
		Remark:         req.Remark,
		Category:       req.Category,
	}
	lecture.SetSlots(slots)
	if req.ColorIndex != nil {
		lecture.ColorIndex = *req.ColorIndex
	}
	if c := req.Color.Model(); c != nil {
		lecture.Color = *c
	}
	if req.Color == nil && lecture.ColorIndex == model.CustomColor {
		lecture.ColorIndex = s.colors.Pick(usedColors(table))
	}

	if err := s.addLecture(ctx, table, lecture, req.IsForced); err != nil {
		return nil, s.logWriteError("添加自定义课程失败", table, err)
	}
	return s.reload(ctx, userID, tableID)
}

// ════════════════════════════════════════════════════════════
// 修改 / 重置
// ════════════════════════════════════════════════════════════

func (s *timetableLectureService) ModifyLecture(ctx context.Context, userID, tableID, userLectureID string, req *dto.ModifyLectureRequest) (*dto.TimetableResponse, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, err
	}

	if (req.CourseNumber != nil && *req.CourseNumber != "") ||
		(req.LectureNumber != nil && *req.LectureNumber != "") {
		return nil, ErrModifyIdentity
	}

	target := table.FindLecture(userLectureID)
	if target == nil {
		return nil, ErrUserLectureNotFound
	}

	patch := model.UserLecturePatch{
		Classification: req.Classification,
		Department:     req.Department,
		AcademicYear:   req.AcademicYear,
		CourseTitle:    req.CourseTitle,
		Credit:         req.Credit,
		ClassTime:      req.ClassTime,
		Instructor:     req.Instructor,
		Quota:          req.Quota,
		Remark:         req.Remark,
		Category:       req.Category,
		ColorIndex:     req.ColorIndex,
		Color:          req.Color.Model(),
	}

	if patch.CourseTitle != nil && strings.TrimSpace(*patch.CourseTitle) == "" {
		return nil, ErrNoLectureTitle
	}

	if req.ColorIndex != nil || req.Color != nil {
		index := target.ColorIndex
		if req.ColorIndex != nil {
			index = *req.ColorIndex
		}
		if err := validateLectureColor(index, patch.Color); err != nil {
			return nil, err
		}
	}

	var evict []string
	if req.ClassTimeJSON != nil {
		slots, err := resolveSlots(*req.ClassTimeJSON)
		if err != nil {
			return nil, err
		}
		if err := timeplace.ValidateSlots(slots); err != nil {
			return nil, err
		}
		evict, err = resolveOverlaps(table, slots, userLectureID, req.IsForced)
		if err != nil {
			return nil, err
		}
		patch.Slots = &slots
	}

	err = s.repo.Timetable.Mutate(ctx, table, repository.TimetableMutation{
		Delete: evict,
		Patch:  []repository.LecturePatchOp{{UserLectureID: userLectureID, Patch: patch}},
	})
	if err != nil {
		return nil, s.logWriteError("修改课程失败", table, err)
	}
	return s.reload(ctx, userID, tableID)
}

// ResetLecture 丢弃本地修改，按当前目录数据重建条目（保留条目 ID，重新分配颜色）
func (s *timetableLectureService) ResetLecture(ctx context.Context, userID, tableID, userLectureID string) (*dto.TimetableResponse, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, err
	}

	target := table.FindLecture(userLectureID)
	if target == nil {
		return nil, ErrUserLectureNotFound
	}
	if target.IsCustom() {
		return nil, ErrIsCustomLecture
	}

	ref, err := s.repo.Lecture.GetByIdentity(ctx, table.Year, table.Semester, target.CourseNumber, target.LectureNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefLectureNotFound
		}
		s.logger.Error("查询目录课程失败",
			zap.String("course_number", target.CourseNumber),
			zap.String("lecture_number", target.LectureNumber),
			zap.Error(err),
		)
		return nil, err
	}

	fresh := model.FromLecture(ref, s.colors.Pick(usedColors(table)))
	fresh.UserLectureID = target.UserLectureID
	fresh.TimetableID = table.TimetableID
	fresh.CreatedAt = target.CreatedAt

	err = s.repo.Timetable.Mutate(ctx, table, repository.TimetableMutation{
		Replace: []model.UserLecture{fresh},
	})
	if err != nil {
		return nil, s.logWriteError("重置课程失败", table, err)
	}
	return s.reload(ctx, userID, tableID)
}

// ════════════════════════════════════════════════════════════
// 删除
// ════════════════════════════════════════════════════════════

func (s *timetableLectureService) RemoveLecture(ctx context.Context, userID, tableID, userLectureID string) (*dto.TimetableResponse, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, err
	}
	if table.FindLecture(userLectureID) == nil {
		return nil, ErrUserLectureNotFound
	}

	err = s.repo.Timetable.Mutate(ctx, table, repository.TimetableMutation{
		Delete: []string{userLectureID},
	})
	if err != nil {
		return nil, s.logWriteError("删除课程失败", table, err)
	}
	return s.reload(ctx, userID, tableID)
}

// RemoveLectureByCourseNumber 按课程标识删除（无匹配条目时只更新时间戳）
func (s *timetableLectureService) RemoveLectureByCourseNumber(ctx context.Context, userID, tableID, courseNumber, lectureNumber string) (*dto.TimetableResponse, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, err
	}

	err = s.repo.Timetable.Mutate(ctx, table, repository.TimetableMutation{
		Delete: lectureIDsByIdentity(table, courseNumber, lectureNumber),
	})
	if err != nil {
		return nil, s.logWriteError("删除课程失败", table, err)
	}
	return s.reload(ctx, userID, tableID)
}

// ── 辅助函数 ──

func lectureIDsByIdentity(table *model.Timetable, courseNumber, lectureNumber string) []string {
	var ids []string
	for i := range table.Lectures {
		l := &table.Lectures[i]
		if !l.IsCustom() && l.CourseNumber == courseNumber && l.LectureNumber == lectureNumber {
			ids = append(ids, l.UserLectureID)
		}
	}
	return ids
}

func (s *timetableLectureService) reload(ctx context.Context, userID, tableID string) (*dto.TimetableResponse, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, err
	}
	return dto.NewTimetableResponse(table), nil
}

// logWriteError 业务错误原样返回；其余错误记录日志
func (s *timetableLectureService) logWriteError(msg string, table *model.Timetable, err error) error {
	if isBusinessError(err) {
		return err
	}
	s.logger.Error(msg, zap.String("timetable_id", table.TimetableID), zap.Error(err))
	return err
}

var businessErrors = []error{
	ErrDuplicateLecture, ErrInvalidColor, ErrWrongSemester, ErrNoLectureTitle,
	timeplace.ErrLectureTimeOverlap, timeplace.ErrInvalidTimeJSON,
}

func isBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
