package timeplace

import (
	"errors"
	"math"
)

// ErrLectureTimeOverlap 时段冲突
var ErrLectureTimeOverlap = errors.New("课程时间冲突")

// OverlapError 与时间表中已有课程冲突，携带可供用户确认强制覆盖的提示
type OverlapError struct {
	ConfirmMessage string
}

func (e *OverlapError) Error() string { return ErrLectureTimeOverlap.Error() }

// Is 使 errors.Is(err, ErrLectureTimeOverlap) 成立
func (e *OverlapError) Is(target error) bool { return target == ErrLectureTimeOverlap }

// TimesOverlap 同一天且分钟区间相交（半开区间，端点相接不算冲突）
func TimesOverlap(a, b MeetingSlot) bool {
	if a.Day != b.Day {
		return false
	}
	aStart, aEnd, err := a.WithClockTimes().Minutes()
	if err != nil {
		return false
	}
	bStart, bEnd, err := b.WithClockTimes().Minutes()
	if err != nil {
		return false
	}
	return aStart < bEnd && aEnd > bStart
}

// SlotsOverlap 两组时段中存在任意一对冲突
func SlotsOverlap(a, b []MeetingSlot) bool {
	for _, x := range a {
		for _, y := range b {
			if TimesOverlap(x, y) {
				return true
			}
		}
	}
	return false
}

// ValidateSlot 校验单个时段：结束晚于开始至少 5 分钟，且不晚于 23:55
func ValidateSlot(s MeetingSlot) error {
	if s.Day < 0 || s.Day > 6 ||
		math.IsNaN(s.Start) || math.IsInf(s.Start, 0) ||
		math.IsNaN(s.Len) || math.IsInf(s.Len, 0) || s.Len <= 0 {
		return ErrInvalidTimeJSON
	}
	start, end, err := s.Minutes()
	if err != nil {
		return ErrInvalidTimeJSON
	}
	if end.Sub(start) < MinDuration || end > LatestEnd {
		return ErrInvalidTimeJSON
	}
	return nil
}

// ValidateSlots 逐个校验时段，并要求同一课程的时段之间互不冲突。
// 自身冲突直接返回 ErrLectureTimeOverlap，不提供强制覆盖。
func ValidateSlots(slots []MeetingSlot) error {
	for _, s := range slots {
		if err := ValidateSlot(s); err != nil {
			return err
		}
	}
	for i := range slots {
		for j := i + 1; j < len(slots); j++ {
			if TimesOverlap(slots[i], slots[j]) {
				return ErrLectureTimeOverlap
			}
		}
	}
	return nil
}
