package timeplace

import (
	"errors"
	"math"
)

const (
	// BaseHour 节次原点（第 0 节 = 08:00）
	BaseHour = 8
	// LatestEnd 最晚下课时间 23:55
	LatestEnd Time = 23*60 + 55
	// MinDuration 单个时段最短分钟数
	MinDuration = 5
)

// ErrInvalidTimeJSON 时段数据不完整或不合法
var ErrInvalidTimeJSON = errors.New("上课时间数据不合法")

// MeetingSlot 每周一次的连续上课时段
type MeetingSlot struct {
	Day       int     `json:"day"`
	Start     float64 `json:"start"`
	Len       float64 `json:"len"`
	Place     string  `json:"place"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
}

// Minutes 返回时段的 [start, end) 分钟区间
func (s MeetingSlot) Minutes() (Time, Time, error) {
	start, err := ParseTime(s.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTime(s.EndTime)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// EqualSlots 顺序敏感地比较两组时段的 day/start/len/place
func EqualSlots(a, b []MeetingSlot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Day != b[i].Day || a[i].Start != b[i].Start ||
			a[i].Len != b[i].Len || a[i].Place != b[i].Place {
			return false
		}
	}
	return true
}

// SlotDraft 用户提交的自定义时段，节次与时刻两种表示至少给出一种
type SlotDraft struct {
	Day       *int     `json:"day"`
	Start     *float64 `json:"start"`
	Len       *float64 `json:"len"`
	Place     string   `json:"place"`
	StartTime *string  `json:"start_time"`
	EndTime   *string  `json:"end_time"`
}

// Incomplete 起点与终点均缺少任何一种表示
func (d SlotDraft) Incomplete() bool {
	return d.Day == nil ||
		(d.StartTime == nil && d.Start == nil) ||
		(d.EndTime == nil && d.Len == nil)
}

// Resolve 由已有表示推导出缺失的表示
//
//	start_time = 08:00 + start 小时；end_time = start_time + len 小时
//	len   = ceil((end-start)/30分) / 2
//	start = floor((start_time-08:00)/30分) / 2
func (d SlotDraft) Resolve() (MeetingSlot, error) {
	if d.Incomplete() {
		return MeetingSlot{}, ErrInvalidTimeJSON
	}
	for _, f := range []*float64{d.Start, d.Len} {
		if f != nil && (math.IsNaN(*f) || math.IsInf(*f, 0)) {
			return MeetingSlot{}, ErrInvalidTimeJSON
		}
	}

	var start Time
	if d.StartTime != nil {
		t, err := ParseTime(*d.StartTime)
		if err != nil {
			return MeetingSlot{}, ErrInvalidTimeJSON
		}
		start = t
	} else {
		start = periodToTime(*d.Start)
	}

	var end Time
	if d.EndTime != nil {
		t, err := ParseTime(*d.EndTime)
		if err != nil {
			return MeetingSlot{}, ErrInvalidTimeJSON
		}
		end = t
	} else {
		end = start + Time(math.Round(*d.Len*60))
	}

	slot := MeetingSlot{
		Day:       *d.Day,
		Place:     d.Place,
		StartTime: start.String(),
		EndTime:   end.String(),
	}
	if d.Len != nil && *d.Len != 0 {
		slot.Len = *d.Len
	} else {
		slot.Len = math.Ceil(float64(end.Sub(start))/30) / 2
	}
	// start 为 0 且给出了 start_time 时，以时钟时间为准
	if d.Start != nil && (*d.Start != 0 || d.StartTime == nil) {
		slot.Start = *d.Start
	} else {
		slot.Start = math.Floor(float64(start.SubtractHour(BaseHour))/30) / 2
	}
	return slot, nil
}

// WithClockTimes 补全缺失的 start_time/end_time（按节次推导）
func (s MeetingSlot) WithClockTimes() MeetingSlot {
	if s.StartTime == "" {
		s.StartTime = periodToTime(s.Start).String()
	}
	if s.EndTime == "" {
		s.EndTime = periodToTime(s.Start + s.Len).String()
	}
	return s
}

func periodToTime(period float64) Time {
	return Time(math.Round((period + BaseHour) * 60))
}
