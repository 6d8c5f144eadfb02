package dto

import (
	"time"

	"course-planner/internal/model"
)

// ── 请求 ──

// CreateTimetableRequest 创建时间表
type CreateTimetableRequest struct {
	Year     int    `json:"year"     binding:"required,min=1"`
	Semester int    `json:"semester" binding:"required,min=1,max=4"`
	Title    string `json:"title"    binding:"max=100"`
}

// RenameTimetableRequest 修改时间表标题
type RenameTimetableRequest struct {
	Title string `json:"title" binding:"max=100"`
}

// TimetableListRequest 列出时间表（学期可选）
type TimetableListRequest struct {
	Year     int `form:"year"     binding:"omitempty,min=1"`
	Semester int `form:"semester" binding:"omitempty,min=1,max=4"`
}

// ExportICSRequest 导出 iCalendar
type ExportICSRequest struct {
	TermStart string `form:"term_start" binding:"required,datetime=2006-01-02"`
	Weeks     int    `form:"weeks"      binding:"omitempty,min=1,max=30"`
}

// ── 响应 ──

// TimetableSummary 时间表列表项（不含条目）
type TimetableSummary struct {
	TimetableID string    `json:"timetable_id"`
	Year        int       `json:"year"`
	Semester    int       `json:"semester"`
	Title       string    `json:"title"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TimetableResponse 时间表详情
type TimetableResponse struct {
	TimetableID string              `json:"timetable_id"`
	Year        int                 `json:"year"`
	Semester    int                 `json:"semester"`
	Title       string              `json:"title"`
	LectureList []model.UserLecture `json:"lecture_list"`
	Version     int                 `json:"version"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewTimetableSummary 模型转列表项
func NewTimetableSummary(t *model.Timetable) TimetableSummary {
	return TimetableSummary{
		TimetableID: t.TimetableID,
		Year:        t.Year,
		Semester:    t.Semester,
		Title:       t.Title,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTimetableResponse 模型转详情
func NewTimetableResponse(t *model.Timetable) *TimetableResponse {
	lectures := t.Lectures
	if lectures == nil {
		lectures = []model.UserLecture{}
	}
	return &TimetableResponse{
		TimetableID: t.TimetableID,
		Year:        t.Year,
		Semester:    t.Semester,
		Title:       t.Title,
		LectureList: lectures,
		Version:     t.Version,
		UpdatedAt:   t.UpdatedAt,
	}
}
