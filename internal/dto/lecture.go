package dto

import (
	"course-planner/internal/model"
	"course-planner/internal/timeplace"
)

// ── 时段 ──

// SlotRequest 用户提交的上课时段：节次（start/len）与时刻（start_time/end_time）至少给出一种
type SlotRequest struct {
	Day       *int     `json:"day"        binding:"required,min=0,max=6"`
	Start     *float64 `json:"start"      binding:"omitempty,min=0"`
	Len       *float64 `json:"len"        binding:"omitempty,gt=0"`
	Place     string   `json:"place"      binding:"omitempty,max=200"`
	StartTime *string  `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string  `json:"end_time"   binding:"omitempty,hhmm"`
}

// Draft 转为待推导的时段
func (r SlotRequest) Draft() timeplace.SlotDraft {
	return timeplace.SlotDraft{
		Day:       r.Day,
		Start:     r.Start,
		Len:       r.Len,
		Place:     r.Place,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

// ColorRequest 自定义颜色（#RRGGBB）
type ColorRequest struct {
	FG string `json:"fg" binding:"omitempty,hexcolor6"`
	BG string `json:"bg" binding:"omitempty,hexcolor6"`
}

// Model 转为模型
func (r *ColorRequest) Model() *model.LectureColor {
	if r == nil {
		return nil
	}
	return &model.LectureColor{FG: r.FG, BG: r.BG}
}

// ── 自定义课程 ──

// CustomLectureRequest 添加自定义课程
// course_number/lecture_number 只用于拒绝伪装成自定义课程的目录课程
type CustomLectureRequest struct {
	CourseTitle    string        `json:"course_title"   binding:"max=200"`
	Instructor     string        `json:"instructor"     binding:"max=200"`
	Classification string        `json:"classification" binding:"max=20"`
	Department     string        `json:"department"     binding:"max=100"`
	AcademicYear   string        `json:"academic_year"  binding:"max=20"`
	Category       string        `json:"category"       binding:"max=100"`
	Remark         string        `json:"remark"`
	Credit         int           `json:"credit"         binding:"min=0"`
	ClassTime      string        `json:"class_time"     binding:"max=500"`
	ClassTimeJSON  []SlotRequest `json:"class_time_json" binding:"dive"`
	ColorIndex     *int          `json:"colorIndex"     binding:"omitempty,min=0"`
	Color          *ColorRequest `json:"color"`
	CourseNumber   string        `json:"course_number"`
	LectureNumber  string        `json:"lecture_number"`
	IsForced       bool          `json:"is_forced"`
}

// ── 部分修改 ──

// ModifyLectureRequest 部分修改时间表中的课程；nil 字段不修改
type ModifyLectureRequest struct {
	CourseTitle    *string        `json:"course_title"   binding:"omitempty,max=200"`
	Instructor     *string        `json:"instructor"     binding:"omitempty,max=200"`
	Classification *string        `json:"classification" binding:"omitempty,max=20"`
	Department     *string        `json:"department"     binding:"omitempty,max=100"`
	AcademicYear   *string        `json:"academic_year"  binding:"omitempty,max=20"`
	Category       *string        `json:"category"       binding:"omitempty,max=100"`
	Remark         *string        `json:"remark"`
	Credit         *int           `json:"credit"         binding:"omitempty,min=0"`
	Quota          *int           `json:"quota"          binding:"omitempty,min=0"`
	ClassTime      *string        `json:"class_time"     binding:"omitempty,max=500"`
	ClassTimeJSON  *[]SlotRequest `json:"class_time_json" binding:"omitempty,dive"`
	ColorIndex     *int           `json:"colorIndex"     binding:"omitempty,min=0"`
	Color          *ColorRequest  `json:"color"`
	CourseNumber   *string        `json:"course_number"`
	LectureNumber  *string        `json:"lecture_number"`
	IsForced       bool           `json:"is_forced"`
}

// AddRefLectureQuery 添加目录课程的查询参数
type AddRefLectureQuery struct {
	IsForced bool `form:"is_forced"`
}

// RemoveByCourseNumberQuery 按课程号/班号删除
type RemoveByCourseNumberQuery struct {
	CourseNumber  string `form:"course_number"  binding:"required"`
	LectureNumber string `form:"lecture_number" binding:"required"`
}
