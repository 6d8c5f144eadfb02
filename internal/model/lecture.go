package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"course-planner/internal/search"
	"course-planner/internal/timeplace"
)

// Lecture 课程目录中的一门课（某学期的权威数据），对应 lectures
//
// 唯一标识：(year, semester, course_number, lecture_number)。
// 每次目录刷新按学期整体替换，不做局部修改。
type Lecture struct {
	LectureID      string                                     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecture_id"`
	Year           int                                        `gorm:"not null"                                       json:"year"`
	Semester       int                                        `gorm:"not null"                                       json:"semester"`
	Classification string                                     `gorm:"type:varchar(20);not null;default:''"           json:"classification"`
	Department     string                                     `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	AcademicYear   string                                     `gorm:"type:varchar(20);not null;default:''"           json:"academic_year"`
	CourseNumber   string                                     `gorm:"type:varchar(30);not null"                      json:"course_number"`
	LectureNumber  string                                     `gorm:"type:varchar(10);not null"                      json:"lecture_number"`
	CourseTitle    string                                     `gorm:"type:varchar(200);not null"                     json:"course_title"`
	Credit         int                                        `gorm:"not null;default:0"                             json:"credit"`
	ClassTime      string                                     `gorm:"type:varchar(500);not null;default:''"          json:"class_time"`
	ClassTimeJSON  datatypes.JSONSlice[timeplace.MeetingSlot] `gorm:"type:jsonb;not null"                            json:"class_time_json"`
	ClassTimeMask  pq.Int64Array                              `gorm:"type:integer[];not null"                        json:"class_time_mask"`
	Instructor     string                                     `gorm:"type:varchar(200);not null;default:''"          json:"instructor"`
	Quota          int                                        `gorm:"not null;default:0"                             json:"quota"`
	Remark         string                                     `gorm:"type:text;not null;default:''"                  json:"remark"`
	Category       string                                     `gorm:"type:varchar(100);not null;default:''"          json:"category"`
	BaseModel
}

// TableName 指定表名
func (Lecture) TableName() string { return "lectures" }

// Slots 上课时段
func (l *Lecture) Slots() []timeplace.MeetingSlot { return []timeplace.MeetingSlot(l.ClassTimeJSON) }

// SetSlots 写入时段并同步掩码
func (l *Lecture) SetSlots(slots []timeplace.MeetingSlot) {
	l.ClassTimeJSON = datatypes.JSONSlice[timeplace.MeetingSlot](slots)
	l.ClassTimeMask = pq.Int64Array(timeplace.EncodeMask(slots).Int64s())
}

// TimeMask 实现 search.Record
func (l Lecture) TimeMask() timeplace.Mask { return timeplace.MaskFromInt64s(l.ClassTimeMask) }

// FieldValue 实现 search.Record
func (l Lecture) FieldValue(f search.Field) any {
	switch f {
	case search.FieldYear:
		return l.Year
	case search.FieldSemester:
		return l.Semester
	case search.FieldClassification:
		return l.Classification
	case search.FieldDepartment:
		return l.Department
	case search.FieldAcademicYear:
		return l.AcademicYear
	case search.FieldCourseNumber:
		return l.CourseNumber
	case search.FieldLectureNumber:
		return l.LectureNumber
	case search.FieldCourseTitle:
		return l.CourseTitle
	case search.FieldCredit:
		return l.Credit
	case search.FieldInstructor:
		return l.Instructor
	case search.FieldCategory:
		return l.Category
	case search.FieldRemark:
		return l.Remark
	}
	return nil
}
