package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"course-planner/internal/timeplace"
)

// 颜色相关常量
const (
	// MaxNumColor 调色板可用颜色数（索引 1..9）
	MaxNumColor = 9
	// CustomColor 索引 0 表示使用 Color 中的自定义颜色
	CustomColor = 0
)

// Timetable 用户时间表，对应 timetables
// 标题在 (user_id, year, semester) 范围内唯一
type Timetable struct {
	TimetableID string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_id"`
	UserID      string        `gorm:"type:varchar(64);not null;index"                json:"user_id"`
	Year        int           `gorm:"not null"                                       json:"year"`
	Semester    int           `gorm:"not null"                                       json:"semester"`
	Title       string        `gorm:"type:varchar(100);not null"                     json:"title"`
	Lectures    []UserLecture `gorm:"foreignKey:TimetableID;constraint:OnDelete:CASCADE" json:"lecture_list"`
	VersionedModel
}

// TableName 指定表名
func (Timetable) TableName() string { return "timetables" }

// FindLecture 按 ID 查找条目
func (t *Timetable) FindLecture(userLectureID string) *UserLecture {
	for i := range t.Lectures {
		if t.Lectures[i].UserLectureID == userLectureID {
			return &t.Lectures[i]
		}
	}
	return nil
}

// LectureColor 自定义前景/背景色（#RRGGBB）
type LectureColor struct {
	FG string `gorm:"type:varchar(7);not null;default:''" json:"fg,omitempty"`
	BG string `gorm:"type:varchar(7);not null;default:''" json:"bg,omitempty"`
}

// IsZero 未设置任何颜色
func (c LectureColor) IsZero() bool { return c.FG == "" && c.BG == "" }

// UserLecture 时间表中的一门课，对应 user_lectures
//
// 从目录添加时复制目录字段（之后可被用户修改而偏离目录）；
// 自定义课程没有 course_number/lecture_number。
type UserLecture struct {
	UserLectureID  string                                     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecture_id"`
	TimetableID    string                                     `gorm:"type:uuid;not null;index"                       json:"-"`
	RefLectureID   *string                                    `gorm:"type:uuid"                                      json:"ref_lecture_id,omitempty"`
	Classification string                                     `gorm:"type:varchar(20);not null;default:''"           json:"classification"`
	Department     string                                     `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	AcademicYear   string                                     `gorm:"type:varchar(20);not null;default:''"           json:"academic_year"`
	CourseNumber   string                                     `gorm:"type:varchar(30);not null;default:''"           json:"course_number,omitempty"`
	LectureNumber  string                                     `gorm:"type:varchar(10);not null;default:''"           json:"lecture_number,omitempty"`
	CourseTitle    string                                     `gorm:"type:varchar(200);not null"                     json:"course_title"`
	Credit         int                                        `gorm:"not null;default:0"                             json:"credit"`
	ClassTime      string                                     `gorm:"type:varchar(500);not null;default:''"          json:"class_time"`
	ClassTimeJSON  datatypes.JSONSlice[timeplace.MeetingSlot] `gorm:"type:jsonb;not null"                            json:"class_time_json"`
	ClassTimeMask  pq.Int64Array                              `gorm:"type:integer[];not null"                        json:"class_time_mask"`
	Instructor     string                                     `gorm:"type:varchar(200);not null;default:''"          json:"instructor"`
	Quota          int                                        `gorm:"not null;default:0"                             json:"quota"`
	Remark         string                                     `gorm:"type:text;not null;default:''"                  json:"remark"`
	Category       string                                     `gorm:"type:varchar(100);not null;default:''"          json:"category"`
	ColorIndex     int                                        `gorm:"not null;default:0"                             json:"colorIndex"`
	Color          LectureColor                               `gorm:"embedded;embeddedPrefix:color_"                 json:"color"`
	BaseModel
}

// TableName 指定表名
func (UserLecture) TableName() string { return "user_lectures" }

// IsCustom 没有课程号与班号的自定义课程
func (l *UserLecture) IsCustom() bool {
	return l.CourseNumber == "" && l.LectureNumber == ""
}

// SameIdentity 两门课的 (course_number, lecture_number) 相同；自定义课程永不相同
func (l *UserLecture) SameIdentity(other *UserLecture) bool {
	if l.IsCustom() || other.IsCustom() {
		return false
	}
	return l.CourseNumber == other.CourseNumber && l.LectureNumber == other.LectureNumber
}

// Slots 上课时段
func (l *UserLecture) Slots() []timeplace.MeetingSlot {
	return []timeplace.MeetingSlot(l.ClassTimeJSON)
}

// SetSlots 写入时段并同步掩码
func (l *UserLecture) SetSlots(slots []timeplace.MeetingSlot) {
	l.ClassTimeJSON = datatypes.JSONSlice[timeplace.MeetingSlot](slots)
	l.ClassTimeMask = pq.Int64Array(timeplace.EncodeMask(slots).Int64s())
}

// FromLecture 以目录课程为蓝本创建条目（值拷贝，之后不再自动同步）
func FromLecture(ref *Lecture, colorIndex int) UserLecture {
	id := ref.LectureID
	ul := UserLecture{
		RefLectureID:   &id,
		Classification: ref.Classification,
		Department:     ref.Department,
		AcademicYear:   ref.AcademicYear,
		CourseNumber:   ref.CourseNumber,
		LectureNumber:  ref.LectureNumber,
		CourseTitle:    ref.CourseTitle,
		Credit:         ref.Credit,
		ClassTime:      ref.ClassTime,
		Instructor:     ref.Instructor,
		Quota:          ref.Quota,
		Remark:         ref.Remark,
		Category:       ref.Category,
		ColorIndex:     colorIndex,
	}
	ul.SetSlots(append([]timeplace.MeetingSlot(nil), ref.Slots()...))
	return ul
}

// UserLecturePatch 条目的部分更新：nil 字段表示不修改
type UserLecturePatch struct {
	Classification *string
	Department     *string
	AcademicYear   *string
	CourseNumber   *string
	LectureNumber  *string
	CourseTitle    *string
	Credit         *int
	ClassTime      *string
	Slots          *[]timeplace.MeetingSlot
	Instructor     *string
	Quota          *int
	Remark         *string
	Category       *string
	ColorIndex     *int
	Color          *LectureColor
}

// Apply 将补丁合并到条目
func (p *UserLecturePatch) Apply(l *UserLecture) {
	setIf(&l.Classification, p.Classification)
	setIf(&l.Department, p.Department)
	setIf(&l.AcademicYear, p.AcademicYear)
	setIf(&l.CourseNumber, p.CourseNumber)
	setIf(&l.LectureNumber, p.LectureNumber)
	setIf(&l.CourseTitle, p.CourseTitle)
	setIf(&l.Credit, p.Credit)
	setIf(&l.ClassTime, p.ClassTime)
	setIf(&l.Instructor, p.Instructor)
	setIf(&l.Quota, p.Quota)
	setIf(&l.Remark, p.Remark)
	setIf(&l.Category, p.Category)
	setIf(&l.ColorIndex, p.ColorIndex)
	setIf(&l.Color, p.Color)
	if p.Slots != nil {
		l.SetSlots(*p.Slots)
	}
}

// Columns 返回需要更新的列（供 gorm Updates 使用）
func (p *UserLecturePatch) Columns() map[string]any {
	cols := make(map[string]any)
	putIf(cols, "classification", p.Classification)
	putIf(cols, "department", p.Department)
	putIf(cols, "academic_year", p.AcademicYear)
	putIf(cols, "course_number", p.CourseNumber)
	putIf(cols, "lecture_number", p.LectureNumber)
	putIf(cols, "course_title", p.CourseTitle)
	putIf(cols, "credit", p.Credit)
	putIf(cols, "class_time", p.ClassTime)
	putIf(cols, "instructor", p.Instructor)
	putIf(cols, "quota", p.Quota)
	putIf(cols, "remark", p.Remark)
	putIf(cols, "category", p.Category)
	putIf(cols, "color_index", p.ColorIndex)
	if p.Color != nil {
		cols["color_fg"] = p.Color.FG
		cols["color_bg"] = p.Color.BG
	}
	if p.Slots != nil {
		var tmp UserLecture
		tmp.SetSlots(*p.Slots)
		cols["class_time_json"] = tmp.ClassTimeJSON
		cols["class_time_mask"] = tmp.ClassTimeMask
	}
	return cols
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func putIf[T any](cols map[string]any, name string, v *T) {
	if v != nil {
		cols[name] = *v
	}
}
