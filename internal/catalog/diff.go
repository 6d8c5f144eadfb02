// Package catalog 课程目录的加载、学期推断与新旧快照比对。
package catalog

import (
	"course-planner/internal/model"
	"course-planner/internal/timeplace"
)

// LectureIdent 学期内课程的唯一标识
type LectureIdent struct {
	CourseNumber  string `json:"course_number"`
	LectureNumber string `json:"lecture_number"`
	CourseTitle   string `json:"course_title"`
}

// Change 字段变更前后的值
type Change[T any] struct {
	Before T `json:"before"`
	After  T `json:"after"`
}

// LecturePatch 字段级变更；nil 表示该字段未变
type LecturePatch struct {
	Classification *Change[string]                  `json:"classification,omitempty"`
	Department     *Change[string]                  `json:"department,omitempty"`
	AcademicYear   *Change[string]                  `json:"academic_year,omitempty"`
	CourseTitle    *Change[string]                  `json:"course_title,omitempty"`
	Credit         *Change[int]                     `json:"credit,omitempty"`
	ClassTime      *Change[string]                  `json:"class_time,omitempty"`
	Slots          *Change[[]timeplace.MeetingSlot] `json:"class_time_json,omitempty"`
	Instructor     *Change[string]                  `json:"instructor,omitempty"`
	Quota          *Change[int]                     `json:"quota,omitempty"`
	Remark         *Change[string]                  `json:"remark,omitempty"`
	Category       *Change[string]                  `json:"category,omitempty"`
}

// IsEmpty 没有任何字段变化
func (p *LecturePatch) IsEmpty() bool {
	return p.Classification == nil && p.Department == nil && p.AcademicYear == nil &&
		p.CourseTitle == nil && p.Credit == nil && p.ClassTime == nil && p.Slots == nil &&
		p.Instructor == nil && p.Quota == nil && p.Remark == nil && p.Category == nil
}

// UserLecturePatch 转为作用于用户时间表条目的补丁（取变更后的值）
func (p *LecturePatch) UserLecturePatch() model.UserLecturePatch {
	var out model.UserLecturePatch
	out.Classification = after(p.Classification)
	out.Department = after(p.Department)
	out.AcademicYear = after(p.AcademicYear)
	out.CourseTitle = after(p.CourseTitle)
	out.Credit = after(p.Credit)
	out.ClassTime = after(p.ClassTime)
	out.Slots = after(p.Slots)
	out.Instructor = after(p.Instructor)
	out.Quota = after(p.Quota)
	out.Remark = after(p.Remark)
	out.Category = after(p.Category)
	return out
}

func after[T any](c *Change[T]) *T {
	if c == nil {
		return nil
	}
	v := c.After
	return &v
}

func diffField[T comparable](before, afterV T) *Change[T] {
	if before == afterV {
		return nil
	}
	return &Change[T]{Before: before, After: afterV}
}

// ComparePatch 计算两条目录记录的字段级差异
func ComparePatch(old, cur *model.Lecture) LecturePatch {
	p := LecturePatch{
		Classification: diffField(old.Classification, cur.Classification),
		Department:     diffField(old.Department, cur.Department),
		AcademicYear:   diffField(old.AcademicYear, cur.AcademicYear),
		CourseTitle:    diffField(old.CourseTitle, cur.CourseTitle),
		Credit:         diffField(old.Credit, cur.Credit),
		ClassTime:      diffField(old.ClassTime, cur.ClassTime),
		Instructor:     diffField(old.Instructor, cur.Instructor),
		Quota:          diffField(old.Quota, cur.Quota),
		Remark:         diffField(old.Remark, cur.Remark),
		Category:       diffField(old.Category, cur.Category),
	}
	if !timeplace.EqualSlots(old.Slots(), cur.Slots()) {
		p.Slots = &Change[[]timeplace.MeetingSlot]{Before: old.Slots(), After: cur.Slots()}
	}
	return p
}

// UpdatedLecture 新旧目录中都存在的课程
type UpdatedLecture struct {
	LectureIdent
	Patch LecturePatch `json:"patch"`
}

// LectureDiff 一次目录刷新的三路差异
type LectureDiff struct {
	Created []LectureIdent   `json:"created"`
	Removed []LectureIdent   `json:"removed"`
	Updated []UpdatedLecture `json:"updated"`
}

// IsEmpty 三个列表均为空
func (d *LectureDiff) IsEmpty() bool {
	return len(d.Created) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

// ChangedCount 字段确有变化的更新数
func (d *LectureDiff) ChangedCount() int {
	n := 0
	for i := range d.Updated {
		if !d.Updated[i].Patch.IsEmpty() {
			n++
		}
	}
	return n
}

func identOf(l *model.Lecture) LectureIdent {
	return LectureIdent{CourseNumber: l.CourseNumber, LectureNumber: l.LectureNumber, CourseTitle: l.CourseTitle}
}

// Compare 比对同一学期的新旧目录
//
// 每条新记录线性扫描旧记录，取第一条未被占用且 (course_number, lecture_number)
// 相同的记录作为匹配：匹配即记为 updated（补丁可能为空，标识取旧记录），否则记为 created；
// 最终未被占用的旧记录记为 removed。
func Compare(old, cur []model.Lecture) LectureDiff {
	diff := LectureDiff{
		Created: []LectureIdent{},
		Removed: []LectureIdent{},
		Updated: []UpdatedLecture{},
	}
	consumed := make([]bool, len(old))

	for i := range cur {
		matched := false
		for j := range old {
			if consumed[j] ||
				old[j].CourseNumber != cur[i].CourseNumber ||
				old[j].LectureNumber != cur[i].LectureNumber {
				continue
			}
			consumed[j] = true
			matched = true
			diff.Updated = append(diff.Updated, UpdatedLecture{
				LectureIdent: identOf(&old[j]),
				Patch:        ComparePatch(&old[j], &cur[i]),
			})
			break
		}
		if !matched {
			diff.Created = append(diff.Created, identOf(&cur[i]))
		}
	}

	for j := range old {
		if !consumed[j] {
			diff.Removed = append(diff.Removed, identOf(&old[j]))
		}
	}
	return diff
}
