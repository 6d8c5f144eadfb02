// Package search 课程目录检索：把结构化查询翻译为与存储无关的谓词树。
package search

import (
	"fmt"
	"regexp"
	"sync"

	"course-planner/internal/timeplace"
)

// Field 可检索的课程字段（与 lectures 表列名一致）
type Field string

const (
	FieldYear           Field = "year"
	FieldSemester       Field = "semester"
	FieldClassification Field = "classification"
	FieldDepartment     Field = "department"
	FieldAcademicYear   Field = "academic_year"
	FieldCourseNumber   Field = "course_number"
	FieldLectureNumber  Field = "lecture_number"
	FieldCourseTitle    Field = "course_title"
	FieldCredit         Field = "credit"
	FieldInstructor     Field = "instructor"
	FieldCategory       Field = "category"
	FieldRemark         Field = "remark"
)

// Valid 字段白名单，供 SQL 翻译时校验
func (f Field) Valid() bool {
	switch f {
	case FieldYear, FieldSemester, FieldClassification, FieldDepartment, FieldAcademicYear,
		FieldCourseNumber, FieldLectureNumber, FieldCourseTitle, FieldCredit,
		FieldInstructor, FieldCategory, FieldRemark:
		return true
	}
	return false
}

// Predicate 谓词树节点
type Predicate interface {
	predicate()
}

// Eq 字段精确相等
type Eq struct {
	Field Field
	Value any
}

// In 字段值属于集合
type In struct {
	Field  Field
	Values []any
}

// NotIn 字段值不属于集合
type NotIn struct {
	Field  Field
	Values []any
}

// Regex 大小写不敏感的正则匹配
type Regex struct {
	Field   Field
	Pattern string
}

// And 所有子谓词成立；空 And 恒真
type And []Predicate

// Or 任一子谓词成立；空 Or 恒假
type Or []Predicate

// MaskNonEmpty 课程至少有一个占用刻度
type MaskNonEmpty struct{}

// MaskFits 课程有占用刻度，且全部落在 Free 的空闲刻度内
type MaskFits struct {
	Free timeplace.Mask
}

func (Eq) predicate()           {}
func (In) predicate()           {}
func (NotIn) predicate()        {}
func (Regex) predicate()        {}
func (And) predicate()          {}
func (Or) predicate()           {}
func (MaskNonEmpty) predicate() {}
func (MaskFits) predicate()     {}

// Record 可被内存求值的课程记录
type Record interface {
	FieldValue(f Field) any
	TimeMask() timeplace.Mask
}

// Match 在内存中对单条记录求值（与 SQL 翻译语义一致）
func Match(p Predicate, r Record) bool {
	switch n := p.(type) {
	case Eq:
		return sameValue(r.FieldValue(n.Field), n.Value)
	case In:
		return containsValue(n.Values, r.FieldValue(n.Field))
	case NotIn:
		return !containsValue(n.Values, r.FieldValue(n.Field))
	case Regex:
		re, err := compileCached(n.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(fmt.Sprint(r.FieldValue(n.Field)))
	case And:
		for _, c := range n {
			if !Match(c, r) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range n {
			if Match(c, r) {
				return true
			}
		}
		return false
	case MaskNonEmpty:
		return !r.TimeMask().IsEmpty()
	case MaskFits:
		m := r.TimeMask()
		return !m.IsEmpty() && m.FitsWithin(n.Free)
	}
	return false
}

func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func containsValue(set []any, v any) bool {
	for _, s := range set {
		if sameValue(s, v) {
			return true
		}
	}
	return false
}

var regexCache sync.Map // pattern → *regexp.Regexp

func compileCached(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}
