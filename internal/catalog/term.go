package catalog

import (
	"fmt"
	"time"
)

// 学期编号：1 春季、2 夏季、3 秋季、4 冬季
const (
	SemesterSpring = 1
	SemesterSummer = 2
	SemesterFall   = 3
	SemesterWinter = 4
)

// Term 学年 + 学期
type Term struct {
	Year     int `json:"year"`
	Semester int `json:"semester"`
}

func (t Term) String() string { return fmt.Sprintf("%d-%d", t.Year, t.Semester) }

// Valid 学期编号在 1..4 之间
func (t Term) Valid() bool {
	return t.Year > 0 && t.Semester >= SemesterSpring && t.Semester <= SemesterWinter
}

// Next 下一个学期（冬季之后进入次年春季）
func (t Term) Next() Term {
	if t.Semester >= SemesterWinter {
		return Term{Year: t.Year + 1, Semester: SemesterSpring}
	}
	return Term{Year: t.Year, Semester: t.Semester + 1}
}

// SemesterName 面向用户的学期名称
func SemesterName(semester int) string {
	switch semester {
	case SemesterSpring:
		return "1"
	case SemesterSummer:
		return "여름"
	case SemesterFall:
		return "2"
	case SemesterWinter:
		return "겨울"
	}
	return fmt.Sprint(semester)
}

// InferTerm 尚无任何目录时按日期推断当前学期：
// 1-3 月冬季、4-7 月春季、8-9 月夏季、10-12 月秋季
func InferTerm(now time.Time) Term {
	var semester int
	switch m := now.Month(); {
	case m <= time.March:
		semester = SemesterWinter
	case m <= time.July:
		semester = SemesterSpring
	case m <= time.September:
		semester = SemesterSummer
	default:
		semester = SemesterFall
	}
	return Term{Year: now.Year(), Semester: semester}
}

// UpdateCandidates 需要刷新的学期：最近一次目录及其下一学期；
// recent 为 nil 时按日期推断
func UpdateCandidates(recent *Term, now time.Time) []Term {
	if recent == nil {
		return []Term{InferTerm(now)}
	}
	return []Term{*recent, recent.Next()}
}
