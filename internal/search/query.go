package search

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"course-planner/internal/timeplace"
)

// ErrInvalidTimemask time_mask 必须恰好 7 个元素
var ErrInvalidTimemask = errors.New("time_mask 长度必须为 7")

// DefaultLimit 未指定 limit 时的分页大小
const DefaultLimit = 20

var (
	majorClassifications = []any{"전선", "전필"}
	graduateYears        = []any{"석사", "박사", "석박사통합"}
	creditToken          = regexp.MustCompile(`^(\d+)학점$`)
)

// 附加标签 → 备注中的标记字符
var etcTagMarks = map[string]string{
	"E":  "ⓔ",
	"MO": "ⓜⓞ",
}

// Query 课程检索请求
type Query struct {
	Year           int      `json:"year"`
	Semester       int      `json:"semester"`
	Title          string   `json:"title"`
	Classification []string `json:"classification"`
	Credit         []int    `json:"credit"`
	CourseNumber   []string `json:"course_number"`
	AcademicYear   []string `json:"academic_year"`
	Instructor     []string `json:"instructor"`
	Department     []string `json:"department"`
	Category       []string `json:"category"`
	Etc            []string `json:"etc"`
	TimeMask       []int64  `json:"time_mask"`
	Offset         int      `json:"offset"`
	Limit          int      `json:"limit"`
}

// Page 归一化分页参数；maxLimit <= 0 表示不设上限
func (q Query) Page(maxLimit int) (offset, limit int) {
	offset, limit = q.Offset, q.Limit
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit
}

// Build 将查询翻译为谓词树
func Build(q Query) (Predicate, error) {
	and := And{}
	if q.Year != 0 {
		and = append(and, Eq{FieldYear, q.Year})
	}
	if q.Semester != 0 {
		and = append(and, Eq{FieldSemester, q.Semester})
	}

	and = appendIn(and, FieldClassification, q.Classification)
	and = appendIn(and, FieldDepartment, q.Department)
	and = appendIn(and, FieldAcademicYear, q.AcademicYear)
	and = appendIn(and, FieldInstructor, q.Instructor)
	and = appendIn(and, FieldCourseNumber, q.CourseNumber)
	and = appendIn(and, FieldCategory, q.Category)
	if len(q.Credit) > 0 {
		vals := make([]any, len(q.Credit))
		for i, c := range q.Credit {
			vals[i] = c
		}
		and = append(and, In{FieldCredit, vals})
	}

	if q.TimeMask != nil {
		p, err := timeMaskPredicate(q.TimeMask)
		if err != nil {
			return nil, err
		}
		and = append(and, p)
	}

	for _, tag := range q.Etc {
		if mark, ok := etcTagMarks[tag]; ok {
			and = append(and, Regex{FieldRemark, regexp.QuoteMeta(mark)})
		}
	}

	if title := norm.NFC.String(strings.TrimSpace(q.Title)); title != "" {
		and = append(and, TitlePredicate(title))
	}
	return and, nil
}

// UnknownEtcTags 返回无法识别的附加标签
func UnknownEtcTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if _, ok := etcTagMarks[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func appendIn(and And, f Field, values []string) And {
	if len(values) == 0 {
		return and
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return append(and, In{f, vals})
}

// 全 0 掩码视为未选择空闲时间，只排除无时间信息的课程
func timeMaskPredicate(raw []int64) (Predicate, error) {
	if len(raw) != len(timeplace.Mask{}) {
		return nil, ErrInvalidTimemask
	}
	free := timeplace.MaskFromInt64s(raw)
	if free.IsEmpty() {
		return MaskNonEmpty{}, nil
	}
	return MaskFits{Free: free}, nil
}

// ── 标题分词 ──

// TokenKind 标题关键词的分类
type TokenKind int

const (
	TokenMajor TokenKind = iota
	TokenGraduate
	TokenUndergraduate
	TokenCredit
	TokenHangul
	TokenLatin
)

// Classify 按优先级判定关键词类别
func Classify(word string) TokenKind {
	switch {
	case word == "전공":
		return TokenMajor
	case word == "석박" || word == "대학원":
		return TokenGraduate
	case word == "학부" || word == "학사":
		return TokenUndergraduate
	case creditToken.MatchString(word):
		return TokenCredit
	case containsHangul(word):
		return TokenHangul
	}
	return TokenLatin
}

// TitlePredicate 整体标题模糊匹配 OR（各关键词 OR 组的 AND）
func TitlePredicate(title string) Predicate {
	words := strings.Fields(title)
	tokens := make(And, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, tokenGroup(w))
	}
	return Or{
		Regex{FieldCourseTitle, Like(title)},
		tokens,
	}
}

func tokenGroup(word string) Or {
	switch Classify(word) {
	case TokenMajor:
		return Or{In{FieldClassification, majorClassifications}}
	case TokenGraduate:
		return Or{In{FieldAcademicYear, graduateYears}}
	case TokenUndergraduate:
		return Or{NotIn{FieldAcademicYear, graduateYears}}
	case TokenCredit:
		n, _ := strconv.Atoi(creditToken.FindStringSubmatch(word)[1])
		return Or{Eq{FieldCredit, n}}
	case TokenHangul:
		pattern := Like(word)
		dept := word
		if strings.HasSuffix(dept, "과") || strings.HasSuffix(dept, "부") {
			_, size := utf8.DecodeLastRuneInString(dept)
			dept = dept[:len(dept)-size]
		}
		return Or{
			Regex{FieldCourseTitle, pattern},
			Eq{FieldInstructor, word},
			Regex{FieldCategory, pattern},
			Regex{FieldDepartment, "^" + Like(dept)},
			Eq{FieldClassification, word},
			Eq{FieldAcademicYear, word},
		}
	}
	pattern := Like(word)
	return Or{
		Regex{FieldCourseTitle, pattern},
		Regex{FieldInstructor, pattern},
		Eq{FieldCourseNumber, word},
		Eq{FieldLectureNumber, word},
	}
}

// Like 近似 SQL LIKE：字符按顺序出现，中间可夹杂除括号外的任意字符
func Like(s string) string {
	runes := []rune(s)
	parts := make([]string, len(runes))
	for i, r := range runes {
		parts[i] = regexp.QuoteMeta(string(r))
	}
	return strings.Join(parts, "[^()]*")
}

func containsHangul(s string) bool {
	for _, r := range s {
		if (r >= 0x1100 && r <= 0x11FF) || (r >= 0x3130 && r <= 0x318F) || (r >= 0xAC00 && r <= 0xD7A3) {
			return true
		}
	}
	return false
}
