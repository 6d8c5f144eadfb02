package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"course-planner/internal/model"
	"course-planner/internal/timeplace"
)

// ErrSourceNotFound 指定学期没有可用的目录文件
var ErrSourceNotFound = errors.New("未找到学期目录文件")

// Line 目录源中的一行原始数据
type Line struct {
	Classification string
	Department     string
	AcademicYear   string
	CourseNumber   string
	LectureNumber  string
	CourseTitle    string
	Credit         int
	ClassTime      string
	Location       string
	RealTime       string
	Instructor     string
	Quota          int
	Enrollment     int
	Remark         string
	Category       string
}

// 文本格式的列顺序（分号分隔）
var textColumns = []string{
	"classification", "department", "academic_year", "course_number", "lecture_number",
	"course_title", "credit", "class_time", "location", "instructor", "quota",
	"enrollment", "remark", "category", "real_time",
}

// xlsx 表头别名
var headerAliases = map[string]string{
	"교과구분":     "classification",
	"개설학과":     "department",
	"학년":       "academic_year",
	"교과목번호":    "course_number",
	"강좌번호":     "lecture_number",
	"교과목명":     "course_title",
	"학점":       "credit",
	"수업교시":     "class_time",
	"강의실(동-호)": "location",
	"수업시간":     "real_time",
	"주담당교수":    "instructor",
	"정원":       "quota",
	"수강신청인원":   "enrollment",
	"비고":       "remark",
	"교양영역":     "category",
}

// 教养领域代码 → 名称
var categoryNames = map[string]string{
	"foundation_writing":   "사고와 표현",
	"foundation_language":  "외국어",
	"foundation_math":      "수량적 분석과 추론",
	"foundation_science":   "과학적 사고와 실험",
	"foundation_computer":  "컴퓨터와 정보 활용",
	"knowledge_literature": "언어와 문학",
	"knowledge_art":        "문화와 예술",
	"knowledge_history":    "역사와 철학",
	"knowledge_politics":   "정치와 경제",
	"knowledge_human":      "인간과 사회",
	"knowledge_nature":     "자연과 기술",
	"knowledge_life":       "생명과 환경",
	"general_physical":     "체육",
	"general_art":          "예술실기",
	"general_college":      "대학과 리더십",
	"general_creativity":   "창의와 융합",
	"general_korean":       "한국의 이해",
}

var categoryCode = regexp.MustCompile(`^[a-z_]+$`)

func normalizeCategory(raw string) string {
	if name, ok := categoryNames[raw]; ok {
		return name
	}
	if categoryCode.MatchString(raw) {
		return ""
	}
	return raw
}

// lineFromColumns 按列名填充一行；未知列忽略
func lineFromColumns(names, values []string) Line {
	var l Line
	for i, name := range names {
		if i >= len(values) {
			break
		}
		v := strings.TrimSpace(values[i])
		switch name {
		case "classification":
			l.Classification = v
		case "department":
			l.Department = strings.ReplaceAll(v, "null", "")
		case "academic_year":
			l.AcademicYear = v
		case "course_number":
			l.CourseNumber = v
		case "lecture_number":
			l.LectureNumber = v
		case "course_title":
			l.CourseTitle = v
		case "credit":
			l.Credit, _ = strconv.Atoi(v)
		case "class_time":
			l.ClassTime = v
		case "location":
			l.Location = v
		case "real_time":
			l.RealTime = v
		case "instructor":
			l.Instructor = v
		case "quota":
			l.Quota, _ = strconv.Atoi(v)
		case "enrollment":
			l.Enrollment, _ = strconv.Atoi(v)
		case "remark":
			l.Remark = v
		case "category":
			l.Category = normalizeCategory(v)
		}
	}
	return l
}

// ReadLines 读取分号分隔的文本目录；只有一列的行被跳过
func ReadLines(r io.Reader) ([]Line, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var lines []Line
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取目录文本失败: %w", err)
		}
		if len(record) <= 1 {
			continue
		}
		lines = append(lines, lineFromColumns(textColumns, record))
	}
	return lines, nil
}

// ReadXLSX 读取 xlsx 目录：第一个工作表，首行为表头
func ReadXLSX(r io.Reader) ([]Line, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开 xlsx 失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if alias, ok := headerAliases[h]; ok {
			h = alias
		}
		header[i] = strings.ToLower(h)
	}

	lines := make([]Line, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		lines = append(lines, lineFromColumns(header, row))
	}
	return lines, nil
}

// ParseLines 将原始行转换为目录记录并收集筛选标签。
// 时间地点无法解析时记录告警并按无时间处理，不中断整批导入。
func ParseLines(term Term, lines []Line, logger *zap.Logger) ([]model.Lecture, model.TagSet) {
	lectures := make([]model.Lecture, 0, len(lines))
	tags := newTagCollector()

	for _, line := range lines {
		tags.add(line)

		slots, err := timeplace.Parse(line.ClassTime, line.Location, line.RealTime)
		if err != nil {
			logger.Warn("时间地点解析失败，按无上课时间处理",
				zap.String("course_number", line.CourseNumber),
				zap.String("lecture_number", line.LectureNumber),
				zap.String("class_time", line.ClassTime),
				zap.String("location", line.Location),
				zap.Error(err),
			)
			slots = []timeplace.MeetingSlot{}
		}
		for _, s := range timeplace.OverflowingSlots(slots) {
			logger.Warn("上课时段超出掩码窗口",
				zap.String("course_number", line.CourseNumber),
				zap.String("lecture_number", line.LectureNumber),
				zap.Float64("ends_at", s.Start+s.Len),
			)
		}

		lec := model.Lecture{
			Year:           term.Year,
			Semester:       term.Semester,
			Classification: line.Classification,
			Department:     line.Department,
			AcademicYear:   line.AcademicYear,
			CourseNumber:   line.CourseNumber,
			LectureNumber:  line.LectureNumber,
			CourseTitle:    line.CourseTitle,
			Credit:         line.Credit,
			ClassTime:      line.ClassTime,
			Instructor:     line.Instructor,
			Quota:          line.Quota,
			Remark:         line.Remark,
			Category:       line.Category,
		}
		lec.SetSlots(slots)
		lectures = append(lectures, lec)
	}

	return lectures, tags.sorted()
}

// ── 标签收集 ──

type tagCollector struct {
	set  model.TagSet
	seen map[string]bool
}

func newTagCollector() *tagCollector {
	return &tagCollector{seen: make(map[string]bool)}
}

func (c *tagCollector) add(l Line) {
	c.put("classification", &c.set.Classification, l.Classification)
	c.put("department", &c.set.Department, l.Department)
	c.put("academic_year", &c.set.AcademicYear, l.AcademicYear)
	c.put("credit", &c.set.Credit, fmt.Sprintf("%d학점", l.Credit))
	c.put("instructor", &c.set.Instructor, l.Instructor)
	c.put("category", &c.set.Category, l.Category)
}

// 长度不足 2 个字符的值不作为标签
func (c *tagCollector) put(kind string, dst *[]string, v string) {
	if utf8.RuneCountInString(v) < 2 {
		return
	}
	key := kind + "\x00" + v
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	*dst = append(*dst, v)
}

func (c *tagCollector) sorted() model.TagSet {
	out := c.set
	for _, list := range []*[]string{
		&out.Classification, &out.Department, &out.AcademicYear,
		&out.Credit, &out.Instructor, &out.Category,
	} {
		if *list == nil {
			*list = []string{}
		}
		slices.Sort(*list)
	}
	return out
}

// ── 目录源 ──

// Source 按学期获取原始目录
type Source interface {
	Fetch(ctx context.Context, term Term) ([]Line, error)
}

// FileSource 从目录 <Dir>/<year>-<semester>.xlsx 或 .txt 读取
type FileSource struct {
	Dir string
}

// Fetch 优先读取 xlsx，其次 txt
func (s FileSource) Fetch(ctx context.Context, term Term) ([]Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Join(s.Dir, term.String())

	if f, err := os.Open(base + ".xlsx"); err == nil {
		defer f.Close()
		return ReadXLSX(f)
	}
	f, err := os.Open(base + ".txt")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, term)
		}
		return nil, err
	}
	defer f.Close()
	return ReadLines(f)
}
