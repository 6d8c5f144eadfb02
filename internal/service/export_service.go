package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/repository"
	"course-planner/internal/timeplace"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
	ErrInvalidTermStart   = errors.New("学期开始日期格式错误，应为 YYYY-MM-DD")
)

// ExportService 时间表导出接口
//
// 导出内容以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response。
type ExportService interface {
	// ExportXLSX 导出为 Excel 周视图：行为 08:00 起的半小时刻度，列为星期
	ExportXLSX(ctx context.Context, userID, tableID string) (*bytes.Buffer, string, error)
	// ExportICS 导出为 iCalendar：每个时段一个按周重复的 VEVENT
	ExportICS(ctx context.Context, userID, tableID string, req *dto.ExportICSRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var dayNames = []string{"월", "화", "수", "목", "금", "토", "일"}

// ═══════════════════════════════════════════════════════════
// ExportXLSX
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：| 时间 | 월 | 화 | … | 일 |
//   - 第 2~31 行：08:00 ~ 22:30 每半小时一行
//   - 课程占据的刻度合并为一个单元格，内容为 "课程名\n地点"，底色取课程颜色

func (s *exportService) ExportXLSX(ctx context.Context, userID, tableID string) (*bytes.Buffer, string, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "시간표"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, colName(1), colName(len(dayNames)), 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	f.SetCellValue(sheetName, cell("A", 1), "시간")
	for d, name := range dayNames {
		f.SetCellValue(sheetName, cell(colName(1+d), 1), name)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(dayNames)), 1), headerStyle)

	// 时间列
	for tick := 0; tick < timeplace.MaskTicks; tick++ {
		label := timeplace.MustParseTime("08:00").AddMinute(tick * 30).String()
		f.SetCellValue(sheetName, cell("A", tickRow(tick)), label)
	}

	// 课程块
	for i := range table.Lectures {
		l := &table.Lectures[i]
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{lectureFill(l)}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		})
		if err != nil {
			s.logger.Error("创建单元格样式失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		for _, slot := range l.Slots() {
			from, to, ok := slotTicks(slot)
			if !ok {
				continue
			}
			col := colName(1 + slot.Day)
			top, bottom := cell(col, tickRow(from)), cell(col, tickRow(to-1))
			text := l.CourseTitle
			if slot.Place != "" {
				text += "\n" + slot.Place
			}
			f.SetCellValue(sheetName, top, text)
			if to-from > 1 {
				f.MergeCell(sheetName, top, bottom)
			}
			f.SetCellStyle(sheetName, top, bottom, style)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("timetable_id", tableID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, exportFilename(table, "xlsx"), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func tickRow(tick int) int { return tick + 2 }

// slotTicks 时段在掩码窗口内占据的刻度 [from, to)
func slotTicks(slot timeplace.MeetingSlot) (int, int, bool) {
	if slot.Day < 0 || slot.Day >= len(dayNames) {
		return 0, 0, false
	}
	from := max(int(math.Round(slot.Start*2)), 0)
	to := min(int(math.Round((slot.Start+slot.Len)*2)), timeplace.MaskTicks)
	return from, to, from < to
}

// lectureFill 调色板颜色优先，其次自定义背景色
func lectureFill(l *model.UserLecture) string {
	if l.ColorIndex >= 1 && l.ColorIndex <= len(pastelPalette.colors) {
		return pastelPalette.colors[l.ColorIndex-1].BG
	}
	if l.Color.BG != "" {
		return l.Color.BG
	}
	return "#EEEEEE"
}

func exportFilename(table *model.Timetable, ext string) string {
	return fmt.Sprintf("%s_%d-%d.%s", table.Title, table.Year, table.Semester, ext)
}

// parseTermStart 解析学期第一天（本地日期，按 KST 处理）
func parseTermStart(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, icsZone)
	if err != nil {
		return time.Time{}, ErrInvalidTermStart
	}
	return t, nil
}
