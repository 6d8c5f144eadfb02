package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/timeplace"
)

// ── ICS 导出 ──────────────────────────────────────────────
//
// 每个上课时段生成一个 VEVENT：
//   - DTSTART 为学期开始日当周或之后第一个对应星期的上课时刻
//   - RRULE:FREQ=WEEKLY;COUNT=<weeks>
//   - UID 为 "<user_lecture_id>-<slot 序号>@course-planner"，重复导出保持稳定
// ─────────────────────────────────────────────────────────────

const defaultTermWeeks = 16

var icsZone = time.FixedZone("KST", 9*60*60)

func (s *exportService) ExportICS(ctx context.Context, userID, tableID string, req *dto.ExportICSRequest) (*bytes.Buffer, string, error) {
	table, err := loadTimetable(ctx, s.repo, s.logger, userID, tableID)
	if err != nil {
		return nil, "", err
	}
	termStart, err := parseTermStart(req.TermStart)
	if err != nil {
		return nil, "", err
	}
	weeks := req.Weeks
	if weeks <= 0 {
		weeks = defaultTermWeeks
	}

	cal := BuildCalendar(table, termStart, weeks, time.Now())
	buf := bytes.NewBufferString(cal.Serialize())
	return buf, exportFilename(table, "ics"), nil
}

// BuildCalendar 将时间表转为 iCalendar
func BuildCalendar(table *model.Timetable, termStart time.Time, weeks int, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//course-planner//timetable//KO")
	cal.SetName(table.Title)

	for i := range table.Lectures {
		l := &table.Lectures[i]
		for n, slot := range l.Slots() {
			start, end, ok := slotOccurrence(slot, termStart)
			if !ok {
				continue
			}
			event := cal.AddEvent(fmt.Sprintf("%s-%d@course-planner", l.UserLectureID, n))
			event.SetDtStampTime(now)
			event.SetStartAt(start)
			event.SetEndAt(end)
			event.SetSummary(l.CourseTitle)
			if slot.Place != "" {
				event.SetLocation(slot.Place)
			}
			if l.Instructor != "" {
				event.SetDescription(l.Instructor)
			}
			event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
		}
	}
	return cal
}

// slotOccurrence 时段在学期第一周的起止时刻
func slotOccurrence(slot timeplace.MeetingSlot, termStart time.Time) (time.Time, time.Time, bool) {
	if slot.Day < 0 || slot.Day > 6 {
		return time.Time{}, time.Time{}, false
	}
	start, end, err := slot.WithClockTimes().Minutes()
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	// time.Weekday 以周日为 0，时段以周一为 0
	offset := (slot.Day - (int(termStart.Weekday())+6)%7 + 7) % 7
	day := time.Date(termStart.Year(), termStart.Month(), termStart.Day(), 0, 0, 0, 0, icsZone).AddDate(0, 0, offset)
	return day.Add(time.Duration(start) * time.Minute), day.Add(time.Duration(end) * time.Minute), true
}
