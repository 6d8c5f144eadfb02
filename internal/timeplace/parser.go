package timeplace

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ErrMalformedTimePlace 课程目录中的时间/地点文本无法解析
var ErrMalformedTimePlace = errors.New("时间地点文本格式错误")

// 星期字符 → 0(周一)..6(周日)
var dayIndex = map[rune]int{
	'월': 0, '화': 1, '수': 2, '목': 3, '금': 4, '토': 5, '일': 6,
}

var (
	periodToken = regexp.MustCompile(`^\s*(\S)\(\s*(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*\)\s*$`)
	clockToken  = regexp.MustCompile(`\(\s*(\d{1,2}:\d{2})\s*~\s*(\d{1,2}:\d{2})\s*\)`)
)

// Parse 将课程目录的三段文本转为有序的 MeetingSlot 列表
//
//	dayPeriods: 화(1-2)/목(1-2)
//	places:     220-317/220-317（不含 "/" 时广播到所有段）
//	times:      화(09:00~10:50)/목(09:00~10:50)（为空时由节次推导）
//
// 星期以节次段为准，时刻段中的星期字符被忽略。
// 段数不一致返回 ErrMalformedTimePlace，由调用方记录告警。
func Parse(dayPeriods, places, times string) ([]MeetingSlot, error) {
	if strings.TrimSpace(dayPeriods) == "" {
		return []MeetingSlot{}, nil
	}

	segments := strings.Split(dayPeriods, "/")
	n := len(segments)

	placeSegs, err := splitParallel(places, n, true)
	if err != nil {
		return nil, err
	}
	timeSegs, err := splitParallel(times, n, false)
	if err != nil {
		return nil, err
	}

	slots := make([]MeetingSlot, 0, n)
	for i, seg := range segments {
		slot, err := parsePeriod(seg)
		if err != nil {
			return nil, err
		}
		slot.Place = strings.TrimSpace(placeSegs[i])

		if timeSegs != nil {
			m := clockToken.FindStringSubmatch(timeSegs[i])
			if m == nil {
				return nil, fmt.Errorf("%w: 时刻段 %q", ErrMalformedTimePlace, timeSegs[i])
			}
			start, err := ParseTime(m[1])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedTimePlace, err)
			}
			end, err := ParseTime(m[2])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedTimePlace, err)
			}
			slot.StartTime, slot.EndTime = start.String(), end.String()
		}
		slots = append(slots, slot.WithClockTimes())
	}

	return mergeSlots(slots), nil
}

// splitParallel 按 "/" 拆分并校验段数；broadcast 为 true 时不含 "/" 的文本复制到每一段
func splitParallel(s string, n int, broadcast bool) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		if !broadcast {
			return nil, nil
		}
		return make([]string, n), nil
	}
	if broadcast && !strings.Contains(s, "/") {
		out := make([]string, n)
		for i := range out {
			out[i] = s
		}
		return out, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != n {
		return nil, fmt.Errorf("%w: 段数不一致 (%d != %d): %q", ErrMalformedTimePlace, len(parts), n, s)
	}
	return parts, nil
}

func parsePeriod(token string) (MeetingSlot, error) {
	m := periodToken.FindStringSubmatch(token)
	if m == nil {
		return MeetingSlot{}, fmt.Errorf("%w: 节次段 %q", ErrMalformedTimePlace, token)
	}
	day, ok := dayIndex[[]rune(m[1])[0]]
	if !ok {
		return MeetingSlot{}, fmt.Errorf("%w: 未知星期 %q", ErrMalformedTimePlace, m[1])
	}
	start, _ := strconv.ParseFloat(m[2], 64)
	length, _ := strconv.ParseFloat(m[3], 64)
	return MeetingSlot{Day: day, Start: start, Len: length}, nil
}

// mergeSlots 先把同一时段的多个教室合并为一个 place（按输入顺序以 "/" 连接），
// 再按 day、start 排序，把同一教室首尾相接的时段合并为一段。
func mergeSlots(slots []MeetingSlot) []MeetingSlot {
	type timeKey struct {
		day        int
		start, len float64
		from, to   string
	}

	grouped := make([]MeetingSlot, 0, len(slots))
	at := make(map[timeKey]int, len(slots))
	for _, s := range slots {
		k := timeKey{s.Day, s.Start, s.Len, s.StartTime, s.EndTime}
		i, seen := at[k]
		if !seen {
			at[k] = len(grouped)
			grouped = append(grouped, s)
			continue
		}
		if !slices.Contains(strings.Split(grouped[i].Place, "/"), s.Place) {
			grouped[i].Place += "/" + s.Place
		}
	}

	slices.SortStableFunc(grouped, func(a, b MeetingSlot) int {
		if a.Day != b.Day {
			return a.Day - b.Day
		}
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		}
		return 0
	})

	merged := make([]MeetingSlot, 0, len(grouped))
	for _, s := range grouped {
		if n := len(merged); n > 0 {
			prev := &merged[n-1]
			if prev.Day == s.Day && prev.Place == s.Place && prev.EndTime == s.StartTime {
				prev.Len = s.Start + s.Len - prev.Start
				prev.EndTime = s.EndTime
				continue
			}
		}
		merged = append(merged, s)
	}
	return merged
}
