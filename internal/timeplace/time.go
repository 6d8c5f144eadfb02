// Package timeplace 课程上课时间与地点的表示、解析、掩码编码与冲突校验。
//
// 时间以"当天零点起的分钟数"表示；节次（start/len）以小时为单位、0.5 粒度，
// 原点为 BaseHour（08:00）。
package timeplace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedTime HH:MM 字符串格式错误
var ErrMalformedTime = errors.New("时间格式错误，应为 HH:MM")

// Time 当天零点起的分钟数（不可变值类型）
type Time int

// ParseTime 解析 HH:MM 字符串
func ParseTime(s string) (Time, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q 超出范围", ErrMalformedTime, s)
	}
	return Time(hour*60 + minute), nil
}

// MustParseTime 解析失败时 panic，仅用于常量与测试
func MustParseTime(s string) Time {
	t, err := ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Time) AddMinute(m int) Time      { return t + Time(m) }
func (t Time) AddHour(h int) Time        { return t + Time(h*60) }
func (t Time) SubtractMinute(m int) Time { return t - Time(m) }
func (t Time) SubtractHour(h int) Time   { return t - Time(h*60) }

// Sub 返回 t - other 的分钟差
func (t Time) Sub(other Time) int { return int(t - other) }

func (t Time) Hour() int   { return int(t) / 60 }
func (t Time) Minute() int { return int(t) % 60 }

// DecimalHour 以小时为单位的小数表示，如 09:30 → 9.5
func (t Time) DecimalHour() float64 { return float64(t) / 60 }

// String 零填充 HH:MM
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
