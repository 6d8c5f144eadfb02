package timeplace

import "math"

const (
	// MaskTicks 每天可表示的半小时刻度数（08:00 ~ 23:00）
	MaskTicks = 30
	// MaskWindowHours 掩码覆盖的节次上限
	MaskWindowHours = MaskTicks / 2

	fullDay int32 = 1<<MaskTicks - 1
)

// Mask 按星期的占用位图，最高位（第 29 位）对应 08:00~08:30
type Mask [7]int32

// EncodeMask 将时段编码为位图；窗口外或负起点的刻度被丢弃
func EncodeMask(slots []MeetingSlot) Mask {
	var m Mask
	for _, s := range slots {
		if s.Day < 0 || s.Day >= len(m) {
			continue
		}
		from := int(math.Round(s.Start * 2))
		to := int(math.Round((s.Start + s.Len) * 2))
		for tick := from; tick < to; tick++ {
			if tick < 0 || tick >= MaskTicks {
				continue
			}
			m[s.Day] |= 1 << (MaskTicks - 1 - tick)
		}
	}
	return m
}

// DecodeMask 将位图还原为无地点的时段（有损：时刻按整半小时推导）
func DecodeMask(m Mask) []MeetingSlot {
	var slots []MeetingSlot
	for day, bits := range m {
		run := -1
		for tick := 0; tick <= MaskTicks; tick++ {
			set := tick < MaskTicks && bits&(1<<(MaskTicks-1-tick)) != 0
			switch {
			case set && run < 0:
				run = tick
			case !set && run >= 0:
				slots = append(slots, MeetingSlot{
					Day:   day,
					Start: float64(run) / 2,
					Len:   float64(tick-run) / 2,
				}.WithClockTimes())
				run = -1
			}
		}
	}
	return slots
}

// OverflowingSlots 返回超出掩码窗口（结束节次 > 15）的时段
func OverflowingSlots(slots []MeetingSlot) []MeetingSlot {
	var out []MeetingSlot
	for _, s := range slots {
		if s.Start+s.Len > MaskWindowHours {
			out = append(out, s)
		}
	}
	return out
}

// IsEmpty 所有星期均无占用
func (m Mask) IsEmpty() bool {
	return m == Mask{}
}

// Overlaps 两个位图在任一天有共同占用
func (m Mask) Overlaps(other Mask) bool {
	for d := range m {
		if m[d]&other[d] != 0 {
			return true
		}
	}
	return false
}

// FitsWithin 占用的每个刻度都落在 free 的空闲刻度内
func (m Mask) FitsWithin(free Mask) bool {
	for d := range m {
		if m[d]&(^free[d]&fullDay) != 0 {
			return false
		}
	}
	return true
}

// Int64s 转为数据库数组列的表示
func (m Mask) Int64s() []int64 {
	out := make([]int64, len(m))
	for i, v := range m {
		out[i] = int64(v)
	}
	return out
}

// MaskFromInt64s 由数据库数组列还原；长度不足的部分视为 0
func MaskFromInt64s(vs []int64) Mask {
	var m Mask
	for i := 0; i < len(m) && i < len(vs); i++ {
		m[i] = int32(vs[i])
	}
	return m
}
