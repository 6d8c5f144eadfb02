package timeplace

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ════════════════════════════════════════════════════════════
// Time
// ════════════════════════════════════════════════════════════

func TestParseTime(t *testing.T) {
	cases := []struct {
		in      string
		want    Time
		wantErr bool
	}{
		{"09:05", 545, false},
		{"9:05", 545, false},
		{"00:00", 0, false},
		{"23:59", 23*60 + 59, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"1200", 0, true},
		{"ab:cd", 0, true},
		{"1:2:3", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTime(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrMalformedTime, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestTimeArithmetic(t *testing.T) {
	nine := MustParseTime("09:00")
	assert.Equal(t, "09:30", nine.AddMinute(30).String())
	assert.Equal(t, "11:00", nine.AddHour(2).String())
	assert.Equal(t, "08:50", nine.SubtractMinute(10).String())
	assert.Equal(t, "01:00", nine.SubtractHour(8).String())
	assert.Equal(t, 90, MustParseTime("10:30").Sub(nine))
	assert.Equal(t, 9, nine.Hour())
	assert.Equal(t, 0, nine.Minute())
	assert.InDelta(t, 9.5, MustParseTime("09:30").DecimalHour(), 1e-9)
}

// ════════════════════════════════════════════════════════════
// Parse
// ════════════════════════════════════════════════════════════

func slot(day int, start, length float64, place, from, to string) MeetingSlot {
	return MeetingSlot{Day: day, Start: start, Len: length, Place: place, StartTime: from, EndTime: to}
}

func TestParse_EmptyDayString(t *testing.T) {
	got, err := Parse("", "", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParse_Fixtures(t *testing.T) {
	cases := []struct {
		name                string
		days, places, times string
		want                []MeetingSlot
	}{
		{
			name:   "不同星期",
			days:   "화(1-2)/목(1-2)",
			places: "220-317/220-317",
			times:  "화(09:00~10:50)/목(09:00~10:50)",
			want: []MeetingSlot{
				slot(1, 1, 2, "220-317", "09:00", "10:50"),
				slot(3, 1, 2, "220-317", "09:00", "10:50"),
			},
		},
		{
			name:   "单一地点广播",
			days:   "화(1-2)/목(1-2)",
			places: "220-317",
			times:  "화(09:00~10:50)/목(09:00~10:50)",
			want: []MeetingSlot{
				slot(1, 1, 2, "220-317", "09:00", "10:50"),
				slot(3, 1, 2, "220-317", "09:00", "10:50"),
			},
		},
		{
			name:   "地点只有分隔符",
			days:   "화(1-2)/목(1-2)",
			places: "/",
			times:  "화(09:00~10:50)/목(09:00~10:50)",
			want: []MeetingSlot{
				slot(1, 1, 2, "", "09:00", "10:50"),
				slot(3, 1, 2, "", "09:00", "10:50"),
			},
		},
		{
			name:   "无地点",
			days:   "화(1-2)/목(1-2)",
			places: "",
			times:  "화(09:00~10:50)/목(09:00~10:50)",
			want: []MeetingSlot{
				slot(1, 1, 2, "", "09:00", "10:50"),
				slot(3, 1, 2, "", "09:00", "10:50"),
			},
		},
		{
			name:   "小数节次",
			days:   "화(1.5-2)/목(1.5-2)",
			places: "220-317/220-317",
			times:  "화(09:30~11:20)/목(09:30~11:20)",
			want: []MeetingSlot{
				slot(1, 1.5, 2, "220-317", "09:30", "11:20"),
				slot(3, 1.5, 2, "220-317", "09:30", "11:20"),
			},
		},
		{
			name:   "同一天多段",
			days:   "화(3-1)/목(3-1)/목(11-2)",
			places: "302-208/302-208/302-310-2",
			times:  "화(11:00~11:50)/목(11:00~11:50)/목(19:00~20:50)",
			want: []MeetingSlot{
				slot(1, 3, 1, "302-208", "11:00", "11:50"),
				slot(3, 3, 1, "302-208", "11:00", "11:50"),
				slot(3, 11, 2, "302-310-2", "19:00", "20:50"),
			},
		},
		{
			name:   "连续但教室不同不合并",
			days:   "목(9-2)/목(11-2)",
			places: "220-317/220-316",
			times:  "화(17:00~18:50)/목(19:00~20:50)",
			want: []MeetingSlot{
				slot(3, 9, 2, "220-317", "17:00", "18:50"),
				slot(3, 11, 2, "220-316", "19:00", "20:50"),
			},
		},
		{
			name:   "同一时段多教室",
			days:   "월(3-1.5)/수(3-1.5)/금(3-2)/금(3-2)",
			places: "500-L302/500-L302/020-103/020-104",
			times:  "월(11:00~12:15)/수(11:00~12:15)/금(11:00~12:50)/금(11:00~12:50)",
			want: []MeetingSlot{
				slot(0, 3, 1.5, "500-L302", "11:00", "12:15"),
				slot(2, 3, 1.5, "500-L302", "11:00", "12:15"),
				slot(4, 3, 2, "020-103/020-104", "11:00", "12:50"),
			},
		},
		{
			name:   "同一时段多教室且乱序",
			days:   "수(10-1)/수(10-1)/수(7-1)/수(10-1)/수(10-1)/수(10-1)/수(10-1)",
			places: "008-301/008-304/014-B101/014-102/014-202/014-204/014-207",
			times:  "수(18:00~18:50)/수(18:00~18:50)/수(15:00~15:50)/수(18:00~18:50)/수(18:00~18:50)/수(18:00~18:50)/수(18:00~18:50)",
			want: []MeetingSlot{
				slot(2, 7, 1, "014-B101", "15:00", "15:50"),
				slot(2, 10, 1, "008-301/008-304/014-102/014-202/014-204/014-207", "18:00", "18:50"),
			},
		},
		{
			name:   "同教室首尾相接合并",
			days:   "월(1-1)/월(2-1)",
			places: "301-101",
			times:  "월(09:00~10:00)/월(10:00~11:00)",
			want: []MeetingSlot{
				slot(0, 1, 2, "301-101", "09:00", "11:00"),
			},
		},
		{
			name:   "无时刻时由节次推导",
			days:   "화(1-2)",
			places: "220-317",
			times:  "",
			want: []MeetingSlot{
				slot(1, 1, 2, "220-317", "09:00", "11:00"),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.days, tc.places, tc.times)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct{ days, places, times string }{
		{"화(1-2)/목(1-2)", "a/b/c", ""},
		{"화(1-2)/목(1-2)", "a", "화(09:00~10:50)"},
		{"X(1-2)", "", ""},
		{"화1-2", "", ""},
		{"화(1-2)", "", "화(09:00-10:50)"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.days, tc.places, tc.times)
		assert.ErrorIs(t, err, ErrMalformedTimePlace, tc.days)
		assert.Nil(t, got)
	}
}

// ════════════════════════════════════════════════════════════
// Mask
// ════════════════════════════════════════════════════════════

func bits(t *testing.T, s string) int32 {
	t.Helper()
	v, err := strconv.ParseInt(s, 2, 32)
	require.NoError(t, err)
	return int32(v)
}

func TestEncodeMask_Empty(t *testing.T) {
	assert.Equal(t, Mask{}, EncodeMask(nil))
	assert.True(t, EncodeMask([]MeetingSlot{}).IsEmpty())
}

func TestEncodeMask_Fixtures(t *testing.T) {
	cases := []struct {
		start, length float64
		want          string
	}{
		{1.5, 2, "000111100000000000000000000000"},
		{1.5, 2.5, "000111110000000000000000000000"},
		{2, 2, "000011110000000000000000000000"},
		{10, 5, "000000000000000000001111111111"},
		{13, 1, "000000000000000000000000001100"},
	}
	for _, tc := range cases {
		slots := []MeetingSlot{
			{Day: 1, Start: tc.start, Len: tc.length},
			{Day: 3, Start: tc.start, Len: tc.length},
		}
		want := bits(t, tc.want)
		assert.Equal(t, Mask{0, want, 0, want, 0, 0, 0}, EncodeMask(slots))
	}
}

func TestEncodeMask_OutOfWindowDropped(t *testing.T) {
	slots := []MeetingSlot{
		{Day: 1, Start: -1, Len: 1},
		{Day: 3, Start: 15, Len: 1},
	}
	assert.Equal(t, Mask{}, EncodeMask(slots))
	assert.Len(t, OverflowingSlots(slots), 1)
}

func TestEncodeMask_Deterministic(t *testing.T) {
	slots, err := Parse("월(3-1.5)/수(3-1.5)/금(3-2)", "a/b/c", "")
	require.NoError(t, err)
	assert.Equal(t, EncodeMask(slots), EncodeMask(slots))
}

func TestDecodeMask_ReencodesToSameMask(t *testing.T) {
	slots := []MeetingSlot{
		{Day: 0, Start: 0, Len: 1.5},
		{Day: 0, Start: 4, Len: 2},
		{Day: 4, Start: 13.5, Len: 1.5},
	}
	m := EncodeMask(slots)
	decoded := DecodeMask(m)
	require.Len(t, decoded, 3)
	assert.Equal(t, "08:00", decoded[0].StartTime)
	assert.Equal(t, "09:30", decoded[0].EndTime)
	assert.Equal(t, m, EncodeMask(decoded))
}

func TestMask_FitsWithin(t *testing.T) {
	lecture := EncodeMask([]MeetingSlot{{Day: 1, Start: 1, Len: 2}})
	free := EncodeMask([]MeetingSlot{{Day: 1, Start: 0, Len: 4}})
	assert.True(t, lecture.FitsWithin(free))

	tight := EncodeMask([]MeetingSlot{{Day: 1, Start: 1.5, Len: 2}})
	assert.False(t, lecture.FitsWithin(tight))
	assert.True(t, lecture.Overlaps(tight))
}

func TestMask_Int64sRoundTrip(t *testing.T) {
	m := Mask{1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, m, MaskFromInt64s(m.Int64s()))
	assert.Equal(t, Mask{9}, MaskFromInt64s([]int64{9}))
}

// ════════════════════════════════════════════════════════════
// 比较 / 冲突 / 校验
// ════════════════════════════════════════════════════════════

func TestEqualSlots(t *testing.T) {
	a := []MeetingSlot{{Day: 5, Start: 3, Len: 2, Place: "abcd"}, {Day: 3, Start: 3, Len: 2, Place: "abcg"}}
	b := []MeetingSlot{{Day: 5, Start: 3, Len: 2, Place: "abcd"}, {Day: 3, Start: 3, Len: 2, Place: "abcg"}}
	assert.True(t, EqualSlots(a, b))

	assert.False(t, EqualSlots(a[:1], b))

	diffDay := []MeetingSlot{{Day: 4, Start: 3, Len: 2, Place: "abcd"}, b[1]}
	assert.False(t, EqualSlots(diffDay, b))

	diffStart := []MeetingSlot{a[0], {Day: 3, Start: 2, Len: 2, Place: "abcg"}}
	assert.False(t, EqualSlots(diffStart, b))

	diffLen := []MeetingSlot{{Day: 5, Start: 3, Len: 1, Place: "abcd"}, b[1]}
	assert.False(t, EqualSlots(diffLen, b))

	diffPlace := []MeetingSlot{a[0], {Day: 3, Start: 3, Len: 2, Place: "abcgs"}}
	assert.False(t, EqualSlots(diffPlace, b))
}

func TestTimesOverlap(t *testing.T) {
	a := slot(1, 0, 0, "", "09:00", "10:00")
	b := slot(1, 0, 0, "", "09:30", "10:30")
	c := slot(1, 0, 0, "", "10:00", "11:00")
	d := slot(2, 0, 0, "", "09:00", "10:00")

	assert.True(t, TimesOverlap(a, b))
	assert.Equal(t, TimesOverlap(a, b), TimesOverlap(b, a))
	assert.False(t, TimesOverlap(a, c), "端点相接不算冲突")
	assert.Equal(t, TimesOverlap(a, c), TimesOverlap(c, a))
	assert.False(t, TimesOverlap(a, d))
	assert.True(t, SlotsOverlap([]MeetingSlot{d, a}, []MeetingSlot{b}))
}

func TestValidateSlot(t *testing.T) {
	ok := []struct{ from, to string }{
		{"09:00", "09:05"},
		{"09:00", "10:50"},
		{"23:00", "23:55"},
		{"00:00", "23:55"},
	}
	for _, tc := range ok {
		assert.NoError(t, ValidateSlot(slot(0, 1, 1, "", tc.from, tc.to)), tc)
	}

	bad := []struct{ from, to string }{
		{"09:00", "09:04"},
		{"09:00", "09:00"},
		{"10:00", "09:00"},
		{"23:00", "23:56"},
		{"xx", "10:00"},
	}
	for _, tc := range bad {
		assert.ErrorIs(t, ValidateSlot(slot(0, 1, 1, "", tc.from, tc.to)), ErrInvalidTimeJSON, tc)
	}

	assert.ErrorIs(t, ValidateSlot(slot(7, 1, 1, "", "09:00", "10:00")), ErrInvalidTimeJSON)
	assert.ErrorIs(t, ValidateSlot(slot(0, 1, 0, "", "09:00", "10:00")), ErrInvalidTimeJSON)
}

func TestValidateSlots_SelfOverlap(t *testing.T) {
	slots := []MeetingSlot{
		slot(1, 1, 1, "", "09:00", "10:00"),
		slot(1, 1.5, 1, "", "09:30", "10:30"),
	}
	err := ValidateSlots(slots)
	assert.ErrorIs(t, err, ErrLectureTimeOverlap)
	var oe *OverlapError
	assert.False(t, errors.As(err, &oe), "自身冲突不携带确认信息")
}

func TestOverlapError_Is(t *testing.T) {
	var err error = &OverlapError{ConfirmMessage: "확인"}
	assert.ErrorIs(t, err, ErrLectureTimeOverlap)
}

// ════════════════════════════════════════════════════════════
// SlotDraft
// ════════════════════════════════════════════════════════════

func ptr[T any](v T) *T { return &v }

func TestSlotDraft_Resolve(t *testing.T) {
	fromClock, err := SlotDraft{Day: ptr(2), StartTime: ptr("09:00"), EndTime: ptr("10:15")}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1.0, fromClock.Start)
	assert.Equal(t, 1.5, fromClock.Len)

	fromPeriod, err := SlotDraft{Day: ptr(2), Start: ptr(1.0), Len: ptr(1.5), Place: "a"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, slot(2, 1, 1.5, "a", "09:00", "10:30"), fromPeriod)

	mixed, err := SlotDraft{Day: ptr(0), StartTime: ptr("13:30"), Len: ptr(1.0)}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "14:30", mixed.EndTime)
	assert.Equal(t, 5.5, mixed.Start)
}

func TestSlotDraft_ResolveZeroStartUsesClock(t *testing.T) {
	tests := []struct {
		name      string
		draft     SlotDraft
		wantStart float64
		wantMask  int32
	}{
		{"零起始以时钟为准", SlotDraft{Day: ptr(0), Start: ptr(0.0), StartTime: ptr("09:00"), EndTime: ptr("10:00")}, 1.0, 0x0C000000},
		{"零长度以时钟为准", SlotDraft{Day: ptr(0), Start: ptr(0.0), Len: ptr(0.0), StartTime: ptr("09:00"), EndTime: ptr("10:00")}, 1.0, 0x0C000000},
		{"仅给出零起始表示 08:00", SlotDraft{Day: ptr(0), Start: ptr(0.0), Len: ptr(1.0)}, 0, 0x30000000},
		{"非零起始优先", SlotDraft{Day: ptr(0), Start: ptr(2.0), StartTime: ptr("09:00"), EndTime: ptr("10:00")}, 2.0, 0x03000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.draft.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, s.Start)
			assert.Equal(t, tt.wantMask, EncodeMask([]MeetingSlot{s})[0])
		})
	}
}

func TestSlotDraft_Incomplete(t *testing.T) {
	_, err := SlotDraft{Day: ptr(1), Len: ptr(1.0)}.Resolve()
	assert.ErrorIs(t, err, ErrInvalidTimeJSON)

	_, err = SlotDraft{Day: ptr(1), StartTime: ptr("09:00")}.Resolve()
	assert.ErrorIs(t, err, ErrInvalidTimeJSON)

	_, err = SlotDraft{Start: ptr(1.0), Len: ptr(1.0)}.Resolve()
	assert.ErrorIs(t, err, ErrInvalidTimeJSON)

	_, err = SlotDraft{Day: ptr(1), StartTime: ptr("9시"), EndTime: ptr("10:00")}.Resolve()
	assert.ErrorIs(t, err, ErrInvalidTimeJSON)
}
