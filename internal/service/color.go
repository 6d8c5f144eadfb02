package service

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"sync"

	"course-planner/internal/dto"
	"course-planner/internal/model"
)

// ── 颜色模块业务错误 ──

var (
	ErrInvalidColor      = errors.New("课程颜色不合法")
	ErrColorListNotFound = errors.New("调色板不存在")
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor 是否为 #RRGGBB
func IsHexColor(s string) bool { return hexColor.MatchString(s) }

// ── 调色板 ──

type palette struct {
	colors []model.LectureColor
	names  []string
}

var pastelPalette = palette{
	colors: []model.LectureColor{
		{FG: "#2B8728", BG: "#B6F9B2"},
		{FG: "#45B2B8", BG: "#BFF7F8"},
		{FG: "#1579C2", BG: "#94E6FE"},
		{FG: "#A337A1", BG: "#F6B5F5"},
		{FG: "#B8991B", BG: "#FFF49A"},
		{FG: "#BA313B", BG: "#FFB2BC"},
		{FG: "#649624", BG: "#DAF9B2"},
		{FG: "#5249D7", BG: "#DBD9FD"},
		{FG: "#E27B35", BG: "#FFDAB7"},
	},
	names: []string{"초록색", "하늘색", "파랑색", "보라색", "노랑색", "빨강색", "라임색", "남색", "오렌지색"},
}

var vividPalette = palette{
	colors: []model.LectureColor{
		{FG: "#ffffff", BG: "#e54459"},
		{FG: "#ffffff", BG: "#f58d3d"},
		{FG: "#ffffff", BG: "#fac52d"},
		{FG: "#ffffff", BG: "#a6d930"},
		{FG: "#ffffff", BG: "#2bc366"},
		{FG: "#ffffff", BG: "#1bd0c9"},
		{FG: "#ffffff", BG: "#1d99e9"},
		{FG: "#ffffff", BG: "#4f48c4"},
		{FG: "#ffffff", BG: "#af56b3"},
	},
	names: []string{"석류", "감귤", "들국", "완두", "비취", "지중해", "하늘", "라벤더", "자수정"},
}

// ColorList 按名称获取调色板：pastel / legacy / vivid_ios
func ColorList(name string) (*dto.ColorListResponse, error) {
	var p palette
	switch name {
	case "pastel", "legacy":
		p = pastelPalette
	case "vivid_ios":
		p = vividPalette
	default:
		return nil, ErrColorListNotFound
	}
	return &dto.ColorListResponse{
		Colors: append([]model.LectureColor(nil), p.colors...),
		Names:  append([]string(nil), p.names...),
	}, nil
}

// validateLectureColor colorIndex 不超过 MaxNumColor；fg/bg 给出时必须是 #RRGGBB
func validateLectureColor(colorIndex int, color *model.LectureColor) error {
	if colorIndex > model.MaxNumColor {
		return ErrInvalidColor
	}
	if color == nil {
		return nil
	}
	if color.FG != "" && !hexColor.MatchString(color.FG) {
		return ErrInvalidColor
	}
	if color.BG != "" && !hexColor.MatchString(color.BG) {
		return ErrInvalidColor
	}
	return nil
}

// ── 颜色分配 ──

// ColorPicker 为新课程挑选颜色索引
//
// 优先在时间表未使用的 1..MaxNumColor 中均匀随机；全部用完时在 1..MaxNumColor 中均匀随机，允许重复。
type ColorPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewColorPicker 固定种子的分配器（测试可复现）
func NewColorPicker(seed uint64) *ColorPicker {
	return &ColorPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomColorPicker 随机种子的分配器
func NewRandomColorPicker() *ColorPicker {
	return NewColorPicker(rand.Uint64())
}

// Pick 根据已占用的索引挑选颜色
func (p *ColorPicker) Pick(used []int) int {
	taken := make(map[int]bool, len(used))
	for _, i := range used {
		taken[i] = true
	}
	free := make([]int, 0, model.MaxNumColor)
	for i := 1; i <= model.MaxNumColor; i++ {
		if !taken[i] {
			free = append(free, i)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(free) == 0 {
		return p.rng.IntN(model.MaxNumColor) + 1
	}
	return free[p.rng.IntN(len(free))]
}

func usedColors(table *model.Timetable) []int {
	used := make([]int, 0, len(table.Lectures))
	for i := range table.Lectures {
		used = append(used, table.Lectures[i].ColorIndex)
	}
	return used
}
