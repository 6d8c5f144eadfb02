package dto

import (
	"time"

	"course-planner/internal/model"
)

// ── 检索 ──

// SearchLectureResponse 检索结果
type SearchLectureResponse struct {
	List   []model.Lecture `json:"list"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
}

// TermURI 路径中的学年/学期
type TermURI struct {
	Year     int `uri:"year"     binding:"required,min=1"`
	Semester int `uri:"semester" binding:"required,min=1,max=4"`
}

// TagListResponse 学期标签
type TagListResponse struct {
	Year      int          `json:"year"`
	Semester  int          `json:"semester"`
	Tags      model.TagSet `json:"tags"`
	UpdatedAt int64        `json:"updated_at"` // 毫秒时间戳
}

// ColorListResponse 调色板
type ColorListResponse struct {
	Colors []model.LectureColor `json:"colors"`
	Names  []string             `json:"names"`
}

// ── 目录 ──

// RefreshCoursebookRequest 手动刷新某学期目录
type RefreshCoursebookRequest struct {
	Year     int `json:"year"     binding:"required,min=2000"`
	Semester int `json:"semester" binding:"required,min=1,max=4"`
}

// CoursebookResponse 学期目录登记
type CoursebookResponse struct {
	Year      int       `json:"year"`
	Semester  int       `json:"semester"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefreshResult 一次刷新的统计
type RefreshResult struct {
	Year           int    `json:"year"`
	Semester       int    `json:"semester"`
	Status         string `json:"status"` // empty | unchanged | updated
	Lectures       int    `json:"lectures"`
	Created        int    `json:"created"`
	Removed        int    `json:"removed"`
	Updated        int    `json:"updated"`
	Changed        int    `json:"changed"`
	NewCoursebook  bool   `json:"new_coursebook"`
	AffectedTables int    `json:"affected_tables"`
}

// 刷新结果状态
const (
	RefreshStatusEmpty     = "empty"
	RefreshStatusUnchanged = "unchanged"
	RefreshStatusUpdated   = "updated"
)

// ── 通知 ──

// NotificationListRequest 通知分页
type NotificationListRequest struct {
	Offset int `form:"offset" binding:"omitempty,min=0"`
	Limit  int `form:"limit"  binding:"omitempty,min=1,max=100"`
}

// GetLimit 默认 20 条
func (r *NotificationListRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 20
	}
	return r.Limit
}
