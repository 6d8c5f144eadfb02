package repository

import (
	"context"

	"gorm.io/gorm"

	"course-planner/internal/model"
)

// NotificationRepository 通知数据访问接口
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	BatchCreate(ctx context.Context, ns []model.Notification) error
	// ListForUser 用户自己的通知 + 广播通知，按时间倒序
	ListForUser(ctx context.Context, userID string, offset, limit int) ([]model.Notification, int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) BatchCreate(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ns).Error
}

func (r *notificationRepo) ListForUser(ctx context.Context, userID string, offset, limit int) ([]model.Notification, int64, error) {
	var (
		list  []model.Notification
		total int64
	)
	q := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? OR user_id IS NULL", userID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}
