package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"course-planner/internal/dto"
	"course-planner/internal/model"
	"course-planner/internal/repository"
)

// NotificationService 通知投递（落库）与查询
//
// 投递失败只记录日志，不影响触发方的业务结果。
type NotificationService interface {
	// Notify userID 为 nil 表示广播；detail 序列化为 JSON 存储
	Notify(ctx context.Context, userID *string, typ model.NotificationType, message string, detail any)
	NotifyBatch(ctx context.Context, list []model.Notification)
	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]model.Notification, int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func notifyRetryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(100 * time.Millisecond),
		retry.LastErrorOnly(true),
	}
}

// NewNotification 构造一条通知
func NewNotification(userID *string, typ model.NotificationType, message string, detail any) (model.Notification, error) {
	n := model.Notification{
		UserID:    userID,
		Type:      typ,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			return n, err
		}
		n.Detail = datatypes.JSON(raw)
	}
	return n, nil
}

func (s *notificationService) Notify(ctx context.Context, userID *string, typ model.NotificationType, message string, detail any) {
	n, err := NewNotification(userID, typ, message, detail)
	if err != nil {
		s.logger.Error("通知内容序列化失败", zap.String("message", message), zap.Error(err))
		return
	}
	s.NotifyBatch(ctx, []model.Notification{n})
}

func (s *notificationService) NotifyBatch(ctx context.Context, list []model.Notification) {
	if len(list) == 0 {
		return
	}
	err := retry.Do(func() error {
		return s.repo.Notification.BatchCreate(ctx, list)
	}, notifyRetryOptions(ctx)...)
	if err != nil {
		s.logger.Error("通知写入失败", zap.Int("count", len(list)), zap.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]model.Notification, int64, error) {
	list, total, err := s.repo.Notification.ListForUser(ctx, userID, req.Offset, req.GetLimit())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return list, total, nil
}
