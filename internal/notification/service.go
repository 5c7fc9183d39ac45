// File: internal/notification/service.go
package notification

import (
	"context"

	"startdrive_backend/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines the interface for notification business logic.
type Service interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, nType NotificationType, message string, relatedCarID *uuid.UUID) error
	GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error)
	MarkNotificationAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error
	MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type serviceImpl struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, logger *zap.Logger) Service {
	return &serviceImpl{repo: repo, logger: logger}
}

// CreateNotification records a notification for a user. Failures here should
// never abort the operation that triggered them; callers log and move on.
func (s *serviceImpl) CreateNotification(ctx context.Context, userID uuid.UUID, nType NotificationType, message string, relatedCarID *uuid.UUID) error {
	notification := &Notification{
		UserID:       userID,
		Type:         nType,
		Message:      message,
		RelatedCarID: relatedCarID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Error("Failed to create notification",
			zap.Error(err),
			zap.String("userID", userID.String()),
			zap.String("type", string(nType)))
		return err
	}
	return nil
}

func (s *serviceImpl) GetNotificationsForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	return s.repo.GetByUserID(ctx, userID, page, pageSize)
}

func (s *serviceImpl) MarkNotificationAsRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *serviceImpl) MarkAllUserNotificationsAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}
