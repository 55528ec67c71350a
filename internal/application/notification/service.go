package notification

import (
	"context"
	"fmt"

	"github.com/servicelink-api/internal/domain"
)

// Service reads and acknowledges a user's in-app notifications, including
// the verification decision notices.
type Service interface {
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
}

type notificationStore interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error)
}

type service struct {
	repo notificationStore
}

func NewService(repo notificationStore) Service {
	return &service{repo: repo}
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

func (s *service) Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	return s.owned(ctx, notificationID, userID)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	if _, err := s.owned(ctx, notificationID, userID); err != nil {
		return nil, err
	}
	return s.repo.MarkAsRead(ctx, notificationID)
}

// owned loads the notification and rejects readers other than its recipient.
func (s *service) owned(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	return n, nil
}
