package services

import (
	"context"
	"fmt"

	"github.com/lingualink/lingualink-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventNotification is the realtime event type carrying a new notification.
const EventNotification = "notification"

// Publisher pushes an event to a user's live connections, if any.
type Publisher interface {
	Publish(userID string, eventType string, data interface{})
}

type NotificationService struct {
	repo      NotificationStore
	publisher Publisher
}

// NewNotificationService creates a NotificationService. publisher may be nil.
func NewNotificationService(repo NotificationStore, publisher Publisher) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateNotification stores a notification for a user and pushes it to them if they are online.
func (s *NotificationService) CreateNotification(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error {
	notif := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Read:     false,
		TargetID: targetID,
	}
	if err := s.repo.CreateNotification(ctx, notif); err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.Publish(userID.Hex(), EventNotification, notif)
	}
	return nil
}

// GetUserNotifications returns all unexpired notifications for a user
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return s.repo.GetUserNotifications(ctx, userID)
}

// MarkNotificationAsRead marks one of the user's notifications as read
func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, notifID, userID primitive.ObjectID) error {
	if err := s.repo.MarkAsRead(ctx, notifID, userID); err != nil {
		return notFoundAs(err, ErrNotificationNotFound, "failed to mark notification as read")
	}
	return nil
}

// DeleteNotification deletes one of the user's notifications
func (s *NotificationService) DeleteNotification(ctx context.Context, notifID, userID primitive.ObjectID) error {
	if err := s.repo.DeleteNotification(ctx, notifID, userID); err != nil {
		return notFoundAs(err, ErrNotificationNotFound, "failed to delete notification")
	}
	return nil
}

// DeleteExpiredNotifications is run periodically by the scheduler.
func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	deleted, err := s.repo.DeleteExpiredNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	logrus.Infof("Deleted %d expired notifications", deleted)
	return nil
}
