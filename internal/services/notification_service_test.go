package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lingualink/lingualink-backend/internal/models"
	"github.com/lingualink/lingualink-backend/internal/repository/memory"
)

type published struct {
	userID    string
	eventType string
	data      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(userID string, eventType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID, eventType, data})
}

func TestCreateNotification_Publishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewNotificationService(memory.NewStore(), pub)
	userID := primitive.NewObjectID()

	require.NoError(t, svc.CreateNotification(ctx, userID, models.NotificationFriendRequest, "title", "message", nil))

	require.Len(t, pub.events, 1)
	assert.Equal(t, userID.Hex(), pub.events[0].userID)
	assert.Equal(t, EventNotification, pub.events[0].eventType)
	notif, ok := pub.events[0].data.(*models.Notification)
	require.True(t, ok)
	assert.False(t, notif.ID.IsZero())
	assert.Equal(t, "message", notif.Message)
}

func TestNotificationOwnership(t *testing.T) {
	ctx := context.Background()
	svc := NewNotificationService(memory.NewStore(), nil)
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, svc.CreateNotification(ctx, owner, models.NotificationFriendRequest, "t", "m", nil))
	notifs, err := svc.GetUserNotifications(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	id := notifs[0].ID

	assert.Equal(t, ErrNotificationNotFound, svc.MarkNotificationAsRead(ctx, id, other))
	assert.Equal(t, ErrNotificationNotFound, svc.DeleteNotification(ctx, id, other))

	require.NoError(t, svc.MarkNotificationAsRead(ctx, id, owner))
	notifs, err = svc.GetUserNotifications(ctx, owner)
	require.NoError(t, err)
	assert.True(t, notifs[0].Read)

	require.NoError(t, svc.DeleteNotification(ctx, id, owner))
	assert.Equal(t, ErrNotificationNotFound, svc.DeleteNotification(ctx, id, owner))
}

func TestDeleteExpiredNotifications(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewNotificationService(store, nil)
	userID := primitive.NewObjectID()

	require.NoError(t, svc.CreateNotification(ctx, userID, models.NotificationFriendRequest, "t", "m", nil))
	store.ExpireNotificationsBefore(time.Now().Add(-time.Minute))

	notifs, err := svc.GetUserNotifications(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, notifs)

	require.NoError(t, svc.DeleteExpiredNotifications(ctx))
	deleted, err := store.DeleteExpiredNotifications(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
