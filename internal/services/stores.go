package services

import (
	"context"

	"github.com/lingualink/lingualink-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The stores below are satisfied by the Mongo repositories in internal/repository
// and by the in-memory store in internal/repository/memory. Lookups of missing
// records return repository.ErrNotFound; unique violations return repository.ErrDuplicate.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error)
	UpdateLastActive(ctx context.Context, id primitive.ObjectID) error
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetDiscoverableUsers(ctx context.Context, exclude []primitive.ObjectID) ([]models.User, error)
}

type FriendRequestStore interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error)
	FindPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error)
	GetRequestsByRecipient(ctx context.Context, recipientID primitive.ObjectID, status models.RequestStatus) ([]models.FriendRequest, error)
	GetRequestsBySender(ctx context.Context, senderID primitive.ObjectID, status models.RequestStatus) ([]models.FriendRequest, error)
	MarkAccepted(ctx context.Context, id primitive.ObjectID) error
}

type FriendshipStore interface {
	AddFriendship(ctx context.Context, a, b primitive.ObjectID) error
	RemoveFriendship(ctx context.Context, a, b primitive.ObjectID) error
	AreFriends(ctx context.Context, a, b primitive.ObjectID) (bool, error)
	GetFriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteNotification(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteExpiredNotifications(ctx context.Context) (int64, error)
}

// Transactor runs fn so that its writes are applied together or not at all.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
