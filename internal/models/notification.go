package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationFriendRequest         = "friend_request"
	NotificationFriendRequestAccepted = "friend_request_accepted"
)

// NotificationTTL is how long a notification is kept before the cleanup job removes it.
const NotificationTTL = 7 * 24 * time.Hour

type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"userId"`
	Type      string              `bson:"type" json:"type"`       // e.g. "friend_request", "friend_request_accepted"
	Title     string              `bson:"title" json:"title"`     // Short headline
	Message   string              `bson:"message" json:"message"` // Descriptive content
	Read      bool                `bson:"read" json:"read"`
	TargetID  *primitive.ObjectID `bson:"target_id,omitempty" json:"targetId,omitempty"` // the friend request it refers to
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	ExpiresAt time.Time           `bson:"expires_at" json:"expiresAt"`
}
