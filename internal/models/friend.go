package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string

const (
	// StatusNone is the absence of a request: before it is sent, or after it was withdrawn.
	StatusNone     RequestStatus = ""
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
)

// requestTransitions is the friend request lifecycle. Accepted is terminal.
// pending -> none (withdraw/decline) is legal but no operation performs it yet.
var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusNone:    {StatusPending},
	StatusPending: {StatusAccepted, StatusNone},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type FriendRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Status    RequestStatus      `bson:"status" json:"status"`
	PairKey   string             `bson:"pair_key" json:"-"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// FriendRequestView is a request with both parties' public profiles filled in.
type FriendRequestView struct {
	ID        primitive.ObjectID `json:"_id"`
	Sender    PublicUser         `json:"sender"`
	Recipient PublicUser         `json:"recipient"`
	Status    RequestStatus      `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Friendship is the single undirected edge between two users.
// ID is the pair key, so at most one edge per pair can exist.
type Friendship struct {
	ID        string               `bson:"_id" json:"_id"`
	UserIDs   []primitive.ObjectID `bson:"user_ids" json:"userIds"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
}

// Other returns the member of the edge that is not userID.
func (f *Friendship) Other(userID primitive.ObjectID) primitive.ObjectID {
	if len(f.UserIDs) != 2 {
		return primitive.NilObjectID
	}
	if f.UserIDs[0] == userID {
		return f.UserIDs[1]
	}
	return f.UserIDs[0]
}

// SortedPair orders two ids so that the same pair always yields the same result.
func SortedPair(a, b primitive.ObjectID) (primitive.ObjectID, primitive.ObjectID) {
	if a.Hex() > b.Hex() {
		return b, a
	}
	return a, b
}

// PairKey is the canonical key of an unordered pair of users.
func PairKey(a, b primitive.ObjectID) string {
	lo, hi := SortedPair(a, b)
	return lo.Hex() + ":" + hi.Hex()
}

// NewFriendship builds the canonical edge for a pair.
func NewFriendship(a, b primitive.ObjectID, now time.Time) *Friendship {
	lo, hi := SortedPair(a, b)
	return &Friendship{
		ID:        PairKey(a, b),
		UserIDs:   []primitive.ObjectID{lo, hi},
		CreatedAt: now,
	}
}
