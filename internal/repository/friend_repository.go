package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lingualink/lingualink-backend/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const FriendRequestsCollection = "friend_requests"

type FriendRepository struct {
	collection *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{
		collection: db.Collection(FriendRequestsCollection),
	}
}

// CreateRequest inserts a pending request. A second pending request for the same pair
// violates the partial unique index on pair_key and yields ErrDuplicate.
func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Status = models.StatusPending
	req.PairKey = models.PairKey(req.Sender, req.Recipient)

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		logrus.WithError(err).Error("Failed to insert friend request")
		return nil, fmt.Errorf("failed to send friend request: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	req.ID = insertedID

	return req, nil
}

func (r *FriendRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		return nil, translate(err)
	}
	return &request, nil
}

// FindPendingBetween returns the pending request between two users in either direction.
func (r *FriendRepository) FindPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	filter := bson.M{
		"pair_key": models.PairKey(a, b),
		"status":   models.StatusPending,
	}

	var request models.FriendRequest
	if err := r.collection.FindOne(ctx, filter).Decode(&request); err != nil {
		return nil, translate(err)
	}
	return &request, nil
}

// GetRequestsByRecipient lists requests addressed to a user with the given status, newest first.
func (r *FriendRepository) GetRequestsByRecipient(ctx context.Context, recipientID primitive.ObjectID, status models.RequestStatus) ([]models.FriendRequest, error) {
	return r.find(ctx, bson.M{"recipient": recipientID, "status": status})
}

// GetRequestsBySender lists requests a user sent with the given status, newest first.
func (r *FriendRepository) GetRequestsBySender(ctx context.Context, senderID primitive.ObjectID, status models.RequestStatus) ([]models.FriendRequest, error) {
	return r.find(ctx, bson.M{"sender": senderID, "status": status})
}

// MarkAccepted moves a request from pending to accepted. It returns ErrNotFound when the
// request does not exist or is no longer pending, so a request can only be accepted once.
func (r *FriendRepository) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": models.StatusAccepted, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *FriendRepository) find(ctx context.Context, filter bson.M) ([]models.FriendRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find friend requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := []models.FriendRequest{}
	for cursor.Next(ctx) {
		var req models.FriendRequest
		if err := cursor.Decode(&req); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friend requests: %w", err)
	}

	return requests, nil
}
