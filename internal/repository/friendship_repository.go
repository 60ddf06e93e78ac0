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

const FriendshipsCollection = "friendships"

// FriendshipRepository stores one document per friendship, keyed by the pair key.
// Both users' friend lists are read from the same document, so they cannot disagree.
type FriendshipRepository struct {
	collection *mongo.Collection
}

func NewFriendshipRepository(db *mongo.Database) *FriendshipRepository {
	return &FriendshipRepository{
		collection: db.Collection(FriendshipsCollection),
	}
}

// AddFriendship creates the edge between a and b. Adding an existing edge is a no-op.
func (r *FriendshipRepository) AddFriendship(ctx context.Context, a, b primitive.ObjectID) error {
	edge := models.NewFriendship(a, b, time.Now())

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": edge.ID},
		bson.M{"$setOnInsert": bson.M{
			"user_ids":   edge.UserIDs,
			"created_at": edge.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		logrus.WithError(err).WithField("pair", edge.ID).Error("Failed to add friendship")
		return fmt.Errorf("failed to add friendship: %w", err)
	}
	return nil
}

// RemoveFriendship deletes the edge between a and b. Removing a missing edge is a no-op.
func (r *FriendshipRepository) RemoveFriendship(ctx context.Context, a, b primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": models.PairKey(a, b)})
	if err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	return nil
}

func (r *FriendshipRepository) AreFriends(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": models.PairKey(a, b)}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}

// GetFriendIDs returns the ids of everyone userID is friends with.
func (r *FriendshipRepository) GetFriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_ids": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve friends: %w", err)
	}
	defer cursor.Close(ctx)

	friends := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var edge models.Friendship
		if err := cursor.Decode(&edge); err != nil {
			return nil, err
		}
		friends = append(friends, edge.Other(userID))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friendships: %w", err)
	}

	return friends, nil
}
