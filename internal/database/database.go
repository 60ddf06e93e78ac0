package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lingualink/lingualink-backend/internal/config"
	"github.com/lingualink/lingualink-backend/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// ConnectDB opens and pings a MongoDB client. The caller owns the client and must Disconnect it.
func ConnectDB(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logrus.WithField("database", cfg.DBName).Info("Connected to MongoDB")
	return client, nil
}

// Indexes returns the index models every collection needs, keyed by collection name.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		repository.UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "is_onboarded", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		repository.FriendRequestsCollection: {
			// at most one pending request per unordered pair
			{
				Keys: bson.D{{Key: "pair_key", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("pending_pair_unique").
					SetPartialFilterExpression(bson.M{"status": "pending"}),
			},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "status", Value: 1}}},
		},
		repository.FriendshipsCollection: {
			{Keys: bson.D{{Key: "user_ids", Value: 1}}},
		},
		repository.NotificationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
	}
}

// EnsureIndexes creates any missing indexes. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range Indexes() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	logrus.Info("MongoDB indexes ensured")
	return nil
}

// Disconnect closes the client, waiting at most timeout.
func Disconnect(client *mongo.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Disconnect(ctx)
}
