package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lingualink/lingualink-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestFriendRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create request sets pair key and status", func(mt *mtest.T) {
		repo := NewFriendRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		req, err := repo.CreateRequest(context.Background(), &models.FriendRequest{Sender: a, Recipient: b})
		require.NoError(mt, err)
		assert.False(mt, req.ID.IsZero())
		assert.Equal(mt, models.StatusPending, req.Status)
		assert.Equal(mt, models.PairKey(b, a), req.PairKey)
	})

	mt.Run("duplicate pending request maps to ErrDuplicate", func(mt *mtest.T) {
		repo := NewFriendRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: friend_requests index: pending_pair_unique",
		}))

		_, err := repo.CreateRequest(context.Background(), &models.FriendRequest{
			Sender:    primitive.NewObjectID(),
			Recipient: primitive.NewObjectID(),
		})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("missing request maps to ErrNotFound", func(mt *mtest.T) {
		repo := NewFriendRepository(mt.DB)
		ns := mt.DB.Name() + "." + FriendRequestsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetRequestByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("mark accepted on non-pending request fails", func(mt *mtest.T) {
		repo := NewFriendRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.MarkAccepted(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("mark accepted on pending request succeeds", func(mt *mtest.T) {
		repo := NewFriendRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		assert.NoError(mt, repo.MarkAccepted(context.Background(), primitive.NewObjectID()))
	})

	mt.Run("lists incoming requests", func(mt *mtest.T) {
		repo := NewFriendRepository(mt.DB)
		ns := mt.DB.Name() + "." + FriendRequestsCollection
		recipient := primitive.NewObjectID()
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "sender", Value: primitive.NewObjectID()},
			{Key: "recipient", Value: recipient},
			{Key: "status", Value: "pending"},
		})
		last := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, last)

		reqs, err := repo.GetRequestsByRecipient(context.Background(), recipient, models.StatusPending)
		require.NoError(mt, err)
		require.Len(mt, reqs, 1)
		assert.Equal(mt, recipient, reqs[0].Recipient)
		assert.Equal(mt, models.StatusPending, reqs[0].Status)
	})
}

func TestFriendshipRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("friend ids are derived from edges", func(mt *mtest.T) {
		repo := NewFriendshipRepository(mt.DB)
		ns := mt.DB.Name() + "." + FriendshipsCollection
		me, f1, f2 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		e1 := models.NewFriendship(me, f1, time.Now())
		e2 := models.NewFriendship(f2, me, time.Now())

		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: e1.ID}, {Key: "user_ids", Value: e1.UserIDs}},
			bson.D{{Key: "_id", Value: e2.ID}, {Key: "user_ids", Value: e2.UserIDs}},
		)
		last := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, last)

		ids, err := repo.GetFriendIDs(context.Background(), me)
		require.NoError(mt, err)
		assert.Equal(mt, []primitive.ObjectID{f1, f2}, ids)
	})

	mt.Run("are friends counts the pair edge", func(mt *mtest.T) {
		repo := NewFriendshipRepository(mt.DB)
		ns := mt.DB.Name() + "." + FriendshipsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}))

		ok, err := repo.AreFriends(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("add and remove succeed", func(mt *mtest.T) {
		repo := NewFriendshipRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		require.NoError(mt, repo.AddFriendship(context.Background(), a, b))
		require.NoError(mt, repo.RemoveFriendship(context.Background(), b, a))
	})
}
