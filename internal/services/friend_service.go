package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lingualink/lingualink-backend/internal/models"
	"github.com/lingualink/lingualink-backend/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier is told about friendship events worth surfacing to a user.
type Notifier interface {
	CreateNotification(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) error
}

// FriendService owns every state change of the relationship between two users:
// sending and accepting requests and removing friends.
//
// Friendship is stored as one edge per pair, so both users always see the same
// relationship. Operations touching a pair are serialized in-process, and accepting
// a request commits the status change and the new edge in one transaction.
type FriendService struct {
	requests    FriendRequestStore
	friendships FriendshipStore
	users       UserStore
	tx          Transactor
	notifier    Notifier
	locks       *pairLocker
}

// NewFriendService creates a new FriendService. notifier may be nil.
func NewFriendService(requests FriendRequestStore, friendships FriendshipStore, users UserStore, tx Transactor, notifier Notifier) *FriendService {
	return &FriendService{
		requests:    requests,
		friendships: friendships,
		users:       users,
		tx:          tx,
		notifier:    notifier,
		locks:       newPairLocker(),
	}
}

// SendFriendRequest creates a pending request from sender to recipient.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, recipientID primitive.ObjectID) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, ErrSelfFriendRequest
	}

	unlock := s.locks.Lock(models.PairKey(senderID, recipientID))
	defer unlock()

	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to load sender")
	}
	if _, err := s.users.GetUserByID(ctx, recipientID); err != nil {
		return nil, notFoundAs(err, ErrRecipientNotFound, "failed to load recipient")
	}

	friends, err := s.friendships.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	if _, err := s.requests.FindPendingBetween(ctx, senderID, recipientID); err == nil {
		return nil, ErrRequestExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing requests: %w", err)
	}

	request, err := s.requests.CreateRequest(ctx, &models.FriendRequest{
		Sender:    senderID,
		Recipient: recipientID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRequestExists
		}
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"requestID": request.ID.Hex(),
		"sender":    senderID.Hex(),
		"recipient": recipientID.Hex(),
	}).Info("Friend request sent")

	s.notify(ctx, recipientID, models.NotificationFriendRequest,
		"New friend request",
		fmt.Sprintf("%s sent you a friend request", sender.FullName),
		request.ID)

	return request, nil
}

// AcceptFriendRequest accepts a pending request on behalf of its recipient and
// makes the two users friends.
func (s *FriendService) AcceptFriendRequest(ctx context.Context, requestID, actingUserID primitive.ObjectID) error {
	request, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return notFoundAs(err, ErrRequestNotFound, "failed to load friend request")
	}

	if request.Recipient != actingUserID {
		logrus.WithFields(logrus.Fields{
			"requestID": requestID.Hex(),
			"userID":    actingUserID.Hex(),
		}).Warn("Attempt to accept a friend request addressed to someone else")
		return ErrNotRequestRecipient
	}

	if !models.CanTransition(request.Status, models.StatusAccepted) {
		return ErrRequestNotPending
	}

	unlock := s.locks.Lock(models.PairKey(request.Sender, request.Recipient))
	defer unlock()

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requests.MarkAccepted(ctx, request.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRequestNotPending
			}
			return err
		}
		return s.friendships.AddFriendship(ctx, request.Sender, request.Recipient)
	})
	if err != nil {
		var domainErr *Error
		if errors.As(err, &domainErr) {
			return domainErr
		}
		return fmt.Errorf("failed to accept friend request: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"requestID": requestID.Hex(),
		"sender":    request.Sender.Hex(),
		"recipient": request.Recipient.Hex(),
	}).Info("Friend request accepted")

	name := "Someone"
	if recipient, err := s.users.GetUserByID(ctx, request.Recipient); err == nil {
		name = recipient.FullName
	}
	s.notify(ctx, request.Sender, models.NotificationFriendRequestAccepted,
		"Friend request accepted",
		fmt.Sprintf("%s accepted your friend request", name),
		request.ID)

	return nil
}

// GetIncomingRequests lists pending requests addressed to the user.
func (s *FriendService) GetIncomingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequestView, error) {
	requests, err := s.requests.GetRequestsByRecipient(ctx, userID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to get incoming requests: %w", err)
	}
	return s.views(ctx, requests)
}

// GetAcceptedRequests lists requests the user sent that have been accepted.
func (s *FriendService) GetAcceptedRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequestView, error) {
	requests, err := s.requests.GetRequestsBySender(ctx, userID, models.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to get accepted requests: %w", err)
	}
	return s.views(ctx, requests)
}

// GetOutgoingRequests lists pending requests the user sent.
func (s *FriendService) GetOutgoingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequestView, error) {
	requests, err := s.requests.GetRequestsBySender(ctx, userID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to get outgoing requests: %w", err)
	}
	return s.views(ctx, requests)
}

// GetFriends returns the public profile of every friend of the user.
func (s *FriendService) GetFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	friendIDs, err := s.friendships.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend IDs: %w", err)
	}

	if len(friendIDs) == 0 {
		return []models.PublicUser{}, nil
	}

	users, err := s.users.GetUsersByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	return publicUsers(users), nil
}

// GetDiscoverableUsers returns onboarded users who are neither the user nor a friend.
func (s *FriendService) GetDiscoverableUsers(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	friendIDs, err := s.friendships.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend IDs: %w", err)
	}

	exclude := append([]primitive.ObjectID{userID}, friendIDs...)
	users, err := s.users.GetDiscoverableUsers(ctx, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommended users: %w", err)
	}

	return publicUsers(users), nil
}

// RemoveFriend ends the friendship between the two users. It succeeds whether or not
// they were friends, so calling it again leaves the same state.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	unlock := s.locks.Lock(models.PairKey(userID, friendID))
	defer unlock()

	if err := s.friendships.RemoveFriendship(ctx, userID, friendID); err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"userID":   userID.Hex(),
		"friendID": friendID.Hex(),
	}).Info("Friend removed")
	return nil
}

// FriendIDs returns the ids of the user's friends.
func (s *FriendService) FriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.friendships.GetFriendIDs(ctx, userID)
}

func (s *FriendService) views(ctx context.Context, requests []models.FriendRequest) ([]models.FriendRequestView, error) {
	views := make([]models.FriendRequestView, 0, len(requests))
	if len(requests) == 0 {
		return views, nil
	}

	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, r := range requests {
		for _, id := range []primitive.ObjectID{r.Sender, r.Recipient} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load request users: %w", err)
	}
	profiles := make(map[primitive.ObjectID]models.PublicUser, len(users))
	for i := range users {
		profiles[users[i].ID] = users[i].Public()
	}

	profile := func(id primitive.ObjectID) models.PublicUser {
		if p, ok := profiles[id]; ok {
			return p
		}
		return models.PublicUser{ID: id}
	}

	for _, r := range requests {
		views = append(views, models.FriendRequestView{
			ID:        r.ID,
			Sender:    profile(r.Sender),
			Recipient: profile(r.Recipient),
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return views, nil
}

// notify records a notification; failures are logged and never fail the operation.
func (s *FriendService) notify(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, requestID primitive.ObjectID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CreateNotification(ctx, userID, notifType, title, message, &requestID); err != nil {
		logrus.WithError(err).WithField("userID", userID.Hex()).Warn("Failed to create notification")
	}
}

func publicUsers(users []models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out
}

// notFoundAs turns repository.ErrNotFound into the given domain error and wraps anything else.
func notFoundAs(err error, domainErr *Error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domainErr
	}
	return fmt.Errorf("%s: %w", op, err)
}
