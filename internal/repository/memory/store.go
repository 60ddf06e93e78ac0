// Package memory is an in-process implementation of the repository contracts.
// It backs STORE_DRIVER=memory for local runs and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lingualink/lingualink-backend/internal/models"
	"github.com/lingualink/lingualink-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	seq           int64
	users         map[primitive.ObjectID]userRecord
	requests      map[primitive.ObjectID]requestRecord
	friendships   map[string]friendshipRecord
	notifications map[primitive.ObjectID]models.Notification
}

// records remember insertion order so equal timestamps still sort deterministically.
type userRecord struct {
	user models.User
	seq  int64
}

type requestRecord struct {
	req models.FriendRequest
	seq int64
}

type friendshipRecord struct {
	edge models.Friendship
	seq  int64
}

func NewStore() *Store {
	return &Store{
		users:         make(map[primitive.ObjectID]userRecord),
		requests:      make(map[primitive.ObjectID]requestRecord),
		friendships:   make(map[string]friendshipRecord),
		notifications: make(map[primitive.ObjectID]models.Notification),
	}
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

type txKey struct{}

// WithTransaction runs fn and restores the previous state if it fails. While fn
// runs, writes that do not carry fn's ctx wait, so a rollback cannot drop them.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// writeLock keeps plain writes out of a running transaction. Writes made by the
// transaction itself already hold txMu.
func (s *Store) writeLock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type snapshot struct {
	users         map[primitive.ObjectID]userRecord
	requests      map[primitive.ObjectID]requestRecord
	friendships   map[string]friendshipRecord
	notifications map[primitive.ObjectID]models.Notification
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		users:         copyMap(s.users),
		requests:      copyMap(s.requests),
		friendships:   copyMap(s.friendships),
		notifications: copyMap(s.notifications),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.requests = snap.requests
	s.friendships = snap.friendships
	s.notifications = snap.notifications
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if strings.EqualFold(rec.user.Email, user.Email) {
			return nil, repository.ErrDuplicate
		}
	}

	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	stored.Friends = nil
	s.users[user.ID] = userRecord{user: stored, seq: s.next()}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.users {
		if strings.EqualFold(rec.user.Email, email) {
			u := rec.user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := rec.user
	return &u, nil
}

// UpdateUser applies a partial update keyed by stored field names, like a Mongo $set.
func (s *Store) UpdateUser(ctx context.Context, id primitive.ObjectID, update map[string]interface{}) (*models.User, error) {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	raw, err := bson.Marshal(rec.user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	for k, v := range update {
		doc[k] = v
	}
	doc["updated_at"] = time.Now()

	raw, err = bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}
	var updated models.User
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return nil, fmt.Errorf("failed to apply update: %w", err)
	}

	rec.user = updated
	s.users[id] = rec
	return &updated, nil
}

func (s *Store) UpdateLastActive(ctx context.Context, id primitive.ObjectID) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.users[id]; ok {
		rec.user.LastActiveAt = time.Now()
		s.users[id] = rec
	}
	return nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return s.collectUsers(func(u models.User) bool { return want[u.ID] }, false), nil
}

func (s *Store) GetDiscoverableUsers(ctx context.Context, exclude []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := make(map[primitive.ObjectID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	return s.collectUsers(func(u models.User) bool { return u.IsOnboarded && !skip[u.ID] }, true), nil
}

func (s *Store) collectUsers(keep func(models.User) bool, newestFirst bool) []models.User {
	recs := make([]userRecord, 0, len(s.users))
	for _, rec := range s.users {
		if keep(rec.user) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if newestFirst {
			return recs[i].seq > recs[j].seq
		}
		return recs[i].seq < recs[j].seq
	})

	users := make([]models.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, rec.user)
	}
	return users
}

// --- friend requests ---

func (s *Store) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.PairKey(req.Sender, req.Recipient)
	for _, rec := range s.requests {
		if rec.req.PairKey == key && rec.req.Status == models.StatusPending {
			return nil, repository.ErrDuplicate
		}
	}

	now := time.Now()
	req.ID = primitive.NewObjectID()
	req.Status = models.StatusPending
	req.PairKey = key
	req.CreatedAt = now
	req.UpdatedAt = now

	s.requests[req.ID] = requestRecord{req: *req, seq: s.next()}
	return req, nil
}

func (s *Store) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	req := rec.req
	return &req, nil
}

func (s *Store) FindPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := models.PairKey(a, b)
	for _, rec := range s.requests {
		if rec.req.PairKey == key && rec.req.Status == models.StatusPending {
			req := rec.req
			return &req, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetRequestsByRecipient(ctx context.Context, recipientID primitive.ObjectID, status models.RequestStatus) ([]models.FriendRequest, error) {
	return s.collectRequests(func(r models.FriendRequest) bool {
		return r.Recipient == recipientID && r.Status == status
	}), nil
}

func (s *Store) GetRequestsBySender(ctx context.Context, senderID primitive.ObjectID, status models.RequestStatus) ([]models.FriendRequest, error) {
	return s.collectRequests(func(r models.FriendRequest) bool {
		return r.Sender == senderID && r.Status == status
	}), nil
}

func (s *Store) collectRequests(keep func(models.FriendRequest) bool) []models.FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]requestRecord, 0)
	for _, rec := range s.requests {
		if keep(rec.req) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	out := make([]models.FriendRequest, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.req)
	}
	return out
}

func (s *Store) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.requests[id]
	if !ok || rec.req.Status != models.StatusPending {
		return repository.ErrNotFound
	}
	rec.req.Status = models.StatusAccepted
	rec.req.UpdatedAt = time.Now()
	s.requests[id] = rec
	return nil
}

// --- friendships ---

func (s *Store) AddFriendship(ctx context.Context, a, b primitive.ObjectID) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	edge := models.NewFriendship(a, b, time.Now())
	if _, ok := s.friendships[edge.ID]; ok {
		return nil
	}
	s.friendships[edge.ID] = friendshipRecord{edge: *edge, seq: s.next()}
	return nil
}

func (s *Store) RemoveFriendship(ctx context.Context, a, b primitive.ObjectID) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.friendships, models.PairKey(a, b))
	return nil
}

func (s *Store) AreFriends(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.friendships[models.PairKey(a, b)]
	return ok, nil
}

func (s *Store) GetFriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]friendshipRecord, 0)
	for _, rec := range s.friendships {
		for _, id := range rec.edge.UserIDs {
			if id == userID {
				recs = append(recs, rec)
				break
			}
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	ids := make([]primitive.ObjectID, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.edge.Other(userID))
	}
	return ids, nil
}

// --- notifications ---

func (s *Store) CreateNotification(ctx context.Context, notif *models.Notification) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	notif.ID = primitive.NewObjectID()
	notif.CreatedAt = time.Now()
	notif.ExpiresAt = notif.CreatedAt.Add(models.NotificationTTL)
	s.notifications[notif.ID] = *notif
	return nil
}

func (s *Store) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := []models.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID && n.ExpiresAt.After(now) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkAsRead(ctx context.Context, id, userID primitive.ObjectID) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.Read = true
	s.notifications[id] = n
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID primitive.ObjectID) error {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

func (s *Store) DeleteExpiredNotifications(ctx context.Context) (int64, error) {
	defer s.writeLock(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var deleted int64
	for id, n := range s.notifications {
		if !n.ExpiresAt.After(now) {
			delete(s.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

// ExpireNotificationsBefore shifts expiry so tests can exercise the cleanup job.
func (s *Store) ExpireNotificationsBefore(t time.Time) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range s.notifications {
		n.ExpiresAt = t
		s.notifications[id] = n
	}
}
