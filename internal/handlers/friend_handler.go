package handlers

import (
	"net/http"

	"github.com/lingualink/lingualink-backend/internal/services"
	"github.com/lingualink/lingualink-backend/pkg/logger"
)

// FriendHandler manages HTTP endpoints related to friend requests and friends.
type FriendHandler struct {
	Service *services.FriendService
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(service *services.FriendService) *FriendHandler {
	return &FriendHandler{Service: service}
}

// SendFriendRequestHandler handles POST /api/users/friend-request/{id}.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	senderID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	recipientID, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}

	request, err := h.Service.SendFriendRequest(r.Context(), senderID, recipientID)
	if err != nil {
		logger.Log.Warnf("Failed to send friend request: %v", err)
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusCreated, envelope{"request": request})
}

// AcceptFriendRequestHandler handles PUT /api/users/friend-request/{id}/accept.
func (h *FriendHandler) AcceptFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "id", "request")
	if !ok {
		return
	}

	if err := h.Service.AcceptFriendRequest(r.Context(), requestID, userID); err != nil {
		logger.Log.Warnf("Failed to accept friend request: %v", err)
		respondError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Friend request accepted")
}

// GetFriendRequestsHandler handles GET /api/users/friend-requests: requests waiting on
// the user and requests of theirs that were accepted.
func (h *FriendHandler) GetFriendRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	incoming, err := h.Service.GetIncomingRequests(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	accepted, err := h.Service.GetAcceptedRequests(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"incomingReqs": incoming, "acceptedReqs": accepted})
}

// GetOutgoingRequestsHandler handles GET /api/users/outgoing-friend-requests.
func (h *FriendHandler) GetOutgoingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	outgoing, err := h.Service.GetOutgoingRequests(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"outgoingReqs": outgoing})
}

// GetFriendsHandler handles GET /api/users/friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	friends, err := h.Service.GetFriends(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"data": friends})
}

// GetRecommendedUsersHandler handles GET /api/users.
func (h *FriendHandler) GetRecommendedUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	users, err := h.Service.GetDiscoverableUsers(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"data": users})
}

// RemoveFriendHandler handles DELETE /api/friends/{id}.
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "id", "friend")
	if !ok {
		return
	}

	if err := h.Service.RemoveFriend(r.Context(), userID, friendID); err != nil {
		logger.Log.Errorf("Failed to remove friend: %v", err)
		respondMessage(w, http.StatusInternalServerError, "Failed to remove friend")
		return
	}

	respondMessage(w, http.StatusOK, "Friend removed")
}
