package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/lingualink/lingualink-backend/internal/realtime"
	"github.com/lingualink/lingualink-backend/internal/services"
	jwtutil "github.com/lingualink/lingualink-backend/pkg/jwt"
	"github.com/lingualink/lingualink-backend/pkg/logger"
)

// RealtimeHandler upgrades clients to the event stream and answers presence queries.
type RealtimeHandler struct {
	Hub       *realtime.Hub
	Friends   *services.FriendService
	JWTSecret string
	upgrader  websocket.Upgrader
}

// NewRealtimeHandler accepts upgrades from browsers on allowedOrigins and from
// clients that send no Origin header.
func NewRealtimeHandler(hub *realtime.Hub, friends *services.FriendService, jwtSecret string, allowedOrigins []string) *RealtimeHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &RealtimeHandler{
		Hub:       hub,
		Friends:   friends,
		JWTSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// WebSocketHandler handles GET /ws?token=<jwt>. Browsers cannot set headers on
// an upgrade request, so the token travels in the query string.
func (h *RealtimeHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized - No token provided")
		return
	}
	claims, err := jwtutil.ValidateToken(token, h.JWTSecret)
	if err != nil {
		logger.Log.WithError(err).Warn("WebSocket auth failed")
		respondMessage(w, http.StatusUnauthorized, "Unauthorized - Invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logger.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	h.Hub.Serve(r.Context(), claims.UserID, conn)
}

// OnlineFriendsHandler handles GET /api/users/friends/online.
func (h *RealtimeHandler) OnlineFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	friendIDs, err := h.Friends.FriendIDs(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	online := make([]string, 0, len(friendIDs))
	for _, id := range friendIDs {
		if h.Hub.IsOnline(id.Hex()) {
			online = append(online, id.Hex())
		}
	}

	respondOK(w, http.StatusOK, envelope{"online": online})
}
