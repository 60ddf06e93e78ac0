package handlers

import (
	"net/http"

	"github.com/lingualink/lingualink-backend/internal/config"
	jwtutil "github.com/lingualink/lingualink-backend/pkg/jwt"
	"github.com/lingualink/lingualink-backend/pkg/logger"
)

// ChatHandler issues tokens for the hosted chat and video SDK. Messages and calls
// never pass through this server.
type ChatHandler struct {
	Config *config.Config
}

func NewChatHandler(cfg *config.Config) *ChatHandler {
	return &ChatHandler{Config: cfg}
}

// GetStreamTokenHandler handles GET /api/chat/token.
func (h *ChatHandler) GetStreamTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	token, err := jwtutil.GenerateChatToken(userID.Hex(), h.Config.StreamAPISecret)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to generate chat token")
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"token": token})
}
