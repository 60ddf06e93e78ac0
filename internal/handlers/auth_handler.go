package handlers

import (
	"net/http"

	"github.com/lingualink/lingualink-backend/internal/config"
	"github.com/lingualink/lingualink-backend/internal/models"
	"github.com/lingualink/lingualink-backend/internal/services"
	jwtutil "github.com/lingualink/lingualink-backend/pkg/jwt"
	log "github.com/sirupsen/logrus"
)

// AuthHandler handles signup, login and the current user's profile.
type AuthHandler struct {
	Service *services.UserService
	Config  *config.Config
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(service *services.UserService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		Service: service,
		Config:  cfg,
	}
}

// SignupHandler handles POST /api/auth/signup.
func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	user, err := h.Service.Signup(r.Context(), body.FullName, body.Email, body.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusCreated, envelope{"user": user, "token": token})
}

// LoginHandler handles POST /api/auth/login.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &credentials) {
		return
	}

	user, err := h.Service.AuthenticateUser(r.Context(), credentials.Email, credentials.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := jwtutil.GenerateToken(user.ID.Hex(), user.Email, h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		respondError(w, r, err)
		return
	}

	log.WithField("userID", user.ID.Hex()).Info("User logged in successfully")
	respondOK(w, http.StatusOK, envelope{"user": user, "token": token})
}

// LogoutHandler handles POST /api/auth/logout. Tokens are stateless, so the
// client discarding its token is the logout.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, http.StatusOK, "Logout successful")
}

// OnboardingHandler handles POST /api/auth/onboarding.
func (h *AuthHandler) OnboardingHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var profile models.OnboardingProfile
	if !decodeJSON(w, r, &profile) {
		return
	}

	user, err := h.Service.Onboard(r.Context(), userID, profile)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"user": user})
}

// MeHandler handles GET /api/auth/me.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondOK(w, http.StatusOK, envelope{"user": user})
}
