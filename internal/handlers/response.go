package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lingualink/lingualink-backend/internal/services"
	"github.com/lingualink/lingualink-backend/pkg/logger"
	"github.com/lingualink/lingualink-backend/pkg/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const internalErrorMessage = "Internal server error"

// envelope is the body of every response: a success flag plus message or data keys.
type envelope map[string]interface{}

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("Failed to write response")
	}
}

func respondOK(w http.ResponseWriter, status int, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	respondJSON(w, status, body)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{"success": status < 400, "message": message})
}

// respondError maps a service error to its status code. Unexpected errors are
// logged and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *services.Error
	if !errors.As(err, &domainErr) {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"requestID": middleware.RequestIDFromContext(r.Context()),
		}).Error("Request failed")
		respondMessage(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	respondMessage(w, statusFor(domainErr), domainErr.Message)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidOperation), errors.Is(err, services.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// currentUserID returns the authenticated user's id, writing a 401 when there is none.
func currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondMessage(w, http.StatusUnauthorized, "Unauthorized - No token provided")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		logger.Log.WithField("userID", claims.UserID).Warn("Token carries a malformed user ID")
		respondMessage(w, http.StatusUnauthorized, "Unauthorized - Invalid token")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathID parses the named route variable as an ObjectID, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid "+label+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode request body")
		respondMessage(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
