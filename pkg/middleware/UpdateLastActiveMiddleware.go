package middleware

import (
	"context"
	"net/http"

	"github.com/lingualink/lingualink-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LastActiveUpdater records activity for a user.
type LastActiveUpdater interface {
	UpdateLastActive(ctx context.Context, id primitive.ObjectID) error
}

// UpdateLastActiveMiddleware stamps the authenticated user's last activity. It must
// run after AuthMiddleware; failures never block the request.
func UpdateLastActiveMiddleware(users LastActiveUpdater) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims := GetUserFromContext(r.Context()); claims != nil {
				if userID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
					if err := users.UpdateLastActive(r.Context(), userID); err != nil {
						logger.Log.WithError(err).WithField("userID", claims.UserID).Warn("Failed to update last activity")
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
