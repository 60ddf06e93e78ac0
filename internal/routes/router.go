package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lingualink/lingualink-backend/internal/config"
	"github.com/lingualink/lingualink-backend/internal/handlers"
	"github.com/lingualink/lingualink-backend/pkg/middleware"
	"github.com/rs/cors"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Friends      *handlers.FriendHandler
	Notification *handlers.NotificationHandler
	Chat         *handlers.ChatHandler
	Realtime     *handlers.RealtimeHandler
	LastActive   middleware.LastActiveUpdater
}

// NewRouter registers every route and wraps the router with logging and CORS.
func NewRouter(cfg *config.Config, h Handlers) http.Handler {
	router := mux.NewRouter()
	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	lastActive := middleware.UpdateLastActiveMiddleware(h.LastActive)

	router.HandleFunc("/api/health", handlers.HealthHandler).Methods("GET")
	router.HandleFunc("/ws", h.Realtime.WebSocketHandler).Methods("GET")

	// Public auth routes
	router.HandleFunc("/api/auth/signup", h.Auth.SignupHandler).Methods("POST")
	router.HandleFunc("/api/auth/login", h.Auth.LoginHandler).Methods("POST")
	router.HandleFunc("/api/auth/logout", h.Auth.LogoutHandler).Methods("POST")

	// Protected auth routes
	protectedAuthRoutes := router.PathPrefix("/api/auth").Subrouter()
	protectedAuthRoutes.Use(auth, lastActive)
	protectedAuthRoutes.HandleFunc("/onboarding", h.Auth.OnboardingHandler).Methods("POST")
	protectedAuthRoutes.HandleFunc("/me", h.Auth.MeHandler).Methods("GET")

	// User and friend request routes
	userRoutes := router.PathPrefix("/api/users").Subrouter()
	userRoutes.Use(auth, lastActive)
	userRoutes.HandleFunc("", h.Friends.GetRecommendedUsersHandler).Methods("GET")
	userRoutes.HandleFunc("/friends", h.Friends.GetFriendsHandler).Methods("GET")
	userRoutes.HandleFunc("/friends/online", h.Realtime.OnlineFriendsHandler).Methods("GET")
	userRoutes.HandleFunc("/friend-request/{id}", h.Friends.SendFriendRequestHandler).Methods("POST")
	userRoutes.HandleFunc("/friend-request/{id}/accept", h.Friends.AcceptFriendRequestHandler).Methods("PUT")
	userRoutes.HandleFunc("/friend-requests", h.Friends.GetFriendRequestsHandler).Methods("GET")
	userRoutes.HandleFunc("/outgoing-friend-requests", h.Friends.GetOutgoingRequestsHandler).Methods("GET")

	// Friend routes
	friendRoutes := router.PathPrefix("/api/friends").Subrouter()
	friendRoutes.Use(auth, lastActive)
	friendRoutes.HandleFunc("/{id}", h.Friends.RemoveFriendHandler).Methods("DELETE")

	// Notification routes
	notificationRoutes := router.PathPrefix("/api/notifications").Subrouter()
	notificationRoutes.Use(auth, lastActive)
	notificationRoutes.HandleFunc("", h.Notification.GetUserNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/{id}/read", h.Notification.MarkAsReadHandler).Methods("PUT")
	notificationRoutes.HandleFunc("/{id}", h.Notification.DeleteNotificationHandler).Methods("DELETE")

	// Chat routes
	chatRoutes := router.PathPrefix("/api/chat").Subrouter()
	chatRoutes.Use(auth)
	chatRoutes.HandleFunc("/token", h.Chat.GetStreamTokenHandler).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	return c.Handler(router)
}
