package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lingualink/lingualink-backend/internal/config"
	"github.com/lingualink/lingualink-backend/internal/database"
	"github.com/lingualink/lingualink-backend/internal/handlers"
	"github.com/lingualink/lingualink-backend/internal/realtime"
	"github.com/lingualink/lingualink-backend/internal/repository"
	"github.com/lingualink/lingualink-backend/internal/repository/memory"
	"github.com/lingualink/lingualink-backend/internal/routes"
	notifcron "github.com/lingualink/lingualink-backend/internal/scheduler"
	"github.com/lingualink/lingualink-backend/internal/services"
	"github.com/lingualink/lingualink-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// stores is the persistence the services are built on.
type stores struct {
	users         services.UserStore
	requests      services.FriendRequestStore
	friendships   services.FriendshipStore
	notifications services.NotificationStore
	tx            services.Transactor
	client        *mongo.Client
}

func main() {
	// Load configuration from .env file and environment
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalf("Invalid configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}

	// --- Services ---
	hub := realtime.NewHub(st.friendships)
	notificationService := services.NewNotificationService(st.notifications, hub)
	userService := services.NewUserService(st.users, st.friendships)
	friendService := services.NewFriendService(st.requests, st.friendships, st.users, st.tx, notificationService)

	// --- Handlers ---
	handler := routes.NewRouter(cfg, routes.Handlers{
		Auth:         handlers.NewAuthHandler(userService, cfg),
		Friends:      handlers.NewFriendHandler(friendService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Chat:         handlers.NewChatHandler(cfg),
		Realtime:     handlers.NewRealtimeHandler(hub, friendService, cfg.JWTSecret, cfg.AllowedOrigins),
		LastActive:   userService,
	})

	scheduler, err := notifcron.StartNotificationCronJobs(notificationService)
	if err != nil {
		logger.Log.Fatalf("Failed to schedule cron jobs: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		hub.Close()
		<-scheduler.Stop().Done()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.WithError(err).Error("Server stopped with error")
	}

	if st.client != nil {
		if err := database.Disconnect(st.client, cfg.ShutdownTimeout); err != nil {
			logger.Log.WithError(err).Error("Failed to disconnect from MongoDB")
		}
	}
	logger.Log.Info("Server stopped")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Log.Warn("Using in-memory store; data is lost on restart")
		mem := memory.NewStore()
		return &stores{
			users:         mem,
			requests:      mem,
			friendships:   mem,
			notifications: mem,
			tx:            mem,
		}, nil
	}

	client, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		_ = database.Disconnect(client, cfg.ShutdownTimeout)
		return nil, err
	}

	return &stores{
		users:         repository.NewUserRepository(db),
		requests:      repository.NewFriendRepository(db),
		friendships:   repository.NewFriendshipRepository(db),
		notifications: repository.NewNotificationRepository(db),
		tx:            repository.NewMongoTransactor(client, cfg.UseTransactions),
		client:        client,
	}, nil
}
