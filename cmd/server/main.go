package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"triproom/internal/config"
	"triproom/internal/credentials"
	"triproom/internal/database"
	"triproom/internal/handlers"
	"triproom/internal/logging"
	"triproom/internal/repository"
	"triproom/internal/security"
	"triproom/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("Database connection established", "type", cfg.DatabaseType)

	if err := db.RunMigrations(ctx); err != nil {
		return err
	}
	slog.Info("Migrations completed successfully")

	csrfSecret, jwtSecret := cfg.CSRFSecret, cfg.JWTSecret
	if csrfSecret == "" {
		if csrfSecret, err = credentials.GenerateSecureToken(32); err != nil {
			return err
		}
		slog.Warn("CSRF_SECRET not set; using a random secret, sessions will not survive a restart")
	}
	if jwtSecret == "" {
		jwtSecret = csrfSecret
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, security.NewTokenManager(jwtSecret, cfg.TokenDuration), cfg.SessionDuration)
	roomService := service.NewRoomService(repository.NewRoomRepository(db), membershipRepo)
	membershipService := service.NewMembershipService(roomService, membershipRepo)
	itineraryService := service.NewItineraryService(roomService, repository.NewItineraryRepository(db))
	taskService := service.NewTaskService(roomService, repository.NewTaskRepository(db))
	expenseService := service.NewExpenseService(roomService, repository.NewExpenseRepository(db))
	pollService := service.NewPollService(roomService, repository.NewPollRepository(db))
	dashboardService := service.NewDashboardService(membershipService, roomService, itineraryService, taskService, expenseService, pollService)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		return err
	}

	// Handlers
	csrf := security.NewCSRFGenerator(csrfSecret)
	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	metrics := handlers.NewMetrics()

	router := handlers.NewRouter(handlers.Handlers{
		Middleware: handlers.NewMiddleware(authService, csrf, limiter),
		Auth:       handlers.NewAuthHandler(authService, csrf, handlers.NewOAuthProviders(cfg), cfg.OAuthRedirectBaseURL),
		Rooms:      handlers.NewRoomHandler(roomService, membershipService, emailService, metrics),
		Itinerary:  handlers.NewItineraryHandler(itineraryService),
		Tasks:      handlers.NewTaskHandler(taskService),
		Expenses:   handlers.NewExpenseHandler(expenseService),
		Polls:      handlers.NewPollHandler(pollService, metrics),
		Dashboard:  handlers.NewDashboardHandler(dashboardService),
		Metrics:    metrics,
		Store:      db,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanupExpiredSessions(ctx, authService)
	go limiter.Cleanup(ctx, cfg.RateLimitWindow)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(ctx); err != nil {
				slog.Error("Error cleaning up expired sessions", "error", err)
			}
		}
	}
}
