package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wheelshare/wheelshare-api/internal/config"
	httpserver "github.com/wheelshare/wheelshare-api/internal/http"
	"github.com/wheelshare/wheelshare-api/internal/notification"
	"github.com/wheelshare/wheelshare-api/pkg/auth"
	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/memstore"
	"github.com/wheelshare/wheelshare-api/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Open the store
	var (
		store carpool.Store
		db    *sql.DB
	)
	switch cfg.DBDriver {
	case config.DBDriverMemory:
		store = memstore.New()
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		db, err = repository.NewDB(repository.Config{
			Host:         cfg.DBHost,
			Port:         cfg.DBPort,
			User:         cfg.DBUser,
			Password:     cfg.DBPassword,
			DBName:       cfg.DBName,
			SSLMode:      cfg.DBSSLMode,
			MaxOpenConns: cfg.DBMaxOpenConns,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		logger.Info("connected to database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if cfg.DBAutoMigrate {
			err = repository.Migrate(ctx, db)
		} else {
			err = repository.ValidateSchema(ctx, db)
		}
		cancel()
		if err != nil {
			logger.Error("failed to prepare schema", "error", err)
			os.Exit(1)
		}

		store = repository.NewStore(db)
	}

	// Initialize notifications if configured
	var (
		notifier   carpool.Notifier = carpool.NopNotifier{}
		dispatcher *notification.Dispatcher
	)
	if cfg.HasNotifications() {
		var sender notification.Sender
		switch cfg.NotifyDriver {
		case config.NotifyDriverSendGrid:
			sender = notification.NewSendGridService(notification.SendGridConfig{
				APIKey:   cfg.SendGridAPIKey,
				From:     cfg.MailFrom,
				FromName: cfg.MailFromName,
			})
		case config.NotifyDriverSMTP:
			sender = notification.NewEmailService(notification.EmailConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				User:     cfg.SMTPUser,
				Password: cfg.SMTPPassword,
				From:     cfg.MailFrom,
				FromName: cfg.MailFromName,
			})
		}
		dispatcher = notification.NewDispatcher(store, sender, notification.DispatcherConfig{
			AppBaseURL: cfg.AppBaseURL,
			Timeout:    cfg.NotifyTimeout,
			Async:      true,
		}, logger)
		notifier = dispatcher
		logger.Info("notifications enabled", "driver", cfg.NotifyDriver)
	}

	// Initialize services
	tokenService, err := auth.NewTokenService(auth.TokenConfig{
		AccessTokenTTL: cfg.AccessTokenTTL,
		JWTSecret:      []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
	})
	if err != nil {
		logger.Error("failed to create token service", "error", err)
		os.Exit(1)
	}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:             logger,
		TokenService:       tokenService,
		CarpoolService:     carpool.NewCarpoolService(store, notifier, logger),
		InvitationService:  carpool.NewInvitationService(store, notifier, logger),
		MessageService:     carpool.NewMessageService(store, logger),
		Predicates:         carpool.NewPredicates(store),
		RateLimitConfig:    cfg.RateLimit,
		SecurityHeaders:    cfg.SecurityHeaders,
		MaxRequestBodySize: cfg.MaxRequestBodyBytes,
		Health: func(r *http.Request) error {
			if db == nil {
				return nil
			}
			return db.PingContext(r.Context())
		},
	})

	// Create HTTP server
	addr := cfg.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}

	logger.Info("server stopped")
}
