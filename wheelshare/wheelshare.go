// Package wheelshare embeds the carpool coordination API in another program.
//
// Setup:
//
//  1. Create the schema with repository.Migrate or the SQL in pkg/repository/schema.sql
//  2. Create a WheelShare instance and mount its handler
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/wheelshare?sslmode=disable")
//
//	ws, err := wheelshare.New(wheelshare.Config{
//	    DB:        db,
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if the schema is missing
//	}
//
//	mux := http.NewServeMux()
//	mux.Handle("/", ws.Handler())
//	http.ListenAndServe(":8080", mux)
//
// Tokens are issued by the host application after its own login flow:
//
//	tok, err := ws.IssueToken(user)
package wheelshare

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/wheelshare/wheelshare-api/internal/config"
	httpserver "github.com/wheelshare/wheelshare-api/internal/http"
	"github.com/wheelshare/wheelshare-api/internal/http/middleware"
	"github.com/wheelshare/wheelshare-api/internal/httputil"
	"github.com/wheelshare/wheelshare-api/pkg/auth"
	"github.com/wheelshare/wheelshare-api/pkg/carpool"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
	"github.com/wheelshare/wheelshare-api/pkg/repository"
)

// Config holds the configuration for an embedded WheelShare API.
type Config struct {
	// DB is the PostgreSQL connection. Required unless Store is set.
	DB *sql.DB

	// Store overrides the PostgreSQL store, e.g. with memstore.New() in tests.
	Store carpool.Store

	// JWTSecret is the secret key for signing JWT tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in JWT tokens (default: "wheelshare").
	JWTIssuer string

	// AccessTokenTTL is the lifetime of access tokens (default: 24 hours).
	AccessTokenTTL time.Duration

	// Notifier delivers invitation notifications (default: discard).
	Notifier carpool.Notifier

	// MaxRequestBodyBytes caps request bodies (default: 64 KiB).
	MaxRequestBodyBytes int64

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// WheelShare is an embedded carpool API.
type WheelShare struct {
	config      Config
	store       carpool.Store
	tokens      *auth.TokenService
	carpools    *carpool.CarpoolService
	invitations *carpool.InvitationService
	messages    *carpool.MessageService
	predicates  *carpool.Predicates
	router      http.Handler
}

// New creates a new WheelShare instance with the given configuration.
// Returns an error if required database tables don't exist.
func New(cfg Config) (*WheelShare, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	store := cfg.Store
	if store == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repository.ValidateSchema(ctx, cfg.DB); err != nil {
			return nil, err
		}
		store = repository.NewStore(cfg.DB)
	}

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		AccessTokenTTL: cfg.AccessTokenTTL,
		JWTSecret:      []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
	})
	if err != nil {
		return nil, err
	}

	ws := &WheelShare{
		config:      cfg,
		store:       store,
		tokens:      tokens,
		carpools:    carpool.NewCarpoolService(store, cfg.Notifier, cfg.Logger),
		invitations: carpool.NewInvitationService(store, cfg.Notifier, cfg.Logger),
		messages:    carpool.NewMessageService(store, cfg.Logger),
		predicates:  carpool.NewPredicates(store),
	}

	ws.router = httpserver.NewRouter(httpserver.RouterConfig{
		Logger:             cfg.Logger,
		TokenService:       tokens,
		CarpoolService:     ws.carpools,
		InvitationService:  ws.invitations,
		MessageService:     ws.messages,
		Predicates:         ws.predicates,
		RateLimitConfig:    config.RateLimitConfig{Enabled: false},
		SecurityHeaders:    config.SecurityHeadersConfig{Enabled: true, ContentTypeOptions: "nosniff", FrameOptions: "DENY"},
		MaxRequestBodySize: cfg.MaxRequestBodyBytes,
		Health:             ws.ping,
	})

	return ws, nil
}

// Handler returns the API handler. Routes live under /v1 plus /health.
func (w *WheelShare) Handler() http.Handler {
	return w.router
}

// Routes registers the API on an http.ServeMux under prefix:
//
//	mux := http.NewServeMux()
//	ws.Routes(mux, "/carpool-api")
func (w *WheelShare) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, w.router))
}

// AuthMiddleware returns middleware that validates JWT tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(ws.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (w *WheelShare) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(w.tokens)
}

// IssueToken signs an access token for a user the host has authenticated.
func (w *WheelShare) IssueToken(user *domain.User) (*auth.AccessToken, error) {
	return w.tokens.IssueAccessToken(user)
}

// Carpools returns the carpool lifecycle service for advanced usage.
func (w *WheelShare) Carpools() *carpool.CarpoolService {
	return w.carpools
}

// Invitations returns the invitation lifecycle service for advanced usage.
func (w *WheelShare) Invitations() *carpool.InvitationService {
	return w.invitations
}

// Predicates returns the permission checks for advanced usage.
func (w *WheelShare) Predicates() *carpool.Predicates {
	return w.predicates
}

// GetUserID extracts the user ID from a request.
// Use after AuthMiddleware:
//
//	userID, ok := wheelshare.GetUserID(r)
func GetUserID(r *http.Request) (int64, bool) {
	return middleware.GetUserID(r.Context())
}

// GetUserIDFromContext extracts the user ID from a context.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	return middleware.GetUserID(ctx)
}

// HealthHandler returns a health check handler that pings the database.
func (w *WheelShare) HealthHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if err := w.ping(r); err != nil {
			httputil.JSON(rw, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.JSON(rw, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (w *WheelShare) ping(r *http.Request) error {
	if w.config.DB == nil {
		return nil
	}
	return w.config.DB.PingContext(r.Context())
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil && cfg.Store == nil {
		return errors.New("wheelshare: DB or Store is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("wheelshare: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("wheelshare: JWTSecret must be at least 32 characters")
	}
	if cfg.MaxRequestBodyBytes < 0 {
		return errors.New("wheelshare: MaxRequestBodyBytes must not be negative")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "wheelshare"
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	if cfg.Notifier == nil {
		cfg.Notifier = carpool.NopNotifier{}
	}
	if cfg.MaxRequestBodyBytes == 0 {
		cfg.MaxRequestBodyBytes = 64 * 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}
