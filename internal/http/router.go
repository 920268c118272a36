package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wheelshare/wheelshare-api/internal/config"
	"github.com/wheelshare/wheelshare-api/internal/http/features/carpools"
	"github.com/wheelshare/wheelshare-api/internal/http/features/me"
	"github.com/wheelshare/wheelshare-api/internal/http/features/messages"
	"github.com/wheelshare/wheelshare-api/internal/http/middleware"
	"github.com/wheelshare/wheelshare-api/internal/httputil"
	"github.com/wheelshare/wheelshare-api/pkg/auth"
	"github.com/wheelshare/wheelshare-api/pkg/carpool"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger             *slog.Logger
	TokenService       *auth.TokenService
	CarpoolService     *carpool.CarpoolService
	InvitationService  *carpool.InvitationService
	MessageService     *carpool.MessageService
	Predicates         *carpool.Predicates
	RateLimitConfig    config.RateLimitConfig
	SecurityHeaders    config.SecurityHeadersConfig
	MaxRequestBodySize int64
	// Health reports store readiness; nil means always healthy.
	Health func(r *http.Request) error
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r); err != nil {
				cfg.Logger.Error("health check failed", "error", err)
				httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)
	read, write := rateLimiters[middleware.LimitRead], rateLimiters[middleware.LimitWrite]

	carpoolsHandler := carpools.NewHandler(cfg.Logger, cfg.CarpoolService, cfg.InvitationService, cfg.Predicates)
	messagesHandler := messages.NewHandler(cfg.Logger, cfg.MessageService, cfg.Predicates)
	meHandler := me.NewHandler(cfg.Logger, cfg.CarpoolService, cfg.InvitationService)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.TokenService))
		r.Use(middleware.RequireJSON)

		carpoolsHandler.RegisterRoutes(r, read, write)
		messagesHandler.RegisterRoutes(r, read, write)
		meHandler.RegisterRoutes(r, read)
	})

	return r
}
