package common

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wheelshare/wheelshare-api/internal/http/middleware"
	"github.com/wheelshare/wheelshare-api/internal/httputil"
	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

// Check is a membership predicate such as carpool.Predicates.CanViewCarpool.
type Check func(ctx context.Context, id, userID int64) (bool, error)

// UserID returns the authenticated user, writing a 401 if there is none.
func UserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}

// PathID parses a positive int64 URL parameter, writing a 400 if it is invalid.
func PathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		httputil.Error(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// Authorize runs check for the user and id. A false result is written as
// 403 and a check failure as 500.
func Authorize(w http.ResponseWriter, r *http.Request, logger *slog.Logger, check Check, id, userID int64) bool {
	allowed, err := check(r.Context(), id, userID)
	if err != nil {
		httputil.ErrorFrom(w, logger, fmt.Errorf("failed to check permission: %w", err))
		return false
	}
	if !allowed {
		httputil.ErrorFrom(w, logger, domain.ErrForbidden)
		return false
	}
	return true
}

// Target reads the acting user and the carpool id from the request and
// authorizes them with check. A nil check only requires authentication.
func Target(w http.ResponseWriter, r *http.Request, logger *slog.Logger, check Check) (userID, carpoolID int64, ok bool) {
	if userID, ok = UserID(w, r); !ok {
		return 0, 0, false
	}
	if carpoolID, ok = PathID(w, r, "id"); !ok {
		return 0, 0, false
	}
	if check != nil && !Authorize(w, r, logger, check, carpoolID, userID) {
		return 0, 0, false
	}
	return userID, carpoolID, true
}
