package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wheelshare/wheelshare-api/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(handler http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/v1/carpools/1/invitations", nil)
	req.RemoteAddr = ip + ":12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := RateLimit(RateLimitConfig{
		Requests: 2,
		Window:   time.Minute,
		Logger:   logger,
	})(okHandler())

	for i := 1; i <= 2; i++ {
		if got := serve(handler, "192.168.1.1"); got != http.StatusOK {
			t.Errorf("request %d: got status %d, want %d", i, got, http.StatusOK)
		}
	}
	if got := serve(handler, "192.168.1.1"); got != http.StatusTooManyRequests {
		t.Errorf("third request: got status %d, want %d", got, http.StatusTooManyRequests)
	}

	// Other clients keep their own budget.
	if got := serve(handler, "10.0.0.7"); got != http.StatusOK {
		t.Errorf("other ip: got status %d, want %d", got, http.StatusOK)
	}
}

func TestNoRateLimit(t *testing.T) {
	handler := NoRateLimit()(okHandler())

	for i := 0; i < 100; i++ {
		if got := serve(handler, "192.168.1.1"); got != http.StatusOK {
			t.Errorf("request %d: got status %d, want %d", i, got, http.StatusOK)
		}
	}
}

func TestCreateRateLimiters_Disabled(t *testing.T) {
	limiters := CreateRateLimiters(config.RateLimitConfig{Enabled: false}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	handler := limiters[LimitWrite](okHandler())
	for i := 0; i < 100; i++ {
		if got := serve(handler, "192.168.1.1"); got != http.StatusOK {
			t.Errorf("request %d: got status %d, want %d", i, got, http.StatusOK)
		}
	}
}

func TestCreateRateLimiters_Enabled(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:                true,
		WriteRequestsPerMinute: 1,
		WriteWindowMinutes:     1,
		ReadRequestsPerMinute:  5,
		ReadWindowMinutes:      1,
	}
	limiters := CreateRateLimiters(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, kind := range []string{LimitWrite, LimitRead} {
		if limiters[kind] == nil {
			t.Fatalf("%s limiter should not be nil", kind)
		}
	}

	write := limiters[LimitWrite](okHandler())
	serve(write, "172.16.0.1")
	if got := serve(write, "172.16.0.1"); got != http.StatusTooManyRequests {
		t.Errorf("write limiter: got status %d, want %d", got, http.StatusTooManyRequests)
	}

	read := limiters[LimitRead](okHandler())
	if got := serve(read, "172.16.0.1"); got != http.StatusOK {
		t.Errorf("read limiter: got status %d, want %d", got, http.StatusOK)
	}
}
