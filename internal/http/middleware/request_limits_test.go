package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestSizeLimit(t *testing.T) {
	maxSize := int64(100)

	handler := RequestSizeLimit(maxSize)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name          string
		bodySize      int
		unknownLength bool
		wantStatus    int
	}{
		{name: "small body - accepted", bodySize: 50, wantStatus: http.StatusOK},
		{name: "exact limit - accepted", bodySize: 100, wantStatus: http.StatusOK},
		{name: "declared too large - rejected early", bodySize: 150, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "streamed too large - read fails", bodySize: 150, unknownLength: true, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bytes.Repeat([]byte("a"), tt.bodySize)
			req := httptest.NewRequest(http.MethodPost, "/v1/carpools", bytes.NewReader(body))
			if tt.unknownLength {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireJSON(t *testing.T) {
	handler := RequireJSON(okHandler())

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json body", `{}`, "application/json", http.StatusOK},
		{"json with charset", `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"form body", `a=b`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing content type", `{}`, "", http.StatusUnsupportedMediaType},
		{"empty body", ``, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/carpools", bytes.NewBufferString(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("got status %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
