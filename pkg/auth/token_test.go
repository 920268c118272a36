package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wheelshare/wheelshare-api/pkg/domain"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(TokenConfig{
		AccessTokenTTL: time.Hour,
		JWTSecret:      []byte("test-secret-at-least-32-characters!!"),
		Issuer:         "wheelshare",
	})
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return s
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	if _, err := NewTokenService(TokenConfig{}); err == nil {
		t.Error("NewTokenService() with empty secret should fail")
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	s := newTestTokenService(t)

	tok, err := s.IssueAccessToken(&domain.User{ID: 42, Name: "Alice"})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	if tok.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", tok.TokenType)
	}

	claims, err := s.ValidateAccessToken(tok.Token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.Name != "Alice" {
		t.Errorf("Name = %q, want Alice", claims.Name)
	}
	if claims.ID == "" {
		t.Error("token id (jti) should be set")
	}

	userID, err := s.UserIDFromToken(tok.Token)
	if err != nil {
		t.Fatalf("UserIDFromToken() error = %v", err)
	}
	if userID != 42 {
		t.Errorf("UserIDFromToken() = %d, want 42", userID)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	s := newTestTokenService(t)
	tok, err := s.IssueAccessToken(&domain.User{ID: 7})
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	other, err := NewTokenService(TokenConfig{JWTSecret: []byte("a-different-secret-of-enough-length"), Issuer: "wheelshare"})
	if err != nil {
		t.Fatal(err)
	}
	wrongIssuer, err := NewTokenService(TokenConfig{JWTSecret: s.config.JWTSecret, Issuer: "someone-else"})
	if err != nil {
		t.Fatal(err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "7"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		service *TokenService
		token   string
	}{
		{"garbage", s, "not-a-token"},
		{"wrong secret", other, tok.Token},
		{"wrong issuer", wrongIssuer, tok.Token},
		{"none algorithm", s, unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.service.ValidateAccessToken(tt.token)
			if !errors.Is(err, domain.ErrInvalidToken) {
				t.Errorf("ValidateAccessToken() error = %v, want %v", err, domain.ErrInvalidToken)
			}
		})
	}
}

func TestTokenService_Expired(t *testing.T) {
	s := newTestTokenService(t)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := s.IssueAccessToken(&domain.User{ID: 1})
	if err != nil {
		t.Fatal(err)
	}

	s.now = time.Now
	if _, err := s.ValidateAccessToken(tok.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("ValidateAccessToken() error = %v, want %v", err, domain.ErrInvalidToken)
	}
}

func TestAccessTokenClaims_UserID(t *testing.T) {
	tests := []struct {
		subject string
		want    int64
		wantErr bool
	}{
		{"12", 12, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			c := &AccessTokenClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: tt.subject}}
			got, err := c.UserID()
			if (err != nil) != tt.wantErr {
				t.Fatalf("UserID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("UserID() = %d, want %d", got, tt.want)
			}
		})
	}
}
