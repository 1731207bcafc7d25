package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func newAuthRouter(t *testing.T) (*gin.Engine, *Claims) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen Claims
	r := gin.New()
	r.Use(JWTMiddleware(testSecret, zerolog.Nop()))
	r.GET("/protected", func(c *gin.Context) {
		seen = Claims{
			WalletAddress: GetWalletAddress(c),
			Fid:           GetFid(c),
			Username:      GetUsername(c),
		}
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestJWTMiddlewareRoundTrip(t *testing.T) {
	router, seen := newAuthRouter(t)

	token, err := GenerateToken(testSecret, Claims{
		WalletAddress: "0xabcdef0123456789abcdef0123456789abcdef01",
		Fid:           190522,
		Username:      "cookedzera",
	}, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seen.Fid != 190522 {
		t.Errorf("expected fid 190522, got %d", seen.Fid)
	}
	if seen.Username != "cookedzera" {
		t.Errorf("expected username cookedzera, got %q", seen.Username)
	}
	if seen.WalletAddress == "" {
		t.Error("expected the wallet address to be propagated")
	}
}

func TestJWTMiddlewareRejects(t *testing.T) {
	router, _ := newAuthRouter(t)

	expired, err := GenerateToken(testSecret, Claims{Fid: 1}, -time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	wrongKey, err := GenerateToken("other-secret", Claims{Fid: 1}, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a bearer token", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong signing key", header: "Bearer " + wrongKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}
