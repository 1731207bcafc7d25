package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/types"
)

// Context keys for authenticated session information
const (
	WalletAddressKey = "wallet_address"
	FidKey           = "fid"
	UsernameKey      = "username"
	ClaimsKey        = "claims"
)

// Claims carries the wallet address and the Farcaster identity the client
// authenticated with. The fid is optional; wallet and social identity are
// independent axes.
type Claims struct {
	WalletAddress string `json:"wallet_address"`
	Fid           int64  `json:"fid,omitempty"`
	Username      string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed token for a session. Used by tests and by
// the host environment that fronts this service.
func GenerateToken(secret string, claims Claims, expiration time.Duration) (string, error) {
	if expiration == 0 {
		expiration = 24 * time.Hour
	}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(expiration))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// JWTMiddleware creates a JWT authentication middleware.
func JWTMiddleware(secret string, logger zerolog.Logger) gin.HandlerFunc {
	authLogger := logger.With().Str("component", "auth").Logger()

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			unauthorized(c, "missing bearer token")
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			authLogger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Token validation failed")
			unauthorized(c, "invalid token")
			return
		}

		c.Set(WalletAddressKey, claims.WalletAddress)
		c.Set(FidKey, claims.Fid)
		c.Set(UsernameKey, claims.Username)
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
		StatusCode: http.StatusUnauthorized,
		IsSuccess:  false,
		Error: types.ErrorDetail{
			Timestamp:    time.Now().Format(time.RFC3339),
			Path:         c.Request.URL.Path,
			ErrorMessage: message,
		},
	})
}

// GetFid extracts the authenticated fid from gin context.
func GetFid(c *gin.Context) int64 {
	if v, exists := c.Get(FidKey); exists {
		if fid, ok := v.(int64); ok {
			return fid
		}
	}
	return 0
}

// GetWalletAddress extracts the authenticated wallet address from gin context.
func GetWalletAddress(c *gin.Context) string {
	if v, exists := c.Get(WalletAddressKey); exists {
		if addr, ok := v.(string); ok {
			return addr
		}
	}
	return ""
}

// GetUsername extracts the authenticated username from gin context.
func GetUsername(c *gin.Context) string {
	if v, exists := c.Get(UsernameKey); exists {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}
