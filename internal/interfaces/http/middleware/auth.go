package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dipanjanswapna/ongonbd/pkg/errors"
	"github.com/dipanjanswapna/ongonbd/pkg/jwt"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// ContextKeyUserID is the context key for user ID.
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims is the context key for the validated access claims.
	ContextKeyClaims ContextKey = "claims"
)

// Authenticator validates an access token, including revocation.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*jwt.Claims, error)
}

// AuthMiddleware validates bearer access tokens.
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth rejects requests without a valid access token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization token is required",
			})
			return
		}

		claims, err := m.auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, errors.ErrTokenExpired) {
				message = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": message,
			})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth records the caller when a valid token is present and lets
// the request through either way.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if claims, err := m.auth.Authenticate(c.Request.Context(), tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(string(ContextKeyUserID), claims.Subject)
	c.Set(string(ContextKeyClaims), claims)
}

// GetUserID extracts user ID from context.
func GetUserID(c *gin.Context) (string, error) {
	v, exists := c.Get(string(ContextKeyUserID))
	if !exists {
		return "", errors.ErrUnauthorized
	}
	id, ok := v.(string)
	if !ok || id == "" {
		return "", errors.ErrUnauthorized
	}
	return id, nil
}

// GetClaims returns the access claims, or nil for anonymous requests.
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(string(ContextKeyClaims))
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// GetClientIP extracts the client IP address.
func GetClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		if idx := strings.Index(ip, ","); idx != -1 {
			ip = ip[:idx]
		}
		return strings.TrimSpace(ip)
	}
	return c.ClientIP()
}
