package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipanjanswapna/ongonbd/pkg/errors"
	"github.com/dipanjanswapna/ongonbd/pkg/jwt"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

type staticAuth map[string]error

func (a staticAuth) Authenticate(_ context.Context, tok string) (*jwt.Claims, error) {
	err, ok := a[tok]
	if !ok {
		return nil, errors.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	claims := &jwt.Claims{}
	claims.Subject = "user-" + tok
	return claims, nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "request_id": GetRequestID(c)})
	})
	e.GET("/", handlers...)
	return e
}

func get(e *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	m := NewAuthMiddleware(staticAuth{"good": nil, "old": errors.ErrTokenExpired})
	e := newEngine(m.RequireAuth())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "Authorization token is required"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "Authorization token is required"},
		{"expired", "Bearer old", http.StatusUnauthorized, "Token has expired"},
		{"unknown", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"valid", "bearer good", http.StatusOK, "user-good"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(e, tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	m := NewAuthMiddleware(staticAuth{"good": nil})
	e := newEngine(m.OptionalAuth())

	w := get(e, "Bearer nope")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	w = get(e, "Bearer good")
	assert.Contains(t, w.Body.String(), "user-good")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	e := newEngine(rl.Middleware())

	assert.Equal(t, http.StatusOK, get(e, "").Code)
	assert.Equal(t, http.StatusOK, get(e, "").Code)
	w := get(e, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "too_many_requests")

	assert.True(t, rl.Allow("someone-else"))
	rl.Stop()
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	e := newEngine(NewRequestLogger(logger.NewNop()).Handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), "req-42")

	w = get(e, "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
