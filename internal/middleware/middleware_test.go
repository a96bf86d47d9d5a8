package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "limits are per key")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(RateLimit(NewRateLimiter(ctx, 1, time.Minute)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func authRouter(a *TokenAuth) *gin.Engine {
	r := gin.New()
	r.Use(Auth(a))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(SubjectKey)) })
	return r
}

func TestAuth(t *testing.T) {
	a := NewTokenAuth("secret", "tableviz")
	r := authRouter(a)

	token, err := a.Issue("alice", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestAuthRejects(t *testing.T) {
	a := NewTokenAuth("secret", "tableviz")
	r := authRouter(a)

	expired, err := a.Issue("alice", -time.Minute)
	require.NoError(t, err)
	foreign, err := NewTokenAuth("other", "tableviz").Issue("alice", time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := NewTokenAuth("secret", "someone").Issue("alice", time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + foreign,
		"wrong issuer": "Bearer " + wrongIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
