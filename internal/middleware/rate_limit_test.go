package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRateLimitedRouter(rate int, window time.Duration) (*gin.Engine, *ShardedRateLimiter) {
	rl := NewRateLimiter(rate, window)
	router := gin.New()
	router.Use(rl.RateLimit())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router, rl
}

func TestRateLimit_AllowsUpToRate(t *testing.T) {
	router, rl := newRateLimitedRouter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code, "request %d within the budget", i+1)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_SetsHeaders(t *testing.T) {
	router, rl := newRateLimitedRouter(5, time.Minute)
	defer rl.Stop()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_WindowResets(t *testing.T) {
	router, rl := newRateLimitedRouter(1, 20*time.Millisecond)
	defer rl.Stop()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	time.Sleep(30 * time.Millisecond)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code, "budget replenished after the window")
}

func TestShardedRateLimiter_Stats(t *testing.T) {
	rl := NewShardedRateLimiter(10, time.Minute, 4)
	defer rl.Stop()

	rl.checkRateLimit("1.2.3.4")
	rl.checkRateLimit("5.6.7.8")

	total, perShard := rl.Stats()
	assert.Equal(t, 2, total)
	assert.Len(t, perShard, 4)
}
