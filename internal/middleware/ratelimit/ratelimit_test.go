package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *clock) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)
	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl.now = c.now
	return rl, c
}

func TestLimiter_AllowWithinWindow(t *testing.T) {
	rl, c := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients are counted separately")

	c.t = c.t.Add(30 * time.Second)
	assert.False(t, rl.Allow("10.0.0.1"), "steady traffic must not slide the window")
	assert.Equal(t, 30, rl.RetryAfter("10.0.0.1"))

	c.t = c.t.Add(30 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.Equal(t, Metrics{TotalHits: 2, ClientCount: 2}, rl.GetMetrics())
}

func TestLimiter_Defaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()
	assert.Equal(t, 120, rl.requestsPerMinute)
	assert.Equal(t, 5*time.Minute, rl.cleanupInterval)

	rl.Stop()
	rl.Stop()
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	rl, c := newTestLimiter(t, 10)
	rl.Allow("a")
	c.t = c.t.Add(5 * time.Minute)
	rl.Allow("b")
	c.t = c.t.Add(6 * time.Minute)

	rl.cleanupStaleEntries()
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	ip := func(*http.Request) string { return "1.2.3.4" }

	h := rl.Middleware(ip, nil)(ok)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	var gotRetry int
	custom := rl.Middleware(ip, func(w http.ResponseWriter, r *http.Request, retry int) {
		gotRetry = retry
		w.WriteHeader(http.StatusTeapot)
	})(ok)
	rr = httptest.NewRecorder()
	custom.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, 60, gotRetry)
}

func TestRetryAfterHeader(t *testing.T) {
	assert.Equal(t, "1", RetryAfterHeader(0))
	assert.Equal(t, "42", RetryAfterHeader(42))
}
