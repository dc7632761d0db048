package security

import (
	"crypto/tls"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/log"
)

func TestDetector_ExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{name: "direct public peer ignores headers", remote: "203.0.113.9:5000", xff: "1.1.1.1", want: "203.0.113.9"},
		{name: "trusted proxy forwards first hop", remote: "10.0.0.2:443", xff: "198.51.100.7, 10.0.0.5", want: "198.51.100.7"},
		{name: "trusted proxy real ip", remote: "127.0.0.1:80", xri: "198.51.100.8", want: "198.51.100.8"},
		{name: "garbage forwarded header", remote: "192.168.1.1:80", xff: "not-an-ip", want: "192.168.1.1"},
		{name: "no port", remote: "198.51.100.1", want: "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/cycles", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(r))
		})
	}
	assert.Equal(t, int64(1), d.GetMetrics().InvalidIPAttempts)
}

func TestDetector_DetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()

	clean := httptest.NewRequest(http.MethodGet, "/txns?cycleId=3&bucket=WANTS", nil)
	clean.Header.Set("User-Agent", "curl/8.5.0")
	assert.False(t, d.DetectSuspiciousRequest(clean))

	probe := httptest.NewRequest(http.MethodGet, "/.env", nil)
	assert.True(t, d.DetectSuspiciousRequest(probe))

	scanner := httptest.NewRequest(http.MethodGet, "/cycles", nil)
	scanner.Header.Set("User-Agent", "sqlmap/1.7")
	assert.True(t, d.DetectSuspiciousRequest(scanner))

	assert.Equal(t, int64(2), d.GetMetrics().SuspiciousRequests)
}

func TestDetector_MiddlewareRejectsTrace(t *testing.T) {
	d := NewDetector()
	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	h := d.Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("TRACE", "/cycles", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "pattern matches are logged, not blocked")
}

func TestDetector_AddTrustedProxy(t *testing.T) {
	d := NewDetector()
	require.Error(t, d.AddTrustedProxy("nope"))
	require.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.4:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.3")
	assert.Equal(t, "198.51.100.3", d.ExtractClientIP(r))
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cycles", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"), "plain HTTP gets no HSTS")

	req := httptest.NewRequest(http.MethodGet, "/cycles", nil)
	req.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}
