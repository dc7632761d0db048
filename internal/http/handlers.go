package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"budget/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady reports whether the store answers within a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	switch {
	case s.deps.Store == nil:
		checks["store"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.deps.Store.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase)
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	if s.rateLimiter != nil {
		checks["rate_limiter"] = map[string]any{
			"active_clients": s.rateLimiter.ActiveClients(),
			"status":         "ok",
		}
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	var rateLimitHits, activeClients int64
	if s.rateLimiter != nil {
		m := s.rateLimiter.GetMetrics()
		rateLimitHits, activeClients = m.TotalHits, m.ClientCount
	}

	w.WriteHeader(http.StatusOK)

	metric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric(w, "http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric(w, "cycles_saved_total", "counter", "Cycles created or updated", atomic.LoadInt64(&s.appMetrics.cyclesSaved))
	metric(w, "transactions_saved_total", "counter", "Transactions created or updated", atomic.LoadInt64(&s.appMetrics.transactionsSaved))
	metric(w, "exports_total", "counter", "CSV exports served", atomic.LoadInt64(&s.appMetrics.exports))
	metric(w, "rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rateLimitHits)
	metric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", activeClients)
	metric(w, "suspicious_requests_total", "counter", "Suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))
}

// metric writes one sample in the Prometheus text format.
func metric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
