package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// handleHealth is a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}).Write(w, r)
}

// handleReady verifies the store answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	// A list for a nonexistent owner touches the store without
	// returning real data.
	if _, err := s.svc.ListAll(ctx, "readiness-probe"); err != nil {
		checks["store"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	NewJSONResponse().Status(httpStatus).Payload(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w, r)
}

// handleMetrics serves the request counters as plain text.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "requests_total %d\n", m.TotalRequests)
	fmt.Fprintf(w, "requests_client_errors_total %d\n", m.ClientErrors)
	fmt.Fprintf(w, "requests_server_errors_total %d\n", m.ServerErrors)
	fmt.Fprintf(w, "request_last_duration_ms %d\n", m.LastDurationMs)
	fmt.Fprintf(w, "ratelimit_rejected_total %d\n", s.limiter.Rejected())
	fmt.Fprintf(w, "ratelimit_active_clients %d\n", s.limiter.ActiveClients())
	fmt.Fprintf(w, "cache_owners %d\n", s.records.Size())
	fmt.Fprintf(w, "uptime_seconds %d\n", int64(time.Since(s.started).Seconds()))
}
