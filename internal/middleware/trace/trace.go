// Package trace assigns request IDs, logs request lifecycles and keeps
// the counters served by the metrics endpoint.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// Middleware traces requests and aggregates request counters.
type Middleware struct {
	extractIP func(*http.Request) string
	metrics   *Metrics
}

// Metrics is a snapshot of the request counters.
type Metrics struct {
	TotalRequests  int64
	ClientErrors   int64
	ServerErrors   int64
	LastDurationMs int64
}

func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		metrics:   &Metrics{},
	}
}

// Middleware returns the HTTP middleware for request tracing.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := GenerateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "HTTP request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		atomic.AddInt64(&m.metrics.TotalRequests, 1)

		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		atomic.StoreInt64(&m.metrics.LastDurationMs, duration.Milliseconds())

		logLevel := slog.LevelInfo
		switch {
		case rw.statusCode >= 500:
			atomic.AddInt64(&m.metrics.ServerErrors, 1)
			logLevel = slog.LevelError
		case rw.statusCode >= 400:
			atomic.AddInt64(&m.metrics.ClientErrors, 1)
			logLevel = slog.LevelWarn
		}

		slog.Log(ctx, logLevel, "HTTP request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing.
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns the current counters.
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:  atomic.LoadInt64(&m.metrics.TotalRequests),
		ClientErrors:   atomic.LoadInt64(&m.metrics.ClientErrors),
		ServerErrors:   atomic.LoadInt64(&m.metrics.ServerErrors),
		LastDurationMs: atomic.LoadInt64(&m.metrics.LastDurationMs),
	}
}
