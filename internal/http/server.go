// Package http exposes the JSON API for accounts, transactions and
// summaries.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tally/internal/auth"
	"tally/internal/cache"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/services"
)

const (
	cacheTTL             = 5 * time.Minute
	cacheMaxOwners       = 200
	cacheCleanupInterval = 10 * time.Minute
)

// Server wires the transaction service, auth and middleware into one
// ready-to-run http.Server.
type Server struct {
	http.Server

	svc      *services.TransactionService
	authSvc  *auth.Service
	pageSize int

	records  *cache.RecordsCache
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware.
func NewServer(addr string, svc *services.TransactionService, authSvc *auth.Service, pageSize int) *Server {
	if pageSize <= 0 {
		pageSize = core.DefaultPageSize
	}

	s := &Server{
		svc:      svc,
		authSvc:  authSvc,
		pageSize: pageSize,
		records:  cache.NewRecordsCache(cacheMaxOwners, cacheTTL),
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: security.NewDetector(),
		started:  time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.records.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/signup", s.handleSignup)
	mux.HandleFunc("POST /api/login", s.handleLogin)

	authed := auth.Middleware(authSvc)
	mux.Handle("GET /api/transactions", authed(http.HandlerFunc(s.handleListTransactions)))
	mux.Handle("POST /api/transactions", authed(http.HandlerFunc(s.handleCreateTransaction)))
	mux.Handle("PUT /api/transactions/{id}", authed(http.HandlerFunc(s.handleUpdateTransaction)))
	mux.Handle("DELETE /api/transactions/{id}", authed(http.HandlerFunc(s.handleDeleteTransaction)))
	mux.Handle("GET /api/summary/categories", authed(http.HandlerFunc(s.handleCategorySummary)))
	mux.Handle("GET /api/summary/periods", authed(http.HandlerFunc(s.handlePeriodSummary)))

	rateLimited := s.limiter.Middleware(s.detector.ExtractClientIP, nil)
	withLogger := log.Middleware(log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP))
	s.Server = http.Server{
		Addr:    addr,
		Handler: s.tracer.Middleware(rateLimited(withLogger(security.Headers(mux)))),
	}

	return s
}

// Shutdown stops the HTTP server and the background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.records.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ownerRecords returns the owner's merged record list, from cache when
// fresh.
func (s *Server) ownerRecords(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if cached, ok := s.records.Get(ownerID); ok {
		return cached, nil
	}
	all, err := s.svc.ListAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.records.Set(ownerID, all)
	return all, nil
}
