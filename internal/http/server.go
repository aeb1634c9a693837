// Package http exposes the Smartspend JSON API: expense CRUD, bill
// bulk updates, dashboard analytics, search, receipt scanning and
// spending insights.
package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jithinsajeev21/Smartspend/internal/ai"
	"github.com/jithinsajeev21/Smartspend/internal/cache"
	"github.com/jithinsajeev21/Smartspend/internal/core"
	"github.com/jithinsajeev21/Smartspend/internal/middleware/ratelimit"
	"github.com/jithinsajeev21/Smartspend/internal/middleware/security"
	"github.com/jithinsajeev21/Smartspend/internal/middleware/trace"
	"github.com/jithinsajeev21/Smartspend/internal/services"
)

// InsightGenerator produces a spending analysis from the expense list.
// Implementations never fail, they fall back to a neutral result.
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, expenses []core.Expense) ai.Insight
}

type Server struct {
	http.Server

	expenses *services.ExpenseService
	receipts *services.ReceiptImporter
	insights InsightGenerator

	limiter  *ratelimit.Limiter
	detector *security.Detector

	// Dashboard responses are cached per generation; every mutation
	// bumps the generation so stale entries age out via LRU and TTL
	// instead of explicit invalidation.
	dashboardCache *cache.LRUCache[[]byte]
	insightCache   *cache.LRUCache[ai.Insight]
	cacheManager   *cache.Manager
	generation     atomic.Int64

	shutdownOnce sync.Once
	now          func() time.Time
}

// NewServer wires routes and middleware, returning a ready-to-run
// server. Receipts and insights may be nil when no AI key is configured;
// the matching endpoints then answer 503.
func NewServer(addr string, expenses *services.ExpenseService, receipts *services.ReceiptImporter, insights InsightGenerator) *Server {
	mux := http.NewServeMux()

	s := &Server{
		expenses:       expenses,
		receipts:       receipts,
		insights:       insights,
		limiter:        ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:       security.NewDetector(),
		dashboardCache: cache.NewLRUCache[[]byte](100, 1*time.Minute),
		insightCache:   cache.NewLRUCache[ai.Insight](4, 10*time.Minute),
		cacheManager:   cache.NewManager(),
		now:            time.Now,
	}
	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.insightCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/expenses", s.handleExpenses)
	mux.HandleFunc("/expenses/", s.handleExpenseByID)
	mux.HandleFunc("/bills/update", s.handleUpdateBill)
	mux.HandleFunc("/participants", s.handleParticipants)
	mux.HandleFunc("/dashboard/overview", s.handleOverview)
	mux.HandleFunc("/dashboard/settlement", s.handleSettlement)
	mux.HandleFunc("/dashboard/replenishment", s.handleReplenishment)
	mux.HandleFunc("/dashboard/shopping-list", s.handleShoppingList)
	mux.HandleFunc("/dashboard/store-optimizer", s.handleStoreOptimizer)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/receipts/scan", s.handleScanReceipt)
	mux.HandleFunc("/insights", s.handleInsights)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:    addr,
		Handler: tracer.Middleware(headers.Middleware(s.withRateLimit(mux))),
	}
	return s
}

// withRateLimit throttles mutating requests per client IP. Reads stay
// unlimited, the dashboard polls frequently.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.limiter.Allow(s.detector.ExtractClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// bumpGeneration invalidates cached dashboard and insight responses
// after a mutation.
func (s *Server) bumpGeneration() {
	s.generation.Add(1)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
