// Package server assembles the HTTP surface: Connect services, the REST
// settlements endpoint and the operational routes.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/ratelimit"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// Deps are the components the router wires together.
type Deps struct {
	Groups      *service.GroupService
	Expenses    *service.ExpenseService
	JWT         *auth.JWTManager
	Limiter     *ratelimit.Limiter
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(d.CORSOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// Auth runs first so logging and rate limiting see the caller.
	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(d.JWT),
		middleware.LoggingInterceptor(d.Metrics),
		middleware.RateLimitInterceptor(d.Limiter, d.Metrics),
	)
	groupPath, groupHandler := apiconnect.NewGroupServiceHandler(d.Groups, interceptors)
	r.Handle(groupPath+"*", groupHandler)
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(d.Expenses, interceptors)
	r.Handle(expensePath+"*", expenseHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.JWT))
		r.Use(middleware.RateLimit(d.Limiter, d.Metrics))
		r.Get("/groups/{groupID}/settlements", settlementsHandler(d.Groups))
	})

	return r
}

// settlementsHandler serves GET /api/groups/{groupID}/settlements.
func settlementsHandler(groups *service.GroupService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID := chi.URLParam(r, "groupID")
		settlements, err := groups.Settlements(r.Context(), groupID, r.Header.Get("Accept-Language"))
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		middleware.WriteJSON(w, http.StatusOK, settlements)
	}
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Authorization", "Content-Type", "Accept-Language",
			"Connect-Protocol-Version", "Connect-Timeout-Ms",
		},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		MaxAge:         300,
	}).Handler
}

// requestLogger logs every HTTP request with its request ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", chimw.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
