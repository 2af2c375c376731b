package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardscan/pkg/platform/httputil"
	authmw "cardscan/pkg/platform/middleware/auth"
	"cardscan/pkg/platform/middleware/metadata"
	"cardscan/pkg/platform/middleware/request"
	"cardscan/pkg/platform/middleware/requesttime"
)

// HealthCheck checks one backing dependency.
type HealthCheck func(ctx context.Context) error

// Routes is implemented by feature handlers mounted under the API group.
type Routes interface {
	Register(r chi.Router)
}

// RouterConfig carries everything the router needs. Nil fields disable the
// matching feature: no Auth means the API is open, no Gatherer means no /metrics.
type RouterConfig struct {
	Logger         *slog.Logger
	API            []Routes
	Latency        request.LatencyObserver
	Gatherer       prometheus.Gatherer
	Auth           authmw.JWTValidator
	Checks         map[string]HealthCheck
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 10 * time.Second

// NewRouter wires the shared middleware chain, operational endpoints and the
// feature routes.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Timeout(timeout))

	r.Get("/health", healthHandler(cfg.Checks))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(request.LatencyMiddleware(cfg.Latency, routePattern))
		if cfg.Auth != nil {
			r.Use(authmw.RequireAuth(cfg.Auth, logger))
		}
		for _, routes := range cfg.API {
			routes.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

// routePattern labels latency by chi route template so IDs do not explode
// metric cardinality.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return r.Method + " " + pattern
		}
	}
	return r.Method + " unmatched"
}
