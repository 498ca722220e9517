// Package httptransport assembles the HTTP surface: the public catalog and
// wizard endpoints plus the admin review API, behind one middleware stack.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campreg/internal/platform/metrics"
	"campreg/internal/platform/middleware"
)

// Registrar is anything that can mount its routes on the router; every
// feature handler satisfies it.
type Registrar interface {
	Register(r chi.Router)
}

type Config struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Handlers []Registrar

	// Health reports readiness of downstream dependencies; nil means always
	// healthy.
	Health func() error
}

// NewRouter builds the full router. Middleware order matters: recovery
// outermost, then request identity and logging, then timeouts.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Latency(cfg.Metrics))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range cfg.Handlers {
		h.Register(r)
	}

	return r
}
