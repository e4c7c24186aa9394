// Package httptransport assembles the public router. Handlers live with their
// modules; this package only owns middleware order and the operational routes.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bidurkhatri/veridity-ledger/internal/platform/metrics"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/middleware/metadata"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/middleware/requestid"
	"github.com/bidurkhatri/veridity-ledger/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the chi router with the shared middleware chain, the
// operational endpoints, and every module's routes.
func NewRouter(httpMetrics *metrics.Metrics, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	if httpMetrics != nil {
		r.Use(Observe(httpMetrics))
	}

	r.Get("/healthz", handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}

	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
