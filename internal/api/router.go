package api

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/spektr-org/carbonlens/internal/observability"
)

// NewRouter wires every route, wrapped with request metrics, CORS and an
// access log written to accessLog (nil disables it).
func NewRouter(h *Handlers, m *observability.Metrics, accessLog io.Writer) http.Handler {
	r := mux.NewRouter()

	route := func(path string, fn http.HandlerFunc, methods ...string) {
		r.Handle(path, m.WrapHandler(path, fn)).Methods(methods...)
	}

	route("/health", h.Health, http.MethodGet)
	route("/views", h.Snapshot, http.MethodGet)
	route("/views/{name}", h.View, http.MethodGet)
	route("/charts/{name}", h.Chart, http.MethodGet)
	route("/tables/{name}", h.Table, http.MethodGet)
	route("/kpis/text", h.KPIText, http.MethodGet)
	route("/facets", h.Facets, http.MethodGet)
	route("/records.csv", h.ExportCSV, http.MethodGet)
	route("/records/preview", h.Preview, http.MethodGet)
	route("/predictions", h.Predictions, http.MethodGet)
	route("/predictions/metrics", h.PredictionMetrics, http.MethodGet)
	route("/predict", h.Predict, http.MethodPost)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	var handler http.Handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
	if accessLog != nil {
		handler = handlers.LoggingHandler(accessLog, handler)
	}
	return handler
}
