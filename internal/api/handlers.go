package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/spektr-org/carbonlens/engine"
	"github.com/spektr-org/carbonlens/helpers"
	"github.com/spektr-org/carbonlens/pipeline"
	"github.com/spektr-org/carbonlens/record"
	"github.com/spektr-org/carbonlens/source"
)

type viewService interface {
	SnapshotFor(sel engine.Selection, views ...engine.ViewName) (*engine.Snapshot, error)
	Records() ([]record.Record, error)
	State() (pipeline.State, error)
	Version() uint64
}

type predictionHistory interface {
	FetchPredictions(ctx context.Context, limit int) ([]source.Prediction, error)
}

type Handlers struct {
	Log       *slog.Logger
	Views     viewService
	History   predictionHistory // nil disables /predictions
	Predictor source.Predictor  // nil disables /predict

	PreviewRows     int
	PreviewColumns  int
	PredictionLimit int
}

// groupViews have a two-column table form.
var groupViews = map[engine.ViewName]struct{ group, value string }{
	engine.ViewTopNeighborhoods:  {"Neighborhood", "CO2 (t)"},
	engine.ViewTopPropertyTypes:  {"Property Type", "CO2 (t)"},
	engine.ViewPropertyTypeShare: {"Property Type", "CO2 (t)"},
	engine.ViewBuildingsByYear:   {"Year Built", "Buildings"},
	engine.ViewFloorDistribution: {"Floors", "Buildings"},
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	state, loadErr := h.Views.State()
	body := map[string]any{
		"status":  state.String(),
		"version": h.Views.Version(),
		"ts":      time.Now().UTC(),
	}
	if records, err := h.Views.Records(); err == nil {
		body["records"] = len(records)
	}
	if loadErr != nil {
		body["error"] = loadErr.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

// Snapshot serves GET /views?year=&type=&views=a,b.
func (h *Handlers) Snapshot(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	var views []engine.ViewName
	if raw := r.URL.Query().Get("views"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			views = append(views, engine.ViewName(strings.TrimSpace(name)))
		}
	}
	snap, err := h.Views.SnapshotFor(sel, views...)
	if err != nil {
		h.viewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// View serves GET /views/{name}.
func (h *Handlers) View(w http.ResponseWriter, r *http.Request) {
	name, snap, ok := h.namedSnapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"view":      name,
		"version":   snap.Version,
		"selection": snap.Selection,
		"data":      snap.Get(name),
	})
}

// Chart serves GET /charts/{name}.
func (h *Handlers) Chart(w http.ResponseWriter, r *http.Request) {
	name, snap, ok := h.namedSnapshot(w, r)
	if !ok {
		return
	}
	chart := engine.BuildChart(name, snap)
	if chart == nil {
		h.notFound(w, fmt.Sprintf("no chart for view %q", name))
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// Table serves GET /tables/{name} for ranked and bucketed views.
func (h *Handlers) Table(w http.ResponseWriter, r *http.Request) {
	name, snap, ok := h.namedSnapshot(w, r)
	if !ok {
		return
	}
	labels, found := groupViews[name]
	if !found {
		h.notFound(w, fmt.Sprintf("no table for view %q", name))
		return
	}
	values, _ := snap.Get(name).([]engine.NamedValue)
	writeJSON(w, http.StatusOK, engine.BuildGroupTable(engine.LabelForDimension(string(name)), labels.group, labels.value, values))
}

// KPIText serves GET /kpis/text.
func (h *Handlers) KPIText(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	snap, err := h.Views.SnapshotFor(sel, engine.ViewKPIs)
	if err != nil {
		h.viewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engine.BuildText(*snap.KPIs))
}

// Facets serves GET /facets.
func (h *Handlers) Facets(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Views.SnapshotFor(engine.DefaultSelection(), engine.ViewFacets)
	if err != nil {
		h.viewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Facets)
}

// ExportCSV serves GET /records.csv with the unfiltered normalized set.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.Views.Records()
	if err != nil {
		h.viewError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="data.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := helpers.WriteCSV(w, records); err != nil {
		h.Log.Error("csv export failed", "error", err)
	}
}

// Preview serves GET /records/preview.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	records, err := h.Views.Records()
	if err != nil {
		h.viewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, engine.BuildPreviewTable(records, h.PreviewRows, h.PreviewColumns))
}

// Predictions serves GET /predictions?limit=N.
func (h *Handlers) Predictions(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		h.notFound(w, "prediction history not configured")
		return
	}
	limit := h.PredictionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.badRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	preds, err := h.History.FetchPredictions(r.Context(), limit)
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": source.LastN(preds, limit)})
}

// PredictionMetrics serves GET /predictions/metrics over the full history.
func (h *Handlers) PredictionMetrics(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		h.notFound(w, "prediction history not configured")
		return
	}
	preds, err := h.History.FetchPredictions(r.Context(), 0)
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, source.Summarize(preds))
}

// Predict serves POST /predict.
func (h *Handlers) Predict(w http.ResponseWriter, r *http.Request) {
	if h.Predictor == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "prediction backend not configured"})
		return
	}
	var in source.PredictionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.badRequest(w, "invalid prediction input")
		return
	}
	if err := in.Validate(); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	v, err := h.Predictor.Predict(r.Context(), in)
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"prediction_CO2": v})
}

// ============================================================================
// HELPERS
// ============================================================================

func (h *Handlers) selection(w http.ResponseWriter, r *http.Request) (engine.Selection, bool) {
	q := r.URL.Query()
	sel, err := engine.ParseSelection(q.Get("year"), q.Get("type"))
	if err != nil {
		h.badRequest(w, err.Error())
		return engine.Selection{}, false
	}
	return sel, true
}

func (h *Handlers) namedSnapshot(w http.ResponseWriter, r *http.Request) (engine.ViewName, *engine.Snapshot, bool) {
	name, err := engine.ParseViewName(mux.Vars(r)["name"])
	if err != nil {
		h.notFound(w, fmt.Sprintf("unknown view %q", mux.Vars(r)["name"]))
		return "", nil, false
	}
	sel, ok := h.selection(w, r)
	if !ok {
		return "", nil, false
	}
	snap, err := h.Views.SnapshotFor(sel, name)
	if err != nil {
		h.viewError(w, err)
		return "", nil, false
	}
	return name, snap, true
}

func (h *Handlers) viewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
	case errors.Is(err, engine.ErrUnknownView):
		h.notFound(w, err.Error())
	case errors.Is(err, engine.ErrInvalidSelection):
		h.badRequest(w, err.Error())
	default:
		h.Log.Error("view error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.Log.Warn("bad request", "error", msg)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (h *Handlers) notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
}

func (h *Handlers) upstreamError(w http.ResponseWriter, err error) {
	h.Log.Error("upstream error", "err", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream source error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
