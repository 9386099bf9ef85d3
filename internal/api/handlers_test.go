package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spektr-org/carbonlens/engine"
	"github.com/spektr-org/carbonlens/internal/logging"
	"github.com/spektr-org/carbonlens/internal/observability"
	"github.com/spektr-org/carbonlens/pipeline"
	"github.com/spektr-org/carbonlens/record"
	"github.com/spektr-org/carbonlens/source"
)

type stubHistory struct {
	preds []source.Prediction
	err   error
	calls int
}

func (s *stubHistory) FetchPredictions(_ context.Context, _ int) ([]source.Prediction, error) {
	s.calls++
	return s.preds, s.err
}

type stubPredictor struct {
	value float64
	err   error
}

func (s *stubPredictor) Predict(_ context.Context, _ source.PredictionInput) (float64, error) {
	return s.value, s.err
}

func testLogger() *slog.Logger {
	return logging.Discard()
}

func newTestRouter(t *testing.T, ready bool) (http.Handler, *Handlers) {
	t.Helper()
	ctrl := pipeline.New(testLogger())
	if ready {
		ctrl.SetRecords([]record.RawRecord{
			{"YearBuilt": "1999", "TotalGHGEmissions": "10", "Neighborhood": "A", "PrimaryPropertyType": "Hotel", "Electricity(kBtu)": "1000"},
			{"YearBuilt": "2000", "CO2Emissions": "5", "Neighborhood": "B", "PrimaryPropertyType": "Office", "Electricity(kBtu)": "500"},
		})
	}
	h := &Handlers{
		Log:             testLogger(),
		Views:           ctrl,
		History:         &stubHistory{preds: []source.Prediction{{PredictedCO2: 4}, {PredictedCO2: 6}}},
		Predictor:       &stubPredictor{value: 12.5},
		PreviewRows:     50,
		PreviewColumns:  10,
		PredictionLimit: 50,
	}
	return NewRouter(h, observability.NewMetrics(nil), nil), h
}

func get(t *testing.T, router http.Handler, target string) *http.Response {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr.Result()
}

func decode(t *testing.T, res *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
}

func TestLoadingReturns503(t *testing.T) {
	router, _ := newTestRouter(t, false)

	res := get(t, router, "/views")
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.StatusCode)
	}
	var payload map[string]string
	decode(t, res, &payload)
	if payload["status"] != "loading" {
		t.Fatalf("expected loading status, got %v", payload)
	}

	health := get(t, router, "/health")
	var body map[string]any
	decode(t, health, &body)
	if health.StatusCode != http.StatusOK || body["status"] != "loading" {
		t.Fatalf("unexpected health %d %v", health.StatusCode, body)
	}
}

func TestSnapshotWithSelection(t *testing.T) {
	router, _ := newTestRouter(t, true)

	res := get(t, router, "/views?year=2000&views=kpis,facets")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var snap engine.Snapshot
	decode(t, res, &snap)
	if snap.KPIs == nil || snap.KPIs.Count != 1 || snap.KPIs.TotalCO2 != 5 {
		t.Fatalf("unexpected KPIs %+v", snap.KPIs)
	}
	if snap.Facets == nil || len(snap.Facets.Years) != 2 {
		t.Fatalf("facets should list both years, got %+v", snap.Facets)
	}
	if snap.TopNeighborhoods != nil {
		t.Fatalf("unrequested view should be null")
	}
}

func TestBadSelectionAndUnknownView(t *testing.T) {
	router, _ := newTestRouter(t, true)

	if res := get(t, router, "/views?year=abc"); res.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad year, got %d", res.StatusCode)
	}
	if res := get(t, router, "/views/sunburst"); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown view, got %d", res.StatusCode)
	}
	if res := get(t, router, "/views?views=kpis,sunburst"); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown view list, got %d", res.StatusCode)
	}
}

func TestSingleView(t *testing.T) {
	router, _ := newTestRouter(t, true)

	res := get(t, router, "/views/topNeighborhoods")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var payload struct {
		View string              `json:"view"`
		Data []engine.NamedValue `json:"data"`
	}
	decode(t, res, &payload)
	if payload.View != "topNeighborhoods" || len(payload.Data) != 2 || payload.Data[0].Name != "A" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestChartsAndTables(t *testing.T) {
	router, _ := newTestRouter(t, true)

	res := get(t, router, "/charts/energyMix")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var chart engine.ChartConfig
	decode(t, res, &chart)
	if chart.ChartType != "stacked_bar" {
		t.Errorf("unexpected chart type %q", chart.ChartType)
	}

	if res := get(t, router, "/charts/heatPoints"); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for chartless view, got %d", res.StatusCode)
	}

	res = get(t, router, "/tables/floorDistribution")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var table engine.TableData
	decode(t, res, &table)
	if len(table.Rows) != 1 || table.Columns[0].Label != "Floors" {
		t.Errorf("unexpected table %+v", table)
	}
	if res := get(t, router, "/tables/kpis"); res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for non-table view, got %d", res.StatusCode)
	}
}

func TestKPITextAndFacets(t *testing.T) {
	router, _ := newTestRouter(t, true)

	var text engine.TextData
	decode(t, get(t, router, "/kpis/text?type=Hotel"), &text)
	if text.Count != 1 || text.Lines[0].Value != "10" {
		t.Errorf("unexpected text %+v", text)
	}

	var facets engine.Facets
	decode(t, get(t, router, "/facets"), &facets)
	if len(facets.PropertyTypes) != 2 || facets.PropertyTypes[0] != "Hotel" {
		t.Errorf("unexpected facets %+v", facets)
	}
}

func TestExportAndPreview(t *testing.T) {
	router, _ := newTestRouter(t, true)

	res := get(t, router, "/records.csv")
	if res.StatusCode != http.StatusOK || !strings.HasPrefix(res.Header.Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected export response %d %q", res.StatusCode, res.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(res.Body)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], `"id",`) {
		t.Fatalf("unexpected CSV %q", body)
	}

	var table engine.TableData
	decode(t, get(t, router, "/records/preview"), &table)
	if len(table.Rows) != 2 || len(table.Columns) != 10 {
		t.Errorf("unexpected preview %dx%d", len(table.Rows), len(table.Columns))
	}
}

func TestPredictions(t *testing.T) {
	router, h := newTestRouter(t, true)

	res := get(t, router, "/predictions?limit=1")
	var payload struct {
		Predictions []source.Prediction `json:"predictions"`
	}
	decode(t, res, &payload)
	if len(payload.Predictions) != 1 || payload.Predictions[0].PredictedCO2 != 6 {
		t.Fatalf("expected last prediction only, got %+v", payload.Predictions)
	}

	if res := get(t, router, "/predictions?limit=-2"); res.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", res.StatusCode)
	}

	var metrics source.PredictionMetrics
	decode(t, get(t, router, "/predictions/metrics"), &metrics)
	if metrics.Total != 2 || metrics.AverageCO2 == nil || *metrics.AverageCO2 != 5 {
		t.Errorf("unexpected metrics %+v", metrics)
	}

	h.History.(*stubHistory).err = errors.New("down")
	if res := get(t, router, "/predictions"); res.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502 on upstream failure, got %d", res.StatusCode)
	}
}

func TestPredict(t *testing.T) {
	router, h := newTestRouter(t, true)

	body := `{"NumberofFloors":3,"NumberofBuildings":1,"Age":20,"PrimaryPropertyType":"Hotel","BuildingType":"NonResidential","Neighborhood":"EAST","Latitude":47.6,"Longitude":-122.3}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out map[string]float64
	decode(t, rr.Result(), &out)
	if out["prediction_CO2"] != 12.5 {
		t.Fatalf("unexpected prediction %v", out)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(`{"Age":1}`)))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for incomplete input, got %d", rr.Code)
	}

	h.Predictor = nil
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString(body)))
	if rr.Code != http.StatusNotImplemented {
		t.Errorf("expected 501 without a predictor, got %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, true)
	get(t, router, "/views")

	res := get(t, router, "/metrics")
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), `http_requests_total{route="/views",status="200"} 1`) {
		t.Errorf("metrics missing route counter:\n%s", body)
	}
}

func TestCORSHeaders(t *testing.T) {
	router, _ := newTestRouter(t, true)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/facets", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	router.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Errorf("expected CORS header, got %v", rr.Header())
	}
}
