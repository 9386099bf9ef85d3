package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type stubObserver struct {
	calls    int
	failures int
	last     string
}

func (s *stubObserver) SourceRequest(endpoint string, _ time.Duration, success bool) {
	s.calls++
	s.last = endpoint
	if !success {
		s.failures++
	}
}

func TestFetchRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data-raw" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"raw_data":[{"YearBuilt":1927,"TotalGHGEmissions":249.98},{"YearBuilt":"","Neighborhood":"EAST"}]}`)
	}))
	defer srv.Close()

	obs := &stubObserver{}
	client := NewHTTPClient(srv.URL+"/", WithObserver(obs))
	raw, err := client.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("FetchRecords returned error: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 records, got %d", len(raw))
	}
	if raw[0]["YearBuilt"] != 1927.0 || raw[1]["Neighborhood"] != "EAST" {
		t.Fatalf("unexpected records %#v", raw)
	}
	if obs.calls != 1 || obs.failures != 0 || obs.last != "/data-raw" {
		t.Fatalf("unexpected observer state %+v", obs)
	}
}

func TestFetchRecordsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"rows":[]}`)
	}))
	defer srv.Close()

	obs := &stubObserver{}
	_, err := NewHTTPClient(srv.URL, WithObserver(obs)).FetchRecords(context.Background())
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if obs.failures != 1 {
		t.Fatalf("expected failure to be observed, got %+v", obs)
	}
}

func TestFetchRecordsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).FetchRecords(context.Background())
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestFetchRecordsHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewHTTPClient(srv.URL).FetchRecords(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestFetchPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data" || r.URL.Query().Get("limit") != "50" {
			t.Fatalf("unexpected request %s", r.URL.String())
		}
		_, _ = io.WriteString(w, `{"predictions":[{"Neighborhood":"EAST","predicted_CO2":12.5,"timestamp":"2025-01-01T00:00:00"},{"predicted_CO2":7.5}]}`)
	}))
	defer srv.Close()

	preds, err := NewHTTPClient(srv.URL).FetchPredictions(context.Background(), 50)
	if err != nil {
		t.Fatalf("FetchPredictions returned error: %v", err)
	}
	if len(preds) != 2 || preds[0].PredictedCO2 != 12.5 || preds[0].Input["Neighborhood"] != "EAST" {
		t.Fatalf("unexpected predictions %#v", preds)
	}
	if _, ok := preds[0].Input["predicted_CO2"]; ok {
		t.Errorf("predicted_CO2 should not stay in the input map")
	}

	m := Summarize(preds)
	if m.Total != 2 || m.AverageCO2 == nil || *m.AverageCO2 != 10 {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["NumberofFloors"] != 4.0 || body["Has_Gas"] != 1.0 {
			t.Fatalf("unexpected body %#v", body)
		}
		_, _ = io.WriteString(w, `{"prediction_CO2": 42.25}`)
	}))
	defer srv.Close()

	in := PredictionInput{NumberOfFloors: 4, NumberOfBuildings: 1, Age: 30, PrimaryPropertyType: "Hotel", Neighborhood: "DOWNTOWN", HasGas: 1}
	got, err := NewHTTPClient(srv.URL).Predict(context.Background(), in)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if got != 42.25 {
		t.Fatalf("expected 42.25, got %v", got)
	}

	if _, err := NewHTTPClient(srv.URL).Predict(context.Background(), PredictionInput{}); err == nil {
		t.Fatal("expected validation error for empty input")
	}
}

func TestPredictMissingValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	obs := &stubObserver{}
	in := PredictionInput{NumberOfFloors: 2, NumberOfBuildings: 1, Age: 10, PrimaryPropertyType: "Office", Neighborhood: "EAST"}
	_, err := NewHTTPClient(srv.URL, WithObserver(obs)).Predict(context.Background(), in)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if obs.calls != 1 || obs.failures != 1 || obs.last != "/predict" {
		t.Fatalf("expected one observed failure on /predict, got %+v", obs)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	m := Summarize(nil)
	if m.Total != 0 || m.AverageCO2 != nil {
		t.Fatalf("expected zero metrics with nil average, got %+v", m)
	}
	b, _ := json.Marshal(m)
	if string(b) != `{"total_predictions":0,"average_CO2":null}` {
		t.Errorf("unexpected JSON %s", b)
	}
}

func TestLastN(t *testing.T) {
	preds := []Prediction{{PredictedCO2: 1}, {PredictedCO2: 2}, {PredictedCO2: 3}}
	got := LastN(preds, 2)
	if len(got) != 2 || got[0].PredictedCO2 != 2 {
		t.Errorf("unexpected tail %+v", got)
	}
	if len(LastN(preds, 0)) != 3 {
		t.Errorf("limit 0 should keep all")
	}
}

func TestCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildings.csv")
	data := "YearBuilt,CO2Emissions,Neighborhood\n2000,5,B\n1999,,A\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	src := NewCSVFile(path)
	raw, err := src.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("FetchRecords returned error: %v", err)
	}
	if len(raw) != 2 || raw[0]["CO2Emissions"] != "5" {
		t.Fatalf("unexpected records %#v", raw)
	}
	preds, err := src.FetchPredictions(context.Background(), 10)
	if err != nil || len(preds) != 0 {
		t.Fatalf("expected empty history, got %v / %v", preds, err)
	}

	if _, err := NewCSVFile(filepath.Join(t.TempDir(), "missing.csv")).FetchRecords(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
