package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics(nil)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.ViewComputed("kpis", time.Millisecond)
	m.RecordsLoaded(3, true)
	m.SourceRequest("/data-raw", 5*time.Millisecond, false)

	wrapped := m.WrapHandler("/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Result().Body)
	out := string(body)

	for _, want := range []string{
		"carbonlens_view_memo_hits_total 1",
		"carbonlens_view_memo_misses_total 2",
		`carbonlens_view_recomputations_total{view="kpis"} 1`,
		"carbonlens_records 3",
		`carbonlens_source_errors_total{endpoint="/data-raw"} 1`,
		`http_requests_total{route="/health",status="418"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CacheHit()
	m.CacheMiss()
	m.ViewComputed("kpis", time.Millisecond)
	m.RecordsLoaded(0, false)
	m.SourceRequest("/data", time.Millisecond, true)
}

func TestSeparateRegistries(t *testing.T) {
	// two instances must not collide on registration
	NewMetrics(nil)
	NewMetrics(nil)
}
