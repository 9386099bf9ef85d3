package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/spektr-org/carbonlens/engine"
	"github.com/spektr-org/carbonlens/internal/logging"
	"github.com/spektr-org/carbonlens/record"
	"github.com/spektr-org/carbonlens/source"
)

type stubObserver struct {
	mu       sync.Mutex
	hits     int
	misses   int
	computed map[string]int
	loads    []bool
}

func newStubObserver() *stubObserver {
	return &stubObserver{computed: map[string]int{}}
}

func (s *stubObserver) CacheHit()  { s.mu.Lock(); s.hits++; s.mu.Unlock() }
func (s *stubObserver) CacheMiss() { s.mu.Lock(); s.misses++; s.mu.Unlock() }

func (s *stubObserver) ViewComputed(view string, _ time.Duration) {
	s.mu.Lock()
	s.computed[view]++
	s.mu.Unlock()
}

func (s *stubObserver) RecordsLoaded(_ int, ok bool) {
	s.mu.Lock()
	s.loads = append(s.loads, ok)
	s.mu.Unlock()
}

func (s *stubObserver) count(view engine.ViewName) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computed[string(view)]
}

type stubSource struct {
	raw []record.RawRecord
	err error
}

func (s *stubSource) FetchRecords(context.Context) ([]record.RawRecord, error) {
	return s.raw, s.err
}

func (s *stubSource) FetchPredictions(context.Context, int) ([]source.Prediction, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return logging.Discard()
}

func sampleRaw() []record.RawRecord {
	return []record.RawRecord{
		{"YearBuilt": "1999", "TotalGHGEmissions": "10", "Neighborhood": "A", "PrimaryPropertyType": "Hotel"},
		{"YearBuilt": "2000", "CO2Emissions": "5", "Neighborhood": "B", "PrimaryPropertyType": "Office"},
		{"YearBuilt": "2000", "CO2Emissions": "7", "Neighborhood": "A", "PrimaryPropertyType": "Office"},
	}
}

func readyController(t *testing.T, obs Observer) *Controller {
	t.Helper()
	opts := []Option{}
	if obs != nil {
		opts = append(opts, WithObserver(obs))
	}
	c := New(testLogger(), opts...)
	if err := c.Load(context.Background(), &stubSource{raw: sampleRaw()}); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return c
}

func TestSnapshotNotReadyWhileLoading(t *testing.T) {
	c := New(testLogger())
	if _, err := c.Snapshot(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if _, err := c.Records(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady from Records, got %v", err)
	}
	if state, _ := c.State(); state != StateLoading {
		t.Fatalf("expected loading, got %s", state)
	}
}

func TestLoadFailureIsUnavailableWithEmptyViews(t *testing.T) {
	obs := newStubObserver()
	c := New(testLogger(), WithObserver(obs))
	boom := errors.New("connection refused")

	err := c.Load(context.Background(), &stubSource{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
	state, loadErr := c.State()
	if state != StateUnavailable || !errors.Is(loadErr, boom) {
		t.Fatalf("expected unavailable with cause, got %s / %v", state, loadErr)
	}

	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.KPIs.Count != 0 || len(snap.TopNeighborhoods) != 0 || len(snap.Facets.Years) != 0 {
		t.Fatalf("expected empty views, got %+v", snap)
	}
	if len(obs.loads) != 1 || obs.loads[0] {
		t.Fatalf("expected one failed load, got %v", obs.loads)
	}
}

func TestSnapshotScenario(t *testing.T) {
	c := readyController(t, nil)
	snap, err := c.Snapshot(engine.ViewKPIs, engine.ViewTopNeighborhoods)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.KPIs.TotalCO2 != 22 || snap.KPIs.Count != 3 {
		t.Fatalf("unexpected KPIs %+v", snap.KPIs)
	}
	want := []engine.NamedValue{{Name: "A", Value: 17}, {Name: "B", Value: 5}}
	if !reflect.DeepEqual(snap.TopNeighborhoods, want) {
		t.Fatalf("TopNeighborhoods = %+v, want %+v", snap.TopNeighborhoods, want)
	}
	if snap.Facets != nil || snap.HeatPoints != nil {
		t.Fatalf("unrequested views should stay nil")
	}
}

func TestRepeatedSnapshotDoesNotRecompute(t *testing.T) {
	obs := newStubObserver()
	c := readyController(t, obs)

	first, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	second, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated snapshots differ")
	}
	for _, v := range engine.AllViews {
		if n := obs.count(v); n != 1 {
			t.Errorf("%s computed %d times, want 1", v, n)
		}
	}
	if obs.hits != len(engine.AllViews) {
		t.Errorf("expected %d memo hits, got %d", len(engine.AllViews), obs.hits)
	}
}

func TestSelectionChangeRecomputesExceptFacets(t *testing.T) {
	obs := newStubObserver()
	c := readyController(t, obs)

	if _, err := c.Snapshot(); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	c.Select(engine.DefaultSelection().WithYear(2000))
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	if obs.count(engine.ViewKPIs) != 2 || obs.count(engine.ViewEnergyMix) != 2 {
		t.Errorf("selection change should recompute dependent views")
	}
	if obs.count(engine.ViewFacets) != 1 {
		t.Errorf("facets recomputed %d times, want 1", obs.count(engine.ViewFacets))
	}
	if snap.KPIs.Count != 2 || snap.KPIs.TotalCO2 != 12 {
		t.Errorf("unexpected filtered KPIs %+v", snap.KPIs)
	}
	if !reflect.DeepEqual(snap.Facets.Years, []int{1999, 2000}) {
		t.Errorf("facets should keep every year, got %v", snap.Facets.Years)
	}

	// returning to a seen selection is served from the memo
	c.Select(engine.DefaultSelection())
	if _, err := c.Snapshot(); err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if obs.count(engine.ViewKPIs) != 2 {
		t.Errorf("seen selection should not recompute, got %d", obs.count(engine.ViewKPIs))
	}
}

func TestRecordReplacementInvalidates(t *testing.T) {
	obs := newStubObserver()
	c := readyController(t, obs)

	before, err := c.Snapshot(engine.ViewKPIs, engine.ViewFacets)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	c.SetRecords(sampleRaw()[:1])
	after, err := c.Snapshot(engine.ViewKPIs, engine.ViewFacets)
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}

	if after.Version != before.Version+1 {
		t.Errorf("expected version bump, got %d -> %d", before.Version, after.Version)
	}
	if obs.count(engine.ViewKPIs) != 2 || obs.count(engine.ViewFacets) != 2 {
		t.Errorf("record change should recompute every view")
	}
	if after.KPIs.Count != 1 {
		t.Errorf("expected 1 record after replacement, got %d", after.KPIs.Count)
	}
}

func TestSnapshotForLeavesSessionSelection(t *testing.T) {
	c := readyController(t, nil)
	sel := engine.DefaultSelection().WithPropertyType("Hotel")

	snap, err := c.SnapshotFor(sel, engine.ViewKPIs)
	if err != nil {
		t.Fatalf("SnapshotFor returned error: %v", err)
	}
	if snap.KPIs.Count != 1 || snap.Selection != sel {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if c.Selection() != engine.DefaultSelection() {
		t.Errorf("session selection changed to %+v", c.Selection())
	}

	subset, err := c.Subset(sel)
	if err != nil || len(subset) != 1 {
		t.Errorf("unexpected subset %v / %v", subset, err)
	}
}

func TestSnapshotUnknownView(t *testing.T) {
	c := readyController(t, nil)
	if _, err := c.Snapshot("sunburst"); !errors.Is(err, engine.ErrUnknownView) {
		t.Fatalf("expected ErrUnknownView, got %v", err)
	}
}

func TestConcurrentSnapshots(t *testing.T) {
	c := readyController(t, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sel := engine.DefaultSelection()
			if i%2 == 0 {
				sel = sel.WithYear(2000)
			}
			if _, err := c.SnapshotFor(sel); err != nil {
				t.Errorf("SnapshotFor returned error: %v", err)
			}
			if i == 3 {
				c.SetRecords(sampleRaw())
			}
		}(i)
	}
	wg.Wait()
}

func TestViewKeyIgnoresSelectionForFacets(t *testing.T) {
	a := viewKey(1, engine.ViewFacets, engine.DefaultSelection())
	b := viewKey(1, engine.ViewFacets, engine.DefaultSelection().WithYear(2000))
	if a != b {
		t.Errorf("facet keys should not depend on selection")
	}
	if viewKey(1, engine.ViewKPIs, engine.DefaultSelection()) == viewKey(2, engine.ViewKPIs, engine.DefaultSelection()) {
		t.Errorf("keys should depend on record set version")
	}
}

func TestMemoEvictsLeastRecentlyUsed(t *testing.T) {
	m := newMemo[int](2, nil)
	m.Set("a", 1)
	m.Set("b", 2)
	if _, ok := m.Get("a"); !ok {
		t.Fatal("expected a to be memoized")
	}
	m.Set("c", 3)

	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
	if _, ok := m.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("a should survive, got %v %v", v, ok)
	}
	if v, ok := m.Get("c"); !ok || v != 3 {
		t.Errorf("c should be present, got %v %v", v, ok)
	}
}

func TestManySelectionsStayWithinMemoBound(t *testing.T) {
	c := New(testLogger(), WithMemoEntries(32))
	if err := c.Load(context.Background(), &stubSource{raw: sampleRaw()}); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	for year := 3000; year < 3500; year++ {
		if _, err := c.SnapshotFor(engine.DefaultSelection().WithYear(year)); err != nil {
			t.Fatalf("SnapshotFor(%d) returned error: %v", year, err)
		}
	}
	if n := c.memo.Len(); n > 32 {
		t.Fatalf("memo grew to %d entries, want at most 32", n)
	}

	snap, err := c.SnapshotFor(engine.DefaultSelection().WithYear(3001))
	if err != nil {
		t.Fatalf("SnapshotFor returned error: %v", err)
	}
	if snap.KPIs.Count != 0 {
		t.Errorf("evicted view should recompute to the same result, got %+v", snap.KPIs)
	}
}
