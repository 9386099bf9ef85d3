// Package pipeline owns the current record set and filter selection and
// serves derived views, recomputing a view only when its inputs change.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spektr-org/carbonlens/engine"
	"github.com/spektr-org/carbonlens/internal/logging"
	"github.com/spektr-org/carbonlens/record"
	"github.com/spektr-org/carbonlens/source"
)

// ErrNotReady is returned while the first load is still in flight.
var ErrNotReady = errors.New("record set not loaded")

// State is the lifecycle of the record set.
type State int

const (
	StateLoading State = iota
	StateReady
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Observer is notified of memo traffic, recomputations and loads.
type Observer interface {
	CacheObserver
	ViewComputed(view string, d time.Duration)
	RecordsLoaded(count int, ok bool)
}

// Option configures a Controller.
type Option func(*Controller)

// WithEngineOptions sets the derivation sizes.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *Controller) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithRecordOptions sets the normalizer field preferences.
func WithRecordOptions(opts ...record.Option) Option {
	return func(c *Controller) { c.recordOpts = append(c.recordOpts, opts...) }
}

// WithMemoEntries bounds the number of memoized views. Non-positive values
// select DefaultMemoEntries.
func WithMemoEntries(n int) Option {
	return func(c *Controller) { c.memoEntries = n }
}

// WithObserver reports controller activity, typically to metrics.
func WithObserver(obs Observer) Option {
	return func(c *Controller) { c.obs = obs }
}

// Controller is safe for concurrent use.
type Controller struct {
	log         *slog.Logger
	engineOpts  []engine.Option
	recordOpts  []record.Option
	obs         Observer
	memoEntries int

	mu        sync.RWMutex
	state     State
	loadErr   error
	records   []record.Record
	all       engine.RecordView
	version   uint64
	selection engine.Selection

	memo *memo[any]
}

// New returns a controller in the loading state with the All/All selection.
func New(log *slog.Logger, opts ...Option) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	c := &Controller{
		log:       log,
		state:     StateLoading,
		selection: engine.DefaultSelection(),
		all:       engine.BindRecords(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	var co CacheObserver
	if c.obs != nil {
		co = c.obs
	}
	c.memo = newMemo[any](c.memoEntries, co)
	return c
}

// ============================================================================
// RECORD SET
// ============================================================================

// Load fetches the raw record set and installs it. A fetch failure installs
// an empty set, moves to the unavailable state and returns the error.
func (c *Controller) Load(ctx context.Context, src source.Source) error {
	start := time.Now()
	raw, err := src.FetchRecords(ctx)
	if err != nil {
		c.log.Error("record fetch failed", "error", err, "elapsed", time.Since(start))
		c.install(nil, StateUnavailable, err)
		return fmt.Errorf("load records: %w", err)
	}
	c.SetRecords(raw)
	c.log.Info("record fetch complete", "raw", len(raw), "elapsed", time.Since(start))
	return nil
}

// SetRecords normalizes raw and replaces the current record set.
func (c *Controller) SetRecords(raw []record.RawRecord) {
	for _, rep := range record.Discover(raw, c.recordOpts...) {
		switch {
		case rep.Total > 0 && rep.Present == 0:
			c.log.Warn("field absent from source", "field", rep.Field)
		default:
			c.log.Debug("field resolved", "field", rep.Field, "key", rep.Key, "coverage", rep.Coverage)
		}
	}
	c.install(record.Normalize(raw, c.recordOpts...), StateReady, nil)
}

func (c *Controller) install(records []record.Record, state State, loadErr error) {
	c.mu.Lock()
	c.records = records
	c.all = engine.BindRecords(records)
	c.version++
	c.state = state
	c.loadErr = loadErr
	c.memo.Reset()
	version := c.version
	c.mu.Unlock()

	if c.obs != nil {
		c.obs.RecordsLoaded(len(records), state == StateReady)
	}
	c.log.Info("record set installed", "records", len(records), "version", version, "state", state.String())
}

// State reports the lifecycle state and, when unavailable, the load error.
func (c *Controller) State() (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.loadErr
}

// Version increments on every record set replacement.
func (c *Controller) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Records returns the normalized unfiltered set. Callers must not modify it.
func (c *Controller) Records() ([]record.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == StateLoading {
		return nil, ErrNotReady
	}
	return c.records, nil
}

// ============================================================================
// SELECTION
// ============================================================================

// Select replaces the session selection.
func (c *Controller) Select(sel engine.Selection) {
	c.mu.Lock()
	c.selection = sel
	c.mu.Unlock()
}

// Selection returns the session selection.
func (c *Controller) Selection() engine.Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selection
}

// Subset returns the records included by sel.
func (c *Controller) Subset(sel engine.Selection) ([]record.Record, error) {
	records, err := c.Records()
	if err != nil {
		return nil, err
	}
	return engine.FilterSubset(records, sel), nil
}

// ============================================================================
// SNAPSHOTS
// ============================================================================

// Snapshot returns the requested views (every view when none are named)
// for the session selection.
func (c *Controller) Snapshot(views ...engine.ViewName) (*engine.Snapshot, error) {
	return c.SnapshotFor(c.Selection(), views...)
}

// SnapshotFor returns the requested views for sel without touching the
// session selection. Views already computed for the same record set and
// selection are served from the memo. The snapshot is fully assembled
// before it is returned.
func (c *Controller) SnapshotFor(sel engine.Selection, views ...engine.ViewName) (*engine.Snapshot, error) {
	if len(views) == 0 {
		views = engine.AllViews
	}
	for _, v := range views {
		if _, err := engine.ParseViewName(string(v)); err != nil {
			return nil, fmt.Errorf("%w: %q", engine.ErrUnknownView, v)
		}
	}

	c.mu.RLock()
	state, version, all := c.state, c.version, c.all
	c.mu.RUnlock()
	if state == StateLoading {
		return nil, ErrNotReady
	}

	snap := &engine.Snapshot{Version: version, Selection: sel}
	var filtered engine.RecordView
	for _, name := range views {
		key := viewKey(version, name, sel)
		if v, ok := c.memo.Get(key); ok {
			snap.Set(name, v)
			continue
		}

		if filtered == nil {
			filtered = engine.ApplyFilters(all, sel.Filters())
		}
		start := time.Now()
		v, err := engine.Compute(name, filtered, all, c.engineOpts...)
		if err != nil {
			return nil, err
		}
		if c.obs != nil {
			c.obs.ViewComputed(string(name), time.Since(start))
		}
		c.store(version, key, v)
		snap.Set(name, v)
	}
	return snap, nil
}

// View returns one view value for sel.
func (c *Controller) View(sel engine.Selection, name engine.ViewName) (any, error) {
	snap, err := c.SnapshotFor(sel, name)
	if err != nil {
		return nil, err
	}
	return snap.Get(name), nil
}

// store memoizes v only if the record set it was computed from is still
// current.
func (c *Controller) store(version uint64, key string, v any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.version == version {
		c.memo.Set(key, v)
	}
}
