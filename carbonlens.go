// Package carbonlens turns building energy and emissions records into
// render-ready dashboard views.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/carbonlens/engine"
//	    "github.com/spektr-org/carbonlens/pipeline"
//	)
//
//	ctrl := pipeline.New(logger)
//	ctrl.Load(ctx, src)
//	ctrl.Select(engine.Selection{Year: "2000", PropertyType: engine.All})
//	snap, err := ctrl.Snapshot()
//
// Raw records come from a source (HTTP service or CSV file), are normalized
// by the record package, filtered and aggregated by the engine, and cached by
// the pipeline controller until the record set or the selection changes.
// Every derivation is local and deterministic.
package carbonlens
