package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spektr-org/carbonlens/engine"
	"github.com/spektr-org/carbonlens/helpers"
	"github.com/spektr-org/carbonlens/internal/api"
	"github.com/spektr-org/carbonlens/internal/config"
	"github.com/spektr-org/carbonlens/internal/logging"
	"github.com/spektr-org/carbonlens/internal/observability"
	"github.com/spektr-org/carbonlens/pipeline"
	"github.com/spektr-org/carbonlens/record"
	"github.com/spektr-org/carbonlens/source"
)

// ============================================================================
// CARBONLENS CLI: Building emissions views from a CSV export or the backend
// ============================================================================

const version = "0.1.0"

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	filePath := flag.String("file", "", "Path to a CSV export of building records")
	sourceURL := flag.String("source", "", "Base URL of the emissions backend (GET /data-raw)")
	year := flag.String("year", engine.All, "Year built filter, or All")
	propertyType := flag.String("type", engine.All, "Primary property type filter, or All")
	views := flag.String("view", "", "Comma-separated views to derive (default: all)")
	format := flag.String("format", "json", "Output format: json, pretty, text, csv")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	exportPath := flag.String("export", "", "Write the normalized records as CSV to this path")
	discover := flag.Bool("discover", false, "Print which source field fed each record field and exit")
	serve := flag.Bool("serve", false, "Serve the views over HTTP instead of printing them")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `CarbonLens: building energy and CO2 views

Usage:
  carbonlens --file data_cleaned.csv --format pretty
  carbonlens --file data_cleaned.csv --year 2000 --view kpis --format text
  carbonlens --source http://127.0.0.1:8000 --view topNeighborhoods --format csv --out hoods.csv
  carbonlens --source http://127.0.0.1:8000 --serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  CARBONLENS_SOURCE_URL, CARBONLENS_CSV_PATH, CARBONLENS_BIND_ADDR,
  CARBONLENS_FETCH_TIMEOUT, CARBONLENS_CO2_FIELDS, CARBONLENS_LOG_LEVEL,
  CARBONLENS_LOGFILE, CARBONLENS_MEMO_ENTRIES, CARBONLENS_FIELD_KEYS and the
  CARBONLENS_TOP_* / *_SCATTER size limits.
  Flags override the environment.

Views:
  %s
`, strings.Join(viewNames(), ", "))
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("carbonlens %s\n", version)
		os.Exit(0)
	}

	// ── Configuration ─────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}
	if *filePath != "" {
		cfg.CSVPath = *filePath
		cfg.SourceURL = ""
	}
	if *sourceURL != "" {
		cfg.SourceURL = *sourceURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	logOut := io.Writer(os.Stderr)
	dl, err := logging.New(logOut, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fatalf("Failed to open log file: %v", err)
	}
	defer dl.Close()
	logger := dl.Logger

	sel, err := engine.ParseSelection(*year, *propertyType)
	if err != nil {
		fatalf("%v", err)
	}
	names, err := parseViews(*views)
	if err != nil {
		fatalf("%v (known views: %s)", err, strings.Join(viewNames(), ", "))
	}

	// ── Source and controller ─────────────────────────────────────────────
	metrics := observability.NewMetrics(nil)
	src := newSource(cfg, metrics)
	ctrl := pipeline.New(logger,
		pipeline.WithEngineOptions(cfg.EngineOptions()...),
		pipeline.WithRecordOptions(cfg.RecordOptions()...),
		pipeline.WithObserver(metrics),
		pipeline.WithMemoEntries(cfg.MemoEntries),
	)

	if *serve {
		if err := runServer(cfg, logger, ctrl, src, metrics); err != nil {
			fatalf("%v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	defer cancel()

	// ── Discover mode ─────────────────────────────────────────────────────
	if *discover {
		raw, err := src.FetchRecords(ctx)
		if err != nil {
			fatalf("Failed to fetch records: %v", err)
		}
		writer, done := openOutput(*outFile)
		defer done()
		writeJSON(writer, record.Discover(raw, cfg.RecordOptions()...), *format)
		return
	}

	if err := ctrl.Load(ctx, src); err != nil {
		fatalf("%v", err)
	}

	// ── Export ────────────────────────────────────────────────────────────
	if *exportPath != "" {
		records, _ := ctrl.Records()
		f, err := os.Create(*exportPath)
		if err != nil {
			fatalf("Failed to create export file: %v", err)
		}
		if err := helpers.WriteCSV(f, records); err != nil {
			f.Close()
			fatalf("Failed to write export: %v", err)
		}
		if err := f.Close(); err != nil {
			fatalf("Failed to write export: %v", err)
		}
		logger.Info("records exported", "path", *exportPath, "records", len(records))
	}

	// ── Derive and render ─────────────────────────────────────────────────
	snap, err := ctrl.SnapshotFor(sel, names...)
	if err != nil {
		fatalf("Derivation failed: %v", err)
	}

	writer, done := openOutput(*outFile)
	defer done()

	switch *format {
	case "csv":
		if len(names) != 1 {
			fatalf("--format csv needs exactly one --view")
		}
		if err := writeViewCSV(writer, names[0], snap); err != nil {
			fatalf("Failed to write CSV: %v", err)
		}
	case "text":
		if snap.KPIs == nil {
			k, _ := ctrl.View(sel, engine.ViewKPIs)
			snap.KPIs, _ = k.(*engine.KPISummary)
		}
		fmt.Fprintln(writer, engine.BuildText(*snap.KPIs).String())
	default:
		writeJSON(writer, snap, *format)
	}
	if *outFile != "" {
		logger.Info("output written", "path", *outFile, "format", *format)
	}
}

// ============================================================================
// WIRING
// ============================================================================

func newSource(cfg config.Config, metrics *observability.Metrics) source.Source {
	if cfg.CSVPath != "" {
		return source.NewCSVFile(cfg.CSVPath)
	}
	return source.NewHTTPClient(cfg.SourceURL,
		source.WithTimeout(cfg.FetchTimeout),
		source.WithObserver(metrics),
	)
}

func runServer(cfg config.Config, logger *slog.Logger, ctrl *pipeline.Controller, src source.Source, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The API answers 503 until this first load completes.
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
		if err := ctrl.Load(loadCtx, src); err != nil {
			logger.Error("initial load failed", "error", err)
		}
	}()

	h := &api.Handlers{
		Log:             logger,
		Views:           ctrl,
		History:         src,
		PreviewRows:     cfg.PreviewRows,
		PreviewColumns:  cfg.PreviewColumns,
		PredictionLimit: 50,
	}
	if p, ok := src.(source.Predictor); ok {
		h.Predictor = p
	}

	srv := api.NewServer(cfg.BindAddr, logger, api.NewRouter(h, metrics, os.Stdout))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// ============================================================================
// HELPERS
// ============================================================================

func parseViews(raw string) ([]engine.ViewName, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []engine.ViewName
	for _, part := range strings.Split(raw, ",") {
		name, err := engine.ParseViewName(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, strings.TrimSpace(part))
		}
		out = append(out, name)
	}
	return out, nil
}

func viewNames() []string {
	out := make([]string, len(engine.AllViews))
	for i, v := range engine.AllViews {
		out[i] = string(v)
	}
	return out
}

func openOutput(path string) (*os.File, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		fatalf("Failed to create output file: %v", err)
	}
	return f, func() { f.Close() }
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
