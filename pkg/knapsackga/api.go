package knapsackga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"knapsackga/internal/catalog"
	"knapsackga/internal/evo"
	"knapsackga/internal/logging"
	"knapsackga/internal/model"
	"knapsackga/internal/stats"
	"knapsackga/internal/storage"
	"knapsackga/internal/telemetry"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultBenchmarks   = "benchmarks"
	defaultDBPath       = "knapsackga.db"
	tracerName          = "knapsackga/pkg/knapsackga"
)

var (
	ErrRunNotFound       = storage.ErrRunNotFound
	ErrNoRuns            = errors.New("no runs available")
	ErrNoArtifacts       = errors.New("run has no artifacts")
	ErrBenchmarkNotFound = errors.New("benchmark report not found")
)

type Options struct {
	StoreKind     string
	DBPath        string
	ArtifactsDir  string
	ExportsDir    string
	// BenchmarksDir receives one directory per benchmark report.
	BenchmarksDir string
	// SkipArtifacts disables writing per-run files under ArtifactsDir.
	SkipArtifacts bool
	Logger        *slog.Logger
	Metrics       *telemetry.Metrics
	Tracer        trace.Tracer
}

type Client struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  trace.Tracer

	artifactsDir  string
	exportsDir    string
	benchmarksDir string
	skipArtifacts bool

	initOnce sync.Once
	initErr  error
}

type RunRequest struct {
	// Items takes precedence over CatalogPath.
	Items          []model.Item
	CatalogPath    string
	MaxWeight      int
	Generations    int
	MutationRate   float64
	PopulationSize int
	Seed           int64
	Selection      string
}

type RunSummary struct {
	RunID            string                        `json:"run_id"`
	ArtifactsDir     string                        `json:"artifacts_dir,omitempty"`
	BestByGeneration []model.GenerationBest        `json:"best_by_generation"`
	Diagnostics      []model.GenerationDiagnostics `json:"diagnostics"`
	FinalBest        model.GenerationBest          `json:"final_best"`
	Selected         []model.Item                  `json:"selected"`
}

type RunsRequest struct {
	Limit int
}

// RunRef names one stored run, either by ID or as the most recent one.
type RunRef struct {
	RunID  string
	Latest bool
}

type HistoryRequest struct {
	RunRef
	Limit int
	// FromArtifacts reads the history from the run's CSV series instead of
	// the store.
	FromArtifacts bool
}

type DiagnosticsRequest struct {
	RunRef
	Limit int
}

type ExportRequest struct {
	RunRef
	OutDir string
}

// BenchmarkRequest repeats Run with seeds Run.Seed, Run.Seed+1, ...
type BenchmarkRequest struct {
	Run  RunRequest
	Runs int
	// Goal, when set, is the fitness a run must reach to count as a success.
	Goal *int
}

type BenchmarkSummary struct {
	Directory string                `json:"directory,omitempty"`
	Report    stats.BenchmarkReport `json:"report"`
}

type ExportSummary struct {
	RunID        string `json:"run_id"`
	CreatedAtUTC string `json:"created_at_utc"`
	Directory    string `json:"directory"`
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarks
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	store, err := storage.NewStore(storeKind, dbPath, logger.With("component", "storage"))
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		logger:        logger,
		metrics:       opts.Metrics,
		tracer:        tracer,
		artifactsDir:  artifactsDir,
		exportsDir:    exportsDir,
		benchmarksDir: benchmarksDir,
		skipArtifacts: opts.SkipArtifacts,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// Run evolves a selection for the requested catalog, stores the run and
// writes its artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	ctx, span := c.tracer.Start(ctx, "knapsackga.Run")
	defer span.End()

	summary, _, err := c.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunSummary{}, err
	}
	span.SetAttributes(
		attribute.String("knapsackga.run_id", summary.RunID),
		attribute.Int("knapsackga.final_fitness", summary.FinalBest.Fitness),
	)
	return summary, nil
}

func (c *Client) run(ctx context.Context, req RunRequest) (RunSummary, model.RunRecord, error) {
	items := req.Items
	if len(items) == 0 && req.CatalogPath != "" {
		loaded, err := catalog.Load(req.CatalogPath)
		if err != nil {
			return RunSummary{}, model.RunRecord{}, err
		}
		items = loaded
	}
	if len(items) == 0 {
		return RunSummary{}, model.RunRecord{}, evo.ErrEmptyCatalog
	}
	if req.Selection == "" {
		req.Selection = evo.DefaultSelection
	}
	selector, err := evo.ResolveSelector(req.Selection)
	if err != nil {
		return RunSummary{}, model.RunRecord{}, err
	}

	var observers []evo.GenerationObserver
	if c.metrics != nil {
		observers = append(observers, c.metrics)
	}
	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Items:          items,
		MaxWeight:      req.MaxWeight,
		Generations:    req.Generations,
		MutationRate:   req.MutationRate,
		PopulationSize: req.PopulationSize,
		Seed:           req.Seed,
		Selector:       selector,
		Logger:         c.logger,
		Tracer:         c.tracer,
		Observers:      observers,
	})
	if err != nil {
		return RunSummary{}, model.RunRecord{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, model.RunRecord{}, fmt.Errorf("init store: %w", err)
	}

	started := time.Now()
	result, err := monitor.Run(ctx)
	if c.metrics != nil {
		c.metrics.ObserveRun(time.Since(started), err)
	}
	if err != nil {
		return RunSummary{}, model.RunRecord{}, err
	}

	effective := monitor.Config()
	record := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              uuid.NewString(),
		CreatedAtUTC:    started.UTC().Format(storage.TimestampLayout),
		Config: model.RunConfig{
			MaxWeight:      effective.MaxWeight,
			Generations:    effective.Generations,
			MutationRate:   effective.MutationRate,
			PopulationSize: effective.PopulationSize,
			Seed:           effective.Seed,
			Selection:      req.Selection,
			CatalogPath:    req.CatalogPath,
		},
		Items:            effective.Items,
		BestByGeneration: result.History(),
		Diagnostics:      result.Diagnostics,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, model.RunRecord{}, fmt.Errorf("save run %s: %w", record.ID, err)
	}

	summary := RunSummary{
		RunID:            record.ID,
		BestByGeneration: record.BestByGeneration,
		Diagnostics:      record.Diagnostics,
	}
	summary.FinalBest, _ = record.FinalBest()
	final := result.BestByGeneration[len(result.BestByGeneration)-1]
	if summary.Selected, err = final.Candidate.Selected(items); err != nil {
		return RunSummary{}, model.RunRecord{}, err
	}

	if !c.skipArtifacts {
		runDir, err := stats.WriteRunArtifacts(c.artifactsDir, record)
		if err != nil {
			return RunSummary{}, model.RunRecord{}, fmt.Errorf("write artifacts: %w", err)
		}
		summary.ArtifactsDir = filepath.Clean(runDir)
	}

	c.logger.InfoContext(ctx, "run stored",
		"run_id", record.ID,
		"items", len(items),
		"final_fitness", summary.FinalBest.Fitness,
		"final_bits", summary.FinalBest.Bits,
		"artifacts", summary.ArtifactsDir,
	)
	return summary, record, nil
}

// Benchmark stores every repeated run and aggregates their fitness curves.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (BenchmarkSummary, error) {
	if req.Runs <= 0 {
		return BenchmarkSummary{}, fmt.Errorf("%w: benchmark runs must be > 0", evo.ErrInvalidArgument)
	}
	ctx, span := c.tracer.Start(ctx, "knapsackga.Benchmark")
	defer span.End()

	if len(req.Run.Items) == 0 && req.Run.CatalogPath != "" {
		items, err := catalog.Load(req.Run.CatalogPath)
		if err != nil {
			return BenchmarkSummary{}, err
		}
		req.Run.Items = items
	}

	started := time.Now()
	records := make([]model.RunRecord, 0, req.Runs)
	for i := 0; i < req.Runs; i++ {
		runReq := req.Run
		runReq.Seed = req.Run.Seed + int64(i)
		_, record, err := c.run(ctx, runReq)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return BenchmarkSummary{}, fmt.Errorf("benchmark run %d/%d: %w", i+1, req.Runs, err)
		}
		records = append(records, record)
	}

	config := records[0].Config
	report := stats.BenchmarkReport{
		ID:           uuid.NewString(),
		CreatedAtUTC: started.UTC().Format(storage.TimestampLayout),
		Config:       config,
		Curve:        stats.BuildBenchmarkCurve(records),
		Evaluations:  stats.EvaluateBenchmarkRuns(records, req.Goal),
	}
	summary := BenchmarkSummary{Report: report}
	if !c.skipArtifacts {
		dir, err := stats.WriteBenchmarkReport(c.benchmarksDir, report)
		if err != nil {
			return BenchmarkSummary{}, fmt.Errorf("write benchmark report: %w", err)
		}
		summary.Directory = filepath.Clean(dir)
	}
	span.SetAttributes(
		attribute.String("knapsackga.benchmark_id", report.ID),
		attribute.Int("knapsackga.benchmark_runs", req.Runs),
	)
	c.logger.InfoContext(ctx, "benchmark complete",
		"benchmark_id", report.ID,
		"runs", req.Runs,
		"success_rate", report.Evaluations.SuccessRate,
	)
	return summary, nil
}

// Runs lists stored runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) GetRun(ctx context.Context, ref RunRef) (model.RunRecord, error) {
	runID, err := c.resolveRunID(ctx, ref)
	if err != nil {
		return model.RunRecord{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationBest, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	var history []model.GenerationBest
	if req.FromArtifacts {
		runID, err := c.resolveRunID(ctx, req.RunRef)
		if err != nil {
			return nil, err
		}
		series, ok, err := stats.ReadBestSeries(c.artifactsDir, runID)
		if err != nil {
			return nil, fmt.Errorf("read artifacts for %s: %w", runID, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoArtifacts, runID)
		}
		history = series
	} else {
		run, err := c.GetRun(ctx, req.RunRef)
		if err != nil {
			return nil, err
		}
		history = run.BestByGeneration
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	run, err := c.GetRun(ctx, req.RunRef)
	if err != nil {
		return nil, err
	}
	diagnostics := run.Diagnostics
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return diagnostics, nil
}

// DeleteRun removes a stored run and its artifact directory.
func (c *Client) DeleteRun(ctx context.Context, ref RunRef) (string, error) {
	runID, err := c.resolveRunID(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := c.store.DeleteRun(ctx, runID); err != nil {
		return "", err
	}
	if err := os.RemoveAll(filepath.Join(c.artifactsDir, runID)); err != nil {
		return "", fmt.Errorf("remove artifacts for %s: %w", runID, err)
	}
	c.logger.InfoContext(ctx, "run deleted", "run_id", runID)
	return runID, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunRef)
	if err != nil {
		return ExportSummary{}, err
	}
	cfg, ok, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil {
		return ExportSummary{}, fmt.Errorf("read artifacts for %s: %w", runID, err)
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("%w: %s", ErrNoArtifacts, runID)
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	c.logger.InfoContext(ctx, "run exported", "run_id", runID, "dir", exportedDir)
	return ExportSummary{
		RunID:        runID,
		CreatedAtUTC: cfg.CreatedAtUTC,
		Directory:    filepath.Clean(exportedDir),
	}, nil
}

// GetBenchmark reads a benchmark report written by Benchmark.
func (c *Client) GetBenchmark(_ context.Context, id string) (BenchmarkSummary, error) {
	if id == "" {
		return BenchmarkSummary{}, errors.New("benchmark id is required")
	}
	report, ok, err := stats.ReadBenchmarkReport(c.benchmarksDir, id)
	if err != nil {
		return BenchmarkSummary{}, fmt.Errorf("read benchmark %s: %w", id, err)
	}
	if !ok {
		return BenchmarkSummary{}, fmt.Errorf("%w: %s", ErrBenchmarkNotFound, id)
	}
	return BenchmarkSummary{
		Directory: filepath.Clean(filepath.Join(c.benchmarksDir, id)),
		Report:    report,
	}, nil
}

func (c *Client) resolveRunID(ctx context.Context, ref RunRef) (string, error) {
	if ref.RunID != "" && ref.Latest {
		return "", errors.New("use either run id or latest")
	}
	if ref.RunID == "" && !ref.Latest {
		return "", errors.New("run id or latest is required")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if ref.RunID != "" {
		return ref.RunID, nil
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrNoRuns
	}
	return runs[0].ID, nil
}
