package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"knapsackga/internal/logging"
	"knapsackga/internal/model"
)

const (
	tracerName          = "knapsackga/internal/evo"
	DefaultMutationRate = 0.01
)

type RunResult struct {
	BestByGeneration []ScoredCandidate
	Diagnostics      []model.GenerationDiagnostics
	FinalPopulation  []ScoredCandidate
}

// History converts the per-generation best candidates to reportable rows,
// numbering generations from 1.
func (r RunResult) History() []model.GenerationBest {
	out := make([]model.GenerationBest, len(r.BestByGeneration))
	for i, best := range r.BestByGeneration {
		out[i] = best.Best(i + 1)
	}
	return out
}

type MonitorConfig struct {
	Items          []model.Item
	MaxWeight      int
	Generations    int
	MutationRate   float64
	PopulationSize int
	Seed           int64
	Selector       Selector
	Mutation       Mutator
	Logger         *slog.Logger
	Tracer         trace.Tracer
	Observers      []GenerationObserver
}

// PopulationMonitor drives a fixed number of generations over one catalog.
// Each Run reseeds from cfg.Seed, so repeated runs are identical.
type PopulationMonitor struct {
	cfg MonitorConfig
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if len(cfg.Items) == 0 {
		return nil, ErrEmptyCatalog
	}
	for i, item := range cfg.Items {
		if item.Weight <= 0 {
			return nil, invalidArgument("item %d (%s) weight must be > 0, got %d", i, item.Name, item.Weight)
		}
	}
	if cfg.MaxWeight <= 0 {
		return nil, invalidArgument("max weight must be > 0, got %d", cfg.MaxWeight)
	}
	if cfg.Generations <= 0 {
		return nil, invalidArgument("generations must be > 0, got %d", cfg.Generations)
	}
	if err := validateRate(cfg.MutationRate); err != nil {
		return nil, err
	}
	if cfg.PopulationSize < 0 {
		return nil, invalidArgument("population size must be >= 0, got %d", cfg.PopulationSize)
	}
	if cfg.PopulationSize == 0 {
		cfg.PopulationSize = len(cfg.Items)
	}
	if cfg.Selector == nil {
		cfg.Selector = WeightedSelector{}
	}
	if cfg.Mutation == nil {
		cfg.Mutation = BitFlipMutation{Rate: cfg.MutationRate}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(tracerName)
	}
	cfg.Items = append([]model.Item(nil), cfg.Items...)
	cfg.Observers = append([]GenerationObserver(nil), cfg.Observers...)

	return &PopulationMonitor{cfg: cfg}, nil
}

// Config returns the effective configuration, defaults applied.
func (m *PopulationMonitor) Config() MonitorConfig {
	cfg := m.cfg
	cfg.Items = append([]model.Item(nil), m.cfg.Items...)
	cfg.Observers = append([]GenerationObserver(nil), m.cfg.Observers...)
	return cfg
}

func (m *PopulationMonitor) Run(ctx context.Context) (RunResult, error) {
	ctx, span := m.cfg.Tracer.Start(ctx, "evo.Run", trace.WithAttributes(
		attribute.Int("knapsack.items", len(m.cfg.Items)),
		attribute.Int("knapsack.max_weight", m.cfg.MaxWeight),
		attribute.Int("evo.generations", m.cfg.Generations),
		attribute.Int("evo.population_size", m.cfg.PopulationSize),
		attribute.Float64("evo.mutation_rate", m.cfg.MutationRate),
		attribute.String("evo.selection", m.cfg.Selector.Name()),
		attribute.Int64("evo.seed", m.cfg.Seed),
	))
	defer span.End()

	result, err := m.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunResult{}, err
	}
	if n := len(result.BestByGeneration); n > 0 {
		span.SetAttributes(attribute.Int("evo.final_best_fitness", result.BestByGeneration[n-1].Fitness))
	}
	return result, nil
}

func (m *PopulationMonitor) run(ctx context.Context) (RunResult, error) {
	rng := rand.New(rand.NewSource(m.cfg.Seed))
	population, err := RandomPopulation(rng, m.cfg.PopulationSize, len(m.cfg.Items))
	if err != nil {
		return RunResult{}, err
	}

	bestHistory := make([]ScoredCandidate, 0, m.cfg.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, m.cfg.Generations)
	var ranked []ScoredCandidate

	for gen := 0; gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		population, ranked, err = m.generation(ctx, rng, gen+1, population, ranked)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen+1, err)
		}

		summary := SummarizeGeneration(ranked, gen+1, m.cfg.MaxWeight)
		bestHistory = append(bestHistory, ranked[0])
		diagnostics = append(diagnostics, summary)

		m.cfg.Logger.DebugContext(ctx, "generation evaluated",
			"generation", gen+1,
			"best_fitness", summary.BestFitness,
			"mean_fitness", summary.MeanFitness,
			"feasible", summary.FeasibleCount,
			"best_bits", ranked[0].Candidate.String(),
		)
		for _, observer := range m.cfg.Observers {
			observer.ObserveGeneration(ctx, ranked[0], summary)
		}
	}

	best := bestHistory[len(bestHistory)-1]
	m.cfg.Logger.InfoContext(ctx, "evolution finished",
		"generations", m.cfg.Generations,
		"population_size", m.cfg.PopulationSize,
		"best_fitness", best.Fitness,
		"best_weight", best.Weight,
		"best_bits", best.Candidate.String(),
	)

	return RunResult{
		BestByGeneration: bestHistory,
		Diagnostics:      diagnostics,
		FinalPopulation:  ranked,
	}, nil
}

// generation breeds from the previous ranking (except for generation 1,
// which is the initial random population) and ranks the result.
func (m *PopulationMonitor) generation(ctx context.Context, rng *rand.Rand, generation int, population []Candidate, prev []ScoredCandidate) ([]Candidate, []ScoredCandidate, error) {
	_, span := m.cfg.Tracer.Start(ctx, "evo.Generation", trace.WithAttributes(
		attribute.Int("evo.generation", generation),
	))
	defer span.End()

	fail := func(err error) ([]Candidate, []ScoredCandidate, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	if generation > 1 {
		next, err := NextGeneration(rng, prev, m.cfg.PopulationSize, m.cfg.Selector, m.cfg.Mutation)
		if err != nil {
			return fail(err)
		}
		population = next
	}

	ranked, err := RankPopulation(population, m.cfg.Items, m.cfg.MaxWeight)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Int("evo.best_fitness", ranked[0].Fitness))
	return population, ranked, nil
}
