package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"knapsackga/internal/evo"
	"knapsackga/internal/model"
)

const namespace = "knapsackga"

// Metrics collects per-generation and per-run evolution metrics. It
// implements evo.GenerationObserver.
type Metrics struct {
	registry *prometheus.Registry

	generations   prometheus.Counter
	runs          *prometheus.CounterVec
	bestFitness   prometheus.Gauge
	meanFitness   prometheus.Gauge
	feasibleRatio prometheus.Gauge
	fitnessStdDev prometheus.Histogram
	runDuration   prometheus.Histogram
}

// NewMetrics registers the collectors on reg, or on a fresh registry when
// reg is nil.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generations evaluated across all runs.",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by outcome.",
		}, []string{"status"}),
		bestFitness: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Best fitness of the most recent generation.",
		}),
		meanFitness: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mean_fitness",
			Help:      "Mean fitness of the most recent generation.",
		}),
		feasibleRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feasible_ratio",
			Help:      "Share of the most recent generation within the weight limit.",
		}),
		fitnessStdDev: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_fitness_stddev",
			Help:      "Population standard deviation of fitness per generation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of complete runs.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveGeneration(_ context.Context, best evo.ScoredCandidate, d model.GenerationDiagnostics) {
	m.generations.Inc()
	m.bestFitness.Set(float64(best.Fitness))
	m.meanFitness.Set(d.MeanFitness)
	if d.PopulationSize > 0 {
		m.feasibleRatio.Set(float64(d.FeasibleCount) / float64(d.PopulationSize))
	}
	m.fitnessStdDev.Observe(d.FitnessStdDev)
}

// ObserveRun records a finished run; err == nil counts as success.
func (m *Metrics) ObserveRun(elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
