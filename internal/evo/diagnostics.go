package evo

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"knapsackga/internal/model"
)

// GenerationObserver is notified once per generation after ranking.
type GenerationObserver interface {
	ObserveGeneration(ctx context.Context, best ScoredCandidate, diagnostics model.GenerationDiagnostics)
}

// ObserverFunc adapts a plain function to GenerationObserver.
type ObserverFunc func(ctx context.Context, best ScoredCandidate, diagnostics model.GenerationDiagnostics)

func (f ObserverFunc) ObserveGeneration(ctx context.Context, best ScoredCandidate, diagnostics model.GenerationDiagnostics) {
	f(ctx, best, diagnostics)
}

// SummarizeGeneration expects ranked sorted by descending fitness.
func SummarizeGeneration(ranked []ScoredCandidate, generation, maxWeight int) model.GenerationDiagnostics {
	if len(ranked) == 0 {
		return model.GenerationDiagnostics{Generation: generation}
	}

	fitness := make([]float64, len(ranked))
	minFitness := ranked[0].Fitness
	feasible := 0
	distinct := make(map[string]struct{}, len(ranked))
	for i, item := range ranked {
		fitness[i] = float64(item.Fitness)
		if item.Fitness < minFitness {
			minFitness = item.Fitness
		}
		if item.Feasible(maxWeight) {
			feasible++
		}
		distinct[item.Candidate.String()] = struct{}{}
	}
	mean, std := stat.PopMeanStdDev(fitness, nil)

	return model.GenerationDiagnostics{
		Generation:        generation,
		PopulationSize:    len(ranked),
		BestFitness:       ranked[0].Fitness,
		MeanFitness:       mean,
		MinFitness:        minFitness,
		FitnessStdDev:     std,
		FeasibleCount:     feasible,
		DistinctCandidate: len(distinct),
	}
}
