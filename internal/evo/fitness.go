package evo

import (
	"fmt"

	"knapsackga/internal/model"
)

// ScoredCandidate pairs a candidate with its evaluation against one
// (catalog, max weight) pair.
type ScoredCandidate struct {
	Candidate Candidate
	Weight    int
	Value     int
	Fitness   int
}

// Feasible reports whether the candidate fits the capacity it was scored with.
// Infeasible candidates always score 0, but so can feasible empty ones.
func (s ScoredCandidate) Feasible(maxWeight int) bool {
	return s.Weight <= maxWeight
}

func (s ScoredCandidate) Best(generation int) model.GenerationBest {
	return model.GenerationBest{
		Generation: generation,
		Weight:     s.Weight,
		Value:      s.Value,
		Fitness:    s.Fitness,
		Bits:       s.Candidate.String(),
	}
}

// Weight sums the weights of the selected items.
func Weight(c Candidate, items []model.Item) (int, error) {
	if err := checkLength(c, items); err != nil {
		return 0, err
	}
	total := 0
	for i, item := range items {
		if c.bits.Has(i) {
			total += item.Weight
		}
	}
	return total, nil
}

// Value sums the values of the selected items.
func Value(c Candidate, items []model.Item) (int, error) {
	if err := checkLength(c, items); err != nil {
		return 0, err
	}
	total := 0
	for i, item := range items {
		if c.bits.Has(i) {
			total += item.Value
		}
	}
	return total, nil
}

// Fitness is the candidate's value when it fits maxWeight and 0 otherwise.
func Fitness(c Candidate, items []model.Item, maxWeight int) (int, error) {
	scored, err := Evaluate(c, items, maxWeight)
	if err != nil {
		return 0, err
	}
	return scored.Fitness, nil
}

// Evaluate computes weight, value and fitness in one pass.
func Evaluate(c Candidate, items []model.Item, maxWeight int) (ScoredCandidate, error) {
	if err := checkLength(c, items); err != nil {
		return ScoredCandidate{}, err
	}
	scored := ScoredCandidate{Candidate: c}
	for i, item := range items {
		if c.bits.Has(i) {
			scored.Weight += item.Weight
			scored.Value += item.Value
		}
	}
	if scored.Weight <= maxWeight {
		scored.Fitness = scored.Value
	}
	return scored, nil
}

func checkLength(c Candidate, items []model.Item) error {
	if c.Len() != len(items) {
		return fmt.Errorf("%w: bits=%d items=%d", ErrLengthMismatch, c.Len(), len(items))
	}
	return nil
}
