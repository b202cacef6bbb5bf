package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"knapsackga/internal/bitset"
	"knapsackga/internal/model"
)

// RandomPopulation builds size candidates of the given length with every bit
// set independently with probability 0.5.
func RandomPopulation(rng *rand.Rand, size, length int) ([]Candidate, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if size <= 0 {
		return nil, invalidArgument("population size must be > 0, got %d", size)
	}
	if length <= 0 {
		return nil, ErrEmptyCatalog
	}

	population := make([]Candidate, size)
	for i := range population {
		bits := bitset.New(length)
		for j := 0; j < length; j++ {
			if rng.Float64() < 0.5 {
				bits.Set(j)
			}
		}
		population[i] = fromBitSet(bits)
	}
	return population, nil
}

// RankPopulation scores every candidate and sorts by descending fitness.
// Ties keep their population order.
func RankPopulation(population []Candidate, items []model.Item, maxWeight int) ([]ScoredCandidate, error) {
	ranked := make([]ScoredCandidate, len(population))
	for i, c := range population {
		scored, err := Evaluate(c, items, maxWeight)
		if err != nil {
			return nil, fmt.Errorf("evaluate candidate %d: %w", i, err)
		}
		ranked[i] = scored
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked, nil
}

// NextGeneration derives a new population of exactly size candidates from a
// ranked previous generation: the top candidate unchanged, one mutated copy
// of it, then mutated crossover children of selected parent pairs. The
// second child of the final pair is dropped when size is odd.
func NextGeneration(rng *rand.Rand, ranked []ScoredCandidate, size int, selector Selector, mutator Mutator) ([]Candidate, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("previous generation is empty")
	}
	if size <= 0 {
		return nil, invalidArgument("population size must be > 0, got %d", size)
	}
	if selector == nil {
		return nil, fmt.Errorf("selector is required")
	}
	if mutator == nil {
		return nil, fmt.Errorf("mutator is required")
	}

	next := make([]Candidate, 0, size+1)
	elite := ranked[0].Candidate
	mutatedElite, err := mutator.Mutate(rng, elite)
	if err != nil {
		return nil, fmt.Errorf("mutate elite: %w", err)
	}
	next = append(next, elite, mutatedElite)

	for len(next) < size {
		parent1, err := selector.PickParent(rng, ranked)
		if err != nil {
			return nil, fmt.Errorf("%s selection: %w", selector.Name(), err)
		}
		parent2, err := selector.PickParent(rng, ranked)
		if err != nil {
			return nil, fmt.Errorf("%s selection: %w", selector.Name(), err)
		}
		child1, child2, err := Crossover(rng, parent1, parent2)
		if err != nil {
			return nil, err
		}
		child1, err = mutator.Mutate(rng, child1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mutator.Name(), err)
		}
		child2, err = mutator.Mutate(rng, child2)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mutator.Name(), err)
		}
		next = append(next, child1, child2)
	}

	if len(next) > size {
		next = next[:size]
	}
	return next, nil
}
