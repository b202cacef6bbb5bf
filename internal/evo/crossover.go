package evo

import (
	"fmt"
	"math/rand"

	"knapsackga/internal/bitset"
)

// Crossover performs single-point crossover at a uniformly random index in
// [0, length-1].
func Crossover(rng *rand.Rand, parent1, parent2 Candidate) (Candidate, Candidate, error) {
	if rng == nil {
		return Candidate{}, Candidate{}, fmt.Errorf("random source is required")
	}
	if err := checkParents(parent1, parent2); err != nil {
		return Candidate{}, Candidate{}, err
	}
	child1, child2 := crossoverAt(parent1, parent2, rng.Intn(parent1.Len()))
	return child1, child2, nil
}

// CrossoverParents is Crossover over a parent slice, which must hold exactly
// two candidates.
func CrossoverParents(rng *rand.Rand, parents []Candidate) (Candidate, Candidate, error) {
	if len(parents) != 2 {
		return Candidate{}, Candidate{}, invalidArgument("crossover needs exactly 2 parents, got %d", len(parents))
	}
	return Crossover(rng, parents[0], parents[1])
}

// CrossoverAt builds child1 = parent1[:k] + parent2[k:] and
// child2 = parent2[:k] + parent1[k:].
func CrossoverAt(parent1, parent2 Candidate, k int) (Candidate, Candidate, error) {
	if err := checkParents(parent1, parent2); err != nil {
		return Candidate{}, Candidate{}, err
	}
	if k < 0 || k >= parent1.Len() {
		return Candidate{}, Candidate{}, invalidArgument("crossover index %d out of range [0, %d)", k, parent1.Len())
	}
	child1, child2 := crossoverAt(parent1, parent2, k)
	return child1, child2, nil
}

func crossoverAt(parent1, parent2 Candidate, k int) (Candidate, Candidate) {
	length := parent1.Len()
	child1 := bitset.New(length)
	child2 := bitset.New(length)
	for i := 0; i < length; i++ {
		if i < k {
			child1.CopyBit(parent1.bits, i)
			child2.CopyBit(parent2.bits, i)
		} else {
			child1.CopyBit(parent2.bits, i)
			child2.CopyBit(parent1.bits, i)
		}
	}
	return fromBitSet(child1), fromBitSet(child2)
}

func checkParents(parent1, parent2 Candidate) error {
	if parent1.Len() != parent2.Len() {
		return invalidArgument("parents differ in length: %d vs %d", parent1.Len(), parent2.Len())
	}
	if parent1.Len() == 0 {
		return invalidArgument("parents are empty")
	}
	return nil
}
