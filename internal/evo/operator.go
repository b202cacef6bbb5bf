package evo

import (
	"fmt"
	"math"
	"math/rand"
)

// Mutator produces a perturbed copy of a candidate.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, c Candidate) (Candidate, error)
}

// BitFlipMutation flips every bit independently with probability Rate.
type BitFlipMutation struct {
	Rate float64
}

func (BitFlipMutation) Name() string {
	return "bit_flip"
}

func (m BitFlipMutation) Mutate(rng *rand.Rand, c Candidate) (Candidate, error) {
	return Mutate(rng, c, m.Rate)
}

// Mutate returns a copy of c with each bit flipped with probability rate.
// The input candidate is never modified.
func Mutate(rng *rand.Rand, c Candidate, rate float64) (Candidate, error) {
	if rng == nil {
		return Candidate{}, fmt.Errorf("random source is required")
	}
	if err := validateRate(rate); err != nil {
		return Candidate{}, err
	}
	if c.Len() == 0 {
		return c, nil
	}
	out := c.bits.Clone()
	for i := 0; i < out.Len(); i++ {
		if rng.Float64() < rate {
			out.Flip(i)
		}
	}
	return fromBitSet(out), nil
}

func validateRate(rate float64) error {
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return invalidArgument("mutation rate %v outside [0, 1]", rate)
	}
	return nil
}
