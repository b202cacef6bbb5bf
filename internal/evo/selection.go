package evo

import (
	"fmt"
	"math/rand"
	"sort"
)

// Selector chooses parents from ranked candidates for crossover.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredCandidate) (Candidate, error)
}

// WeightedSelector samples with probability proportional to fitness. When
// every candidate scores 0 all weights become 1.
type WeightedSelector struct{}

func (WeightedSelector) Name() string {
	return "weighted"
}

func (WeightedSelector) PickParent(rng *rand.Rand, ranked []ScoredCandidate) (Candidate, error) {
	if rng == nil {
		return Candidate{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return Candidate{}, fmt.Errorf("no candidates to select from")
	}

	cumulative := make([]int64, len(ranked))
	var total int64
	for i, scored := range ranked {
		if scored.Fitness > 0 {
			total += int64(scored.Fitness)
		}
		cumulative[i] = total
	}
	if total == 0 {
		return ranked[rng.Intn(len(ranked))].Candidate, nil
	}

	spin := rng.Int63n(total)
	idx := sort.Search(len(cumulative), func(i int) bool {
		return cumulative[i] > spin
	})
	return ranked[idx].Candidate, nil
}

// TournamentSelector samples TournamentSize candidates and keeps the fittest.
type TournamentSelector struct {
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredCandidate) (Candidate, error) {
	if rng == nil {
		return Candidate{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return Candidate{}, fmt.Errorf("no candidates to select from")
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > len(ranked) {
		tournamentSize = len(ranked)
	}

	best := ranked[rng.Intn(len(ranked))]
	for i := 1; i < tournamentSize; i++ {
		candidate := ranked[rng.Intn(len(ranked))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Candidate, nil
}

// EliteSelector picks uniformly from the top EliteCount ranked candidates.
type EliteSelector struct {
	EliteCount int
}

func (EliteSelector) Name() string {
	return "elite"
}

func (s EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredCandidate) (Candidate, error) {
	if rng == nil {
		return Candidate{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return Candidate{}, fmt.Errorf("no candidates to select from")
	}
	eliteCount := s.EliteCount
	if eliteCount <= 0 {
		eliteCount = (len(ranked) + 1) / 2
	}
	if eliteCount > len(ranked) {
		eliteCount = len(ranked)
	}
	return ranked[rng.Intn(eliteCount)].Candidate, nil
}
