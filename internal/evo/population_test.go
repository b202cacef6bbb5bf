package evo

import (
	"errors"
	"math/rand"
	"testing"

	"knapsackga/internal/model"
)

func TestRandomPopulationShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	population, err := RandomPopulation(rng, 9, 64)
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	if len(population) != 9 {
		t.Fatalf("expected 9 candidates, got %d", len(population))
	}
	set := 0
	for _, c := range population {
		if c.Len() != 64 {
			t.Fatalf("unexpected candidate length %d", c.Len())
		}
		set += c.Count()
	}
	if set < 200 || set > 376 {
		t.Fatalf("expected about half the bits set, got %d of %d", set, 9*64)
	}
}

func TestRandomPopulationRejectsEmptyCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := RandomPopulation(rng, 4, 0); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
	if _, err := RandomPopulation(rng, 0, 3); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for zero size, got %v", err)
	}
}

func TestRankPopulationSortsDescendingAndKeepsTies(t *testing.T) {
	items := classicItems()
	population := []Candidate{
		mustParse(t, "111"), // overweight
		mustParse(t, "100"),
		mustParse(t, "011"),
		mustParse(t, "000"),
		mustParse(t, "110"),
	}
	ranked, err := RankPopulation(population, items, 50)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	want := []string{"011", "110", "100", "111", "000"}
	for i, scored := range ranked {
		if scored.Candidate.String() != want[i] {
			t.Fatalf("rank %d: got %s, want %s", i, scored.Candidate, want[i])
		}
	}
}

func TestNextGenerationKeepsEliteAndExactSize(t *testing.T) {
	items := classicItems()
	rng := rand.New(rand.NewSource(5))
	population, err := RandomPopulation(rng, 7, len(items))
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	ranked, err := RankPopulation(population, items, 50)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}

	for _, size := range []int{1, 2, 3, 7, 8} {
		next, err := NextGeneration(rng, ranked, size, WeightedSelector{}, BitFlipMutation{Rate: 0.2})
		if err != nil {
			t.Fatalf("size %d: next generation: %v", size, err)
		}
		if len(next) != size {
			t.Fatalf("size %d: got %d candidates", size, len(next))
		}
		if !next[0].Equal(ranked[0].Candidate) {
			t.Fatalf("size %d: elite %s not carried over, got %s", size, ranked[0].Candidate, next[0])
		}
	}
}

func TestNextGenerationWithoutMutationOnlyRecombines(t *testing.T) {
	ranked, err := RankPopulation([]Candidate{
		mustParse(t, "1111"),
		mustParse(t, "0000"),
	}, []model.Item{
		{Name: "w", Weight: 1, Value: 1},
		{Name: "x", Weight: 1, Value: 1},
		{Name: "y", Weight: 1, Value: 1},
		{Name: "z", Weight: 1, Value: 1},
	}, 1000)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	rng := rand.New(rand.NewSource(8))
	next, err := NextGeneration(rng, ranked, 10, EliteSelector{EliteCount: 2}, BitFlipMutation{Rate: 0})
	if err != nil {
		t.Fatalf("next generation: %v", err)
	}
	if !next[1].Equal(next[0]) {
		t.Fatalf("unmutated elite copy differs: %s vs %s", next[1], next[0])
	}
	for _, c := range next {
		if c.Len() != 4 {
			t.Fatalf("unexpected length %d", c.Len())
		}
	}
}

func TestNextGenerationValidatesInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ranked := scoredFromFitness(t, 3, 2, 1)
	if _, err := NextGeneration(rng, nil, 3, WeightedSelector{}, BitFlipMutation{}); err == nil {
		t.Fatal("expected error for empty previous generation")
	}
	if _, err := NextGeneration(rng, ranked, 0, WeightedSelector{}, BitFlipMutation{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := NextGeneration(rng, ranked, 3, nil, BitFlipMutation{}); err == nil {
		t.Fatal("expected error without selector")
	}
	if _, err := NextGeneration(rng, ranked, 3, WeightedSelector{}, nil); err == nil {
		t.Fatal("expected error without mutator")
	}
}
