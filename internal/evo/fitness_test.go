package evo

import (
	"errors"
	"math/rand"
	"testing"

	"knapsackga/internal/model"
)

func TestFitnessClassicInstance(t *testing.T) {
	items := classicItems()

	all, err := Evaluate(mustParse(t, "111"), items, 50)
	if err != nil {
		t.Fatalf("evaluate 111: %v", err)
	}
	if all.Weight != 60 || all.Value != 280 || all.Fitness != 0 {
		t.Fatalf("unexpected score for 111: %+v", all)
	}

	ab, err := Evaluate(mustParse(t, "110"), items, 50)
	if err != nil {
		t.Fatalf("evaluate 110: %v", err)
	}
	if ab.Weight != 30 || ab.Value != 160 || ab.Fitness != 160 {
		t.Fatalf("unexpected score for 110: %+v", ab)
	}

	bc, err := Fitness(mustParse(t, "011"), items, 50)
	if err != nil {
		t.Fatalf("fitness 011: %v", err)
	}
	if bc != 220 {
		t.Fatalf("expected 220 for 011 at capacity, got %d", bc)
	}
}

func TestWeightAndValue(t *testing.T) {
	items := classicItems()
	w, err := Weight(mustParse(t, "101"), items)
	if err != nil {
		t.Fatalf("weight: %v", err)
	}
	v, err := Value(mustParse(t, "101"), items)
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if w != 40 || v != 180 {
		t.Fatalf("unexpected weight/value: %d/%d", w, v)
	}
}

func TestFitnessRejectsLengthMismatch(t *testing.T) {
	_, err := Fitness(mustParse(t, "11"), classicItems(), 50)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("length mismatch should be an invalid argument, got %v", err)
	}
}

func TestFitnessProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	items := make([]model.Item, 12)
	totalWeight := 0
	for i := range items {
		items[i] = model.Item{Name: "i", Weight: 1 + rng.Intn(20), Value: rng.Intn(50)}
		totalWeight += items[i].Weight
	}
	maxWeight := totalWeight / 2

	population, err := RandomPopulation(rng, 200, len(items))
	if err != nil {
		t.Fatalf("random population: %v", err)
	}
	for _, c := range population {
		w, err := Weight(c, items)
		if err != nil {
			t.Fatalf("weight: %v", err)
		}
		unselected, err := Weight(c.Not(), items)
		if err != nil {
			t.Fatalf("weight of complement: %v", err)
		}
		if w+unselected != totalWeight {
			t.Fatalf("selected %d + unselected %d != total %d", w, unselected, totalWeight)
		}

		v, _ := Value(c, items)
		f, err := Fitness(c, items, maxWeight)
		if err != nil {
			t.Fatalf("fitness: %v", err)
		}
		if w > maxWeight && f != 0 {
			t.Fatalf("overweight candidate %s scored %d", c, f)
		}
		if w <= maxWeight && f != v {
			t.Fatalf("feasible candidate %s scored %d, value %d", c, f, v)
		}
	}
}
