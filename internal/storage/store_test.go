package storage

import (
	"context"
	"errors"
	"testing"

	"knapsackga/internal/model"
)

func sampleRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		CreatedAtUTC:    createdAt,
		Config: model.RunConfig{
			MaxWeight:    50,
			Generations:  2,
			MutationRate: 0.01,
			Seed:         1,
			Selection:    "weighted",
		},
		Items: []model.Item{
			{Name: "a", Weight: 10, Value: 60},
			{Name: "b", Weight: 20, Value: 100},
			{Name: "c", Weight: 30, Value: 120},
		},
		BestByGeneration: []model.GenerationBest{
			{Generation: 1, Weight: 30, Value: 160, Fitness: 160, Bits: "110"},
			{Generation: 2, Weight: 50, Value: 220, Fitness: 220, Bits: "011"},
		},
		Diagnostics: []model.GenerationDiagnostics{
			{Generation: 1, PopulationSize: 3, BestFitness: 160},
			{Generation: 2, PopulationSize: 3, BestFitness: 220},
		},
	}
}

// exerciseStore runs the behavior every backend must share against an
// initialized, empty store.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list empty store: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty store, got %d runs", len(runs))
	}

	older := sampleRun("run-older", "2026-01-01T00:00:00Z")
	newer := sampleRun("run-newer", "2026-02-01T00:00:00Z")
	for _, run := range []model.RunRecord{older, newer} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save %s: %v", run.ID, err)
		}
	}

	loaded, ok, err := store.GetRun(ctx, older.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatalf("expected run %s", older.ID)
	}
	if loaded.ID != older.ID || len(loaded.Items) != 3 || len(loaded.BestByGeneration) != 2 {
		t.Fatalf("unexpected run loaded: %+v", loaded)
	}
	if best, ok := loaded.FinalBest(); !ok || best.Bits != "011" || best.Fitness != 220 {
		t.Fatalf("unexpected final best: %+v", best)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, got ok=%v err=%v", ok, err)
	}

	runs, err = store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newer.ID || runs[1].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", runIDs(runs))
	}

	updated := older
	updated.Config.Seed = 99
	if err := store.SaveRun(ctx, updated); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	loaded, _, err = store.GetRun(ctx, older.ID)
	if err != nil || loaded.Config.Seed != 99 {
		t.Fatalf("expected overwritten run, got seed %d err %v", loaded.Config.Seed, err)
	}

	if err := store.DeleteRun(ctx, newer.ID); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if err := store.DeleteRun(ctx, newer.ID); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	runs, err = store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != older.ID {
		t.Fatalf("unexpected runs after delete: %v", runIDs(runs))
	}

	stale := sampleRun("run-stale", "2026-03-01T00:00:00Z")
	stale.SchemaVersion = CurrentSchemaVersion + 1
	if err := store.SaveRun(ctx, stale); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func runIDs(runs []model.RunRecord) []string {
	ids := make([]string, len(runs))
	for i, run := range runs {
		ids[i] = run.ID
	}
	return ids
}
