package storage

import (
	"context"
	"errors"
	"sort"

	"knapsackga/internal/model"
)

// TimestampLayout is fixed width so stored timestamps sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

var ErrRunNotFound = errors.New("run not found")

// Store persists finished run records. Population state is never stored.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns every stored run, newest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
}

func sortRunsNewestFirst(runs []model.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
		}
		return runs[i].ID < runs[j].ID
	})
}

func cloneRun(run model.RunRecord) model.RunRecord {
	run.Items = append([]model.Item(nil), run.Items...)
	run.BestByGeneration = append([]model.GenerationBest(nil), run.BestByGeneration...)
	run.Diagnostics = append([]model.GenerationDiagnostics(nil), run.Diagnostics...)
	return run
}
