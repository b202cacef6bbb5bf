package report

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knapsackga/internal/model"
	"knapsackga/internal/stats"
)

var history = []model.GenerationBest{
	{Generation: 1, Weight: 30, Value: 160, Fitness: 160, Bits: "110"},
	{Generation: 2, Weight: 50, Value: 1220, Fitness: 1220, Bits: "011"},
}

func TestRenderHistoryPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHistory(&buf, history, Options{}))
	assert.Equal(t,
		"Generation\tWeight\tValue\tFitness\tBits\n"+
			"1\t30\t160\t160\t110\n"+
			"2\t50\t1220\t1220\t011\n",
		buf.String())
}

func TestRenderHistoryStyled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHistory(&buf, history, Options{Styled: true}))
	out := buf.String()
	for _, want := range []string{"Generation", "Fitness", "1,220", "011", "╭"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderDiagnosticsPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDiagnostics(&buf, []model.GenerationDiagnostics{{
		Generation: 1, PopulationSize: 3, BestFitness: 160, MeanFitness: 73.333, MinFitness: 0,
		FitnessStdDev: 65.99, FeasibleCount: 2, DistinctCandidate: 3,
	}}, Options{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1\t3\t160\t73.33\t0\t65.99\t2\t3", lines[1])
}

func TestRenderRuns(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{
			ID:               "run-b",
			CreatedAtUTC:     now.Add(-2 * time.Hour).Format(time.RFC3339Nano),
			Config:           model.RunConfig{Generations: 5, Selection: "weighted"},
			Items:            make([]model.Item, 3),
			BestByGeneration: history,
		},
		{ID: "run-empty", CreatedAtUTC: now.Format(time.RFC3339Nano), Config: model.RunConfig{Selection: "elite"}},
	}

	var plain bytes.Buffer
	require.NoError(t, RenderRuns(&plain, runs, Options{Now: now}))
	lines := strings.Split(strings.TrimSpace(plain.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "run-b\t2026-03-01T10:00:00Z\t3\t5\tweighted\t1220", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], "\t-"))

	var styled bytes.Buffer
	require.NoError(t, RenderRuns(&styled, runs, Options{Styled: true, Now: now}))
	assert.Contains(t, styled.String(), "2 hours ago")
}

func TestRenderCatalogIncludesTotals(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderCatalog(&buf, []model.Item{
		{Name: "a", Weight: 10, Value: 60},
		{Name: "b", Weight: 20, Value: 100},
	}, Options{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "0\ta\t10\t60", lines[1])
	assert.Equal(t, "\ttotal (2 items)\t30\t160", lines[3])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, history))
	var decoded []model.GenerationBest
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, history, decoded)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(nil))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}

func TestRenderBenchmarkPlain(t *testing.T) {
	bench := stats.BenchmarkReport{
		ID: "bench-1",
		Curve: []stats.BenchmarkPoint{
			{Generation: 1, Runs: 2, Mean: 130, StdDev: 30, Min: 100, Max: 160},
		},
		Evaluations: stats.BenchmarkStats{Runs: []stats.BenchmarkRun{
			{RunID: "r1", Seed: 4, FinalBest: 220, Success: true, ReachedGeneration: 2, Evaluations: 20},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderBenchmark(&buf, bench, Options{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "1\t2\t130.00\t30.00\t100.00\t160.00", lines[1])
	assert.Equal(t, "Run\tSeed\tFinal\tSuccess\tGeneration\tEvaluations", lines[2])
	assert.Equal(t, "r1\t4\t220\ttrue\t2\t20", lines[3])
}
