package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knapsackga/internal/model"
	"knapsackga/pkg/knapsackga"
)

const classicCatalog = "a;10;60\nb;20;100\nc;30;120\n"

type cliEnv struct {
	dir     string
	catalog string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "items.txt")
	require.NoError(t, os.WriteFile(path, []byte(classicCatalog), 0o644))
	return cliEnv{dir: dir, catalog: path}
}

// exec runs the CLI against a badger store inside the env directory.
func (e cliEnv) exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	global := []string{
		"--db-path", filepath.Join(e.dir, "db"),
		"--artifacts-dir", filepath.Join(e.dir, "runs"),
		"--exports-dir", filepath.Join(e.dir, "exports"),
		"--benchmarks-dir", filepath.Join(e.dir, "benchmarks"),
		"--log-level", "error",
	}
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append(global, args...), &stdout, &stderr)
	return stdout.String(), err
}

func (e cliEnv) runClassic(t *testing.T, extra ...string) string {
	t.Helper()
	args := append([]string{"run",
		"--catalog", e.catalog,
		"--max-weight", "50",
		"--generations", "20",
		"--mutation-rate", "0.1",
		"--population", "30",
	}, extra...)
	out, err := e.exec(t, args...)
	require.NoError(t, err)
	return out
}

func TestRunCommandPrintsHistoryAndSummary(t *testing.T) {
	env := newCLIEnv(t)
	out := env.runClassic(t)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+20+2)
	assert.Equal(t, "Generation\tWeight\tValue\tFitness\tBits", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1\t"))
	assert.Contains(t, lines[21], "best_fitness=220 bits=011 selected=b,c")
	assert.True(t, strings.HasPrefix(lines[22], "artifacts="))
}

func TestRunCommandJSONAndNoArtifacts(t *testing.T) {
	env := newCLIEnv(t)
	out := env.runClassic(t, "--json", "--no-artifacts", "--selection", "elite")

	var summary knapsackga.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Len(t, summary.BestByGeneration, 20)
	assert.Empty(t, summary.ArtifactsDir)
	_, err := os.Stat(filepath.Join(env.dir, "runs", summary.RunID))
	assert.True(t, os.IsNotExist(err))
}

func TestRunCommandConfigFileWithFlagOverride(t *testing.T) {
	env := newCLIEnv(t)
	configPath := filepath.Join(env.dir, "run.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(strings.Join([]string{
		"catalog: items.txt",
		"max_weight: 50",
		"generations: 3",
		"mutation_rate: 0.2",
		"population_size: 6",
		"selection: tournament",
	}, "\n")), 0o644))

	_, err := env.exec(t, "run", "--config", configPath, "--generations", "5", "--no-artifacts")
	require.NoError(t, err)

	out, err := env.exec(t, "--json", "runs")
	require.NoError(t, err)
	var runs []model.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 5, runs[0].Config.Generations)
	assert.Equal(t, 6, runs[0].Config.PopulationSize)
	assert.Equal(t, 0.2, runs[0].Config.MutationRate)
	assert.Equal(t, "tournament", runs[0].Config.Selection)
	assert.Equal(t, env.catalog, runs[0].Config.CatalogPath)
}

func TestRunCommandRejectsInvalidConfig(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.exec(t, "run", "--catalog", env.catalog, "--generations", "5")
	require.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, err.Error(), "max_weight")

	_, err = env.exec(t, "run", "--catalog", env.catalog, "--max-weight", "5", "--generations", "5", "--selection", "lottery")
	require.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, err.Error(), "unknown selector")
}

func TestRunHistoryDiagnosticsDeleteLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	env.runClassic(t)
	env.runClassic(t, "--seed", "7")

	out, err := env.exec(t, "runs")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	out, err = env.exec(t, "history", "--latest", "--limit", "4")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 5)

	fromArtifacts, err := env.exec(t, "history", "--latest", "--limit", "4", "--from-artifacts")
	require.NoError(t, err)
	assert.Equal(t, out, fromArtifacts)

	out, err = env.exec(t, "--json", "diagnostics", "--latest")
	require.NoError(t, err)
	var diagnostics []model.GenerationDiagnostics
	require.NoError(t, json.Unmarshal([]byte(out), &diagnostics))
	assert.Len(t, diagnostics, 20)

	out, err = env.exec(t, "export", "--latest")
	require.NoError(t, err)
	assert.Contains(t, out, "exported run_id=")

	out, err = env.exec(t, "delete", "--latest")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "deleted run_id="))

	out, err = env.exec(t, "--json", "runs")
	require.NoError(t, err)
	var runs []model.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	assert.Len(t, runs, 1)
}

func TestRunRefFlagsAreExclusive(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.exec(t, "history")
	assert.Error(t, err)
	_, err = env.exec(t, "history", "--latest", "--run-id", "x")
	assert.Error(t, err)
	_, err = env.exec(t, "history", "--run-id", "missing")
	assert.ErrorIs(t, err, knapsackga.ErrRunNotFound)
}

func TestCatalogCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.exec(t, "catalog", env.catalog)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "\ttotal (3 items)\t60\t280", lines[4])

	_, err = env.exec(t, "catalog")
	assert.Error(t, err)

	messy := filepath.Join(env.dir, "messy.txt")
	require.NoError(t, os.WriteFile(messy, []byte("# gear\n  a ; 10 ; 60\n\nb;20;100\n"), 0o644))
	out, err = env.exec(t, "catalog", "--normalize", messy)
	require.NoError(t, err)
	assert.Equal(t, "a;10;60\nb;20;100\n", out)
}

func TestSelectorsCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.exec(t, "selectors")
	require.NoError(t, err)
	assert.Equal(t, "elite\ntournament\nweighted (default)\n", out)
}

func TestMetricsTextfile(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(env.dir, "metrics.prom")
	env.runClassic(t, "--no-artifacts", "--metrics-textfile", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "knapsackga_generations_total 20")
}

func TestUnknownCommandAndStore(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.exec(t, "bogus")
	assert.Error(t, err)
	_, err = env.exec(t, "--store", "bogus", "runs")
	assert.Error(t, err)
}

func TestBenchmarkCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, err := env.exec(t, "--json", "benchmark",
		"--catalog", env.catalog,
		"--max-weight", "50",
		"--generations", "6",
		"--population", "10",
		"--runs", "3",
		"--seed", "10",
		"--goal", "220",
	)
	require.NoError(t, err)

	var summary knapsackga.BenchmarkSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Len(t, summary.Report.Curve, 6)
	require.NotNil(t, summary.Report.Evaluations.FitnessGoal)
	assert.Equal(t, 220, *summary.Report.Evaluations.FitnessGoal)
	assert.Equal(t, int64(12), summary.Report.Evaluations.Runs[2].Seed)
	assert.Equal(t, filepath.Join(env.dir, "benchmarks", summary.Report.ID), summary.Directory)

	out, err = env.exec(t, "runs")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)

	out, err = env.exec(t, "--json", "benchmark", "show", summary.Report.ID)
	require.NoError(t, err)
	var shown knapsackga.BenchmarkSummary
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, summary.Report.ID, shown.Report.ID)
	assert.Equal(t, summary.Report.Evaluations.SuccessRate, shown.Report.Evaluations.SuccessRate)

	_, err = env.exec(t, "benchmark", "show", "missing")
	assert.ErrorIs(t, err, knapsackga.ErrBenchmarkNotFound)
}
