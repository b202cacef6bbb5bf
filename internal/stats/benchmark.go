package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"knapsackga/internal/model"
)

const (
	benchmarkReportFile = "benchmark.json"
	benchmarkCurveFile  = "curve.csv"
)

// BenchmarkPoint aggregates the best fitness of one generation across the
// runs of a benchmark.
type BenchmarkPoint struct {
	Generation int     `json:"generation"`
	Runs       int     `json:"runs"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
}

type BenchmarkRun struct {
	RunID             string `json:"run_id"`
	Seed              int64  `json:"seed"`
	FinalBest         int    `json:"final_best"`
	Success           bool   `json:"success"`
	ReachedGeneration int    `json:"reached_generation,omitempty"`
	Evaluations       int    `json:"evaluations"`
}

type BenchmarkStats struct {
	TotalRuns      int            `json:"total_runs"`
	SuccessRuns    int            `json:"success_runs"`
	SuccessRate    float64        `json:"success_rate"`
	AvgEvaluations float64        `json:"avg_evaluations"`
	StdEvaluations float64        `json:"std_evaluations"`
	MinEvaluations float64        `json:"min_evaluations"`
	MaxEvaluations float64        `json:"max_evaluations"`
	FitnessGoal    *int           `json:"fitness_goal,omitempty"`
	Runs           []BenchmarkRun `json:"runs"`
}

type BenchmarkReport struct {
	ID           string           `json:"id"`
	CreatedAtUTC string           `json:"created_at_utc"`
	Config       model.RunConfig  `json:"config"`
	Curve        []BenchmarkPoint `json:"curve"`
	Evaluations  BenchmarkStats   `json:"evaluations"`
}

// BuildBenchmarkCurve averages the best-by-generation series of several runs.
// Shorter series drop out once exhausted.
func BuildBenchmarkCurve(runs []model.RunRecord) []BenchmarkPoint {
	longest := 0
	for _, run := range runs {
		longest = max(longest, len(run.BestByGeneration))
	}

	points := make([]BenchmarkPoint, 0, longest)
	values := make([]float64, 0, len(runs))
	for i := 0; i < longest; i++ {
		values = values[:0]
		for _, run := range runs {
			if i < len(run.BestByGeneration) {
				values = append(values, float64(run.BestByGeneration[i].Fitness))
			}
		}
		mean, std := stat.PopMeanStdDev(values, nil)
		points = append(points, BenchmarkPoint{
			Generation: i + 1,
			Runs:       len(values),
			Mean:       mean,
			StdDev:     std,
			Min:        floats.Min(values),
			Max:        floats.Max(values),
		})
	}
	return points
}

// EvaluateBenchmarkRuns counts, per run, the candidate evaluations spent
// before the best fitness first reached goal. A nil goal counts every run as
// a success over its full length.
func EvaluateBenchmarkRuns(runs []model.RunRecord, goal *int) BenchmarkStats {
	result := BenchmarkStats{
		TotalRuns: len(runs),
		Runs:      make([]BenchmarkRun, 0, len(runs)),
	}
	if goal != nil {
		value := *goal
		result.FitnessGoal = &value
	}

	successes := make([]float64, 0, len(runs))
	for _, record := range runs {
		run := evaluateBenchmarkRun(record, goal)
		result.Runs = append(result.Runs, run)
		if run.Success {
			result.SuccessRuns++
			successes = append(successes, float64(run.Evaluations))
		}
	}
	if result.TotalRuns > 0 {
		result.SuccessRate = float64(result.SuccessRuns) / float64(result.TotalRuns)
	}
	if len(successes) > 0 {
		result.AvgEvaluations, result.StdEvaluations = stat.PopMeanStdDev(successes, nil)
		result.MinEvaluations = floats.Min(successes)
		result.MaxEvaluations = floats.Max(successes)
	}
	return result
}

func evaluateBenchmarkRun(record model.RunRecord, goal *int) BenchmarkRun {
	populationSize := max(record.Config.PopulationSize, 1)
	run := BenchmarkRun{RunID: record.ID, Seed: record.Config.Seed}
	if final, ok := record.FinalBest(); ok {
		run.FinalBest = final.Fitness
	}
	for i, best := range record.BestByGeneration {
		run.Evaluations += populationSize
		run.ReachedGeneration = i + 1
		if goal != nil && best.Fitness >= *goal {
			run.Success = true
			return run
		}
	}
	run.Success = goal == nil
	return run
}

// WriteBenchmarkReport writes the report and its curve under
// baseDir/<report id> and returns that directory.
func WriteBenchmarkReport(baseDir string, report BenchmarkReport) (string, error) {
	if report.ID == "" {
		return "", fmt.Errorf("benchmark id is required")
	}
	dir := filepath.Join(baseDir, report.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, benchmarkReportFile), report); err != nil {
		return "", err
	}
	if err := writeBenchmarkCurve(filepath.Join(dir, benchmarkCurveFile), report.Curve); err != nil {
		return "", err
	}
	return dir, nil
}

func ReadBenchmarkReport(baseDir, id string) (BenchmarkReport, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, id, benchmarkReportFile))
	if err != nil {
		if os.IsNotExist(err) {
			return BenchmarkReport{}, false, nil
		}
		return BenchmarkReport{}, false, err
	}
	var report BenchmarkReport
	if err := json.Unmarshal(data, &report); err != nil {
		return BenchmarkReport{}, false, err
	}
	return report, true, nil
}

func writeBenchmarkCurve(path string, curve []BenchmarkPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"generation", "runs", "mean", "std_dev", "min", "max"}); err != nil {
		return err
	}
	for _, p := range curve {
		if err := w.Write([]string{
			strconv.Itoa(p.Generation),
			strconv.Itoa(p.Runs),
			strconv.FormatFloat(p.Mean, 'f', -1, 64),
			strconv.FormatFloat(p.StdDev, 'f', -1, 64),
			strconv.FormatFloat(p.Min, 'f', -1, 64),
			strconv.FormatFloat(p.Max, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
