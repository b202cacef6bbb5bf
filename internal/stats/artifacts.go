package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"knapsackga/internal/model"
)

const (
	configFile      = "config.json"
	historyFile     = "best_by_generation.json"
	diagnosticsFile = "diagnostics.json"
	seriesFile      = "best_by_generation.csv"
	plotFile        = "fitness.png"
)

type RunConfig struct {
	RunID        string          `json:"run_id"`
	CreatedAtUTC string          `json:"created_at_utc"`
	Config       model.RunConfig `json:"config"`
	Items        []model.Item    `json:"items"`
}

type FitnessHistory struct {
	BestByGeneration []model.GenerationBest `json:"best_by_generation"`
	FinalBest        *model.GenerationBest  `json:"final_best,omitempty"`
}

// WriteRunArtifacts writes one directory per run under baseDir and returns
// its path.
func WriteRunArtifacts(baseDir string, run model.RunRecord) (string, error) {
	if run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), RunConfig{
		RunID:        run.ID,
		CreatedAtUTC: run.CreatedAtUTC,
		Config:       run.Config,
		Items:        run.Items,
	}); err != nil {
		return "", err
	}

	history := FitnessHistory{BestByGeneration: run.BestByGeneration}
	if best, ok := run.FinalBest(); ok {
		history.FinalBest = &best
	}
	if err := writeJSON(filepath.Join(runDir, historyFile), history); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), run.Diagnostics); err != nil {
		return "", err
	}
	if err := WriteBestSeries(runDir, run.BestByGeneration); err != nil {
		return "", err
	}
	if len(run.BestByGeneration) > 0 {
		if err := WriteFitnessPlot(filepath.Join(runDir, plotFile), run.ID, run.BestByGeneration, run.Diagnostics); err != nil {
			return "", fmt.Errorf("fitness plot: %w", err)
		}
	}

	return runDir, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, configFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func WriteBestSeries(runDir string, history []model.GenerationBest) error {
	file, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "weight", "value", "fitness", "bits"}); err != nil {
		return err
	}
	for _, best := range history {
		if err := writer.Write([]string{
			strconv.Itoa(best.Generation),
			strconv.Itoa(best.Weight),
			strconv.Itoa(best.Value),
			strconv.Itoa(best.Fitness),
			best.Bits,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func ReadBestSeries(baseDir, runID string) ([]model.GenerationBest, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = 5
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []model.GenerationBest{}, true, nil
		}
		return nil, false, err
	}

	series := make([]model.GenerationBest, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		var ints [4]int
		for i := range ints {
			ints[i], err = strconv.Atoi(record[i])
			if err != nil {
				return nil, false, fmt.Errorf("best series column %d: %w", i+1, err)
			}
		}
		series = append(series, model.GenerationBest{
			Generation: ints[0],
			Weight:     ints[1],
			Value:      ints[2],
			Fitness:    ints[3],
			Bits:       record[4],
		})
	}
	return series, true, nil
}

// ExportRunArtifacts copies a run's artifact directory into outDir.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if strings.TrimSpace(runID) == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, historyFile, diagnosticsFile, seriesFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	plotPath := filepath.Join(src, plotFile)
	if _, err := os.Stat(plotPath); err == nil {
		if err := copyFile(plotPath, filepath.Join(dst, plotFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
