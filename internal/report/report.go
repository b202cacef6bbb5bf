package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"knapsackga/internal/catalog"
	"knapsackga/internal/model"
	"knapsackga/internal/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("42"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Options controls rendering. Styled output draws bordered tables with
// grouped digits; plain output is tab-separated for pipes.
type Options struct {
	Styled bool
	// Now anchors relative timestamps; zero means time.Now.
	Now time.Time
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func WriteJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// RenderHistory prints one row per generation: generation, total weight,
// total value, fitness and the bit string.
func RenderHistory(w io.Writer, history []model.GenerationBest, opts Options) error {
	headers := []string{"Generation", "Weight", "Value", "Fitness", "Bits"}
	rows := make([][]string, len(history))
	for i, best := range history {
		rows[i] = []string{
			number(best.Generation, opts),
			number(best.Weight, opts),
			number(best.Value, opts),
			number(best.Fitness, opts),
			best.Bits,
		}
	}
	return render(w, headers, rows, 3, opts)
}

func RenderDiagnostics(w io.Writer, diagnostics []model.GenerationDiagnostics, opts Options) error {
	headers := []string{"Generation", "Population", "Best", "Mean", "Min", "StdDev", "Feasible", "Distinct"}
	rows := make([][]string, len(diagnostics))
	for i, d := range diagnostics {
		rows[i] = []string{
			number(d.Generation, opts),
			number(d.PopulationSize, opts),
			number(d.BestFitness, opts),
			decimal(d.MeanFitness, opts),
			number(d.MinFitness, opts),
			decimal(d.FitnessStdDev, opts),
			number(d.FeasibleCount, opts),
			number(d.DistinctCandidate, opts),
		}
	}
	return render(w, headers, rows, 2, opts)
}

func RenderRuns(w io.Writer, runs []model.RunRecord, opts Options) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	headers := []string{"Run", "Created", "Items", "Generations", "Selection", "Best"}
	rows := make([][]string, len(runs))
	for i, run := range runs {
		created := run.CreatedAtUTC
		if opts.Styled {
			if ts, err := time.Parse(time.RFC3339Nano, run.CreatedAtUTC); err == nil {
				created = humanize.RelTime(ts, now, "ago", "from now")
			}
		}
		best := "-"
		if final, ok := run.FinalBest(); ok {
			best = number(final.Fitness, opts)
		}
		rows[i] = []string{
			run.ID,
			created,
			number(len(run.Items), opts),
			number(run.Config.Generations, opts),
			run.Config.Selection,
			best,
		}
	}
	return render(w, headers, rows, 5, opts)
}

// RenderBenchmark prints the aggregated curve followed by one row per run.
func RenderBenchmark(w io.Writer, bench stats.BenchmarkReport, opts Options) error {
	headers := []string{"Generation", "Runs", "Mean", "StdDev", "Min", "Max"}
	rows := make([][]string, len(bench.Curve))
	for i, p := range bench.Curve {
		rows[i] = []string{
			number(p.Generation, opts),
			number(p.Runs, opts),
			decimal(p.Mean, opts),
			decimal(p.StdDev, opts),
			decimal(p.Min, opts),
			decimal(p.Max, opts),
		}
	}
	if err := render(w, headers, rows, 2, opts); err != nil {
		return err
	}

	headers = []string{"Run", "Seed", "Final", "Success", "Generation", "Evaluations"}
	rows = make([][]string, len(bench.Evaluations.Runs))
	for i, run := range bench.Evaluations.Runs {
		rows[i] = []string{
			run.RunID,
			strconv.FormatInt(run.Seed, 10),
			number(run.FinalBest, opts),
			strconv.FormatBool(run.Success),
			number(run.ReachedGeneration, opts),
			number(run.Evaluations, opts),
		}
	}
	return render(w, headers, rows, 3, opts)
}

// RenderCatalog lists the items followed by a totals row.
func RenderCatalog(w io.Writer, items []model.Item, opts Options) error {
	headers := []string{"#", "Name", "Weight", "Value"}
	rows := make([][]string, 0, len(items)+1)
	for i, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(i),
			item.Name,
			number(item.Weight, opts),
			number(item.Value, opts),
		})
	}
	totals := catalog.Summarize(items)
	rows = append(rows, []string{
		"",
		fmt.Sprintf("total (%d items)", totals.Items),
		number(totals.Weight, opts),
		number(totals.Value, opts),
	})
	return render(w, headers, rows, -1, opts)
}

func render(w io.Writer, headers []string, rows [][]string, highlight int, opts Options) error {
	if !opts.Styled {
		writer := csv.NewWriter(w)
		writer.Comma = '\t'
		if err := writer.Write(headers); err != nil {
			return err
		}
		if err := writer.WriteAll(rows); err != nil {
			return err
		}
		return writer.Error()
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == highlight:
				return bestStyle
			default:
				return cellStyle
			}
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func number(n int, opts Options) string {
	if opts.Styled {
		return humanize.Comma(int64(n))
	}
	return strconv.Itoa(n)
}

func decimal(f float64, opts Options) string {
	if opts.Styled {
		return humanize.CommafWithDigits(f, 2)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
