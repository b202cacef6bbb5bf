package stats

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"knapsackga/internal/model"
)

// WriteFitnessPlot renders best fitness per generation, plus mean fitness
// when diagnostics are available, to a PNG file.
func WriteFitnessPlot(path, title string, history []model.GenerationBest, diagnostics []model.GenerationDiagnostics) error {
	if len(history) == 0 {
		return fmt.Errorf("fitness history is empty")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	bestPts := make(plotter.XYs, len(history))
	for i, best := range history {
		bestPts[i].X = float64(best.Generation)
		bestPts[i].Y = float64(best.Fitness)
	}
	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	bestLine.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	p.Add(bestLine)
	p.Legend.Add("best", bestLine)

	if len(diagnostics) > 0 {
		meanPts := make(plotter.XYs, len(diagnostics))
		for i, d := range diagnostics {
			meanPts[i].X = float64(d.Generation)
			meanPts[i].Y = d.MeanFitness
		}
		meanLine, err := plotter.NewLine(meanPts)
		if err != nil {
			return err
		}
		meanLine.Color = color.RGBA{R: 40, G: 80, B: 200, A: 255}
		meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(meanLine)
		p.Legend.Add("mean", meanLine)
	}

	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
