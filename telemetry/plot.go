package telemetry

import (
	"errors"
	"fmt"
	"math"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrTooFewPoints is returned when a plot would have fewer than two samples.
var ErrTooFewPoints = errors.New("plot needs at least two windows")

// PlotDaily renders the stage abundances of a run, with fruit quality on a
// secondary axis, as a PNG at path.
func PlotDaily(path, title string, rows []WindowStats) error {
	if len(rows) < 2 {
		return ErrTooFewPoints
	}

	days := make([]float64, len(rows))
	eggs := make([]float64, len(rows))
	larvae := make([]float64, len(rows))
	pupae := make([]float64, len(rows))
	males := make([]float64, len(rows))
	females := make([]float64, len(rows))
	fruit := make([]float64, len(rows))

	yMin, yMax := 0.0, 1.0
	for i, r := range rows {
		days[i] = r.Day
		eggs[i] = r.Eggs
		larvae[i] = r.Larvae()
		pupae[i] = r.Pupae
		males[i] = r.Males
		females[i] = r.Females
		fruit[i] = r.FruitQuality
		for _, v := range []float64{r.Eggs, r.Larvae(), r.Pupae, r.Males, r.Females} {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				yMin = math.Min(yMin, v)
				yMax = math.Max(yMax, v)
			}
		}
	}

	line := func(name string, y []float64, color drawing.Color) chart.ContinuousSeries {
		return chart.ContinuousSeries{
			Name:    name,
			XValues: days,
			YValues: y,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2.0,
			},
		}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  1200,
		Height: 600,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "day",
			Range: &chart.ContinuousRange{Min: days[0], Max: days[len(days)-1]},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "abundance",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "fruit quality",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: []chart.Series{
			line("eggs", eggs, chart.ColorBlue),
			line("larvae", larvae, chart.ColorGreen),
			line("pupae", pupae, chart.ColorOrange),
			line("males", males, chart.ColorCyan),
			line("females", females, chart.ColorRed),
			chart.ContinuousSeries{
				Name:    "fruit",
				YAxis:   chart.YAxisSecondary,
				XValues: days,
				YValues: fruit,
				Style: chart.Style{
					StrokeColor:     drawing.Color{R: 120, G: 60, B: 160, A: 255},
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot: %w", err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return fmt.Errorf("rendering plot: %w", err)
	}
	return f.Close()
}
