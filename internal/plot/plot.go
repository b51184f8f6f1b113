// Package plot renders Fitts' Law scatter plots with regression lines as PNG.
package plot

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/verte-zerg/tuifitts/internal/analysis"
)

const (
	xAxisName = "Index of Difficulty (ID)"
	yAxisName = "Time (seconds)"
)

// Range bounds an axis. A zero Range is computed from the data.
type Range struct {
	Min float64
	Max float64
}

func (r Range) set() bool {
	return r.Max > r.Min
}

// Options sizes and bounds a chart.
type Options struct {
	Title  string
	Width  int
	Height int
	X      Range
	Y      Range
}

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorCyan,
}

// markerWidths gives each dataset its own dot size so series stay apart
// without color.
var markerWidths = []float64{3, 5, 7}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color, index int) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    markerWidths[index%len(markerWidths)],
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color, dashed bool) chart.Style {
	st := chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
	}
	if dashed {
		st.StrokeDashArray = []float64{6, 4}
	}
	return st
}

// Session renders one session's points and regression line.
func Session(w io.Writer, res analysis.Result, opts Options) error {
	if opts.Title == "" {
		opts.Title = "Fitts' Law Usability Test Results (First Trial Excluded)"
	}
	series := []chart.Series{
		scatterSeries("Results", res.Points, chart.ColorBlue, 1),
		regressionSeries("Linear regression", res, chart.ColorRed, false),
	}
	return render(w, series, []analysis.Result{res}, opts, false)
}

// Comparison renders several datasets, one color each, with dashed regression
// lines and their coefficients annotated.
func Comparison(w io.Writer, results []analysis.Result, opts Options) error {
	if len(results) == 0 {
		return fmt.Errorf("no datasets to plot")
	}
	var series []chart.Series
	for i, res := range results {
		col := palette[i%len(palette)]
		series = append(series, scatterSeries(res.Name, res.Points, col, i))
	}
	for i, res := range results {
		col := palette[i%len(palette)]
		series = append(series, regressionSeries(res.Name+" Regression", res, col, true))
	}
	return render(w, series, results, opts, true)
}

// WriteFile renders with fn into path.
func WriteFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot: %w", err)
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func render(w io.Writer, series []chart.Series, results []analysis.Result, opts Options, annotate bool) error {
	xr, yr := opts.X, opts.Y
	if !xr.set() || !yr.set() {
		dx, dy := dataRanges(results)
		if !xr.set() {
			xr = dx
		}
		if !yr.set() {
			yr = dy
		}
	}
	if annotate {
		series = append(series, annotations(results, xr, yr))
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 700
	}
	if height <= 0 {
		height = 500
	}
	grid := chart.Style{StrokeColor: drawing.ColorFromHex("dddddd"), StrokeWidth: 1}
	ch := chart.Chart{
		Title:      opts.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           xAxisName,
			Range:          &chart.ContinuousRange{Min: xr.Min, Max: xr.Max},
			GridMajorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           yAxisName,
			Range:          &chart.ContinuousRange{Min: yr.Min, Max: yr.Max},
			GridMajorStyle: grid,
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func scatterSeries(name string, points []analysis.Point, col drawing.Color, index int) chart.ContinuousSeries {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.ID
		ys[i] = p.Time
	}
	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: pointStyle(col, index)}
}

func regressionSeries(name string, res analysis.Result, col drawing.Color, dashed bool) chart.ContinuousSeries {
	lo, hi := idBounds(res.Points)
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{lo, hi},
		YValues: []float64{res.Predict(lo), res.Predict(hi)},
		Style:   lineStyle(col, dashed),
	}
}

// annotations stacks "a = slope, b = intercept" labels near the right edge.
func annotations(results []analysis.Result, xr, yr Range) chart.AnnotationSeries {
	values := make([]chart.Value2, 0, len(results))
	x := xr.Min + (xr.Max-xr.Min)*0.8
	step := (yr.Max - yr.Min) / 12
	for i, res := range results {
		values = append(values, chart.Value2{
			XValue: x,
			YValue: yr.Min + step*float64(i+1),
			Label:  fmt.Sprintf("%s: a = %.4f, b = %.4f", res.Name, res.Slope, res.Intercept),
			Style:  chart.Style{FontColor: palette[i%len(palette)], StrokeColor: palette[i%len(palette)]},
		})
	}
	return chart.AnnotationSeries{Annotations: values}
}

func idBounds(points []analysis.Point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.ID)
		hi = math.Max(hi, p.ID)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	return lo, hi
}

// dataRanges pads the data extent so points do not sit on the frame.
func dataRanges(results []analysis.Result) (Range, Range) {
	x := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	y := Range{Min: 0, Max: math.Inf(-1)}
	for _, res := range results {
		for _, p := range res.Points {
			x.Min = math.Min(x.Min, p.ID)
			x.Max = math.Max(x.Max, p.ID)
			y.Min = math.Min(y.Min, p.Time)
			y.Max = math.Max(y.Max, p.Time)
		}
	}
	if math.IsInf(x.Min, 1) {
		return Range{Min: 0, Max: 1}, Range{Min: 0, Max: 1}
	}
	x = pad(x)
	y = pad(y)
	return x, y
}

func pad(r Range) Range {
	span := r.Max - r.Min
	if span < 1e-9 {
		return Range{Min: r.Min - 0.5, Max: r.Max + 0.5}
	}
	return Range{Min: r.Min - span*0.05, Max: r.Max + span*0.05}
}
