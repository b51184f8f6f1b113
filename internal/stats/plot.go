package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/tuifitts/internal/analysis"
)

// ScatterSeries is a named point cloud with an optional fitted line.
type ScatterSeries struct {
	Name   string
	Points []analysis.Point
	Fit    *analysis.Fit
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

type axisRange struct {
	min float64
	max float64
}

const (
	defaultPlotHeight   = 12
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	axisLabelWidth      = 6
)

var fitStyles = []lineStyle{
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
	{name: "solid", period: 1, on: 1},
}

var colorPalette = []ansiColor{
	{name: "blue", code: "\x1b[34m"},
	{name: "green", code: "\x1b[32m"},
	{name: "red", code: "\x1b[31m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "cyan", code: "\x1b[36m"},
}

// PlotScatter renders a braille scatter plot of time against ID. All series
// share the same axes. Color is used only when w is a terminal.
func PlotScatter(w io.Writer, title string, series []ScatterSeries, width, height int) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	xr, yr := scatterBounds(series)
	dotsX := width * 2
	dotsY := height * 4

	toDot := func(x, y float64) (int, int) {
		px := int(math.Round((x - xr.min) / (xr.max - xr.min) * float64(dotsX-1)))
		py := int(math.Round((1 - (y-yr.min)/(yr.max-yr.min)) * float64(dotsY-1)))
		return px, clampInt(py, -4*dotsY, 5*dotsY)
	}

	seriesCells := make([][][]uint8, 0, len(series))
	for si, s := range series {
		cells := makeCells(height, width)
		if s.Fit != nil {
			style := fitStyles[si%len(fitStyles)]
			x0, y0 := toDot(xr.min, s.Fit.Predict(xr.min))
			x1, y1 := toDot(xr.max, s.Fit.Predict(xr.max))
			drawLine(x0, y0, x1, y1, func(dx, dy int) {
				if style.shouldPlot(dx) {
					setBrailleDot(cells, dx, dy)
				}
			})
		}
		for _, p := range s.Points {
			px, py := toDot(p.ID, p.Time)
			setBrailleDot(cells, px, py)
			setBrailleDot(cells, px+1, py)
		}
		seriesCells = append(seriesCells, cells)
	}

	useColor := shouldUseColor(w)
	axisLabels := makeAxisLabels(height, yr)

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "x: ID %.2f..%.2f  y: Time (s) %.2f..%.2f\n", xr.min, xr.max, yr.min, yr.max); err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisLabelWidth, axisLabels[y], axisSeparator))
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(seriesCells, x, y)
			ch := brailleFromMask(mask)
			if useColor && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderXAxis(xr, width)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, useColor)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

func filterSeries(series []ScatterSeries) []ScatterSeries {
	out := make([]ScatterSeries, 0, len(series))
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func scatterBounds(series []ScatterSeries) (axisRange, axisRange) {
	xr := axisRange{min: math.Inf(1), max: math.Inf(-1)}
	yr := axisRange{min: math.Inf(1), max: math.Inf(-1)}
	for _, s := range series {
		for _, p := range s.Points {
			xr.min = math.Min(xr.min, p.ID)
			xr.max = math.Max(xr.max, p.ID)
			yr.min = math.Min(yr.min, p.Time)
			yr.max = math.Max(yr.max, p.Time)
		}
	}
	if yr.min > 0 {
		yr.min = 0
	}
	if math.Abs(xr.max-xr.min) < 1e-9 {
		xr.min--
		xr.max++
	}
	if math.Abs(yr.max-yr.min) < 1e-9 {
		yr.max++
	}
	return xr, yr
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := axisLabelWidth + displayWidth(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, yr axisRange) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = fmt.Sprintf("%.2f", yr.max)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.2f", yr.max-(yr.max-yr.min)*float64(height/2)/float64(height-1))
	}
	if height > 1 {
		labels[height-1] = fmt.Sprintf("%.2f", yr.min)
	}
	return labels
}

func renderXAxis(xr axisRange, width int) string {
	left := fmt.Sprintf("%.2f", xr.min)
	right := fmt.Sprintf("%.2f", xr.max)
	gap := width - displayWidth(left) - displayWidth(right)
	if gap < 1 {
		gap = 1
	}
	prefix := strings.Repeat(" ", axisLabelWidth+displayWidth(axisSeparator))
	return prefix + left + strings.Repeat(" ", gap) + right
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) {
			continue
		}
		if x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func renderLegend(series []ScatterSeries, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x09)
	for i, s := range series {
		label := fmt.Sprintf("%c %s", marker, s.Name)
		if s.Fit != nil {
			label += fmt.Sprintf(" (fit %s)", fitStyles[i%len(fitStyles)].name)
		}
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) {
		return
	}
	if cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
