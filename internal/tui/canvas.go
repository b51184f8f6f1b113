package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuifitts/internal/model"
)

// gridStep is the spacing of the background grid in canvas pixels.
const gridStep = 50

const (
	targetRune = '█'
	gridRune   = '·'
)

// viewport maps terminal cells onto the virtual pixel canvas.
type viewport struct {
	cols    int
	rows    int
	canvasW float64
	canvasH float64
}

func (v viewport) valid() bool {
	return v.cols > 0 && v.rows > 0 && v.canvasW > 0 && v.canvasH > 0
}

func (v viewport) cellWidth() float64 {
	return v.canvasW / float64(v.cols)
}

func (v viewport) cellHeight() float64 {
	return v.canvasH / float64(v.rows)
}

// toCanvas returns the canvas point at the center of a cell.
func (v viewport) toCanvas(col, row int) model.Point {
	return model.Point{
		X: (float64(col) + 0.5) * v.cellWidth(),
		Y: (float64(row) + 0.5) * v.cellHeight(),
	}
}

// crossesGrid reports whether the span [lo, hi) contains a grid line.
func crossesGrid(lo, hi float64) bool {
	return math.Floor(lo/gridStep) != math.Floor(hi/gridStep) || math.Mod(lo, gridStep) == 0
}

func (v viewport) gridCell(col, row int) bool {
	cw, ch := v.cellWidth(), v.cellHeight()
	if cw < gridStep && crossesGrid(float64(col)*cw, float64(col+1)*cw) && col > 0 {
		return true
	}
	return ch < gridStep && crossesGrid(float64(row)*ch, float64(row+1)*ch) && row > 0
}

// insideTarget reports whether a cell center lies within the target, or
// whether the target is so small that it falls inside this single cell.
func (v viewport) insideTarget(col, row int, target model.Target) bool {
	p := v.toCanvas(col, row)
	dx := p.X - target.X
	dy := p.Y - target.Y
	if dx*dx+dy*dy <= target.Radius*target.Radius {
		return true
	}
	return math.Abs(dx) <= v.cellWidth()/2 && math.Abs(dy) <= v.cellHeight()/2
}

// pointerAt returns the canvas point a pointer in the cell stands for. A cell
// painted as part of the target resolves to the target center, so every
// visible target can be acquired however coarse the cells are.
func (v viewport) pointerAt(col, row int, target model.Target) model.Point {
	if v.insideTarget(col, row, target) {
		return target.Center()
	}
	return v.toCanvas(col, row)
}

// render draws the grid and the target into a block of rows.
func (v viewport) render(target model.Target, targetStyle, gridStyle lipgloss.Style) string {
	if !v.valid() {
		return ""
	}
	var b strings.Builder
	for row := 0; row < v.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(gridStyle.Render(run.String()))
				run.Reset()
			}
		}
		for col := 0; col < v.cols; col++ {
			switch {
			case v.insideTarget(col, row, target):
				flush()
				b.WriteString(targetStyle.Render(string(targetRune)))
			case v.gridCell(col, row):
				run.WriteRune(gridRune)
			default:
				run.WriteByte(' ')
			}
		}
		flush()
	}
	return b.String()
}
