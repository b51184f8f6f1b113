// Package generator places random circular targets on the canvas.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/tuifitts/internal/metrics"
	"github.com/verte-zerg/tuifitts/internal/model"
)

// Default radius bounds in canvas pixels.
const (
	DefaultRadiusMin = 10
	DefaultRadiusMax = 40
)

// Generator produces randomized targets inside a fixed canvas.
type Generator struct {
	rnd       *rand.Rand
	width     int
	height    int
	radiusMin int
	radiusMax int
}

// New returns a Generator seeded with the current time.
func New(width, height, radiusMin, radiusMax int) *Generator {
	return NewWithSeed(width, height, radiusMin, radiusMax, time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed.
func NewWithSeed(width, height, radiusMin, radiusMax int, seed int64) *Generator {
	if radiusMin <= 0 {
		radiusMin = DefaultRadiusMin
	}
	if radiusMax < radiusMin {
		radiusMax = radiusMin
	}
	return &Generator{
		rnd:       rand.New(rand.NewSource(seed)),
		width:     width,
		height:    height,
		radiusMin: radiusMin,
		radiusMax: radiusMax,
	}
}

// Generate draws a radius and a center that keeps the whole circle on the canvas.
// With a previous target, candidate centers are rejected until they are at least
// minDistance away from it. There is no retry bound: a minDistance that no
// center can satisfy loops forever.
func (g *Generator) Generate(previous *model.Target, minDistance float64) model.Target {
	radius := intBetween(g.rnd, g.radiusMin, g.radiusMax)
	for {
		x := intBetween(g.rnd, radius, g.width-radius)
		y := intBetween(g.rnd, radius, g.height-radius)
		candidate := model.Target{X: float64(x), Y: float64(y), Radius: float64(radius)}
		if previous == nil {
			return candidate
		}
		if metrics.Distance(previous.Center(), candidate.Center()) >= minDistance {
			return candidate
		}
	}
}

// intBetween returns an integer in [lo, hi]. A collapsed range returns lo.
func intBetween(rnd *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rnd.Intn(hi-lo+1)
}
