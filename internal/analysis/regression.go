package analysis

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrTooFewPoints is returned when a fit has fewer than two points.
	ErrTooFewPoints = errors.New("need at least two points")
	// ErrSingular is returned when every point shares the same ID.
	ErrSingular = errors.New("all points share the same index of difficulty")
)

// Fit is a least-squares line time = Slope*ID + Intercept.
type Fit struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// Predict evaluates the fitted line.
func (f Fit) Predict(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// Quantile returns the q-th quantile of values using linear interpolation
// between closest ranks (Hyndman-Fan type 7, the numpy and pandas default).
// q is clamped to [0, 1]. An empty input yields NaN.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	pos := float64(len(sorted)-1) * q
	base := int(math.Floor(pos))
	rest := pos - float64(base)
	if base+1 < len(sorted) {
		return sorted[base] + rest*(sorted[base+1]-sorted[base])
	}
	return sorted[base]
}

// LeastSquares solves the normal equations for the design matrix [x, 1].
func LeastSquares(xs, ys []float64) (Fit, error) {
	n := len(xs)
	if n != len(ys) {
		return Fit{}, errors.New("x and y lengths differ")
	}
	if n < 2 {
		return Fit{}, ErrTooFewPoints
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}
	nf := float64(n)
	det := nf*sumX2 - sumX*sumX
	if math.Abs(det) < 1e-12 {
		return Fit{}, ErrSingular
	}
	fit := Fit{
		Slope:     (nf*sumXY - sumX*sumY) / det,
		Intercept: (sumX2*sumY - sumX*sumXY) / det,
	}
	fit.R2 = rSquared(xs, ys, fit)
	return fit, nil
}

func rSquared(xs, ys []float64, fit Fit) float64 {
	var mean float64
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))
	var ssRes, ssTot float64
	for i, y := range ys {
		r := y - fit.Predict(xs[i])
		ssRes += r * r
		d := y - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
