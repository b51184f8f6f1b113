// Package metrics computes Fitts' Law trial metrics.
package metrics

import (
	"math"

	"github.com/verte-zerg/tuifitts/internal/model"
)

// Distance returns the Euclidean distance between two points.
func Distance(p1, p2 model.Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// Angle returns |atan2(dy, dx)| in degrees, in [0, 180].
// The sign is dropped, so this is a magnitude rather than a bearing.
func Angle(p1, p2 model.Point) float64 {
	return math.Abs(math.Atan2(p2.Y-p1.Y, p2.X-p1.X) * 180 / math.Pi)
}

// IndexOfDifficulty returns log2(d/w + 1), or 0 when there was no movement.
func IndexOfDifficulty(distance, width float64) float64 {
	if distance == 0 {
		return 0
	}
	return math.Log2(distance/width + 1)
}

// Throughput returns bits per second for a trial.
func Throughput(id, movementTime float64) float64 {
	if movementTime <= 0 {
		return 0
	}
	return id / movementTime
}
