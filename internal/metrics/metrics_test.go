package metrics

import (
	"math"
	"testing"

	"github.com/verte-zerg/tuifitts/internal/model"
)

const eps = 1e-9

func TestIndexOfDifficulty(t *testing.T) {
	if got := IndexOfDifficulty(0, 20); got != 0 {
		t.Fatalf("expected 0 for no movement, got %v", got)
	}
	got := IndexOfDifficulty(100, 50)
	if math.Abs(got-math.Log2(3)) > eps {
		t.Fatalf("expected log2(3), got %v", got)
	}
	if math.Abs(got-1.58496) > 1e-5 {
		t.Fatalf("expected ~1.58496, got %v", got)
	}
}

func TestDistance(t *testing.T) {
	got := Distance(model.Point{X: 0, Y: 0}, model.Point{X: 3, Y: 4})
	if got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestAngleRangeAndSymmetry(t *testing.T) {
	origin := model.Point{}
	cases := []struct {
		to   model.Point
		want float64
	}{
		{model.Point{X: 10, Y: 0}, 0},
		{model.Point{X: 0, Y: 10}, 90},
		{model.Point{X: 0, Y: -10}, 90},
		{model.Point{X: -10, Y: 0}, 180},
		{model.Point{X: 10, Y: 10}, 45},
		{model.Point{X: 10, Y: -10}, 45},
		{model.Point{X: -10, Y: -10}, 135},
	}
	for _, tc := range cases {
		got := Angle(origin, tc.to)
		if got < 0 || got > 180 {
			t.Fatalf("angle %v out of range for %+v", got, tc.to)
		}
		if math.Abs(got-tc.want) > eps {
			t.Fatalf("expected %v for %+v, got %v", tc.want, tc.to, got)
		}
	}
	up := Angle(origin, model.Point{X: 7, Y: 3})
	down := Angle(origin, model.Point{X: 7, Y: -3})
	if math.Abs(up-down) > eps {
		t.Fatalf("expected dy sign to be dropped: %v vs %v", up, down)
	}
}

func TestThroughput(t *testing.T) {
	if got := Throughput(2, 0); got != 0 {
		t.Fatalf("expected 0 for non-positive time, got %v", got)
	}
	if got := Throughput(2, 0.5); got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
}
