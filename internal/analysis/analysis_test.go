package analysis

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/tuifitts/internal/model"
)

const tol = 1e-9

func TestQuantileLinear(t *testing.T) {
	values := []float64{0.3, 0.4, 0.5, 0.6, 10.0}
	got := Quantile(values, 0.70)
	if math.Abs(got-0.58) > tol {
		t.Fatalf("expected 0.58, got %v", got)
	}
	if got := Quantile(values, 1.0); got != 10.0 {
		t.Fatalf("expected max at q=1, got %v", got)
	}
	if got := Quantile(values, 0); got != 0.3 {
		t.Fatalf("expected min at q=0, got %v", got)
	}
	if got := Quantile([]float64{2}, 0.5); got != 2 {
		t.Fatalf("expected single value, got %v", got)
	}
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Fatalf("expected NaN for empty input")
	}
}

func TestAnalyzeTrimsOutliers(t *testing.T) {
	rows := []Row{
		{Distance: 100, Width: 50, MovementTime: 0.3},
		{Distance: 200, Width: 50, MovementTime: 0.4},
		{Distance: 300, Width: 50, MovementTime: 0.5},
		{Distance: 400, Width: 50, MovementTime: 0.6},
		{Distance: 500, Width: 50, MovementTime: 10.0},
	}
	res, err := Analyze(rows, 0.70)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Kept != 3 || res.Dropped != 2 {
		t.Fatalf("expected 3 kept and 2 dropped, got %d/%d", res.Kept, res.Dropped)
	}
	for _, p := range res.Points {
		if p.Time >= 0.6 {
			t.Fatalf("expected outliers removed, found %v", p.Time)
		}
	}
}

func TestAnalyzeRecomputesIDAndFits(t *testing.T) {
	rows := []Row{
		{Distance: 100, Width: 50, ID: 99, MovementTime: 0.5},
		{Distance: 200, Width: 50, ID: 99, MovementTime: 1.0},
		{Distance: 300, Width: 50, ID: 99, MovementTime: 1.2},
	}
	res, err := Analyze(rows, 1.0)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	wantIDs := []float64{math.Log2(3), math.Log2(5), math.Log2(7)}
	for i, p := range res.Points {
		if math.Abs(p.ID-wantIDs[i]) > tol {
			t.Fatalf("point %d: expected ID %v, got %v", i, wantIDs[i], p.ID)
		}
	}
	if math.Abs(res.Slope-0.5812769190660352) > 1e-9 {
		t.Fatalf("unexpected slope %v", res.Slope)
	}
	if math.Abs(res.Intercept-(-0.4009453161206334)) > 1e-9 {
		t.Fatalf("unexpected intercept %v", res.Intercept)
	}
	if math.Abs(res.R2-0.9846256122026801) > 1e-9 {
		t.Fatalf("unexpected R2 %v", res.R2)
	}
	if math.Abs(res.MeanTime-0.9) > tol {
		t.Fatalf("expected mean time 0.9, got %v", res.MeanTime)
	}
	if res.MinTime != 0.5 || res.MaxTime != 1.2 {
		t.Fatalf("unexpected bounds %v..%v", res.MinTime, res.MaxTime)
	}
}

func TestLeastSquaresDegenerate(t *testing.T) {
	if _, err := LeastSquares([]float64{1}, []float64{1}); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
	if _, err := LeastSquares([]float64{2, 2, 2}, []float64{1, 2, 3}); !errors.Is(err, ErrSingular) {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
	fit, err := LeastSquares([]float64{0, 1, 2}, []float64{1, 3, 5})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(fit.Slope-2) > tol || math.Abs(fit.Intercept-1) > tol || math.Abs(fit.R2-1) > tol {
		t.Fatalf("unexpected exact fit %+v", fit)
	}
}

func TestLoadLog(t *testing.T) {
	input := strings.Join([]string{
		"Trial, D, W, Angle, ID, Time",
		"1,100.00,50.00,12.50,1.5850,0.5000",
		"",
		"Trial, D, W, Angle, ID, Time",
		"2,200.00,50.00,170.00,2.3219,1.0000",
	}, "\n")
	rows, err := LoadLog(strings.NewReader(input))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := Row{Distance: 200, Width: 50, Angle: 170, ID: 2.3219, MovementTime: 1}
	if rows[1] != want {
		t.Fatalf("unexpected row %+v", rows[1])
	}
}

func TestLoadLogRejectsMalformedInput(t *testing.T) {
	cases := map[string]struct {
		input string
		err   error
	}{
		"missing time": {"Trial, D, W\n1,2,3\n", ErrMissingColumn},
		"empty":        {"", ErrMissingColumn},
		"short row":    {"Trial, D, W, Time\n1,2,3\n", ErrMalformedRow},
		"not a number": {"Trial, D, W, Time\n1,abc,3,0.4\n", ErrMalformedRow},
		"zero width":   {"Trial, D, W, Time\n1,10,0,0.4\n", ErrMalformedRow},
	}
	for name, tc := range cases {
		if _, err := LoadLog(strings.NewReader(tc.input)); !errors.Is(err, tc.err) {
			t.Fatalf("%s: expected %v, got %v", name, tc.err, err)
		}
	}
}

func TestAnalyzeAllUsesPerDatasetThreshold(t *testing.T) {
	dir := t.TempDir()
	content := "Trial, D, W, Angle, ID, Time\n" +
		"1,100.00,50.00,0.00,1.5850,0.3000\n" +
		"2,200.00,50.00,0.00,2.3219,0.4000\n" +
		"3,300.00,50.00,0.00,2.8074,0.5000\n" +
		"4,400.00,50.00,0.00,3.1699,0.6000\n" +
		"5,500.00,50.00,0.00,3.4594,10.0000\n"
	path := filepath.Join(dir, "total_touchpad.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	touchpad, err := LoadDataset("touchpad", []string{path})
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	mouse, err := LoadDataset("mouse", []string{path, path})
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	cfg := model.AnalyzeConfig{
		DefaultQuantile: 1.0,
		Quantiles:       map[string]float64{"touchpad": 0.70},
	}
	results, err := AnalyzeAll([]Dataset{mouse, touchpad}, cfg)
	if err != nil {
		t.Fatalf("analyze all: %v", err)
	}
	if results[0].Name != "mouse" || results[0].Kept != 10 || results[0].Threshold != 1.0 {
		t.Fatalf("unexpected mouse result: %+v", results[0])
	}
	if results[1].Name != "touchpad" || results[1].Kept != 3 || results[1].Threshold != 0.70 {
		t.Fatalf("unexpected touchpad result: %+v", results[1])
	}
}

func TestRowsFromRecords(t *testing.T) {
	rows := RowsFromRecords([]model.TrialRecord{{Trial: 3, Distance: 1, Width: 2, Angle: 3, ID: 4, MovementTime: 5}})
	if len(rows) != 1 || rows[0] != (Row{Distance: 1, Width: 2, Angle: 3, ID: 4, MovementTime: 5}) {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
