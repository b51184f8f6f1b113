package analysis

import (
	"fmt"

	"github.com/aclements/go-moremath/stats"

	"github.com/verte-zerg/tuifitts/internal/metrics"
	"github.com/verte-zerg/tuifitts/internal/model"
)

// Point is a plotted (ID, time) pair.
type Point struct {
	ID   float64
	Time float64
}

// Result is the outcome of analyzing one dataset.
type Result struct {
	Name      string
	Threshold float64
	// Cutoff is the movement time at the threshold quantile.
	Cutoff  float64
	Kept    int
	Dropped int
	Fit
	Points     []Point
	MeanID     float64
	MeanTime   float64
	StdDevTime float64
	MinTime    float64
	MaxTime    float64
	Throughput float64
}

// Analyze trims rows whose movement time exceeds the threshold quantile,
// recomputes ID from D and W, and fits time against ID.
func Analyze(rows []Row, threshold float64) (Result, error) {
	if len(rows) == 0 {
		return Result{}, ErrTooFewPoints
	}
	times := make([]float64, len(rows))
	for i, row := range rows {
		times[i] = row.MovementTime
	}
	cutoff := Quantile(times, threshold)

	res := Result{Threshold: threshold, Cutoff: cutoff}
	xs := make([]float64, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	for _, row := range rows {
		if row.MovementTime > cutoff {
			res.Dropped++
			continue
		}
		id := metrics.IndexOfDifficulty(row.Distance, row.Width)
		xs = append(xs, id)
		ys = append(ys, row.MovementTime)
		res.Points = append(res.Points, Point{ID: id, Time: row.MovementTime})
	}
	res.Kept = len(res.Points)

	fit, err := LeastSquares(xs, ys)
	if err != nil {
		return Result{}, err
	}
	res.Fit = fit

	idSample := stats.Sample{Xs: xs}
	timeSample := stats.Sample{Xs: ys}
	res.MeanID = idSample.Mean()
	res.MeanTime = timeSample.Mean()
	res.StdDevTime = timeSample.StdDev()
	res.MinTime, res.MaxTime = timeSample.Bounds()
	res.Throughput = metrics.Throughput(res.MeanID, res.MeanTime)
	return res, nil
}

// AnalyzeAll runs Analyze for each dataset with its configured threshold.
// Datasets are processed in order and independently; the first failure stops
// the run.
func AnalyzeAll(datasets []Dataset, cfg model.AnalyzeConfig) ([]Result, error) {
	results := make([]Result, 0, len(datasets))
	for _, ds := range datasets {
		res, err := Analyze(ds.Rows, cfg.QuantileFor(ds.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to analyze %s: %w", ds.Name, err)
		}
		res.Name = ds.Name
		results = append(results, res)
	}
	return results, nil
}
