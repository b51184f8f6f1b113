// Package stats contains terminal reporting for sessions and analyses.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/tuifitts/internal/analysis"
	"github.com/verte-zerg/tuifitts/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderTrials prints the per-trial results of a session.
func RenderTrials(w io.Writer, records []model.TrialRecord) error {
	if _, err := fmt.Fprintln(w, "Fitts' Law Usability Test Results (First trial excluded):"); err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No trials recorded.")
		return err
	}
	headers := []string{"Trial", "D", "W", "Angle", "ID", "Time (s)"}
	rows := make([][]string, 0, len(records))
	times := make([]float64, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			fmt.Sprintf("%d", rec.Trial),
			fmt.Sprintf("%.2f", rec.Distance),
			fmt.Sprintf("%.2f", rec.Width),
			fmt.Sprintf("%.2f", rec.Angle),
			fmt.Sprintf("%.4f", rec.ID),
			fmt.Sprintf("%.4f", rec.MovementTime),
		})
		times = append(times, rec.MovementTime)
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Time trend: [%s]\n\n", Sparkline(times)); err != nil {
		return err
	}
	return nil
}

// RenderFit prints the regression and summary of one analysis result.
func RenderFit(w io.Writer, res analysis.Result) error {
	name := res.Name
	if name == "" {
		name = "Session"
	}
	if _, err := fmt.Fprintf(w, "%s: Slope (a) = %.4f, Intercept (b) = %.4f\n", name, res.Slope, res.Intercept); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  R² = %.4f, kept %d, dropped %d, mean ID %.4f bits, throughput %.2f bits/s\n",
		res.R2, res.Kept, res.Dropped, res.MeanID, res.Throughput); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "  time mean %.4f s, sd %.4f s, range %.4f..%.4f s\n",
		res.MeanTime, res.StdDevTime, res.MinTime, res.MaxTime)
	return err
}

// RenderResults prints a comparison table of several analysis results.
func RenderResults(w io.Writer, results []analysis.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No datasets analyzed.")
		return err
	}
	for _, res := range results {
		if err := RenderFit(w, res); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	headers := []string{"Dataset", "Quantile", "Cutoff (s)", "Kept", "Dropped", "a", "b", "R²", "Mean (s)", "SD (s)", "TP (bits/s)"}
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Name,
			fmt.Sprintf("%.2f", res.Threshold),
			fmt.Sprintf("%.4f", res.Cutoff),
			fmt.Sprintf("%d", res.Kept),
			fmt.Sprintf("%d", res.Dropped),
			fmt.Sprintf("%.4f", res.Slope),
			fmt.Sprintf("%.4f", res.Intercept),
			fmt.Sprintf("%.4f", res.R2),
			fmt.Sprintf("%.4f", res.MeanTime),
			fmt.Sprintf("%.4f", res.StdDevTime),
			fmt.Sprintf("%.2f", res.Throughput),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHistory prints stored sessions.
func RenderHistory(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	headers := []string{"Ended", "Participant", "Device", "Trials", "Mean ID", "Mean Time (s)", "Log"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.Participant,
			s.Device,
			fmt.Sprintf("%d/%d", s.Trials, s.Requested),
			fmt.Sprintf("%.4f", s.MeanID),
			fmt.Sprintf("%.4f", s.MeanMovementSec),
			s.LogPath,
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
