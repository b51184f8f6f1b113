// Package recorder writes completed trials to the session log.
package recorder

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tuifitts/internal/model"
)

// Header is the first line of every session log.
const Header = "Trial, D, W, Angle, ID, Time"

const (
	timestampLayout = "20060102_150405"
	plotSuffix      = "_fitts_law_result.png"
)

// Recorder appends trial lines to a log and keeps them in memory.
type Recorder struct {
	w       *bufio.Writer
	closer  io.Closer
	records []model.TrialRecord
}

// New wraps an arbitrary writer and writes the header.
func New(w io.Writer) (*Recorder, error) {
	r := &Recorder{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	if _, err := fmt.Fprintln(r.w, Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := r.w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return r, nil
}

// Create creates (or truncates) the log file at path.
func Create(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log: %w", err)
	}
	r, err := New(file)
	if err != nil {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close on header failure.
			_ = cerr
		}
		return nil, err
	}
	return r, nil
}

// Record appends a trial. The line is flushed immediately so an aborted
// session keeps every completed trial.
func (r *Recorder) Record(rec model.TrialRecord) error {
	if _, err := fmt.Fprintln(r.w, FormatLine(rec)); err != nil {
		return fmt.Errorf("failed to write trial %d: %w", rec.Trial, err)
	}
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush trial %d: %w", rec.Trial, err)
	}
	r.records = append(r.records, rec)
	return nil
}

// Records returns the trials recorded so far, in order.
func (r *Recorder) Records() []model.TrialRecord {
	out := make([]model.TrialRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Close flushes pending output and closes the underlying file.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush log: %w", err)
	}
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// FormatLine renders a trial as a log row.
func FormatLine(rec model.TrialRecord) string {
	return fmt.Sprintf("%d,%.2f,%.2f,%.2f,%.4f,%.4f",
		rec.Trial, rec.Distance, rec.Width, rec.Angle, rec.ID, rec.MovementTime)
}

// BaseName returns "{name}_{device}_{YYYYMMDD_HHMMSS}".
func BaseName(name, device string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", sanitize(name), sanitize(device), at.Format(timestampLayout))
}

// LogPath returns the session log path inside dir.
func LogPath(dir, name, device string, at time.Time) string {
	return filepath.Join(dir, BaseName(name, device, at)+".txt")
}

// PlotPath returns the session plot path matching a log path.
func PlotPath(logPath string) string {
	return strings.TrimSuffix(logPath, filepath.Ext(logPath)) + plotSuffix
}

// sanitize keeps participant input from escaping the output directory.
func sanitize(part string) string {
	part = strings.TrimSpace(part)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\`, r) {
			return '-'
		}
		return r
	}, part)
}
