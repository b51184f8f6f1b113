// Package analysis loads session logs and fits Fitts' Law regressions.
package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/tuifitts/internal/model"
)

// Column names in the session log header.
const (
	colTrial = "Trial"
	colD     = "D"
	colW     = "W"
	colAngle = "Angle"
	colID    = "ID"
	colTime  = "Time"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
	// ErrMalformedRow is returned for rows that cannot be parsed.
	ErrMalformedRow = errors.New("malformed row")
)

// Row is one trial of a dataset, without its trial index.
type Row struct {
	Distance     float64
	Width        float64
	Angle        float64
	ID           float64
	MovementTime float64
}

// Dataset is a named collection of rows, typically one device.
type Dataset struct {
	Name string
	Rows []Row
}

// LoadLog parses a session log. The header must name D, W and Time; Angle and
// ID are optional and Trial is dropped. Repeated header lines are skipped so
// concatenated logs load as one dataset.
func LoadLog(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty log", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	delete(cols, colTrial)
	for _, required := range []string{colD, colW, colTime} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if isHeader(record) {
			continue
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d fields, want %d", ErrMalformedRow, line, len(record), len(header))
		}
		row, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadLogFile reads a session log from disk.
func LoadLogFile(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only log.
			_ = cerr
		}
	}()
	rows, err := LoadLog(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// LoadDataset concatenates the rows of several logs under one name.
func LoadDataset(name string, paths []string) (Dataset, error) {
	ds := Dataset{Name: name}
	for _, path := range paths {
		rows, err := LoadLogFile(path)
		if err != nil {
			return Dataset{}, err
		}
		ds.Rows = append(ds.Rows, rows...)
	}
	return ds, nil
}

// RowsFromRecords converts recorded trials into dataset rows.
func RowsFromRecords(records []model.TrialRecord) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{
			Distance:     rec.Distance,
			Width:        rec.Width,
			Angle:        rec.Angle,
			ID:           rec.ID,
			MovementTime: rec.MovementTime,
		}
	}
	return rows
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.TrimSpace(record[0]) == colTrial
}

func parseRow(record []string, cols map[string]int) (Row, error) {
	var row Row
	fields := []struct {
		name string
		dst  *float64
	}{
		{colD, &row.Distance},
		{colW, &row.Width},
		{colTime, &row.MovementTime},
		{colAngle, &row.Angle},
		{colID, &row.ID},
	}
	for _, f := range fields {
		idx, ok := cols[f.name]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(record[idx])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %q is not a number", f.name, raw)
		}
		*f.dst = v
	}
	if row.Width <= 0 {
		return Row{}, fmt.Errorf("column %s must be positive", colW)
	}
	return row, nil
}
