package recorder

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuifitts/internal/model"
)

func TestRecorderWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(&buf)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	if got := buf.String(); got != Header+"\n" {
		t.Fatalf("expected header only, got %q", got)
	}
	rec := model.TrialRecord{Trial: 1, Distance: 100, Width: 50, Angle: 45.123, ID: 1.5849625, MovementTime: 0.71234}
	if err := r.Record(rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != "1,100.00,50.00,45.12,1.5850,0.7123" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if got := r.Records(); len(got) != 1 || got[0] != rec {
		t.Fatalf("unexpected in-memory records: %+v", got)
	}
}

func TestCreateFlushesEachTrial(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 11, 27, 14, 3, 9, 0, time.Local)
	path := LogPath(dir, "kim", "mouse", at)
	if filepath.Base(path) != "kim_mouse_20241127_140309.txt" {
		t.Fatalf("unexpected log name %q", filepath.Base(path))
	}
	r, err := Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.Record(model.TrialRecord{Trial: 1, Distance: 10, Width: 20}); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Readable before Close: an aborted session keeps completed lines.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "1,10.00,20.00,0.00,0.0000,0.0000") {
		t.Fatalf("expected flushed row, got %q", data)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPlotPath(t *testing.T) {
	got := PlotPath(filepath.Join("out", "kim_mouse_20241127_140309.txt"))
	want := filepath.Join("out", "kim_mouse_20241127_140309_fitts_law_result.png")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBaseNameSanitizesSeparators(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	got := BaseName(" a/b ", `air\mouse`, at)
	if got != "a-b_air-mouse_20240102_030405" {
		t.Fatalf("unexpected base name %q", got)
	}
}
