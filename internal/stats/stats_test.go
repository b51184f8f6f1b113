package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/tuifitts/internal/analysis"
	"github.com/verte-zerg/tuifitts/internal/model"
)

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{1, 1, 1}); got != "+++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	if got := Sparkline([]float64{0, 1}); got != " @" {
		t.Fatalf("expected extremes, got %q", got)
	}
}

func TestRenderTrials(t *testing.T) {
	var buf bytes.Buffer
	records := []model.TrialRecord{
		{Trial: 1, Distance: 100, Width: 50, Angle: 30, ID: 1.585, MovementTime: 0.5},
		{Trial: 2, Distance: 200, Width: 20, Angle: 150, ID: 3.4594, MovementTime: 0.9},
	}
	if err := RenderTrials(&buf, records); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"First trial excluded", "Trial", "100.00", "3.4594", "0.9000", "Time trend"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	results := []analysis.Result{
		{Name: "mouse", Threshold: 0.95, Kept: 19, Dropped: 1, Fit: analysis.Fit{Slope: 0.1234, Intercept: 0.5678},
			MeanTime: 0.75, StdDevTime: 0.25, MinTime: 0.4, MaxTime: 1.1},
		{Name: "touchpad", Threshold: 0.7, Kept: 14, Dropped: 6, Fit: analysis.Fit{Slope: 0.2, Intercept: 0.3}},
	}
	if err := RenderResults(&buf, results); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "mouse: Slope (a) = 0.1234, Intercept (b) = 0.5678") {
		t.Fatalf("missing mouse summary:\n%s", out)
	}
	if !strings.Contains(out, "touchpad: Slope (a) = 0.2000, Intercept (b) = 0.3000") {
		t.Fatalf("missing touchpad summary:\n%s", out)
	}
	if !strings.Contains(out, "time mean 0.7500 s, sd 0.2500 s, range 0.4000..1.1000 s") {
		t.Fatalf("missing mouse time spread:\n%s", out)
	}
	if !strings.Contains(out, "SD (s)") {
		t.Fatalf("missing SD column:\n%s", out)
	}
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHistory(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("unexpected empty output %q", buf.String())
	}
	buf.Reset()
	sessions := []model.SessionAggregate{{
		SessionMeta: model.SessionMeta{Participant: "kim", Device: "mouse", Requested: 10, EndedAt: time.Unix(0, 0), LogPath: "kim.txt"},
		Trials:      10,
		MeanID:      2.5,
	}}
	if err := RenderHistory(&buf, sessions); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "10/10") || !strings.Contains(buf.String(), "kim.txt") {
		t.Fatalf("unexpected history output %q", buf.String())
	}
}
