package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/tuifitts/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "tuifitts.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	devices := []string{"mouse", "touchpad", "mouse"}
	var ids []string
	for i, device := range devices {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
		meta := model.SessionMeta{
			Participant: "kim",
			Device:      device,
			Requested:   2,
			StartedAt:   start,
			EndedAt:     start.Add(time.Minute),
			LogPath:     "log.txt",
			PlotPath:    "plot.png",
		}
		trials := []model.TrialRecord{
			{Trial: 1, Distance: 100, Width: 50, ID: 1, MovementTime: 0.5},
			{Trial: 2, Distance: 200, Width: 50, ID: 3, MovementTime: 1.5},
		}
		id, err := st.InsertSession(ctx, meta, trials)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		if id == "" {
			t.Fatalf("expected generated session id")
		}
		ids = append(ids, id)
	}

	all, err := st.ListSessions(ctx, model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}
	if all[0].ID != ids[0] || all[0].Trials != 2 || all[0].MeanID != 2 || all[0].MeanMovementSec != 1 {
		t.Fatalf("unexpected aggregate: %+v", all[0])
	}

	mice, err := st.ListSessions(ctx, model.HistoryFilter{Device: "mouse", Last: 1})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(mice) != 1 || mice[0].ID != ids[2] {
		t.Fatalf("expected latest mouse session, got %+v", mice)
	}

	trials, err := st.ListTrialsForDevice(ctx, "mouse")
	if err != nil {
		t.Fatalf("list trials: %v", err)
	}
	if len(trials) != 4 {
		t.Fatalf("expected 4 mouse trials, got %d", len(trials))
	}

	got, err := st.ListDevices(ctx)
	if err != nil {
		t.Fatalf("list devices: %v", err)
	}
	if len(got) != 2 || got[0] != "mouse" || got[1] != "touchpad" {
		t.Fatalf("unexpected devices %v", got)
	}
}

func TestInsertSessionKeepsGivenID(t *testing.T) {
	st := openTestStore(t)
	id, err := st.InsertSession(context.Background(), model.SessionMeta{ID: "fixed", Device: "mouse"}, nil)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	if id != "fixed" {
		t.Fatalf("expected fixed id, got %q", id)
	}
	if _, err := st.InsertSession(context.Background(), model.SessionMeta{ID: "fixed"}, nil); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
}
