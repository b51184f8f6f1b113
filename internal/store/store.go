// Package store handles SQLite persistence of session history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuifitts/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			participant TEXT NOT NULL,
			device TEXT NOT NULL,
			requested INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			log_path TEXT NOT NULL,
			plot_path TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trials (
			session_id TEXT NOT NULL,
			trial INTEGER NOT NULL,
			distance REAL NOT NULL,
			width REAL NOT NULL,
			angle REAL NOT NULL,
			id REAL NOT NULL,
			movement_time REAL NOT NULL,
			PRIMARY KEY (session_id, trial)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_device ON sessions(device);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session and its trials. A missing session
// ID is filled with a new UUID, which is returned.
func (s *Store) InsertSession(ctx context.Context, meta model.SessionMeta, trials []model.TrialRecord) (id string, err error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, participant, device, requested, started_at, ended_at, log_path, plot_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID,
		meta.Participant,
		meta.Device,
		meta.Requested,
		meta.StartedAt.Format(time.RFC3339Nano),
		meta.EndedAt.Format(time.RFC3339Nano),
		meta.LogPath,
		meta.PlotPath,
	)
	if err != nil {
		return "", err
	}

	if len(trials) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO trials (session_id, trial, distance, width, angle, id, movement_time)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return "", err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, tr := range trials {
			if _, err = stmt.ExecContext(ctx, meta.ID, tr.Trial, tr.Distance, tr.Width, tr.Angle, tr.ID, tr.MovementTime); err != nil {
				return "", err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// ListSessions returns session aggregates matching the filter, oldest first.
func (s *Store) ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Device != "" {
		clauses = append(clauses, "s.device = ?")
		args = append(args, filter.Device)
	}
	if filter.Participant != "" {
		clauses = append(clauses, "s.participant = ?")
		args = append(args, filter.Participant)
	}
	if filter.Since != nil {
		clauses = append(clauses, "s.ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT s.id, s.participant, s.device, s.requested, s.started_at, s.ended_at,
			s.log_path, s.plot_path,
			COUNT(t.trial), COALESCE(AVG(t.id), 0), COALESCE(AVG(t.movement_time), 0)
		FROM sessions s
		LEFT JOIN trials t ON t.session_id = s.id
		WHERE %s
		GROUP BY s.id
		ORDER BY s.ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var startedAt, endedAt string
		if err := rows.Scan(&agg.ID, &agg.Participant, &agg.Device, &agg.Requested, &startedAt, &endedAt,
			&agg.LogPath, &agg.PlotPath, &agg.Trials, &agg.MeanID, &agg.MeanMovementSec); err != nil {
			return nil, err
		}
		if agg.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if agg.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	return sessions, nil
}

// ListDevices returns the distinct devices with stored sessions.
func (s *Store) ListDevices(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT device FROM sessions ORDER BY device`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var devices []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}

// ListTrialsForDevice returns every stored trial recorded with a device, in
// session then trial order.
func (s *Store) ListTrialsForDevice(ctx context.Context, device string) ([]model.TrialRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.trial, t.distance, t.width, t.angle, t.id, t.movement_time
		FROM trials t
		JOIN sessions s ON s.id = t.session_id
		WHERE s.device = ?
		ORDER BY s.ended_at ASC, t.trial ASC`, device)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TrialRecord
	for rows.Next() {
		var tr model.TrialRecord
		if err := rows.Scan(&tr.Trial, &tr.Distance, &tr.Width, &tr.Angle, &tr.ID, &tr.MovementTime); err != nil {
			return nil, err
		}
		result = append(result, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
