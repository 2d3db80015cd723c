package storage

// sqlite.go — archivo de runs.
//
// Estrategia:
//   - `runs`: una fila por ejecución (capital, valor final, policy serializada).
//   - `run_snapshots`: una fila por evento del run, en orden de evento.
//   - Prune automático al arrancar: runs (y sus snapshots) > 90 días.
//
// Todo dentro de una transacción por run: o se archiva completo o nada.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/flexbt/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    created_at      DATETIME NOT NULL,
    input           TEXT NOT NULL,
    initial_capital REAL NOT NULL,
    final_value     REAL NOT NULL DEFAULT 0,
    events          INTEGER NOT NULL DEFAULT 0,
    switches        INTEGER NOT NULL DEFAULT 0,
    policy_json     TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS run_snapshots (
    run_id         TEXT NOT NULL,
    seq            INTEGER NOT NULL,
    ts             TEXT NOT NULL,
    price          REAL NOT NULL,
    position       TEXT NOT NULL,
    asset_qty      REAL NOT NULL DEFAULT 0,
    total_value    REAL NOT NULL DEFAULT 0,
    active_signals TEXT NOT NULL DEFAULT '',
    remark         TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

// retentionRuns: los runs viejos no aportan — las policies cambian.
const retentionRuns = 90 * 24 * time.Hour

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia runs antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveRun archiva el run completo en una transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.RunRecord, snapshots []domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, input, initial_capital, final_value, events, switches, policy_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC(), run.Input, run.InitialCapital,
		run.FinalValue, run.Events, run.Switches, run.PolicyJSON,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_snapshots (run_id, seq, ts, price, position, asset_qty, total_value, active_signals, remark)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: prepare: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		_, err := stmt.ExecContext(ctx,
			run.ID, snap.Index, snap.Timestamp, snap.Price, string(snap.Position),
			snap.AssetQty, snap.TotalValueUSD, snap.ActiveSignals, snap.Remark,
		)
		if err != nil {
			return fmt.Errorf("storage.SaveRun: insert snapshot %d: %w", snap.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// RecentRuns devuelve los últimos runs, más reciente primero.
func (s *SQLiteStorage) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, input, initial_capital, final_value, events, switches, policy_json
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRuns: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var r domain.RunRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Input, &r.InitialCapital,
			&r.FinalValue, &r.Events, &r.Switches, &r.PolicyJSON); err != nil {
			return nil, fmt.Errorf("storage.RecentRuns: scan: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunSnapshots devuelve los snapshots de un run en orden de evento.
func (s *SQLiteStorage) RunSnapshots(ctx context.Context, runID string) ([]domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, ts, price, position, asset_qty, total_value, active_signals, remark
		FROM run_snapshots WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.RunSnapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		var position string
		if err := rows.Scan(&snap.Index, &snap.Timestamp, &snap.Price, &position,
			&snap.AssetQty, &snap.TotalValueUSD, &snap.ActiveSignals, &snap.Remark); err != nil {
			return nil, fmt.Errorf("storage.RunSnapshots: scan: %w", err)
		}
		snap.Position = domain.PositionType(position)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Close cierra la conexión.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld borra runs antiguos y sus snapshots. Best-effort: un fallo aquí
// no impide arrancar.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionRuns)
	s.db.ExecContext(ctx, `DELETE FROM run_snapshots WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
}
