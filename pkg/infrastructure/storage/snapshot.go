package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/entity"
	"github.com/WangYihang/Domain-Prioritizer/pkg/domain/repository"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	records INTEGER NOT NULL
);`

const createRunRecordsTable = `
CREATE TABLE IF NOT EXISTS run_records (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	domain TEXT NOT NULL,
	record TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

// SQLiteSnapshotStore implements repository.SnapshotStore on a SQLite file
type SQLiteSnapshotStore struct {
	conn *sql.DB
	now  func() time.Time
}

// NewSQLiteSnapshotStore opens (and creates if needed) the snapshot database
func NewSQLiteSnapshotStore(dbPath string) (*SQLiteSnapshotStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	for _, stmt := range []string{createRunsTable, createRunRecordsTable} {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
		}
	}

	return &SQLiteSnapshotStore{conn: conn, now: time.Now}, nil
}

var _ repository.SnapshotStore = (*SQLiteSnapshotStore)(nil)

// Save writes all records under a fresh run id
func (s *SQLiteSnapshotStore) Save(ctx context.Context, records []*entity.DomainRecord) (string, error) {
	runID := uuid.New().String()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, records) VALUES (?, ?, ?)`,
		runID, s.now().UTC().Format(time.RFC3339Nano), len(records),
	); err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", runID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_records (run_id, seq, domain, record) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("failed to encode record %s: %w", r.Domain, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, r.Domain, string(data)); err != nil {
			return "", fmt.Errorf("failed to insert record %s: %w", r.Domain, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return runID, nil
}

// Load returns the records of a run in their saved order
func (s *SQLiteSnapshotStore) Load(ctx context.Context, runID string) ([]*entity.DomainRecord, error) {
	var exists int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up run %s: %w", runID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %s not found", runID)
	}

	rows, err := s.conn.QueryContext(ctx, `SELECT record FROM run_records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []*entity.DomainRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var record entity.DomainRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		record.Seq = len(records)
		records = append(records, &record)
	}
	return records, rows.Err()
}

// ListRuns returns saved runs, newest first
func (s *SQLiteSnapshotStore) ListRuns(ctx context.Context) ([]repository.RunInfo, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT run_id, created_at, records FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []repository.RunInfo
	for rows.Next() {
		var info repository.RunInfo
		var createdAt string
		if err := rows.Scan(&info.RunID, &createdAt, &info.Records); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Close closes the database connection
func (s *SQLiteSnapshotStore) Close() error {
	return s.conn.Close()
}
