package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

// Run is one recorded synchronization against a backend.
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	KhojURL         string
	VaultDir        string
	Status          string
	Created         bool
	MarkdownAction  string
	ProcessorAction string
	Error           string
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close() //nolint:errcheck
		return nil, err
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) init() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			khoj_url TEXT NOT NULL,
			vault_dir TEXT NOT NULL,
			status TEXT NOT NULL,
			created INTEGER NOT NULL DEFAULT 0,
			markdown_action TEXT,
			processor_action TEXT,
			error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_runs_khoj_url ON runs(khoj_url);
	`

	_, err := db.conn.Exec(schema)
	return err
}

func (db *DB) RecordRun(run Run) error {
	created := 0
	if run.Created {
		created = 1
	}

	_, err := db.conn.Exec(`
		INSERT INTO runs (id, started_at, finished_at, khoj_url, vault_dir, status, created, markdown_action, processor_action, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.KhojURL, run.VaultDir,
		run.Status, created, run.MarkdownAction, run.ProcessorAction, run.Error)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, khoj_url, vault_dir, status, created,
			COALESCE(markdown_action, ''), COALESCE(processor_action, ''), COALESCE(error, '')
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastRun returns the latest run against khojURL, or nil when there is none.
func (db *DB) LastRun(khojURL string) (*Run, error) {
	row := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, khoj_url, vault_dir, status, created,
			COALESCE(markdown_action, ''), COALESCE(processor_action, ''), COALESCE(error, '')
		FROM runs
		WHERE khoj_url = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`, khojURL)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (db *DB) RunCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var startedAt, finishedAt int64
	var created int
	err := s.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&run.KhojURL,
		&run.VaultDir,
		&run.Status,
		&created,
		&run.MarkdownAction,
		&run.ProcessorAction,
		&run.Error,
	)
	if err != nil {
		return Run{}, err
	}

	run.StartedAt = time.UnixMilli(startedAt)
	run.FinishedAt = time.UnixMilli(finishedAt)
	run.Created = created != 0
	return run, nil
}
