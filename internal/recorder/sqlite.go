package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets reporting tools read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			trigger     TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			queued      INTEGER,
			skipped     INTEGER,
			fetched     INTEGER,
			files       INTEGER,
			ticks       INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS archives (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			run_id    TEXT,
			symbol    TEXT NOT NULL,
			year      INTEGER NOT NULL,
			month     INTEGER NOT NULL,
			bytes     INTEGER,
			path      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archives_symbol ON archives(symbol, year, month)`,

		`CREATE TABLE IF NOT EXISTS tick_files (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			run_id    TEXT,
			name      TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			base_date TEXT NOT NULL,
			kind      TEXT NOT NULL,
			ticks     INTEGER,
			bytes     INTEGER,
			path      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tick_files_symbol ON tick_files(symbol, base_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO runs
		(id, trigger, started_at, finished_at, queued, skipped, fetched, files, ticks, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Trigger, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Queued, run.Skipped, run.Fetched, run.Files, run.Ticks, run.Err,
	)
	return err
}

func (r *SQLiteRecorder) RecordArchive(evt *ArchiveEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO archives
		(timestamp, run_id, symbol, year, month, bytes, path)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.RunID, evt.Symbol, evt.Year, evt.Month, evt.Bytes, evt.Path,
	)
	return err
}

func (r *SQLiteRecorder) RecordTickFile(evt *TickFileEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO tick_files
		(timestamp, run_id, name, symbol, base_date, kind, ticks, bytes, path)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.RunID, evt.Name, evt.Symbol,
		evt.BaseDate.Format(time.DateOnly), evt.Kind, evt.Ticks, evt.Bytes, evt.Path,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
