package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    seed INTEGER NOT NULL,
    count INTEGER NOT NULL,
    domains TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id),
    domain TEXT NOT NULL,
    idx INTEGER NOT NULL,
    tier TEXT NOT NULL,
    measure TEXT NOT NULL,
    bucket TEXT NOT NULL,
    measured REAL NOT NULL,
    baseline REAL,
    record TEXT NOT NULL,
    input TEXT NOT NULL,
    output TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS samples_run_domain ON samples(run_id, domain, idx);

CREATE TABLE IF NOT EXISTS reports (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id),
    domain TEXT NOT NULL,
    source TEXT NOT NULL,
    converged INTEGER NOT NULL,
    max_deviation REAL NOT NULL,
    mismatch INTEGER NOT NULL,
    unparsed INTEGER NOT NULL,
    report TEXT NOT NULL
);
`

func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
