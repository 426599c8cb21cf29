package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/pipeline"
)

// Store persists generation runs with their structured records
type Store struct {
	db *sql.DB
}

// Run is one stored generation run
type Run struct {
	ID        string
	CreatedAt time.Time
	Seed      int64
	Count     int
	Domains   []string
	Samples   int
}

// Open opens or creates the store at path
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores every record, sample and report of a run in one
// transaction and returns the new run ID
func (s *Store) SaveRun(ctx context.Context, seed int64, count int, results []*pipeline.DomainResult) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.Domain.Key
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs(id, created_at, seed, count, domains) VALUES(?,?,?,?,?)`,
		id, time.Now().UTC().Format(time.RFC3339), seed, count, strings.Join(keys, ","),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	sampleStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples(run_id, domain, idx, tier, measure, bucket, measured, baseline, record, input, output)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return "", fmt.Errorf("prepare sample insert: %w", err)
	}
	defer func() { _ = sampleStmt.Close() }()

	for _, r := range results {
		for i, res := range r.Results {
			rec := res.Record
			data, err := json.Marshal(res)
			if err != nil {
				return "", fmt.Errorf("marshal record: %w", err)
			}
			var baseline interface{}
			if rec.Baseline != nil {
				baseline = *rec.Baseline
			}
			if _, err := sampleStmt.ExecContext(ctx,
				id, rec.Domain, i, rec.Tier, rec.Measure, rec.Bucket, rec.Measured, baseline,
				string(data), res.Sample.Input, res.Sample.Output,
			); err != nil {
				return "", fmt.Errorf("insert sample: %w", err)
			}
		}
		if r.Report != nil {
			if err := insertReport(ctx, tx, id, r.Report); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return id, nil
}

func insertReport(ctx context.Context, tx *sql.Tx, runID string, rep *model.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	converged := 0
	if rep.Score.Converged {
		converged = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reports(run_id, domain, source, converged, max_deviation, mismatch, unparsed, report)
		 VALUES(?,?,?,?,?,?,?,?)`,
		runID, rep.Domain, rep.Source, converged, rep.Score.MaxDeviation,
		rep.Validation.Mismatch, rep.Validation.Unparsed, string(data),
	); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Runs lists stored runs, newest first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.seed, r.count, r.domains,
		       (SELECT COUNT(*) FROM samples s WHERE s.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			created string
			domains string
		)
		if err := rows.Scan(&run.ID, &created, &run.Seed, &run.Count, &domains, &run.Samples); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339, created)
		if err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		if domains != "" {
			run.Domains = strings.Split(domains, ",")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Results loads the stored results of one domain in a run, in generation
// order
func (s *Store) Results(ctx context.Context, runID, domainKey string) ([]model.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM samples WHERE run_id = ? AND domain = ? ORDER BY idx`, runID, domainKey)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Result
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		var res model.Result
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			return nil, fmt.Errorf("decode sample: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}

// CountRows returns the number of rows in table
func (s *Store) CountRows(table string) (int, error) {
	row := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	return count, nil
}
