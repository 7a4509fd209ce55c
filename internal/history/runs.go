package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mediasweep/internal/report"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunAborted   = "aborted"
	RunCancelled = "cancelled"
)

// timeLayout is fixed-width so stored timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded invocation.
type Run struct {
	ID           string
	Operation    string
	Root         string
	Status       string
	StartedAt    time.Time
	FinishedAt   time.Time
	Total        int
	OK           int
	Skipped      int
	Failed       int
	Classified   int
	ArtifactPath string
	ErrorMessage string
}

// BeginRun records a run as running.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO runs (id, operation, root, status, started_at, artifact_path)
             VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, run.Operation, run.Root, RunRunning,
			run.StartedAt.UTC().Format(timeLayout),
			nullableString(run.ArtifactPath),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// FinishRun stores the final totals and every outcome of a run in one
// transaction.
func (s *Store) FinishRun(ctx context.Context, runID, status string, summary report.Summary, outcomes []report.Outcome, runErr error) error {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin finish tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			`UPDATE runs
             SET status = ?, finished_at = ?, total = ?, ok = ?, skipped = ?, failed = ?,
                 classified = ?, error_message = ?
             WHERE id = ?`,
			status, time.Now().UTC().Format(timeLayout),
			summary.Total, summary.OK, summary.Skipped, summary.Failed, summary.Classified,
			nullableString(errMsg), runID,
		)
		if err != nil {
			return fmt.Errorf("update run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("finish run %s: not found", runID)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO outcomes (run_id, seq, rel, source, destination, status, verdict_class,
                 verdict_json, error_kind, message, elapsed_ms, recorded_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare outcome insert: %w", err)
		}
		defer stmt.Close()

		for _, o := range outcomes {
			var class, verdictJSON any
			if o.Verdict != nil {
				class = string(o.Verdict.Class)
				data, err := json.Marshal(o.Verdict)
				if err != nil {
					return fmt.Errorf("marshal verdict: %w", err)
				}
				verdictJSON = string(data)
			}
			if _, err := stmt.ExecContext(ctx,
				runID, o.Seq, o.Rel, o.Source, nullableString(o.Destination), string(o.Status),
				class, verdictJSON, nullableString(o.ErrorKind), nullableString(o.Message),
				o.ElapsedMS, o.At.UTC().Format(timeLayout),
			); err != nil {
				return fmt.Errorf("insert outcome %d: %w", o.Seq, err)
			}
		}
		return tx.Commit()
	})
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operation, root, status, started_at, finished_at, total, ok, skipped,
                failed, classified, artifact_path, error_message
         FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

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

// Get returns one run, or nil when it does not exist. A unique prefix of
// the run id is accepted.
func (s *Store) Get(ctx context.Context, idPrefix string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operation, root, status, started_at, finished_at, total, ok, skipped,
                failed, classified, artifact_path, error_message
         FROM runs WHERE id LIKE ? || '%' ORDER BY started_at DESC LIMIT 2`, idPrefix)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idPrefix)
	}
}

// Outcomes returns a run's outcomes in sequence order, optionally filtered by status.
func (s *Store) Outcomes(ctx context.Context, runID string, status report.Status) ([]report.Outcome, error) {
	query := `SELECT seq, rel, source, destination, status, verdict_json, error_kind, message,
                     elapsed_ms, recorded_at
              FROM outcomes WHERE run_id = ?`
	args := []any{runID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []report.Outcome
	for rows.Next() {
		var (
			o                        report.Outcome
			dest, verdict, kind, msg sql.NullString
			statusValue, recorded    string
		)
		if err := rows.Scan(&o.Seq, &o.Rel, &o.Source, &dest, &statusValue, &verdict, &kind, &msg, &o.ElapsedMS, &recorded); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.RunID = runID
		o.Destination = dest.String
		o.Status = report.Status(statusValue)
		o.ErrorKind = kind.String
		o.Message = msg.String
		o.At, _ = time.Parse(time.RFC3339Nano, recorded)
		if verdict.Valid {
			if err := json.Unmarshal([]byte(verdict.String), &o.Verdict); err != nil {
				return nil, fmt.Errorf("decode verdict: %w", err)
			}
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                     Run
		started                 string
		finished, artifact, msg sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Operation, &run.Root, &run.Status, &started, &finished,
		&run.Total, &run.OK, &run.Skipped, &run.Failed, &run.Classified, &artifact, &msg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if finished.Valid {
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
	}
	run.ArtifactPath = artifact.String
	run.ErrorMessage = msg.String
	return run, nil
}
