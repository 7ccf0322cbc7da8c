package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Summary counts the outcomes of a batch.
type Summary struct {
	Batch     Batch
	Successes int
	Failures  int
	// ByCategory counts failures per category.
	ByCategory map[string]int
	// ByKind counts successes per routine kind.
	ByKind map[string]int
}

// Failure is a recorded failure.
type Failure struct {
	Routine  string
	Category string
	Message  string
	Trace    []string
}

// Batch returns the record of a batch.
func (s *Store) Batch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT b.id, a.name, b.hostname, b.username, b.submitted_at
		FROM batch b JOIN arch a ON a.id = b.arch_id
		WHERE b.id = ?`, id.String())
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBatch, id)
	}
	return b, err
}

// Batches lists every batch, newest first.
func (s *Store) Batches(ctx context.Context) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, a.name, b.hostname, b.username, b.submitted_at
		FROM batch b JOIN arch a ON a.id = b.arch_id
		ORDER BY b.submitted_at DESC, b.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (*Batch, error) {
	var (
		b         Batch
		id, stamp string
	)
	if err := row.Scan(&id, &b.Arch, &b.Host, &b.User, &stamp); err != nil {
		return nil, err
	}
	var err error
	if b.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt batch id %q: %w", id, err)
	}
	if b.SubmittedAt, err = time.Parse(time.RFC3339, stamp); err != nil {
		return nil, fmt.Errorf("corrupt batch time %q: %w", stamp, err)
	}
	return &b, nil
}

// Summary counts the outcomes of a batch.
func (s *Store) Summary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	b, err := s.Batch(ctx, id)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Batch: *b, ByCategory: make(map[string]int), ByKind: make(map[string]int)}

	if err := s.countBy(ctx,
		"SELECT kind, COUNT(*) FROM extraction_success WHERE batch_id = ? GROUP BY kind",
		id, sum.ByKind, &sum.Successes); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx,
		"SELECT category, COUNT(*) FROM extraction_failure WHERE batch_id = ? GROUP BY category",
		id, sum.ByCategory, &sum.Failures); err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *Store) countBy(ctx context.Context, query string, id uuid.UUID, into map[string]int, total *int) error {
	rows, err := s.db.QueryContext(ctx, query, id.String())
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
		*total += n
	}
	return rows.Err()
}

// Failures lists the failures of a batch by routine name, with their
// traces.
func (s *Store) Failures(ctx context.Context, id uuid.UUID) ([]Failure, error) {
	if _, err := s.Batch(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, r.name, f.category, f.message
		FROM extraction_failure f JOIN routine r ON r.id = f.routine_id
		WHERE f.batch_id = ?
		ORDER BY r.name, f.id`, id.String())
	if err != nil {
		return nil, err
	}

	var (
		out []Failure
		ids []int64
	)
	for rows.Next() {
		var (
			f   Failure
			fid int64
		)
		if err := rows.Scan(&fid, &f.Routine, &f.Category, &f.Message); err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, f)
		ids = append(ids, fid)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// The single connection is free again once rows is closed.
	for i, fid := range ids {
		trace, err := s.trace(ctx, fid)
		if err != nil {
			return nil, err
		}
		out[i].Trace = trace
	}
	return out, nil
}

func (s *Store) trace(ctx context.Context, failureID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT line FROM failure_trace WHERE failure_id = ? ORDER BY position", failureID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
