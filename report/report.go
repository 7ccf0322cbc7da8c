// Package report keeps the outcomes of batch extractions in a SQLite
// database.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS arch (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS batch (
	id           TEXT PRIMARY KEY,
	arch_id      INTEGER NOT NULL REFERENCES arch(id),
	hostname     TEXT NOT NULL,
	username     TEXT NOT NULL,
	submitted_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS routine (
	id      INTEGER PRIMARY KEY,
	arch_id INTEGER NOT NULL REFERENCES arch(id),
	name    TEXT NOT NULL,
	UNIQUE (arch_id, name)
);
CREATE TABLE IF NOT EXISTS extraction_success (
	id         INTEGER PRIMARY KEY,
	batch_id   TEXT NOT NULL REFERENCES batch(id),
	routine_id INTEGER NOT NULL REFERENCES routine(id),
	kind       TEXT NOT NULL,
	steps      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS extraction_failure (
	id         INTEGER PRIMARY KEY,
	batch_id   TEXT NOT NULL REFERENCES batch(id),
	routine_id INTEGER NOT NULL REFERENCES routine(id),
	category   TEXT NOT NULL,
	message    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS failure_trace (
	failure_id INTEGER NOT NULL REFERENCES extraction_failure(id),
	position   INTEGER NOT NULL,
	line       TEXT NOT NULL,
	PRIMARY KEY (failure_id, position)
);
`

// ErrUnknownBatch is returned for a batch ID with no record.
var ErrUnknownBatch = errors.New("unknown batch")

// Store is a report database. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. The path ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	// SQLite serializes writers; one connection also keeps an in-memory
	// database alive and shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create report schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Batch is one extraction run over an architecture.
type Batch struct {
	ID          uuid.UUID
	Arch        string
	Host        string
	User        string
	SubmittedAt time.Time
}

// BeginBatch records a new batch.
func (s *Store) BeginBatch(ctx context.Context, arch, host, user string) (*Batch, error) {
	b := &Batch{
		ID:          uuid.New(),
		Arch:        arch,
		Host:        host,
		User:        user,
		SubmittedAt: time.Now().UTC().Truncate(time.Second),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	archID, err := upsertID(ctx, tx,
		"INSERT INTO arch (name) VALUES (?) ON CONFLICT (name) DO NOTHING",
		"SELECT id FROM arch WHERE name = ?", arch)
	if err != nil {
		return nil, fmt.Errorf("failed to record architecture: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO batch (id, arch_id, hostname, username, submitted_at) VALUES (?, ?, ?, ?, ?)",
		b.ID.String(), archID, host, user, b.SubmittedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to record batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

// RecordSuccess records an extracted routine.
func (s *Store) RecordSuccess(ctx context.Context, b *Batch, routine, kind string, steps int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	routineID, err := s.routineID(ctx, tx, b, routine)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO extraction_success (batch_id, routine_id, kind, steps) VALUES (?, ?, ?, ?)",
		b.ID.String(), routineID, kind, steps)
	if err != nil {
		return fmt.Errorf("failed to record success of %s: %w", routine, err)
	}
	return tx.Commit()
}

// RecordFailure records a routine that could not be extracted, with the
// trace lines of an aborted run.
func (s *Store) RecordFailure(ctx context.Context, b *Batch, routine, category, message string, trace []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	routineID, err := s.routineID(ctx, tx, b, routine)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO extraction_failure (batch_id, routine_id, category, message) VALUES (?, ?, ?, ?)",
		b.ID.String(), routineID, category, message)
	if err != nil {
		return fmt.Errorf("failed to record failure of %s: %w", routine, err)
	}
	failureID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i, line := range trace {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO failure_trace (failure_id, position, line) VALUES (?, ?, ?)",
			failureID, i, line)
		if err != nil {
			return fmt.Errorf("failed to record trace of %s: %w", routine, err)
		}
	}
	return tx.Commit()
}

func (s *Store) routineID(ctx context.Context, tx *sql.Tx, b *Batch, routine string) (int64, error) {
	var archID int64
	err := tx.QueryRowContext(ctx, "SELECT arch_id FROM batch WHERE id = ?", b.ID.String()).Scan(&archID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBatch, b.ID)
	}
	if err != nil {
		return 0, err
	}

	var id int64
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO routine (arch_id, name) VALUES (?, ?) ON CONFLICT (arch_id, name) DO NOTHING",
		archID, routine); err != nil {
		return 0, fmt.Errorf("failed to record routine %s: %w", routine, err)
	}
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM routine WHERE arch_id = ? AND name = ?", archID, routine).Scan(&id)
	return id, err
}

func upsertID(ctx context.Context, tx *sql.Tx, insert, query string, arg any) (int64, error) {
	if _, err := tx.ExecContext(ctx, insert, arg); err != nil {
		return 0, err
	}
	var id int64
	err := tx.QueryRowContext(ctx, query, arg).Scan(&id)
	return id, err
}
