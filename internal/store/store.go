// Package store keeps a local SQLite registry of uploaded documents so that a
// translation can be checked, awaited and downloaded by document id alone in a
// later invocation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/valpere/deepler/internal/deepl"
)

// ErrNotFound is returned when no job is recorded for a document id.
var ErrNotFound = errors.New("document job not found")

// Job is a recorded document translation. DocumentKey is needed for every
// call on the document and is never printed by String.
type Job struct {
	ID               string
	DocumentID       string
	DocumentKey      string
	FilePath         string
	TargetLang       string
	State            deepl.DocumentState
	BilledCharacters sql.NullInt64
	ErrorMessage     string
	OutputPath       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Document returns the handle for calls on the service.
func (j *Job) Document() deepl.Document {
	return deepl.Document{ID: j.DocumentID, Key: j.DocumentKey}
}

func (j *Job) String() string {
	return fmt.Sprintf("%s (%s -> %s, %s)", j.DocumentID, j.FilePath, j.TargetLang, j.State)
}

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS document_jobs (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL UNIQUE,
		document_key TEXT NOT NULL,
		file_path TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'queued',
		billed_characters INTEGER,
		error_message TEXT NOT NULL DEFAULT '',
		output_path TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_document_jobs_created ON document_jobs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordUpload stores a freshly uploaded document in the queued state.
func (s *Store) RecordUpload(ctx context.Context, opts *deepl.DocumentOptions, doc *deepl.Document) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO document_jobs (id, document_id, document_key, file_path, target_lang, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), doc.ID, doc.Key, opts.FilePath(), opts.TargetLang().String(), string(deepl.StateQueued), now, now)
	if err != nil {
		return fmt.Errorf("failed to record upload of %s: %w", doc.ID, err)
	}
	return nil
}

// RecordStatus updates the state of a recorded job. An empty outputPath keeps
// the previous one.
func (s *Store) RecordStatus(ctx context.Context, status *deepl.DocumentStatus, outputPath string) error {
	var billed sql.NullInt64
	if status.BilledCharacters != nil {
		billed = sql.NullInt64{Int64: *status.BilledCharacters, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE document_jobs SET
			state = ?,
			billed_characters = COALESCE(?, billed_characters),
			error_message = ?,
			output_path = CASE WHEN ? = '' THEN output_path ELSE ? END,
			updated_at = ?
		WHERE document_id = ?`,
		string(status.State), billed, status.ErrorMessage, outputPath, outputPath, time.Now().UTC(), status.ID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", status.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, status.ID)
	}
	return nil
}

const jobColumns = `id, document_id, document_key, file_path, target_lang, state, billed_characters, error_message, output_path, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var state string
	if err := row.Scan(&j.ID, &j.DocumentID, &j.DocumentKey, &j.FilePath, &j.TargetLang, &state,
		&j.BilledCharacters, &j.ErrorMessage, &j.OutputPath, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.State = deepl.DocumentState(state)
	return &j, nil
}

// Get returns the job recorded for documentID.
func (s *Store) Get(ctx context.Context, documentID string) (*Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM document_jobs WHERE document_id = ?`, documentID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", documentID, err)
	}
	return j, nil
}

// List returns all jobs, newest first.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM document_jobs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}

	return jobs, rows.Err()
}

// Delete forgets a job. The document itself is not touched on the service.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM document_jobs WHERE document_id = ?`, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, documentID)
	}
	return nil
}

// Prune deletes jobs in a terminal state last updated before cutoff and
// returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM document_jobs WHERE state IN (?, ?) AND updated_at < ?`,
		string(deepl.StateDone), string(deepl.StateError), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
