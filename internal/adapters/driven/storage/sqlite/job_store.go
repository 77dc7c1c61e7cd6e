package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

const jobColumns = `id, kind, state, bundle_path, bundle_name, files, metadata_path, source_bucket,
	metadata, image_server_id, collections, creator_name, creator_email, error, created_at, updated_at`

// Save stores or updates a job.
func (s *jobStore) Save(ctx context.Context, job *domain.IngestJob) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}

	filesJSON, err := json.Marshal(nonNilStrings(job.Files))
	if err != nil {
		return fmt.Errorf("marshalling files: %w", err)
	}
	collectionsJSON, err := json.Marshal(nonNilStrings(job.Collections))
	if err != nil {
		return fmt.Errorf("marshalling collections: %w", err)
	}
	var metadataJSON any
	if job.Metadata != nil {
		b, err := json.Marshal(job.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		metadataJSON = string(b)
	}

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			state = excluded.state,
			bundle_path = excluded.bundle_path,
			bundle_name = excluded.bundle_name,
			files = excluded.files,
			metadata_path = excluded.metadata_path,
			source_bucket = excluded.source_bucket,
			metadata = excluded.metadata,
			image_server_id = excluded.image_server_id,
			collections = excluded.collections,
			creator_name = excluded.creator_name,
			creator_email = excluded.creator_email,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, job.ID, string(job.Kind), string(job.State), job.BundlePath, job.BundleName, string(filesJSON),
		job.MetadataPath, job.SourceBucket, metadataJSON, job.ImageServerID, string(collectionsJSON),
		job.Creator.Name, job.Creator.Email, job.Error, formatTime(job.CreatedAt), formatTime(job.UpdatedAt))

	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *jobStore) Get(ctx context.Context, id string) (*domain.IngestJob, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM ingest_jobs WHERE id = ?", id)
	return scanJob(row)
}

// UpdateState records the last state reached and an error message.
func (s *jobStore) UpdateState(ctx context.Context, id string, state domain.JobState, errMsg string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE ingest_jobs SET state = ?, error = ?, updated_at = ? WHERE id = ?
	`, string(state), errMsg, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating job state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating job state: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a job.
func (s *jobStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM ingest_jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	return nil
}

// List returns all retained jobs, oldest first.
func (s *jobStore) List(ctx context.Context) ([]domain.IngestJob, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT "+jobColumns+" FROM ingest_jobs ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.IngestJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row scanner) (*domain.IngestJob, error) {
	var job domain.IngestJob
	var kind, state, filesJSON, collectionsJSON, createdAt, updatedAt string
	var metadataJSON sql.NullString

	if err := row.Scan(&job.ID, &kind, &state, &job.BundlePath, &job.BundleName, &filesJSON,
		&job.MetadataPath, &job.SourceBucket, &metadataJSON, &job.ImageServerID, &collectionsJSON,
		&job.Creator.Name, &job.Creator.Email, &job.Error, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.Kind = domain.JobKind(kind)
	job.State = domain.JobState(state)
	if err := json.Unmarshal([]byte(filesJSON), &job.Files); err != nil {
		return nil, fmt.Errorf("unmarshalling files: %w", err)
	}
	if err := json.Unmarshal([]byte(collectionsJSON), &job.Collections); err != nil {
		return nil, fmt.Errorf("unmarshalling collections: %w", err)
	}
	if metadataJSON.Valid {
		var rec domain.MetadataRecord
		if err := json.Unmarshal([]byte(metadataJSON.String), &rec); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
		job.Metadata = &rec
	}
	if len(job.Files) == 0 {
		job.Files = nil
	}
	if len(job.Collections) == 0 {
		job.Collections = nil
	}
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	return &job, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
