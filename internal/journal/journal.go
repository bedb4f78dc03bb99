// Package journal persists batch and per-image state in a local SQLite
// database, so `watch` and `status` can pick up a batch started by an
// earlier `upload` invocation.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/aerialops/uplink/internal/dbx"
	"github.com/aerialops/uplink/internal/journal/migrations"
	"github.com/aerialops/uplink/internal/models"
)

var ErrNotFound = errors.New("not found")

type Journal struct {
	db *sql.DB
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if necessary) the journal database at dsn and brings
// the schema up to date.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// CreateBatch records a new batch and one staged row per file, atomically.
func (j *Journal) CreateBatch(ctx context.Context, b *models.UploadBatch, files []*models.StagedFile) error {
	return dbx.WithTx(ctx, j.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO batches (id, project_id, task_id, job_id, total, state, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.ProjectID, b.TaskID, b.JobID, b.Total, b.State, b.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}

		for _, f := range files {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO images (batch_id, name, status, has_gps)
				 VALUES (?, ?, ?, ?)`,
				b.ID, f.Name, models.StatusStaged, f.Coordinates != nil)
			if err != nil {
				return fmt.Errorf("failed to insert image %s: %w", f.Name, err)
			}
		}
		return nil
	})
}

// SetState updates the batch lifecycle state.
func (j *Journal) SetState(ctx context.Context, batchID, state string) error {
	res, err := j.db.ExecContext(ctx, `UPDATE batches SET state = ? WHERE id = ?`, state, batchID)
	if err != nil {
		return fmt.Errorf("failed to update batch state: %w", err)
	}
	return oneAffected(res)
}

// SetJobID stores the classification job id issued for the batch.
func (j *Journal) SetJobID(ctx context.Context, batchID, jobID string) error {
	res, err := j.db.ExecContext(ctx, `UPDATE batches SET job_id = ? WHERE id = ?`, jobID, batchID)
	if err != nil {
		return fmt.Errorf("failed to update batch job id: %w", err)
	}
	return oneAffected(res)
}

// UpsertImage folds one record of the incremental images feed into the
// journal. The latest server-reported value wins unconditionally.
func (j *Journal) UpsertImage(ctx context.Context, batchID, name string, rec models.ImageRecord) error {
	query := `INSERT INTO images (batch_id, name, status, task_id, rejection_reason, has_gps, s3_key, uploaded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(batch_id, name) DO UPDATE SET
				status = excluded.status,
				task_id = excluded.task_id,
				rejection_reason = excluded.rejection_reason,
				has_gps = excluded.has_gps,
				s3_key = excluded.s3_key,
				uploaded_at = excluded.uploaded_at
	`
	_, err := j.db.ExecContext(ctx, query,
		batchID, name, rec.Status, rec.TaskID, rec.RejectionReason, rec.HasGPS, rec.S3Key, rec.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert image: %w", err)
	}
	return nil
}

// GetBatch returns one batch by id, or ErrNotFound.
func (j *Journal) GetBatch(ctx context.Context, id string) (*models.UploadBatch, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, project_id, task_id, job_id, total, state, created_at FROM batches WHERE id = ?`, id)

	b := &models.UploadBatch{}
	err := row.Scan(&b.ID, &b.ProjectID, &b.TaskID, &b.JobID, &b.Total, &b.State, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select batch: %w", err)
	}
	return b, nil
}

// ListBatches returns all batches, newest first.
func (j *Journal) ListBatches(ctx context.Context) ([]*models.UploadBatch, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, project_id, task_id, job_id, total, state, created_at FROM batches ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select batches: %w", err)
	}
	defer rows.Close()

	var result []*models.UploadBatch
	for rows.Next() {
		b := &models.UploadBatch{}
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.TaskID, &b.JobID, &b.Total, &b.State, &b.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// StatusCounts aggregates the journaled per-image statuses of one batch.
func (j *Journal) StatusCounts(ctx context.Context, batchID string) (map[models.ImageStatus]int, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM images WHERE batch_id = ? GROUP BY status`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ImageStatus]int)
	for rows.Next() {
		var s models.ImageStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

func oneAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
