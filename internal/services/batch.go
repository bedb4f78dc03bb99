// Package services wires the pipeline together: authorize, upload, notify,
// classify. It owns the failure semantics between stages.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/aerialops/uplink/internal/api"
	"github.com/aerialops/uplink/internal/classify"
	"github.com/aerialops/uplink/internal/journal"
	"github.com/aerialops/uplink/internal/logging"
	"github.com/aerialops/uplink/internal/models"
	"github.com/aerialops/uplink/internal/uploader"
)

// EventImageUpload is the task state-transition event recorded when every
// file of a batch has been uploaded.
const EventImageUpload = "image_upload"

// ErrNotify marks a failed post-upload notification. The uploads themselves
// succeeded and are never re-run; only the notify step should be retried.
var ErrNotify = errors.New("post-upload notify failed")

var ErrEmptyBatch = errors.New("no files selected")

// URLIssuer hands out one pre-signed upload URL per image name. Satisfied by
// the api client (backend-issued) and the presign issuer (direct-to-bucket).
type URLIssuer interface {
	UploadURLs(ctx context.Context, req api.UploadURLRequest) ([]string, error)
}

// Notifier is the slice of the backend the post-upload step talks to.
type Notifier interface {
	TransitionTask(ctx context.Context, projectID, taskID, event string, updatedAt time.Time) error
	StartClassification(ctx context.Context, projectID, batchID string) (string, error)
}

type BatchService struct {
	issuer   URLIssuer
	notifier Notifier
	uploader *uploader.Uploader
	poller   *classify.Poller
	journal  *journal.Journal
	expiry   int // minutes, forwarded to the issuer
	log      logging.Logger
}

func NewBatchService(
	issuer URLIssuer,
	notifier Notifier,
	up *uploader.Uploader,
	poller *classify.Poller,
	j *journal.Journal,
	expiryMinutes int,
	log logging.Logger,
) *BatchService {
	if expiryMinutes <= 0 {
		expiryMinutes = 5
	}
	if log == nil {
		log = logging.Discard()
	}
	return &BatchService{
		issuer:   issuer,
		notifier: notifier,
		uploader: up,
		poller:   poller,
		journal:  j,
		expiry:   expiryMinutes,
		log:      log,
	}
}

// Submit runs the whole pipeline for the selected files: request one
// pre-signed URL per file, upload in chunks, then notify the backend.
//
// Failure semantics per stage:
//   - authorization failure: nothing was uploaded, the error wraps
//     api.ErrAuthorization and no batch state is left behind;
//   - upload failure: already-uploaded files stay uploaded server-side, the
//     batch is journaled as failed, the error wraps uploader.ErrChunkUpload;
//   - notify failure: uploads are done, the batch is returned alongside an
//     error wrapping ErrNotify so the caller can offer RetryNotify.
func (s *BatchService) Submit(
	ctx context.Context,
	projectID, taskID string,
	files []*models.StagedFile,
	replace bool,
	onProgress func(uploader.Progress),
) (*models.UploadBatch, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	batch := &models.UploadBatch{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		TaskID:    taskID,
		Total:     len(files),
		State:     models.BatchCreated,
		CreatedAt: time.Now().UTC(),
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}

	urls, err := s.issuer.UploadURLs(ctx, api.UploadURLRequest{
		Expiry:     s.expiry,
		TaskID:     taskID,
		ProjectID:  projectID,
		ImageNames: names,
		Replace:    replace,
	})
	if err != nil {
		return nil, fmt.Errorf("batch %s: %w", batch.ID, err)
	}

	if s.journal != nil {
		if err := s.journal.CreateBatch(ctx, batch, files); err != nil {
			return nil, fmt.Errorf("journaling batch %s: %w", batch.ID, err)
		}
	}

	// urls are order-correlated with names; zip positionally.
	items := make([]uploader.Item, len(files))
	for i, f := range files {
		items[i] = uploader.Item{Name: f.Name, URL: urls[i], Path: f.Path}
	}

	s.log.Info(ctx, "starting upload", "batch", batch.ID, "files", len(items))
	if err := s.uploader.Run(ctx, items, onProgress); err != nil {
		s.setState(ctx, batch, models.BatchFailed)
		return nil, fmt.Errorf("batch %s: %w", batch.ID, err)
	}
	s.setState(ctx, batch, models.BatchUploaded)

	if err := s.Notify(ctx, batch); err != nil {
		return batch, err
	}

	return batch, nil
}

// Notify tells the backend the task's image-upload step is finished and
// starts classification for the batch. Idempotent from the client's side:
// safe to re-issue after a failure without re-uploading anything.
func (s *BatchService) Notify(ctx context.Context, batch *models.UploadBatch) error {
	err := s.notifier.TransitionTask(ctx, batch.ProjectID, batch.TaskID, EventImageUpload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: task transition: %v", ErrNotify, err)
	}

	jobID, err := s.notifier.StartClassification(ctx, batch.ProjectID, batch.ID)
	if err != nil {
		return fmt.Errorf("%w: start classification: %v", ErrNotify, err)
	}

	batch.JobID = jobID
	batch.State = models.BatchNotified
	if s.journal != nil {
		if err := s.journal.SetJobID(ctx, batch.ID, jobID); err != nil {
			s.log.Warn(ctx, "could not journal job id", "batch", batch.ID, "error", err)
		}
		s.setState(ctx, batch, models.BatchNotified)
	}

	s.log.Info(ctx, "classification started", "batch", batch.ID, "job", jobID)
	return nil
}

// RetryNotify re-issues just the notify step with bounded backoff.
func (s *BatchService) RetryNotify(ctx context.Context, batch *models.UploadBatch) error {
	b := retry.WithMaxRetries(3, retry.NewExponential(time.Second))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.Notify(ctx, batch); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Watch follows the classification job for a batch, folding incremental
// image updates into the journal as they arrive.
func (s *BatchService) Watch(ctx context.Context, batch *models.UploadBatch, onUpdate func(classify.Snapshot)) (classify.Summary, error) {
	return s.poller.Run(ctx, batch.ProjectID, batch.ID, func(snap classify.Snapshot) {
		if s.journal != nil {
			for _, rec := range snap.Updated {
				name := imageName(rec)
				if err := s.journal.UpsertImage(ctx, batch.ID, name, rec); err != nil {
					s.log.Warn(ctx, "could not journal image update", "image", name, "error", err)
				}
			}
		}
		if onUpdate != nil {
			onUpdate(snap)
		}
	})
}

func (s *BatchService) setState(ctx context.Context, batch *models.UploadBatch, state string) {
	batch.State = state
	if s.journal == nil {
		return
	}
	if err := s.journal.SetState(ctx, batch.ID, state); err != nil {
		s.log.Warn(ctx, "could not journal batch state", "batch", batch.ID, "state", state, "error", err)
	}
}

// imageName keys journal rows by the record's object key basename.
func imageName(rec models.ImageRecord) string {
	key := rec.S3Key
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[i+1:]
		}
	}
	return key
}
