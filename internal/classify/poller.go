package classify

import (
	"context"
	"time"

	"github.com/aerialops/uplink/internal/logging"
	"github.com/aerialops/uplink/internal/models"
)

// Backend is the slice of the tasking API the poller needs.
type Backend interface {
	BatchStatus(ctx context.Context, projectID, batchID string) (Summary, error)
	BatchImages(ctx context.Context, projectID, batchID, since string) ([]models.ImageRecord, error)
}

// Snapshot is handed to the observer after each successful poll round.
type Snapshot struct {
	Summary Summary
	// Updated holds only the records changed since the previous round
	// (the incremental feed), not the full image list.
	Updated []models.ImageRecord
}

type Poller struct {
	backend  Backend
	interval time.Duration
	log      logging.Logger
}

func NewPoller(backend Backend, interval time.Duration, log logging.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{backend: backend, interval: interval, log: log}
}

// Run polls the batch until every image is terminal or ctx is cancelled.
// Cancellation stops observing only; the server-side job keeps running.
//
// A failed poll round is logged and skipped; the loop itself is the retry,
// so transient errors never terminate polling. The `since` watermark sent to
// the incremental images endpoint advances to the newest uploaded_at seen,
// keeping repeated polls cheap.
func (p *Poller) Run(ctx context.Context, projectID, batchID string, onUpdate func(Snapshot)) (Summary, error) {
	var last Summary
	watermark := ""

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		summary, records, err := p.pollOnce(ctx, projectID, batchID, watermark)
		if err != nil {
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			p.log.Warn(ctx, "poll round failed, will retry", "batch", batchID, "error", err)
		} else {
			last = summary
			for _, r := range records {
				if r.UploadedAt > watermark {
					watermark = r.UploadedAt
				}
			}
			if onUpdate != nil {
				onUpdate(Snapshot{Summary: summary, Updated: records})
			}
			if summary.Done() {
				return summary, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context, projectID, batchID, since string) (Summary, []models.ImageRecord, error) {
	summary, err := p.backend.BatchStatus(ctx, projectID, batchID)
	if err != nil {
		return Summary{}, nil, err
	}
	records, err := p.backend.BatchImages(ctx, projectID, batchID, since)
	if err != nil {
		return Summary{}, nil, err
	}
	return summary, records, nil
}
