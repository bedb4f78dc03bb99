package uploader

import (
	"context"
	"time"
)

// Pacer is the pacing policy applied between chunks. It exists so throughput
// tuning does not require code changes: the delay is deliberate backpressure
// on the storage endpoint, not a correctness requirement.
type Pacer interface {
	Pause(ctx context.Context) error
}

type fixedDelay struct {
	d time.Duration
}

// FixedDelay pauses for a constant duration between chunks. A non-positive
// duration pauses not at all.
func FixedDelay(d time.Duration) Pacer {
	return &fixedDelay{d: d}
}

func (p *fixedDelay) Pause(ctx context.Context) error {
	if p.d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
