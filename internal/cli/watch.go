package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/aerialops/uplink/internal/classify"
	"github.com/aerialops/uplink/internal/flagx"
)

func (a *App) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	batchID := fs.String("b", "", "batch id")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-b"})); err != nil {
		return err
	}
	if *batchID == "" {
		return errors.New("watch: -b is required")
	}

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	batch, err := j.GetBatch(ctx, *batchID)
	if err != nil {
		return fmt.Errorf("watch: batch %s: %w", *batchID, err)
	}

	svc := a.newService(j, false)

	summary, err := svc.Watch(ctx, batch, func(snap classify.Snapshot) {
		printSummary(snap.Summary)
	})
	if errors.Is(err, context.Canceled) {
		// Walking away stops observing; the server-side job keeps running.
		fmt.Println("stopped watching; classification continues server-side")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("batch %s settled: %d assigned, %d rejected, %d unmatched, %d invalid exif, %d duplicate\n",
		batch.ID, summary.Assigned, summary.Rejected, summary.Unmatched, summary.InvalidEXIF, summary.Duplicate)
	return nil
}

func printSummary(s classify.Summary) {
	fmt.Printf("\rpending %d / %d (staged %d, uploaded %d, classifying %d)   ",
		s.Pending(), s.Total(), s.Staged, s.Uploaded, s.Classifying)
	if s.Done() {
		fmt.Println()
	}
}
