package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/aerialops/uplink/internal/flagx"
	"github.com/aerialops/uplink/internal/models"
)

func (a *App) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	batchID := fs.String("b", "", "batch id")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-b"})); err != nil {
		return err
	}
	if *batchID == "" {
		return errors.New("status: -b is required")
	}

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	batch, err := j.GetBatch(ctx, *batchID)
	if err != nil {
		return fmt.Errorf("status: batch %s: %w", *batchID, err)
	}

	counts, err := j.StatusCounts(ctx, batch.ID)
	if err != nil {
		return err
	}

	fmt.Printf("batch %s  project %s  task %s  state %s\n", batch.ID, batch.ProjectID, batch.TaskID, batch.State)
	if batch.JobID != "" {
		fmt.Printf("classification job %s\n", batch.JobID)
	}
	for _, s := range []models.ImageStatus{
		models.StatusStaged, models.StatusUploaded, models.StatusClassifying,
		models.StatusAssigned, models.StatusRejected, models.StatusUnmatched,
		models.StatusInvalidEXIF, models.StatusDuplicate,
	} {
		if n := counts[s]; n > 0 {
			fmt.Printf("  %-12s %d\n", s, n)
		}
	}
	return nil
}

func (a *App) list(ctx context.Context) error {
	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	batches, err := j.ListBatches(ctx)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		fmt.Println("no batches journaled")
		return nil
	}

	for _, b := range batches {
		fmt.Printf("%s  %s  project %s  task %s  %d file(s)  %s\n",
			b.CreatedAt.Format("2006-01-02 15:04"), b.ID, b.ProjectID, b.TaskID, b.Total, b.State)
	}
	return nil
}
