package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/aerialops/uplink/internal/flagx"
	"github.com/aerialops/uplink/internal/intake"
	"github.com/aerialops/uplink/internal/selection"
	"github.com/aerialops/uplink/internal/services"
	"github.com/aerialops/uplink/internal/uploader"
)

func (a *App) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	project := fs.String("p", "", "project id")
	task := fs.String("t", "", "task id")
	dir := fs.String("d", "", "directory of images to upload")
	area := fs.String("area", "", "GeoJSON polygon of the task area")
	insideOnly := fs.Bool("inside-only", false, "drop files that fall outside the task area")
	replace := fs.Bool("replace", false, "replace existing task imagery instead of adding")
	direct := fs.Bool("direct", false, "sign upload URLs locally against the configured bucket")

	known := []string{"-p", "-t", "-d", "-area", "-inside-only", "-replace", "-direct"}
	if err := fs.Parse(flagx.FilterArgs(args, known)); err != nil {
		return err
	}
	if *project == "" || *task == "" || *dir == "" {
		return errors.New("upload: -p, -t and -d are required")
	}

	report, err := intake.StageDir(*dir)
	if err != nil {
		return err
	}
	for name, stageErr := range report.Errors {
		a.log.Warn(ctx, "file excluded from batch", "file", name, "error", stageErr)
	}
	if len(report.Files) == 0 {
		return fmt.Errorf("upload: no usable images in %s", *dir)
	}

	set := selection.NewSet(report.Files)

	if *area != "" {
		polygon, err := loadPolygon(*area)
		if err != nil {
			return err
		}
		fmt.Printf("%d%% of staged images fall outside the task area\n", set.OutsidePercent(polygon))
		if *insideOnly {
			dropped := set.DeselectOutside(polygon)
			if dropped > 0 {
				fmt.Printf("dropped %d image(s) outside the task area\n", dropped)
			}
		}
	}

	files := set.Selected()
	if len(files) == 0 {
		return errors.New("upload: every staged image was deselected")
	}

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	svc := a.newService(j, *direct)

	batch, err := svc.Submit(ctx, *project, *task, files, *replace, func(p uploader.Progress) {
		fmt.Printf("\ruploading %d/%d (%d%%)", p.Uploaded, p.Total, p.Percent)
	})
	fmt.Println()

	if errors.Is(err, services.ErrNotify) {
		fmt.Printf("upload finished, but processing could not be started.\n")
		fmt.Printf("retry with: uplink notify -b %s\n", batch.ID)
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("batch %s uploaded, classification job %s\n", batch.ID, batch.JobID)
	fmt.Printf("follow it with: uplink watch -b %s\n", batch.ID)
	return nil
}

func (a *App) notify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	batchID := fs.String("b", "", "batch id")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-b"})); err != nil {
		return err
	}
	if *batchID == "" {
		return errors.New("notify: -b is required")
	}

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	batch, err := j.GetBatch(ctx, *batchID)
	if err != nil {
		return fmt.Errorf("notify: batch %s: %w", *batchID, err)
	}

	svc := a.newService(j, false)
	if err := svc.RetryNotify(ctx, batch); err != nil {
		return err
	}

	fmt.Printf("batch %s notified, classification job %s\n", batch.ID, batch.JobID)
	return nil
}
