// Package cli implements the uplink subcommands: upload, notify, watch,
// status and list.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aerialops/uplink/internal/api"
	"github.com/aerialops/uplink/internal/classify"
	"github.com/aerialops/uplink/internal/config"
	"github.com/aerialops/uplink/internal/journal"
	"github.com/aerialops/uplink/internal/logging"
	"github.com/aerialops/uplink/internal/presign"
	"github.com/aerialops/uplink/internal/services"
	"github.com/aerialops/uplink/internal/uploader"
)

type App struct {
	cfg *config.Config
	log logging.Logger
}

func NewApp(cfg *config.Config, log logging.Logger) *App {
	return &App{cfg: cfg, log: log}
}

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return errors.New(usage)
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "upload":
		return a.upload(ctx, rest)
	case "notify":
		return a.notify(ctx, rest)
	case "watch":
		return a.watch(ctx, rest)
	case "status":
		return a.status(ctx, rest)
	case "list":
		return a.list(ctx)
	case "help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

const usage = `usage: uplink <command> [flags]

commands:
  upload   stage a directory of images and upload them to a task
  notify   re-run the post-upload notification for a batch
  watch    follow a batch's classification job until it settles
  status   show the journaled state of a batch
  list     list journaled batches

global flags (any command): -a endpoint, -j journal, -n chunk size,
-w chunk pause ms, -c config file`

func (a *App) backend() *api.Client {
	return api.New(a.cfg.Endpoint, &http.Client{Timeout: 30 * time.Second}, a.log)
}

func (a *App) openJournal(ctx context.Context) (*journal.Journal, error) {
	return journal.Open(ctx, a.cfg.JournalPath)
}

func (a *App) newService(j *journal.Journal, direct bool) *services.BatchService {
	backend := a.backend()

	var issuer services.URLIssuer = backend
	if direct {
		issuer = presign.NewIssuer(presign.Config{
			Endpoint:  a.cfg.S3Endpoint,
			Region:    a.cfg.S3Region,
			Bucket:    a.cfg.S3Bucket,
			AccessKey: a.cfg.S3AccessKey,
			SecretKey: a.cfg.S3SecretKey,
		})
	}

	up := uploader.New(uploader.Config{
		ChunkSize:  a.cfg.ChunkSize,
		Pacer:      uploader.FixedDelay(a.cfg.ChunkPause),
		MaxRetries: uint64(a.cfg.UploadRetries),
		Logger:     a.log,
	})

	poller := classify.NewPoller(backend, a.cfg.PollInterval, a.log)

	return services.NewBatchService(issuer, backend, up, poller, j, a.cfg.UploadExpiry, a.log)
}
