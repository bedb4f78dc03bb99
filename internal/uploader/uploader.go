// Package uploader pushes a batch of files to their pre-signed URLs in
// fixed-width chunks: uploads run concurrently within a chunk, chunks run
// strictly one after another with a pacing pause in between.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/aerialops/uplink/internal/logging"
	"github.com/aerialops/uplink/internal/netx"
)

// DefaultChunkSize is the concurrency width of the uploader: how many
// uploads are in flight within one chunk.
const DefaultChunkSize = 4

var (
	// ErrChunkUpload marks a chunk whose members did not all upload. The
	// remaining chunks are not attempted and already-uploaded files are not
	// rolled back.
	ErrChunkUpload = errors.New("chunk upload failed")

	// ErrInFlight is returned when a second Run is attempted while one is
	// still active. One batch at a time per uploader.
	ErrInFlight = errors.New("upload already in flight")

	// ErrNoItems is returned for an empty batch; the caller should have
	// disabled submission instead.
	ErrNoItems = errors.New("no items to upload")
)

// Item is one (pre-signed URL, file) pair, order-correlated with the
// authorization request. Data takes precedence over Path when both are set;
// otherwise the payload is read from Path right before the PUT.
type Item struct {
	Name string
	URL  string
	Path string
	Data []byte
}

func (it Item) payload() ([]byte, error) {
	if it.Data != nil {
		return it.Data, nil
	}
	return os.ReadFile(it.Path)
}

// Progress is the data contract consumed by whatever renders the upload
// indicator. Uploaded only ever advances at chunk boundaries, so Percent
// never reaches 100 unless every upload actually resolved.
type Progress struct {
	Uploaded int
	Total    int
	Percent  int
}

// Config carries the uploader knobs. Zero values get sensible defaults.
type Config struct {
	ChunkSize    int
	Pacer        Pacer
	MaxRetries   uint64        // extra attempts per file within a chunk
	RetryBackoff time.Duration // constant backoff between attempts
	HTTPClient   *http.Client
	Logger       logging.Logger
}

type Uploader struct {
	chunkSize  int
	pacer      Pacer
	maxRetries uint64
	backoff    time.Duration
	httpc      *http.Client
	log        logging.Logger
	inFlight   atomic.Bool
}

func New(cfg Config) *Uploader {
	u := &Uploader{
		chunkSize:  cfg.ChunkSize,
		pacer:      cfg.Pacer,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		httpc:      cfg.HTTPClient,
		log:        cfg.Logger,
	}
	if u.chunkSize <= 0 {
		u.chunkSize = DefaultChunkSize
	}
	if u.pacer == nil {
		u.pacer = FixedDelay(400 * time.Millisecond)
	}
	if u.backoff <= 0 {
		u.backoff = 500 * time.Millisecond
	}
	if u.httpc == nil {
		u.httpc = &http.Client{Timeout: 2 * time.Minute}
	}
	if u.log == nil {
		u.log = logging.Discard()
	}
	return u
}

// Run uploads all items and reports progress after every chunk. The uploaded
// count is owned by this call: it lives on the stack, never in shared state,
// so two batches can never bleed counters into each other.
//
// If any member of a chunk fails after its bounded retries, the chunk fails,
// no further chunks start, and the returned error wraps ErrChunkUpload. The
// progress callback will not have advanced past the last completed chunk.
func (u *Uploader) Run(ctx context.Context, items []Item, onProgress func(Progress)) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	if !u.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer u.inFlight.Store(false)

	total := len(items)
	uploaded := 0
	report := func() {
		if onProgress != nil {
			onProgress(Progress{Uploaded: uploaded, Total: total, Percent: percent(uploaded, total)})
		}
	}
	report()

	chunks := split(items, u.chunkSize)
	for i, chunk := range chunks {
		if err := u.uploadChunk(ctx, chunk); err != nil {
			u.log.Error(ctx, "chunk failed, aborting batch",
				"chunk", i+1, "chunks", len(chunks), "uploaded", uploaded, "error", err)
			return fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}

		uploaded += len(chunk)
		report()
		u.log.Debug(ctx, "chunk uploaded", "chunk", i+1, "chunks", len(chunks), "uploaded", uploaded)

		if i < len(chunks)-1 {
			if err := u.pacer.Pause(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

func (u *Uploader) uploadChunk(ctx context.Context, chunk []Item) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, it := range chunk {
		g.Go(func() error {
			if err := u.uploadItem(gctx, it); err != nil {
				return fmt.Errorf("%s: %w", it.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrChunkUpload, err)
	}
	return nil
}

func (u *Uploader) uploadItem(ctx context.Context, it Item) error {
	body, err := it.payload()
	if err != nil {
		return err
	}

	b := retry.WithMaxRetries(u.maxRetries, retry.NewConstant(u.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := netx.PutPresigned(ctx, u.httpc, it.URL, body); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func percent(uploaded, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(uploaded) / float64(total)))
}
