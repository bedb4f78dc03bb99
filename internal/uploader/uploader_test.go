package uploader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// countingPacer records how many pauses the uploader requested.
type countingPacer struct {
	calls atomic.Int32
}

func (p *countingPacer) Pause(ctx context.Context) error {
	p.calls.Add(1)
	return ctx.Err()
}

// uploadSink accepts PUTs and remembers which paths arrived.
type uploadSink struct {
	mu    sync.Mutex
	paths []string
}

func (s *uploadSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (s *uploadSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

func newItems(baseURL string, n int) []Item {
	items := make([]Item, n)
	for i := range items {
		name := fmt.Sprintf("img%02d.jpg", i)
		items[i] = Item{
			Name: name,
			URL:  fmt.Sprintf("%s/%s", baseURL, name),
			Data: []byte("payload"),
		}
	}
	return items
}

func newTestUploader(pacer Pacer) *Uploader {
	return New(Config{
		Pacer:        pacer,
		RetryBackoff: time.Millisecond,
	})
}

func TestSplit(t *testing.T) {
	items := newItems("http://example", 10)

	chunks := split(items, 4)
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], 4)
	require.Len(t, chunks[1], 4)
	require.Len(t, chunks[2], 2)
	require.Equal(t, "img00.jpg", chunks[0][0].Name)
	require.Equal(t, "img08.jpg", chunks[2][0].Name)

	require.Len(t, split(items, 100), 1)
	require.Empty(t, split(nil, 4))
}

func TestRun_ProgressAtChunkBoundaries(t *testing.T) {
	sink := &uploadSink{}
	srv := httptest.NewServer(sink)
	defer srv.Close()

	pacer := &countingPacer{}
	u := newTestUploader(pacer)

	var got []Progress
	err := u.Run(context.Background(), newItems(srv.URL, 10), func(p Progress) {
		got = append(got, p)
	})
	require.NoError(t, err)
	require.Equal(t, 10, sink.count())

	want := []Progress{
		{Uploaded: 0, Total: 10, Percent: 0},
		{Uploaded: 4, Total: 10, Percent: 40},
		{Uploaded: 8, Total: 10, Percent: 80},
		{Uploaded: 10, Total: 10, Percent: 100},
	}
	require.Equal(t, want, got)

	// Paced between chunks only, never after the last one.
	require.Equal(t, int32(2), pacer.calls.Load())
}

func TestRun_PercentRounding(t *testing.T) {
	sink := &uploadSink{}
	srv := httptest.NewServer(sink)
	defer srv.Close()

	u := newTestUploader(&countingPacer{})

	var percents []int
	err := u.Run(context.Background(), newItems(srv.URL, 6), func(p Progress) {
		percents = append(percents, p.Percent)
	})
	require.NoError(t, err)
	// 4 of 6 rounds to 67, not 66.
	require.Equal(t, []int{0, 67, 100}, percents)
}

func TestRun_ChunkFailureStopsBatch(t *testing.T) {
	var requests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/img05.jpg", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	u := New(Config{
		Pacer:        &countingPacer{},
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})

	var last Progress
	err := u.Run(context.Background(), newItems(srv.URL, 10), func(p Progress) {
		last = p
	})
	require.ErrorIs(t, err, ErrChunkUpload)
	require.Contains(t, err.Error(), "img05.jpg")

	// The failing file sits in the second chunk: progress stops at the
	// first, and the third chunk is never attempted.
	require.Equal(t, Progress{Uploaded: 4, Total: 10, Percent: 40}, last)
	require.LessOrEqual(t, requests.Load(), int32(4+4+1))
}

func TestRun_RetryThenSucceed(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := New(Config{
		Pacer:        &countingPacer{},
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})

	err := u.Run(context.Background(), newItems(srv.URL, 1), nil)
	require.NoError(t, err)
	require.Equal(t, int32(2), attempts.Load())
}

func TestRun_EmptyBatch(t *testing.T) {
	u := newTestUploader(&countingPacer{})
	err := u.Run(context.Background(), nil, nil)
	require.ErrorIs(t, err, ErrNoItems)
}

func TestRun_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := newTestUploader(&countingPacer{})

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		done <- u.Run(context.Background(), newItems(srv.URL, 1), nil)
	}()
	<-started
	// Give the first Run a moment to claim the slot.
	require.Eventually(t, func() bool {
		return u.inFlight.Load()
	}, time.Second, time.Millisecond)

	err := u.Run(context.Background(), newItems(srv.URL, 1), nil)
	require.ErrorIs(t, err, ErrInFlight)

	close(release)
	require.NoError(t, <-done)

	// The slot frees up once the first batch resolves.
	err = u.Run(context.Background(), newItems(srv.URL, 1), nil)
	require.NoError(t, err)
}

func TestRun_MissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := newTestUploader(&countingPacer{})
	items := []Item{{Name: "gone.jpg", URL: srv.URL + "/gone.jpg", Path: "/nonexistent/gone.jpg"}}

	err := u.Run(context.Background(), items, nil)
	require.ErrorIs(t, err, ErrChunkUpload)
}

func TestFixedDelay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := FixedDelay(time.Hour).Pause(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFixedDelay_ZeroIsImmediate(t *testing.T) {
	start := time.Now()
	require.NoError(t, FixedDelay(0).Pause(context.Background()))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}
