package jobs

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeWorker counts calls and lets the test signal readiness.
type fakeWorker struct {
	mu      sync.Mutex
	ready   chan struct{}
	pending int
	flushed int
	sweeps  int
}

func newFakeWorker() *fakeWorker {
	return &fakeWorker{ready: make(chan struct{}, 1)}
}

func (w *fakeWorker) queue(n int) {
	w.mu.Lock()
	w.pending += n
	w.mu.Unlock()
	select {
	case w.ready <- struct{}{}:
	default:
	}
}

func (w *fakeWorker) Ready() <-chan struct{} { return w.ready }

func (w *fakeWorker) Flush() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.pending
	w.pending = 0
	w.flushed += n
	return n
}

func (w *fakeWorker) SweepExpiredGrants(time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sweeps++
	return 0
}

func (w *fakeWorker) counts() (flushed, sweeps int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushed, w.sweeps
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_FlushesWhenReady(t *testing.T) {
	w := newFakeWorker()
	r := New(w, 0, discard())
	r.Start()
	defer r.Stop()

	w.queue(3)
	assert.Eventually(t, func() bool {
		flushed, _ := w.counts()
		return flushed == 3
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_SweepsOnTicker(t *testing.T) {
	w := newFakeWorker()
	r := New(w, 10*time.Millisecond, discard())
	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool {
		_, sweeps := w.counts()
		return sweeps >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_StopFlushesRemainder(t *testing.T) {
	w := newFakeWorker()
	// Queued without a ready signal, so only the shutdown flush sees it.
	w.pending = 2

	r := New(w, 0, discard())
	r.Start()
	r.Stop()
	r.Stop()

	flushed, _ := w.counts()
	assert.Equal(t, 2, flushed)
}
