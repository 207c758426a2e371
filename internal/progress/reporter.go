package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// TotalItems is the number of items in the batch.
	TotalItems int

	// Workers is the number of parallel workers.
	Workers int

	// Label describes the batch (for display), e.g. "shard 0-1000".
	Label string

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable per-item progress for a batch run.
type Reporter struct {
	opts Options

	mu         sync.Mutex
	succeeded  atomic.Int64
	failed     atomic.Int64
	inProgress atomic.Int32
	startTime  time.Time
	stopCh     chan struct{}
	doneCh     chan struct{}
	stopped    bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.startTime = time.Now()

	fmt.Fprintf(r.opts.Output, "[objdl] Processing %s: %d items | Workers: %d\n",
		r.opts.Label, r.opts.TotalItems, r.opts.Workers)

	go r.updateLoop()
}

// Stop stops the reporter and prints the final status line. It blocks until
// the final line has been written.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// ItemStarted marks an item as in progress.
func (r *Reporter) ItemStarted() {
	r.inProgress.Add(1)
}

// ItemSucceeded marks an item as completed successfully.
func (r *Reporter) ItemSucceeded() {
	r.succeeded.Add(1)
	r.inProgress.Add(-1)
}

// ItemFailed marks an item as failed.
func (r *Reporter) ItemFailed() {
	r.failed.Add(1)
	r.inProgress.Add(-1)
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

func (r *Reporter) printProgress() {
	done := int(r.succeeded.Load() + r.failed.Load())
	inProgress := int(r.inProgress.Load())

	elapsed := time.Since(r.startTime).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	rate := float64(done) / elapsed

	eta := "calculating..."
	if rate > 0 && r.opts.TotalItems > 0 {
		remaining := float64(r.opts.TotalItems-done) / rate
		eta = formatDuration(time.Duration(remaining * float64(time.Second)))
	}

	fmt.Fprintf(r.opts.Output, "\r[objdl] Progress: %d/%d | ok %d | failed %d | in-flight %d | %.1f items/s | ETA: %s    ",
		done,
		r.opts.TotalItems,
		r.succeeded.Load(),
		r.failed.Load(),
		inProgress,
		rate,
		eta,
	)
}

func (r *Reporter) printFinalStatus() {
	done := int(r.succeeded.Load() + r.failed.Load())
	duration := time.Since(r.startTime)
	rate := float64(done) / duration.Seconds()

	fmt.Fprintf(r.opts.Output, "\r[objdl] Processed %d/%d items | ok %d | failed %d | %.1f items/s    \n",
		done,
		r.opts.TotalItems,
		r.succeeded.Load(),
		r.failed.Load(),
		rate,
	)
	fmt.Fprintf(r.opts.Output, "[objdl] Total time: %s\n", formatDuration(duration))
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
