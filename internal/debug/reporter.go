// Package debug provides the throttled diagnostic channel: raw samples are
// formatted as decimal lines and handed to a slow transmitter without ever
// blocking the sampling path.
package debug

import (
	"context"
	"io"
	"log"
	"strconv"

	"go.uber.org/atomic"

	"github.com/sweeney/ladder-buttons/internal/logic"
)

// DefaultQueueDepth is the number of lines buffered between the sampler
// and the transmitter before new lines are dropped.
const DefaultQueueDepth = 16

// Stats counts what happened to reported lines.
type Stats struct {
	Queued  uint64 // accepted into the queue
	Sent    uint64 // written to the transmitter without error
	Dropped uint64 // rejected because the queue was full
	Failed  uint64 // transmitter returned an error
}

// Reporter queues diagnostic lines for a transmitter.
// Report and Announce are safe to call from the sampling goroutine while Run
// drains the queue on another.
type Reporter struct {
	lines chan []byte

	queued  atomic.Uint64
	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewReporter creates a Reporter with room for depth queued lines.
func NewReporter(depth int) *Reporter {
	if depth < 1 {
		depth = 1
	}
	return &Reporter{lines: make(chan []byte, depth)}
}

// FormatSample renders a sample as ASCII decimal followed by a newline.
func FormatSample(sample logic.RawSample) []byte {
	line := strconv.AppendUint(make([]byte, 0, 4), uint64(sample), 10)
	return append(line, '\n')
}

// Report queues the sample as a decimal line. It never blocks; when the queue
// is full the line is dropped.
func (r *Reporter) Report(sample logic.RawSample) {
	r.enqueue(FormatSample(sample))
}

// Announce queues a fixed marker line, such as the startup canary.
func (r *Reporter) Announce(marker string) bool {
	return r.enqueue([]byte(marker))
}

func (r *Reporter) enqueue(line []byte) bool {
	select {
	case r.lines <- line:
		r.queued.Inc()
		return true
	default:
		r.dropped.Inc()
		return false
	}
}

// Stats returns a snapshot of the counters.
func (r *Reporter) Stats() Stats {
	return Stats{
		Queued:  r.queued.Load(),
		Sent:    r.sent.Load(),
		Dropped: r.dropped.Load(),
		Failed:  r.failed.Load(),
	}
}

// Run writes queued lines to w, one Write call per line, until ctx is done.
// Write errors are counted and logged once per run of failures; the line is lost.
func (r *Reporter) Run(ctx context.Context, w io.Writer) error {
	failing := false
	var lastDropped uint64

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-r.lines:
			if _, err := w.Write(line); err != nil {
				r.failed.Inc()
				if !failing {
					log.Printf("debug: transmit error: %v", err)
					failing = true
				}
			} else {
				r.sent.Inc()
				if failing {
					log.Printf("debug: transmit recovered")
					failing = false
				}
			}

			if d := r.dropped.Load(); d != lastDropped {
				log.Printf("debug: queue full, dropped %d line(s)", d-lastDropped)
				lastDropped = d
			}
		}
	}
}
