// Package decoder couples the sampling side and the LED refresh side of the
// button ladder through a single atomically updated ButtonState.
//
// HandleSample is the only writer of the decoded state and runs on the
// sampler goroutine. Refresh is the only reader and runs on the refresh
// goroutine. Neither side performs a read-modify-write of the shared cell.
package decoder

import (
	"context"
	"log"
	"time"

	"go.uber.org/atomic"

	"github.com/sweeney/ladder-buttons/internal/gpio"
	"github.com/sweeney/ladder-buttons/internal/logic"
)

// Reporter receives throttled raw samples. Report must not block.
type Reporter interface {
	Report(sample logic.RawSample)
}

// Config holds the decoder's wiring. Zero values select the compile-time defaults
// except Throttle, where 0 disables reporting.
type Config struct {
	Table    *logic.Table
	Encoder  *logic.Encoder
	Throttle uint32 // report one sample in every Throttle; 0 disables
}

// Stats is a point-in-time view of the decoder counters.
type Stats struct {
	State        logic.ButtonState
	LastSample   logic.RawSample
	Samples      uint64
	Reported     uint64
	Changes      uint64
	Refreshes    uint64
	RefreshFails uint64
	PerState     [8]uint64
}

// Decoder is the context object shared by the sampling handler and the
// refresh loop.
type Decoder struct {
	table    *logic.Table
	encoder  *logic.Encoder
	throttle uint32
	reporter Reporter
	port     gpio.Port

	state atomic.Uint32 // logic.ButtonState, written only by HandleSample

	// Sampler-goroutine private.
	counter uint32
	last    logic.ButtonState

	// Written by HandleSample, read by Stats.
	lastSample atomic.Uint32
	samples    atomic.Uint64
	reported   atomic.Uint64
	changes    atomic.Uint64
	perState   [8]atomic.Uint64

	// Written by Refresh, read by Stats.
	refreshes    atomic.Uint64
	refreshFails atomic.Uint64
	failing      bool
}

// New creates a Decoder that writes LED patterns to port and forwards
// throttled samples to reporter. reporter may be nil.
// The decoded state starts as NONE.
func New(cfg Config, port gpio.Port, reporter Reporter) *Decoder {
	if cfg.Table == nil {
		cfg.Table = &logic.DefaultTable
	}
	if cfg.Encoder == nil {
		cfg.Encoder = logic.DefaultEncoder
	}
	d := &Decoder{
		table:    cfg.Table,
		encoder:  cfg.Encoder,
		throttle: cfg.Throttle,
		reporter: reporter,
		port:     port,
	}
	d.state.Store(uint32(logic.StateNone))
	return d
}

// HandleSample is the sampling event handler, called once per completed
// conversion. It forwards the sample to the reporter when the throttle
// counter is at zero, then classifies the same sample and publishes the result.
func (d *Decoder) HandleSample(raw logic.RawSample) {
	if d.throttle > 0 && d.reporter != nil {
		if d.counter == 0 {
			d.reporter.Report(raw)
			d.reported.Inc()
		}
		d.counter++
		if d.counter >= d.throttle {
			d.counter = 0
		}
	}

	next := d.table.Classify(raw)
	d.state.Store(uint32(next))
	if next != d.last {
		d.changes.Inc()
		d.last = next
	}

	d.lastSample.Store(uint32(raw))
	d.samples.Inc()
	d.perState[next&logic.StateB1B2B3].Inc()
}

// State returns the most recently decoded ButtonState.
func (d *Decoder) State() logic.ButtonState {
	return logic.ButtonState(d.state.Load())
}

// Refresh performs one refresh: it reads the decoded state, merges its LED
// pattern into the current port value and writes the result back.
func (d *Decoder) Refresh() error {
	state := d.State()

	current, err := d.port.Read()
	if err != nil {
		d.refreshFails.Inc()
		return err
	}
	if err := d.port.Write(d.encoder.Encode(state, current)); err != nil {
		d.refreshFails.Inc()
		return err
	}
	d.refreshes.Inc()
	return nil
}

// RunRefresh refreshes the port once per tick until ctx is done.
// Port errors are logged once per run of failures; the next tick retries.
func (d *Decoder) RunRefresh(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			if err := d.Refresh(); err != nil {
				if !d.failing {
					log.Printf("refresh: port error: %v", err)
					d.failing = true
				}
				continue
			}
			if d.failing {
				log.Printf("refresh: port recovered")
				d.failing = false
			}
		}
	}
}

// Stats returns a snapshot of the decoder counters. Safe to call from any goroutine.
func (d *Decoder) Stats() Stats {
	s := Stats{
		State:        d.State(),
		LastSample:   logic.RawSample(d.lastSample.Load()),
		Samples:      d.samples.Load(),
		Reported:     d.reported.Load(),
		Changes:      d.changes.Load(),
		Refreshes:    d.refreshes.Load(),
		RefreshFails: d.refreshFails.Load(),
	}
	for i := range d.perState {
		s.PerState[i] = d.perState[i].Load()
	}
	return s
}
