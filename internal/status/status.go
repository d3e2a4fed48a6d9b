// Package status provides a thread-safe status tracker for the ladder-buttons daemon.
// It is read by the HTTP handlers and the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ladder-buttons/internal/debug"
	"github.com/sweeney/ladder-buttons/internal/decoder"
)

// Config contains daemon configuration for display.
type Config struct {
	RefreshMs    int64
	ConversionUs int64
	Throttle     uint32
	Port         string // output port backend, e.g. "chip:gpiochip0"
	Sampler      string // sampler source, e.g. the IIO attribute path
	DebugSinks   []string
	Broker       string
	HTTPAddr     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Decoder       decoder.Stats
	Debug         debug.Stats
	Started       bool // first refresh has been written
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the latest decoder and debug counters.
// Called from the daemon's status loop on every tick.
func (t *Tracker) Update(d decoder.Stats, dbg debug.Stats) {
	t.mu.Lock()
	t.snap.Decoder = d
	t.snap.Debug = dbg
	t.snap.Started = d.Refreshes > 0
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
