package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ladder-buttons/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Buttons       string     `json:"buttons"`
	LastSample    uint8      `json:"last_sample"`
	Ready         bool       `json:"ready"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Debug         DebugJSON  `json:"debug"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of decoder counters.
type CountsJSON struct {
	Samples         uint64            `json:"samples"`
	Changes         uint64            `json:"changes"`
	Refreshes       uint64            `json:"refreshes"`
	RefreshFailures uint64            `json:"refresh_failures"`
	PerState        map[string]uint64 `json:"per_state"`
}

// DebugJSON is the JSON representation of debug channel counters.
type DebugJSON struct {
	Reported uint64 `json:"reported"`
	Sent     uint64 `json:"sent"`
	Dropped  uint64 `json:"dropped"`
	Failed   uint64 `json:"failed"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	RefreshMs    int64    `json:"refresh_ms"`
	ConversionUs int64    `json:"conversion_us"`
	Throttle     uint32   `json:"throttle"`
	Port         string   `json:"port"`
	Sampler      string   `json:"sampler"`
	DebugSinks   []string `json:"debug_sinks"`
	HTTPAddr     string   `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	perState := make(map[string]uint64, len(logic.AllStates))
	for _, s := range logic.AllStates {
		perState[s.String()] = snap.Decoder.PerState[s]
	}

	sinks := snap.Config.DebugSinks
	if sinks == nil {
		sinks = []string{}
	}

	return StatusInner{
		Buttons:       snap.Decoder.State.String(),
		LastSample:    snap.Decoder.LastSample,
		Ready:         snap.Started,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Samples:         snap.Decoder.Samples,
			Changes:         snap.Decoder.Changes,
			Refreshes:       snap.Decoder.Refreshes,
			RefreshFailures: snap.Decoder.RefreshFails,
			PerState:        perState,
		},
		Debug: DebugJSON{
			Reported: snap.Decoder.Reported,
			Sent:     snap.Debug.Sent,
			Dropped:  snap.Debug.Dropped,
			Failed:   snap.Debug.Failed,
		},
		Config: ConfigJSON{
			RefreshMs:    snap.Config.RefreshMs,
			ConversionUs: snap.Config.ConversionUs,
			Throttle:     snap.Config.Throttle,
			Port:         snap.Config.Port,
			Sampler:      snap.Config.Sampler,
			DebugSinks:   sinks,
			HTTPAddr:     snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
