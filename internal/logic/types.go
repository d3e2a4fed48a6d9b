// Package logic contains the pure decoding rules for the button ladder.
// This package has NO hardware dependencies (no ADC, GPIO, serial, MQTT or time.Sleep).
// Everything here is a total function over its inputs.
package logic

import (
	"strings"
	"time"
)

// RawSample is the top 8 bits of a left-adjusted ADC conversion.
type RawSample = uint8

// ButtonState is the set of buttons currently held down, one bit per button.
type ButtonState uint8

// Individual buttons.
const (
	Button1 ButtonState = 1 << iota
	Button2
	Button3
)

// The eight states the ladder can report.
const (
	StateNone       ButtonState = 0
	StateB1                     = Button1
	StateB2                     = Button2
	StateB3                     = Button3
	StateB1B2                   = Button1 | Button2
	StateB1B3                   = Button1 | Button3
	StateB2B3                   = Button2 | Button3
	StateB1B2B3                 = Button1 | Button2 | Button3
	numButtonStates             = 8
)

// AllStates lists every ButtonState in ascending bit order.
var AllStates = [numButtonStates]ButtonState{
	StateNone, StateB1, StateB2, StateB1B2, StateB3, StateB1B3, StateB2B3, StateB1B2B3,
}

// Has reports whether button b is part of the state.
func (s ButtonState) Has(b ButtonState) bool {
	return s&b == b
}

// Valid reports whether s only uses the three button bits.
func (s ButtonState) Valid() bool {
	return s&^StateB1B2B3 == 0
}

// String renders the state as "NONE", "B1", "B1+B2" and so on.
func (s ButtonState) String() string {
	if s == StateNone {
		return "NONE"
	}
	if !s.Valid() {
		return "INVALID"
	}
	parts := make([]string, 0, 3)
	for i, b := range []ButtonState{Button1, Button2, Button3} {
		if s.Has(b) {
			parts = append(parts, "B"+string(rune('1'+i)))
		}
	}
	return strings.Join(parts, "+")
}

// ThresholdEntry maps every sample strictly below Bound (and at or above the
// previous entry's bound) to State.
type ThresholdEntry struct {
	Bound RawSample
	State ButtonState
}

// NumThresholds is the number of entries in a classification table.
const NumThresholds = 7

// Table is an ordered classification table. Samples at or above the last
// bound classify as Default.
type Table struct {
	Entries [NumThresholds]ThresholdEntry
	Default ButtonState
}

// DefaultTable is calibrated against the resistor ladder on the reference
// board. Comparisons are strict less-than; do not reorder.
var DefaultTable = Table{
	Entries: [NumThresholds]ThresholdEntry{
		{Bound: 145, State: StateB1B2B3},
		{Bound: 155, State: StateB1B2},
		{Bound: 170, State: StateB1B3},
		{Bound: 185, State: StateB1},
		{Bound: 200, State: StateB2B3},
		{Bound: 220, State: StateB2},
		{Bound: 240, State: StateB3},
	},
	Default: StateNone,
}

// Compile-time defaults for the runtime cadences.
const (
	// DefaultRefresh is how often the LED port is rewritten.
	DefaultRefresh = 100 * time.Millisecond

	// DefaultThrottle reports one raw sample in every DefaultThrottle
	// conversions on the debug channel.
	DefaultThrottle = 64

	// StartupMarker is written once to the debug channel before sampling starts.
	StartupMarker = "LADDER\n"
)
