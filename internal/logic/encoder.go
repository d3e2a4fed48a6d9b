package logic

import "github.com/pkg/errors"

// Polarity describes how an output bit lights an LED.
type Polarity int

const (
	// ActiveLow LEDs sink current into the port: a 0 bit lights the LED.
	ActiveLow Polarity = iota
	// ActiveHigh LEDs are driven from the port: a 1 bit lights the LED.
	ActiveHigh
)

func (p Polarity) String() string {
	if p == ActiveHigh {
		return "active-high"
	}
	return "active-low"
}

// Encoder translates a ButtonState into the LED bits of an 8-bit output
// port. LED n is lit exactly when button n is held.
type Encoder struct {
	bits     [3]uint8
	polarity Polarity
	mask     uint8
	patterns [numButtonStates]uint8
}

// Reference board wiring: LED1 on bit 1, LED2 on bit 3, LED3 on bit 4,
// sinking current.
const (
	DefaultLED1Bit = 1
	DefaultLED2Bit = 3
	DefaultLED3Bit = 4
)

// DefaultEncoder matches the reference board wiring.
var DefaultEncoder = MustEncoder([3]uint8{DefaultLED1Bit, DefaultLED2Bit, DefaultLED3Bit}, ActiveLow)

// NewEncoder builds an encoder for LEDs on the given port bits (LED1, LED2,
// LED3). Bits must be distinct and in the range 0-7.
func NewEncoder(bits [3]uint8, polarity Polarity) (*Encoder, error) {
	e := &Encoder{bits: bits, polarity: polarity}
	for i, b := range bits {
		if b > 7 {
			return nil, errors.Errorf("LED%d: bit %d out of range", i+1, b)
		}
		if e.mask&(1<<b) != 0 {
			return nil, errors.Errorf("LED%d: bit %d already used", i+1, b)
		}
		e.mask |= 1 << b
	}

	for _, s := range AllStates {
		var lit uint8
		for i, btn := range []ButtonState{Button1, Button2, Button3} {
			if s.Has(btn) {
				lit |= 1 << bits[i]
			}
		}
		if polarity == ActiveLow {
			lit = ^lit & e.mask
		}
		e.patterns[s] = lit
	}
	return e, nil
}

// MustEncoder is like NewEncoder but panics on error. Intended for
// package-level wiring constants.
func MustEncoder(bits [3]uint8, polarity Polarity) *Encoder {
	e, err := NewEncoder(bits, polarity)
	if err != nil {
		panic(err)
	}
	return e
}

// Mask returns the port bits controlled by the encoder.
func (e *Encoder) Mask() uint8 {
	return e.mask
}

// Polarity returns the drive polarity.
func (e *Encoder) Polarity() Polarity {
	return e.polarity
}

// Pattern returns the LED bits for state. Bits outside Mask are zero.
func (e *Encoder) Pattern(state ButtonState) uint8 {
	return e.patterns[state&StateB1B2B3]
}

// Encode returns current with the LED bits replaced by the pattern for
// state. Bits outside Mask are passed through unchanged.
func (e *Encoder) Encode(state ButtonState, current uint8) uint8 {
	return current&^e.mask | e.Pattern(state)
}

// Decode reads the LED bits of a port value back into the ButtonState they display.
func (e *Encoder) Decode(port uint8) ButtonState {
	if e.polarity == ActiveLow {
		port = ^port
	}
	var s ButtonState
	for i, btn := range []ButtonState{Button1, Button2, Button3} {
		if port&(1<<e.bits[i]) != 0 {
			s |= btn
		}
	}
	return s
}
