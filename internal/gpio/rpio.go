//go:build linux && !tinygo

package gpio

import (
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPIOPort drives the port through Raspberry Pi memory-mapped GPIO (/dev/gpiomem).
// Only one RPIOPort may be open at a time.
type RPIOPort struct {
	pins   Pins
	bits   []int
	shadow uint8
}

// NewRPIOPort maps GPIO memory, sets the wired pins to outputs and drives them to initial.
func NewRPIOPort(pins Pins, initial uint8) (*RPIOPort, error) {
	bits := pins.wired()
	if len(bits) == 0 {
		return nil, errors.New("no pins wired")
	}

	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "open gpio memory")
	}

	p := &RPIOPort{pins: pins, bits: bits}
	for _, bit := range bits {
		rpio.Pin(pins[bit]).Output()
	}
	if err := p.Write(initial); err != nil {
		rpio.Close()
		return nil, err
	}
	return p, nil
}

// Read returns the pin levels for wired bits and the shadow register for the rest.
func (p *RPIOPort) Read() (uint8, error) {
	v := p.shadow
	for _, bit := range p.bits {
		if rpio.Pin(p.pins[bit]).Read() == rpio.High {
			v |= 1 << bit
		} else {
			v &^= 1 << bit
		}
	}
	return v, nil
}

// Write sets every wired pin.
func (p *RPIOPort) Write(value uint8) error {
	for _, bit := range p.bits {
		pin := rpio.Pin(p.pins[bit])
		if value&(1<<bit) != 0 {
			pin.High()
		} else {
			pin.Low()
		}
	}
	p.shadow = value
	return nil
}

// Close returns the pins to inputs and unmaps GPIO memory.
func (p *RPIOPort) Close() error {
	for _, bit := range p.bits {
		rpio.Pin(p.pins[bit]).Input()
	}
	return errors.Wrap(rpio.Close(), "close gpio memory")
}
