//go:build linux && !tinygo

package gpio

import (
	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
)

// MCPPort drives the port through one 8-pin bank of an MCP23017 I2C expander.
// Logical bit n maps to expander pin Pins[n] (0-15).
type MCPPort struct {
	device *mcp23017.Device
	pins   Pins
	bits   []int
	shadow uint8
	primed bool // shadow matches the pins
}

// NewMCPPort opens the expander at the given bus and device number, sets the
// wired pins to outputs and drives them to initial.
func NewMCPPort(busNo, devNo uint8, pins Pins, initial uint8) (*MCPPort, error) {
	bits := pins.wired()
	if len(bits) == 0 {
		return nil, errors.New("no pins wired")
	}
	for _, bit := range bits {
		if pins[bit] < 0 || pins[bit] > 15 {
			return nil, errors.Errorf("bit %d: expander pin %d out of range", bit, pins[bit])
		}
	}

	device, err := mcp23017.Open(busNo, devNo)
	if err != nil {
		return nil, errors.Wrapf(err, "open mcp23017 bus %d device %d", busNo, devNo)
	}

	p := &MCPPort{device: device, pins: pins, bits: bits}
	for _, bit := range bits {
		if err := device.PinMode(uint8(pins[bit]), mcp23017.OUTPUT); err != nil {
			device.Close()
			return nil, errors.Wrapf(err, "set expander pin %d to output", pins[bit])
		}
	}
	if err := p.Write(initial); err != nil {
		device.Close()
		return nil, err
	}
	return p, nil
}

// Read returns the pin levels for wired bits and the shadow register for the rest.
func (p *MCPPort) Read() (uint8, error) {
	v := p.shadow
	for _, bit := range p.bits {
		level, err := p.device.DigitalRead(uint8(p.pins[bit]))
		if err != nil {
			return 0, errors.Wrapf(err, "read expander pin %d", p.pins[bit])
		}
		if bool(level) {
			v |= 1 << bit
		} else {
			v &^= 1 << bit
		}
	}
	return v, nil
}

// Write sets every wired pin. Pins whose level is unchanged are skipped to
// keep I2C traffic down.
func (p *MCPPort) Write(value uint8) error {
	for _, bit := range p.bits {
		mask := uint8(1) << bit
		if p.primed && value&mask == p.shadow&mask {
			continue
		}
		level := mcp23017.PinLevel(value&mask != 0)
		if err := p.device.DigitalWrite(uint8(p.pins[bit]), level); err != nil {
			return errors.Wrapf(err, "write expander pin %d", p.pins[bit])
		}
	}
	p.shadow = value
	p.primed = true
	return nil
}

// Close releases the I2C device. Pins keep their last level.
func (p *MCPPort) Close() error {
	return errors.Wrap(p.device.Close(), "close mcp23017")
}
