//go:build linux && !tinygo

package gpio

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device used by NewChipPort.
const DefaultChip = "gpiochip0"

// ChipPort drives the port through the Linux GPIO character device.
type ChipPort struct {
	chip   *gpiocdev.Chip
	lines  *gpiocdev.Lines
	bits   []int // logical bit for each requested line, in request order
	shadow uint8 // last written value, authoritative for unwired bits
}

// NewChipPort requests the wired pins as outputs and drives them to initial.
func NewChipPort(chipName string, pins Pins, initial uint8) (*ChipPort, error) {
	bits := pins.wired()
	if len(bits) == 0 {
		return nil, errors.New("no pins wired")
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, errors.Wrapf(err, "open gpio chip %s", chipName)
	}

	offsets := make([]int, len(bits))
	values := make([]int, len(bits))
	for i, bit := range bits {
		offsets[i] = pins[bit]
		values[i] = int(initial>>bit) & 1
	}

	lines, err := chip.RequestLines(offsets, gpiocdev.AsOutput(values...))
	if err != nil {
		chip.Close()
		return nil, errors.Wrapf(err, "request output lines %v", offsets)
	}

	return &ChipPort{
		chip:   chip,
		lines:  lines,
		bits:   bits,
		shadow: initial,
	}, nil
}

// Read returns the line values for wired bits and the shadow register for the rest.
func (p *ChipPort) Read() (uint8, error) {
	values := make([]int, len(p.bits))
	if err := p.lines.Values(values); err != nil {
		return 0, errors.Wrap(err, "read output lines")
	}
	v := p.shadow
	for i, bit := range p.bits {
		if values[i] != 0 {
			v |= 1 << bit
		} else {
			v &^= 1 << bit
		}
	}
	return v, nil
}

// Write drives all wired lines in a single request.
func (p *ChipPort) Write(value uint8) error {
	values := make([]int, len(p.bits))
	for i, bit := range p.bits {
		values[i] = int(value>>bit) & 1
	}
	if err := p.lines.SetValues(values); err != nil {
		return errors.Wrap(err, "set output lines")
	}
	p.shadow = value
	return nil
}

// Close returns the lines to inputs and releases the chip.
// Inputs stop the port sourcing or sinking LED current after the daemon exits.
func (p *ChipPort) Close() error {
	var errs []error

	if p.lines != nil {
		if err := p.lines.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, errors.Wrap(err, "reconfigure lines"))
		}
		if err := p.lines.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close lines"))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close chip"))
		}
	}

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}
