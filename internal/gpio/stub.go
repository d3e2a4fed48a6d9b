//go:build !linux || tinygo

package gpio

import "github.com/pkg/errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// DefaultChip is the GPIO character device used by NewChipPort.
const DefaultChip = "gpiochip0"

// ChipPort is not available on non-Linux platforms.
type ChipPort struct{ unsupportedPort }

// NewChipPort returns an error on non-Linux platforms.
func NewChipPort(chipName string, pins Pins, initial uint8) (*ChipPort, error) {
	return nil, errUnsupported
}

// RPIOPort is not available on non-Linux platforms.
type RPIOPort struct{ unsupportedPort }

// NewRPIOPort returns an error on non-Linux platforms.
func NewRPIOPort(pins Pins, initial uint8) (*RPIOPort, error) {
	return nil, errUnsupported
}

// MCPPort is not available on non-Linux platforms.
type MCPPort struct{ unsupportedPort }

// NewMCPPort returns an error on non-Linux platforms.
func NewMCPPort(busNo, devNo uint8, pins Pins, initial uint8) (*MCPPort, error) {
	return nil, errUnsupported
}

type unsupportedPort struct{}

func (unsupportedPort) Read() (uint8, error) { return 0, errUnsupported }
func (unsupportedPort) Write(uint8) error    { return errUnsupported }
func (unsupportedPort) Close() error         { return nil }
