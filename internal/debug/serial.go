//go:build !tinygo

package debug

import (
	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// DefaultBaud matches the reference board's debug UART.
const DefaultBaud = 9600

// SerialTransmitter writes debug lines to a serial port.
type SerialTransmitter struct {
	port *serial.Port
	name string
}

// OpenSerial opens the named serial device (e.g. /dev/ttyAMA0) for writing.
func OpenSerial(device string, baud int) (*SerialTransmitter, error) {
	if device == "" {
		return nil, errors.New("serial device not set")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name: device,
		Baud: baud,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", device)
	}
	return &SerialTransmitter{port: port, name: device}, nil
}

// Write sends p to the port.
func (s *SerialTransmitter) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, errors.Wrapf(err, "write %s", s.name)
	}
	return n, nil
}

// Close closes the port.
func (s *SerialTransmitter) Close() error {
	return s.port.Close()
}
