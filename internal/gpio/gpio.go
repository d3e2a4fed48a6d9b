// Package gpio provides the 8-bit LED output port with hardware abstraction.
// Real implementations drive the Linux GPIO character device, Raspberry Pi
// memory-mapped GPIO, or an MCP23017 I2C expander bank.
// The fake implementation allows testing without hardware.
package gpio

// Port is an 8-bit digital output port. Bit n of the value is logical pin n.
type Port interface {
	// Read returns the current value of the port.
	Read() (uint8, error)

	// Write sets every pin of the port.
	Write(value uint8) error

	// Close releases hardware resources.
	Close() error
}

// Width is the number of logical pins on a Port.
const Width = 8

// NotConnected marks a logical pin with no physical line behind it.
// Its bit is kept in a shadow register so reads return what was written.
const NotConnected = -1

// Pins maps logical port bits to hardware pin numbers (BCM numbering or
// expander pin index). Unused bits are NotConnected.
type Pins [Width]int

// UnwiredPins returns a Pins value with every bit NotConnected.
func UnwiredPins() Pins {
	var p Pins
	for i := range p {
		p[i] = NotConnected
	}
	return p
}

// Default LED pins (BCM numbering) for the Pi-hosted build.
const (
	DefaultPinLED1 = 17
	DefaultPinLED2 = 27
	DefaultPinLED3 = 22
)

// wired returns the logical bits that have a physical pin, in bit order.
func (p Pins) wired() []int {
	var bits []int
	for bit, pin := range p {
		if pin != NotConnected {
			bits = append(bits, bit)
		}
	}
	return bits
}
