package adc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sweeney/ladder-buttons/internal/logic"
)

// IIOSampler reads one channel of a Linux industrial-I/O ADC through sysfs,
// e.g. /sys/bus/iio/devices/iio:device0/in_voltage1_raw.
type IIOSampler struct {
	f          *os.File
	resolution uint
	buf        [16]byte
}

// IIOPath returns the sysfs raw attribute for a device and channel.
func IIOPath(device, channel int) string {
	return fmt.Sprintf("/sys/bus/iio/devices/iio:device%d/in_voltage%d_raw", device, channel)
}

// NewIIOSampler opens the raw attribute at path. resolution is the ADC
// width in bits (10 on most hats, 12 on MCP3208-class parts).
func NewIIOSampler(path string, resolution uint) (*IIOSampler, error) {
	if resolution == 0 || resolution > 24 {
		return nil, errors.Errorf("unsupported resolution %d bits", resolution)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open iio channel")
	}
	return &IIOSampler{f: f, resolution: resolution}, nil
}

// Read triggers a conversion by re-reading the attribute from offset 0.
func (s *IIOSampler) Read() (logic.RawSample, error) {
	n, err := s.f.ReadAt(s.buf[:], 0)
	if n == 0 && err != nil {
		return 0, errors.Wrap(err, "read iio channel")
	}
	raw, err := strconv.ParseUint(strings.TrimSpace(string(s.buf[:n])), 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, "parse iio value")
	}
	if raw >= 1<<s.resolution {
		return 0, errors.Errorf("value %d exceeds %d-bit range", raw, s.resolution)
	}
	return LeftAdjust(uint32(raw), s.resolution), nil
}

// Close closes the attribute file.
func (s *IIOSampler) Close() error {
	return s.f.Close()
}
