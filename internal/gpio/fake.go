package gpio

import "sync"

// FakePort is a test double that stores the port value in memory.
type FakePort struct {
	mu sync.Mutex

	// Value is the current port register.
	Value uint8

	// Writes records every value passed to Write.
	Writes []uint8

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by Read().
	ReadError error

	// WriteError, if set, will be returned by Write().
	WriteError error
}

// NewFakePort creates a FakePort holding the given initial value.
func NewFakePort(initial uint8) *FakePort {
	return &FakePort{Value: initial}
}

// Read returns the current register value.
func (f *FakePort) Read() (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Value, nil
}

// Write stores value and records it.
func (f *FakePort) Write(value uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Value = value
	f.Writes = append(f.Writes, value)
	return nil
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Last returns the register value and the number of writes so far.
func (f *FakePort) Last() (uint8, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Value, len(f.Writes)
}

// SetErrors replaces the scripted read and write errors.
func (f *FakePort) SetErrors(readErr, writeErr error) {
	f.mu.Lock()
	f.ReadError = readErr
	f.WriteError = writeErr
	f.mu.Unlock()
}
