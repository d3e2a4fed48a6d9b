package mqtt

import "sync"

// FakePublisher records published lines and events for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Lines contains all debug lines that were written.
	Lines []string

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// WriteError, if set, will be returned by Write.
	WriteError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// SystemAttempts counts PublishSystem calls, including failed ones.
	SystemAttempts int

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Write records the debug line.
func (f *FakePublisher) Write(line []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return 0, f.WriteError
	}
	f.Lines = append(f.Lines, string(line))
	return len(line), nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SystemAttempts++
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// SetPublishSystemError replaces the scripted PublishSystem error.
func (f *FakePublisher) SetPublishSystemError(err error) {
	f.mu.Lock()
	f.PublishSystemError = err
	f.mu.Unlock()
}

// Attempts returns the number of PublishSystem calls so far.
func (f *FakePublisher) Attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SystemAttempts
}

// Snapshot returns copies of the recorded lines and system events.
func (f *FakePublisher) Snapshot() ([]string, []SystemEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Lines...), append([]SystemEvent(nil), f.SystemEvents...)
}

// Reset clears recorded lines and events.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lines = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.WriteError = nil
	f.PublishSystemError = nil
	f.SystemAttempts = 0
	f.Connected = false
}
