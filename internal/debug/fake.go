package debug

import (
	"sync"
)

// FakeTransmitter records written lines for test assertions.
type FakeTransmitter struct {
	mu    sync.Mutex
	lines []string

	// Err, if set, is returned by Write and nothing is recorded.
	Err error

	// Block, if set, makes Write wait until the channel is closed.
	Block chan struct{}
}

// Write records p as one line.
func (f *FakeTransmitter) Write(p []byte) (int, error) {
	if f.Block != nil {
		<-f.Block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	f.lines = append(f.lines, string(p))
	return len(p), nil
}

// Lines returns a copy of everything written so far.
func (f *FakeTransmitter) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

// SetErr replaces the scripted write error.
func (f *FakeTransmitter) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}
