package adc

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/sweeney/ladder-buttons/internal/logic"
)

// FakeSampler is a test double that returns scripted samples.
type FakeSampler struct {
	mu sync.Mutex

	// Samples contains scripted raw samples to return.
	// Each call to Read() consumes the next sample.
	Samples []logic.RawSample

	index int

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by Read().
	ReadError error
}

// NewFakeSampler creates a FakeSampler with the given samples.
func NewFakeSampler(samples ...logic.RawSample) *FakeSampler {
	return &FakeSampler{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSampler) Read() (logic.RawSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// Close marks the sampler as closed.
func (f *FakeSampler) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// SetReadError replaces the scripted read error.
func (f *FakeSampler) SetReadError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

// ReadCount returns the number of Read calls so far.
func (f *FakeSampler) ReadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Reads
}
