// Package adc provides the free-running analog sampler that feeds the decoder.
// The real implementation reads a Linux industrial-I/O channel.
// The fake implementation allows testing without hardware.
package adc

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/ladder-buttons/internal/logic"
)

// Sampler performs one analog conversion per Read.
type Sampler interface {
	// Read returns the top 8 bits of a fresh conversion.
	Read() (logic.RawSample, error)

	// Close releases sampler resources.
	Close() error
}

// DefaultInterval approximates the reference board's free-running conversion
// rate closely enough that the refresh loop always sees fresh state.
const DefaultInterval = 2 * time.Millisecond

// LeftAdjust keeps the 8 most significant bits of a conversion with the
// given resolution.
func LeftAdjust(raw uint32, resolution uint) logic.RawSample {
	if resolution <= 8 {
		return logic.RawSample(raw << (8 - resolution))
	}
	return logic.RawSample(raw >> (resolution - 8))
}

// FreeRun performs one conversion per tick and passes each sample to handle.
// handle runs on FreeRun's goroutine and must not block.
// Read errors are logged once per run of failures and the tick is skipped.
// Returns nil when ctx is done.
func FreeRun(ctx context.Context, s Sampler, tick <-chan time.Time, handle func(logic.RawSample)) error {
	failing := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			sample, err := s.Read()
			if err != nil {
				if !failing {
					log.Printf("adc: read error: %v", err)
					failing = true
				}
				continue
			}
			if failing {
				log.Printf("adc: sampling recovered")
				failing = false
			}
			handle(sample)
		}
	}
}
