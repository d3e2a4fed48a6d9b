package logic

import "github.com/pkg/errors"

// Classify maps a sample to a ButtonState using DefaultTable.
func Classify(sample RawSample) ButtonState {
	return DefaultTable.Classify(sample)
}

// Classify returns the state of the first entry whose bound is strictly
// greater than sample, or t.Default when sample is at or above every bound.
// A sample equal to a bound belongs to the next bucket.
func (t *Table) Classify(sample RawSample) ButtonState {
	for _, e := range t.Entries {
		if sample < e.Bound {
			return e.State
		}
	}
	return t.Default
}

// Validate checks that bounds are strictly ascending and that the entries
// plus the default cover each of the eight states exactly once.
func (t *Table) Validate() error {
	var seen [numButtonStates]bool

	mark := func(s ButtonState) error {
		if !s.Valid() {
			return errors.Errorf("invalid state %#02x", uint8(s))
		}
		if seen[s] {
			return errors.Errorf("state %s appears more than once", s)
		}
		seen[s] = true
		return nil
	}

	for i, e := range t.Entries {
		if i > 0 && e.Bound <= t.Entries[i-1].Bound {
			return errors.Errorf("entry %d: bound %d not above previous bound %d", i, e.Bound, t.Entries[i-1].Bound)
		}
		if err := mark(e.State); err != nil {
			return errors.Wrapf(err, "entry %d", i)
		}
	}
	if err := mark(t.Default); err != nil {
		return errors.Wrap(err, "default")
	}
	return nil
}
