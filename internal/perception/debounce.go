package perception

import "fmt"

// Debouncer accumulates marker matches across frames. It reports Detected
// once the running count reaches Required and then starts over, so a steady
// stream of single matches yields one detection every Required frames.
//
// A Debouncer is owned by one caller and is not safe for concurrent use.
type Debouncer struct {
	// Required is the count that confirms a detection.
	Required int

	// ResetOnMiss clears the count on any frame without matches.
	ResetOnMiss bool

	count int
}

// NewDebouncer returns a debouncer requiring the given number of matches.
func NewDebouncer(required int, resetOnMiss bool) (*Debouncer, error) {
	if required <= 0 {
		return nil, fmt.Errorf("%w: debounce count must be > 0, got %d", ErrInvalidThreshold, required)
	}
	return &Debouncer{Required: required, ResetOnMiss: resetOnMiss}, nil
}

// Update feeds one frame's match count. Matches beyond the one that completes
// a detection are discarded with the rest of that frame.
func (d *Debouncer) Update(matches int) Signal {
	if matches <= 0 {
		if d.ResetOnMiss {
			d.count = 0
		}
		return SignalNone
	}
	for i := 0; i < matches; i++ {
		d.count++
		if d.count >= d.Required {
			d.count = 0
			return SignalDetected
		}
	}
	return SignalNone
}

// Count returns the matches accumulated toward the next detection.
func (d *Debouncer) Count() int { return d.count }

// Reset discards the accumulated count.
func (d *Debouncer) Reset() { d.count = 0 }
