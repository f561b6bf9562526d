// Package ewma implements a pure exponentially-weighted moving average
// over explicit sample-value pairs. It never reads a clock: every sample
// is an argument supplied by the caller, which is what lets it smooth an
// externally-measured round-trip time without the library owning a timer.
package ewma

import "fmt"

// EWMA holds the running estimate and its smoothing factor.
type EWMA struct {
	alpha float64
	value float64
	has   bool
}

// New constructs an EWMA with the given smoothing factor. alpha must be
// in (0, 1]; alpha == 1 is valid and degenerates to "latest sample wins".
func New(alpha float64) (*EWMA, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("ewma: alpha must be in (0, 1], got %v", alpha)
	}
	return &EWMA{alpha: alpha}, nil
}

// Observe folds sample into the running estimate. The first observation
// seeds the estimate directly.
func (e *EWMA) Observe(sample float64) {
	if !e.has {
		e.value = sample
		e.has = true
		return
	}
	e.value = e.alpha*sample + (1-e.alpha)*e.value
}

// Get returns the current estimate, and false if no sample has ever been
// observed.
func (e *EWMA) Get() (float64, bool) {
	return e.value, e.has
}
