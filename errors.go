package cpujitter

import "errors"

// Startup errors returned by Init. All of them are fatal: the platform
// cannot host the jitter collector and no collector may be allocated.
var (
	ErrNoTimer         = errors.New("cpujitter: timer returned zero")
	ErrCoarseTimer     = errors.New("cpujitter: timer resolution too coarse")
	ErrMinVariation    = errors.New("cpujitter: timer delta below entropy minimum")
	ErrNonMonotonic    = errors.New("cpujitter: timer is not monotonic")
	ErrVarianceVar     = errors.New("cpujitter: timer deltas are identical")
	ErrMinVariationVar = errors.New("cpujitter: average timer delta variation too small")
)

// Runtime errors.
var (
	// ErrAllocFail is returned by New when the collector cannot be set up
	// with the requested configuration.
	ErrAllocFail = errors.New("cpujitter: collector allocation failed")

	// ErrCollectorAbsent is returned when a nil collector is used.
	ErrCollectorAbsent = errors.New("cpujitter: collector is nil")

	// ErrFIPS is returned once the FIPS 140-2 continuous test has failed.
	// The failure is sticky: the collector is dead and must be replaced.
	ErrFIPS = errors.New("cpujitter: FIPS 140-2 continuous test failed")
)
