package cpujitter

const (
	// testLoopCount measurements decide whether the platform timer is
	// usable; the clearCache iterations before them only warm caches
	// and branch predictors into a steady state and are discarded.
	testLoopCount = 300
	clearCache    = 100
)

// Init validates that the platform can host a jitter collector: the
// timer must exist, be fine grained, be monotonic within NTP tolerance,
// and show enough variation between consecutive deltas to back the
// per-sample entropy assumption.
//
// Init must return nil before any collector is allocated. All returned
// errors are fatal for this platform.
func Init(opts ...option) error {
	o := defaultOptions()

	for _, opt := range opts {
		opt(&o)
	}

	now := o.nanotime

	var (
		deltaSum uint64
		oldDelta uint64

		timeBackwards int
		countMod      int
		countVar      int
	)

	for i := range testLoopCount + clearCache {
		t1 := now()
		foldTime(t1, 1<<minFoldLoopBit)
		t2 := now()

		if t1 == 0 || t2 == 0 {
			return ErrNoTimer
		}

		delta := t2 - t1

		// Consecutive calls must differ, which implies a
		// high-resolution timer.
		if delta == 0 {
			return ErrCoarseTimer
		}

		if delta < timeEntropyBits {
			return ErrMinVariation
		}

		if i < clearCache {
			continue
		}

		if t2 <= t1 {
			timeBackwards++
		}

		if delta%100 == 0 {
			countMod++
		}

		if i > clearCache {
			if delta != oldDelta {
				countVar++
			}

			if delta > oldDelta {
				deltaSum += delta - oldDelta
			} else {
				deltaSum += oldDelta - delta
			}
		}

		oldDelta = delta
	}

	// Up to three backward steps are tolerated: CLOCK_REALTIME-style
	// adjtime/NTP adjustments may interfere with the test run.
	if timeBackwards > 3 {
		return ErrNonMonotonic
	}

	if deltaSum == 0 {
		return ErrVarianceVar
	}

	// The average delta-of-deltas must exceed the per-sample entropy
	// assumption for that assumption to hold.
	if deltaSum/testLoopCount <= timeEntropyBits {
		return ErrMinVariationVar
	}

	// Counters stepping in quanta of 100 are too coarse even when the
	// raw delta check above passes.
	if countMod > testLoopCount/10*9 {
		return ErrCoarseTimer
	}

	return nil
}
