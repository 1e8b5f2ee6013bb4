package cpujitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRejectsConstantTimer(t *testing.T) {
	err := Init(WithTimeSource(func() uint64 {
		return 42
	}))

	assert.ErrorIs(t, err, ErrCoarseTimer)
}

func TestInitRejectsZeroTimer(t *testing.T) {
	err := Init(WithTimeSource(func() uint64 {
		return 0
	}))

	assert.ErrorIs(t, err, ErrNoTimer)
}

// A counter stepping only in multiples of 100 passes the raw delta
// checks but must be rejected as coarse: more than 90% of the measured
// deltas land on the 100-quantum.
func TestInitRejectsQuantizedTimer(t *testing.T) {
	var (
		call int
		now  uint64
	)

	err := Init(WithTimeSource(func() uint64 {
		now += 100 * uint64(1+call%3)
		call++

		return now
	}))

	assert.ErrorIs(t, err, ErrCoarseTimer)
}

// Deltas that never vary carry no entropy even when each one is large.
func TestInitRejectsIdenticalDeltas(t *testing.T) {
	var now uint64

	err := Init(WithTimeSource(func() uint64 {
		now += 7

		return now
	}))

	assert.ErrorIs(t, err, ErrVarianceVar)
}

func TestInitRejectsBackwardsTimer(t *testing.T) {
	// Time steps backwards on five measured iterations, above the
	// tolerance of three reserved for NTP-style adjustments.
	backwards := map[int]bool{301: true, 321: true, 341: true, 361: true, 381: true}

	var (
		call int
		now  uint64 = 1000
	)

	err := Init(WithTimeSource(func() uint64 {
		if backwards[call] {
			now -= 50
		} else {
			now += 7 + uint64(call%3)
		}

		call++

		return now
	}))

	assert.ErrorIs(t, err, ErrNonMonotonic)
}

func TestInitToleratesFewBackwardsSteps(t *testing.T) {
	// Three backward steps stay within the NTP tolerance.
	backwards := map[int]bool{301: true, 341: true, 381: true}

	var (
		call int
		now  uint64 = 1000
	)

	err := Init(WithTimeSource(func() uint64 {
		if backwards[call] {
			now -= 50
		} else {
			now += 7 + uint64(call%3)
		}

		call++

		return now
	}))

	assert.NotErrorIs(t, err, ErrNonMonotonic)
}

func TestInitAcceptsJitteryTimer(t *testing.T) {
	// A synthetic timer with believable jitter passes every check.
	var (
		call int
		now  uint64 = 1_000_000
	)

	err := Init(WithTimeSource(func() uint64 {
		now += 20 + uint64(call*37%101)
		call++

		return now
	}))

	require.NoError(t, err)
}

func TestInitOnHost(t *testing.T) {
	err := Init()
	if err != nil {
		t.Skipf("platform timer unsuitable for jitter collection: %v", err)
	}
}
