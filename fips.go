package cpujitter

import (
	"os"
	"sync"
)

var (
	fipsOnce sync.Once
	fipsMode bool
)

// fipsEnabled reports whether the kernel runs in FIPS mode. The answer
// cannot change at runtime, so it is read once.
func fipsEnabled() bool {
	fipsOnce.Do(func() {
		raw, err := os.ReadFile("/proc/sys/crypto/fips_enabled")
		if err != nil {
			return
		}

		fipsMode = len(raw) > 0 && raw[0] == '1'
	})

	return fipsMode
}
