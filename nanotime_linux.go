//go:build linux
// +build linux

package cpujitter

import "golang.org/x/sys/unix"

// nanotime reads CLOCK_MONOTONIC_RAW: the raw hardware clock, not
// subject to NTP slewing, with nanosecond resolution.
func nanotime() uint64 {
	var ts unix.Timespec

	err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts)
	if err != nil {
		return 0
	}

	return uint64(ts.Sec)*1e9 + uint64(ts.Nsec)
}
