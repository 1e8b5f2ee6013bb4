package cpujitter

type options struct {
	nanotime func() uint64
	fips     func() bool
}

type option func(*options)

func defaultOptions() options {
	return options{
		nanotime: nanotime,
		fips:     fipsEnabled,
	}
}

// WithTimeSource overrides the monotonic nanosecond timer (default is
// the platform clock). The replacement must have a resolution fine
// enough that consecutive calls observably differ.
func WithTimeSource(fn func() uint64) option {
	return func(o *options) {
		o.nanotime = fn
	}
}

// WithFIPS forces the FIPS 140-2 continuous test on or off (default is
// the platform FIPS mode).
func WithFIPS(enabled bool) option {
	return func(o *options) {
		o.fips = func() bool {
			return enabled
		}
	}
}
