package cpujitter

import (
	"encoding/binary"
	"math/bits"
)

// Flag configures optional parts of a collector. Flags are independent
// and combined as a bit set.
type Flag uint

const (
	// DisableMemoryAccess skips the memory-access noise source; no
	// scratch region is allocated.
	DisableMemoryAccess Flag = 1 << iota

	// DisableStir skips the pool stir step after each generation pass.
	DisableStir

	// DisableUnbias skips the von-Neumann unbiasing of samples.
	DisableUnbias
)

// Stir constants, the first four SHA-1 initialization vectors
// concatenated pairwise into two fixed 64-bit values. They carry no
// entropy; they are merely a non-trivial bit pattern.
const (
	stirConstant = 0x67452301efcdab89
	stirMixer    = 0x98badcfe10325476
)

// Collector is a non-physical true random number generator harvesting
// entropy from CPU execution and memory access timing jitter.
//
// A collector is owned by exactly one caller at a time; there is no
// internal locking.
type Collector struct {
	data     uint64
	oldData  uint64
	prevTime uint64

	fipsFailed bool

	mem            []byte
	memBlockSize   uint
	memBlocks      uint
	memAccessLoops uint
	memLocation    uint

	osr            uint
	stir           bool
	unbiasDisabled bool

	nanotime func() uint64
	fips     func() bool
}

// New allocates a collector with the given oversampling rate and flags.
// An osr of 0 is promoted to 1. The returned collector is primed: its
// pool holds non-zero data and the FIPS continuous test is initialized.
//
// Init must have returned nil on this platform before any collector is
// used.
func New(osr uint, flags Flag, opts ...option) (*Collector, error) {
	o := defaultOptions()

	for _, opt := range opts {
		opt(&o)
	}

	if o.nanotime == nil {
		return nil, ErrAllocFail
	}

	c := &Collector{
		nanotime: o.nanotime,
		fips:     o.fips,
	}

	if flags&DisableMemoryAccess == 0 {
		c.mem = make([]byte, memorySize)
		c.memBlockSize = memoryBlockSize
		c.memBlocks = memoryBlocks
		c.memAccessLoops = memoryAccessLoops
	}

	if osr == 0 {
		osr = 1
	}

	c.osr = osr
	c.stir = flags&DisableStir == 0
	c.unbiasDisabled = flags&DisableUnbias != 0

	// Fill the pool with non-zero values.
	c.generate()

	// Prime the continuous test if FIPS mode is active.
	c.fipsTest()

	return c, nil
}

// generate fills the pool with one fresh 64-bit value. The number of
// rounds covers every pool bit once per folded sample width, multiplied
// by the oversampling rate.
func (c *Collector) generate() {
	rounds := ((dataSizeBits-1)/timeEntropyBits + 1) * c.osr

	for k := range rounds {
		// The first measurement primes prevTime and is discarded.
		if k == 0 {
			c.measureJitter()
		}

		c.data ^= c.unbiased()
		c.data = bits.RotateLeft64(c.data, timeEntropyBits)
	}

	if c.stir {
		c.stirPool()
	}
}

// stirPool mixes the pool with a deterministic bijection: a mixer value
// is derived from the set bits of the pool and XORed back in. The mixer
// carries no entropy, and XOR cannot destroy entropy already present.
func (c *Collector) stirPool() {
	var (
		constant uint64 = stirConstant
		mixer    uint64 = stirMixer
	)

	for i := range dataSizeBits {
		if c.data>>i&1 == 1 {
			mixer ^= constant
		}

		mixer = bits.RotateLeft64(mixer, 1)
	}

	c.data ^= mixer
}

// fipsTest runs the FIPS 140-2 continuous test: two consecutive pool
// values must differ. The test primes itself on first use. A failure is
// sticky; the collector must be discarded.
func (c *Collector) fipsTest() error {
	if !c.fips() {
		return nil
	}

	if c.fipsFailed {
		return ErrFIPS
	}

	if c.oldData == 0 {
		c.oldData = c.data
		c.generate()

		return nil
	}

	if c.data == c.oldData {
		c.fipsFailed = true

		return ErrFIPS
	}

	c.oldData = c.data

	return nil
}

// Read implements io.Reader, filling p with raw jitter entropy. Each
// 64-bit pool value is tested before it is copied out; on a continuous
// test failure the bytes copied so far are returned together with
// ErrFIPS and every further call fails.
func (c *Collector) Read(p []byte) (n int, err error) {
	if c == nil {
		return 0, ErrCollectorAbsent
	}

	var word [8]byte

	for n < len(p) {
		c.generate()

		err = c.fipsTest()
		if err != nil {
			return n, err
		}

		binary.LittleEndian.PutUint64(word[:], c.data)

		n += copy(p[n:], word[:])
	}

	// Overwrite the pool so the value just handed out cannot be
	// recovered from a later memory disclosure.
	c.scrub()

	return n, nil
}

// Close zeroizes the scratch region and the collector state. The
// collector must not be used afterwards.
func (c *Collector) Close() error {
	if c == nil {
		return ErrCollectorAbsent
	}

	for i := range c.mem {
		c.mem[i] = 0
	}

	c.mem = nil

	*c = Collector{}

	return nil
}
