//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/coalaura/cpujitter"
)

const (
	entropyAvailPath = "/proc/sys/kernel/random/entropy_avail"

	// Wakeup interval when the pool never signals writability; covers
	// entropy drained via get_random_bytes, which does not wake pollers.
	pollTimeoutMS = 5000
)

type feeder struct {
	dev   *os.File
	avail *os.File
	coll  *cpujitter.Collector

	threshold int
	chunk     int
	osr       uint
}

func newFeeder(device string, threshold, chunk int, osr uint) (*feeder, error) {
	err := cpujitter.Init()
	if err != nil {
		return nil, errors.Wrap(err, "platform cannot host the jitter collector")
	}

	// Keep the entropy pool and staging buffers out of swap.
	err = unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
	if err != nil {
		klog.Warningf("cannot lock memory, pool state may page out: %v", err)
	}

	f := &feeder{
		threshold: threshold,
		chunk:     chunk,
		osr:       osr,
	}

	f.coll, err = cpujitter.New(osr, 0)
	if err != nil {
		return nil, errors.Wrap(err, "allocate entropy collector")
	}

	f.dev, err = os.OpenFile(device, os.O_WRONLY, 0)
	if err != nil {
		f.close()

		return nil, errors.Wrapf(err, "open %s", device)
	}

	f.avail, err = os.Open(entropyAvailPath)
	if err != nil {
		f.close()

		return nil, errors.Wrapf(err, "open %s", entropyAvailPath)
	}

	// Fill the pool once before entering the wait loop.
	err = f.feed()
	if err != nil {
		f.close()

		return nil, err
	}

	return f, nil
}

// run blocks until a termination signal arrives. The kernel marks the
// random device writable when its pool falls below the write watermark;
// the poll timeout additionally covers drains that never wake pollers.
func (f *feeder) run(stop <-chan os.Signal) error {
	fds := []unix.PollFd{{
		Fd:     int32(f.dev.Fd()),
		Events: unix.POLLOUT,
	}}

	for {
		select {
		case sig := <-stop:
			klog.V(1).Infof("received %v", sig)

			return nil
		default:
		}

		fds[0].Revents = 0

		klog.V(2).Infof("polling %s", f.dev.Name())

		_, err := unix.Poll(fds, pollTimeoutMS)
		if err != nil && err != unix.EINTR {
			return errors.Wrapf(err, "poll %s", f.dev.Name())
		}

		entropy, err := f.readEntropyAvail()
		if err != nil {
			klog.Warningf("cannot read entropy_avail: %v", err)

			continue
		}

		if entropy >= f.threshold {
			klog.V(2).Infof("sufficient entropy %d available", entropy)

			continue
		}

		klog.V(2).Infof("insufficient entropy %d available", entropy)

		err = f.feed()
		if err != nil {
			return err
		}
	}
}

// feed reads one chunk from the collector and injects it into the
// kernel pool. A collector that failed its continuous test is discarded
// and replaced; that is the only recovery the collector permits.
func (f *feeder) feed() error {
	buf := make([]byte, f.chunk)
	defer zero(buf)

	_, err := f.coll.Read(buf)
	if errors.Is(err, cpujitter.ErrFIPS) {
		klog.Warning("continuous test failed, replacing collector")

		f.coll.Close()

		f.coll, err = cpujitter.New(f.osr, 0)
		if err != nil {
			return errors.Wrap(err, "replace entropy collector")
		}

		_, err = f.coll.Read(buf)
	}

	if err != nil {
		return errors.Wrap(err, "read jitter entropy")
	}

	err = injectEntropy(f.dev, buf)
	if err != nil {
		klog.Warningf("error injecting entropy: %v", err)

		return nil
	}

	klog.V(1).Infof("injected %d bytes into %s", len(buf), f.dev.Name())

	return nil
}

func (f *feeder) readEntropyAvail() (int, error) {
	raw := make([]byte, 16)

	n, err := f.avail.ReadAt(raw, 0)
	if err != nil && n == 0 {
		return 0, err
	}

	return parseEntropyAvail(string(raw[:n]))
}

// parseEntropyAvail parses the proc file contents, in bits. The kernel
// pool size is 4096 bits; anything outside that range is garbage.
func parseEntropyAvail(raw string) (int, error) {
	entropy, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}

	if entropy < 0 || entropy > 4096 {
		return 0, fmt.Errorf("entropy_avail value %d out of range", entropy)
	}

	return entropy, nil
}

func (f *feeder) close() {
	if f.coll != nil {
		f.coll.Close()
		f.coll = nil
	}

	if f.dev != nil {
		f.dev.Close()
		f.dev = nil
	}

	if f.avail != nil {
		f.avail.Close()
		f.avail = nil
	}
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
