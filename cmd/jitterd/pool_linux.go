//go:build linux
// +build linux

package main

import (
	"encoding/binary"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// injectEntropy credits the kernel input pool with the full contents of
// buf via the RNDADDENTROPY ioctl, claiming 8 bits of entropy per byte.
// The staged copy is zeroized before returning.
func injectEntropy(dev *os.File, buf []byte) error {
	rpi := encodePoolInfo(buf, len(buf)*8)
	defer zero(rpi)

	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		dev.Fd(),
		uintptr(unix.RNDADDENTROPY),
		uintptr(unsafe.Pointer(&rpi[0])),
	)

	if errno != 0 {
		return errno
	}

	return nil
}

// encodePoolInfo lays out struct rand_pool_info as the kernel expects
// it: two native-endian 32-bit integers (entropy count in bits, buffer
// size in bytes) followed by the buffer itself.
func encodePoolInfo(buf []byte, entropyBits int) []byte {
	rpi := make([]byte, 8+len(buf))

	binary.NativeEndian.PutUint32(rpi[0:4], uint32(entropyBits))
	binary.NativeEndian.PutUint32(rpi[4:8], uint32(len(buf)))

	copy(rpi[8:], buf)

	return rpi
}
