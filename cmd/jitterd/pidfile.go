//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// pidFile stays open for the lifetime of the daemon so the lock it
// holds keeps a second instance from starting.
var pidFile *os.File

func writePidFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return err
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		f.Close()

		return errors.Wrap(err, "pid file already locked")
	}

	err = f.Truncate(0)
	if err != nil {
		f.Close()

		return err
	}

	_, err = fmt.Fprintf(f, "%d\n", os.Getpid())
	if err != nil {
		f.Close()

		return err
	}

	pidFile = f

	return nil
}
