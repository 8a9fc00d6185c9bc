//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: adapted from hioload-ws for reactorcore.
//
// Linux-specific implementation for setting thread CPU affinity, using
// golang.org/x/sys/unix's SchedSetaffinity rather than cgo, so this
// package stays a pure-Go build.

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform pins the calling OS thread to cpuID. Callers must
// have already called runtime.LockOSThread, or the pinned thread may be
// reused by a different goroutine afterward.
func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	// pid 0 means "the calling thread" per sched_setaffinity(2).
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity failed: %w", err)
	}
	return nil
}
