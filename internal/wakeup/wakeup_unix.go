//go:build linux || darwin

// Package wakeup provides the event loop's "wake a blocked worker" primitive.
//
// Adapted from hioload-ws's reactor/reactor_linux.go epoll registration
// pattern: on unix the wakeup is a non-blocking pipe registered for
// readability, mirroring how the teacher registers a socket fd with its
// reactor. Here the "reactor" is just the blocking read below; the event
// loop itself does not epoll, it only needs to interrupt its timed wait in
// WaitTimeout.
package wakeup

import (
	"golang.org/x/sys/unix"
)

// Pipe is a self-pipe used to interrupt a goroutine blocked reading fd.
type Pipe struct {
	r, w int
}

// New creates a non-blocking pipe suitable for wakeups.
func New() (*Pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, err
	}
	return &Pipe{r: fds[0], w: fds[1]}, nil
}

// FD returns the read end, for registration with a poller.
func (p *Pipe) FD() int { return p.r }

// Signal wakes up any reader blocked on FD. Safe to call from any goroutine,
// and safe to call after Close (returns an error which callers may ignore).
func (p *Pipe) Signal() error {
	var one [1]byte
	_, err := unix.Write(p.w, one[:])
	if err == unix.EAGAIN {
		// Pipe buffer already has a pending wake byte; coalesced wakeups
		// are fine per spec.md's "spurious wakes are tolerated".
		return nil
	}
	return err
}

// Drain empties all pending wake bytes, so repeated wakeups within one tick
// collapse into a single drain.
func (p *Pipe) Drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.r, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// WaitTimeout blocks until Signal has been called or timeoutMs elapses
// (a negative timeoutMs blocks indefinitely). It always drains pending wake
// bytes before returning, so callers never need to call Drain separately.
func (p *Pipe) WaitTimeout(timeoutMs int) {
	fds := []unix.PollFd{{Fd: int32(p.r), Events: unix.POLLIN}}
	_, err := unix.Poll(fds, timeoutMs)
	if err != nil && err != unix.EINTR {
		return
	}
	p.Drain()
}

// Close releases both ends of the pipe.
func (p *Pipe) Close() error {
	err1 := unix.Close(p.r)
	err2 := unix.Close(p.w)
	if err1 != nil {
		return err1
	}
	return err2
}
