package eventloop

import "sync/atomic"

// runState is the Loop's lifecycle state.
//
// Lifecycle (spec data model, §3 Event Loop):
//
//	stateIdle --first submission--> stateRunning
//	stateRunning --Shutdown()--> stateShuttingDown
//	stateShuttingDown --queues drained, cleanup run--> stateTerminated
//
// Transitions into stateRunning and stateShuttingDown, and the never-started
// stateIdle -> stateTerminated shortcut in Shutdown, are CAS-guarded; the
// worker's own move into stateTerminated is a one-way Store since nothing
// ever transitions out of it. Adapted from hioload-ws's EventLoop.running atomic.Bool, generalized
// to the four states spec.md's lifecycle requires.
type runState uint32

const (
	stateIdle runState = iota
	stateRunning
	stateShuttingDown
	stateTerminated
)

func (s runState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case stateShuttingDown:
		return "shutting-down"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// atomicState wraps atomic.Uint32 with typed load/CAS helpers.
type atomicState struct {
	v atomic.Uint32
}

func (s *atomicState) load() runState { return runState(s.v.Load()) }

func (s *atomicState) store(v runState) { s.v.Store(uint32(v)) }

func (s *atomicState) cas(from, to runState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
