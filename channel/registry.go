package channel

import (
	"sync/atomic"

	"github.com/sizzo/reactorcore/control"
)

// MisuseTypeKey is the compile-time identifier a control.MisuseDetector
// should be registered under for Channel instances, per spec.md §9's
// design note replacing reflection-based instance counting.
const MisuseTypeKey = "channel.Channel"

var nextID atomic.Int64

// NextID returns a stable, process-wide unique integer suitable for a new
// Channel's identity (spec.md §4.B "Identity").
func NextID() int64 {
	return nextID.Add(1)
}

// Registry tracks live channels for diagnostics and drives a shared
// MisuseDetector, since a process spinning up channels without bound is
// exactly the pattern spec.md §5's misuse detector exists to catch.
type Registry struct {
	detector *control.MisuseDetector
}

// NewRegistry returns a Registry reporting into detector. detector may be
// nil, in which case tracking is a no-op.
func NewRegistry(detector *control.MisuseDetector) *Registry {
	return &Registry{detector: detector}
}

// Track records the creation of a new Channel.
func (r *Registry) Track() {
	if r.detector != nil {
		r.detector.Increment(MisuseTypeKey)
	}
}

// Untrack records a Channel's disposal.
func (r *Registry) Untrack() {
	if r.detector != nil {
		r.detector.Decrement(MisuseTypeKey)
	}
}
