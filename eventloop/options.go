package eventloop

import "github.com/sizzo/reactorcore/control"

// options holds configuration gathered from Option values, following the
// teacher's functional-option shape (server/options.go) rather than a
// struct literal, so New's call sites stay stable as options grow.
type options struct {
	logger         control.Logger
	stats          *control.Stats
	affinityCPU    int // -1 means unset
	cleanup        func()
	misuseDetector *control.MisuseDetector
	misuseTypeKey  string
	debug          *control.DebugProbes
}

// Option configures a Loop at construction time.
type Option func(*options)

// WithLogger attaches a structured logger used for recovered task panics
// and affinity-pin failures.
func WithLogger(l control.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStats attaches a control.Stats counters block the loop updates on its
// hot path. Callers may share one Stats across components to aggregate.
func WithStats(s *control.Stats) Option {
	return func(o *options) { o.stats = s }
}

// WithAffinity pins the loop's worker goroutine to the given logical CPU,
// satisfying the Event Loop data model's affinity invariant. Pinning
// failures are logged and non-fatal.
func WithAffinity(cpuID int) Option {
	return func(o *options) { o.affinityCPU = cpuID }
}

// WithCleanup registers the function invoked exactly once after the task
// and timer queues drain during shutdown (spec.md §3's "cleanup runs
// exactly once on the worker thread after the queue drains").
func WithCleanup(fn func()) Option {
	return func(o *options) { o.cleanup = fn }
}

// WithMisuseDetector registers the Loop instance with a shared
// control.MisuseDetector under typeKey, so a process creating many Loops
// (a genuinely expensive, thread-owning resource) gets warned past the
// detector's threshold, per spec.md §5.
func WithMisuseDetector(d *control.MisuseDetector, typeKey string) Option {
	return func(o *options) {
		o.misuseDetector = d
		o.misuseTypeKey = typeKey
	}
}

// WithDebugProbes attaches a control.DebugProbes registry; New registers
// "loop.pending_tasks" and "loop.pending_timers" probes against it and, on
// the current platform, the platform CPU-count probe, so a process
// aggregating probes from many components can introspect a Loop's queue
// depth alongside everything else.
func WithDebugProbes(dp *control.DebugProbes) Option {
	return func(o *options) { o.debug = dp }
}

func resolveOptions(opts []Option) *options {
	o := &options{
		logger:      control.NoOpLogger{},
		affinityCPU: -1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
