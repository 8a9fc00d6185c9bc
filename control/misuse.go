package control

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// MisuseDetector counts live instances of designated shared-resource types
// and logs a warning once a type's count exceeds its configured threshold.
//
// Realizes spec.md §5's "misuse detector (external collaborator) counts
// process-wide instances of designated shared resources and warns once
// past a threshold (e.g. 256)", and spec.md §9's design note to replace
// reflection-based instance counting with "a per-type counter keyed by a
// compile-time identifier string passed at construction" — adapted from
// this package's own DebugProbes registration pattern rather than from
// Java's Class<?> keys, since Go has no runtime Class equivalent.
type MisuseDetector struct {
	mu        sync.Mutex
	counts    map[string]*atomic.Int64
	threshold int
	warned    map[string]bool
	logger    Logger
}

// NewMisuseDetector creates a detector warning once any registered type's
// live count exceeds threshold. A threshold <= 0 uses the spec's default
// of 256.
func NewMisuseDetector(threshold int, logger Logger) *MisuseDetector {
	if threshold <= 0 {
		threshold = 256
	}
	if logger == nil {
		logger = NoOpLogger{}
	}
	return &MisuseDetector{
		counts:    make(map[string]*atomic.Int64),
		threshold: threshold,
		warned:    make(map[string]bool),
		logger:    logger,
	}
}

// counter returns (creating if needed) the counter for typeKey.
func (d *MisuseDetector) counter(typeKey string) *atomic.Int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.counts[typeKey]
	if !ok {
		c = &atomic.Int64{}
		d.counts[typeKey] = c
	}
	return c
}

// Increment records a new live instance of typeKey, warning (once, until
// the count drops back below threshold) if the threshold is exceeded.
func (d *MisuseDetector) Increment(typeKey string) {
	c := d.counter(typeKey)
	n := c.Add(1)
	if n > int64(d.threshold) {
		d.mu.Lock()
		already := d.warned[typeKey]
		if !already {
			d.warned[typeKey] = true
		}
		d.mu.Unlock()
		if !already {
			d.logger.Warn(fmt.Sprintf("misuse detector: %q instance count %d exceeds threshold %d; this resource is usually expensive and should be shared", typeKey, n, d.threshold))
		}
	}
}

// Decrement records the release of a live instance of typeKey, re-arming
// the warning if the count later exceeds the threshold again.
func (d *MisuseDetector) Decrement(typeKey string) {
	c := d.counter(typeKey)
	n := c.Add(-1)
	if n <= int64(d.threshold) {
		d.mu.Lock()
		d.warned[typeKey] = false
		d.mu.Unlock()
	}
}

// Count returns the current live-instance count for typeKey.
func (d *MisuseDetector) Count(typeKey string) int64 {
	return d.counter(typeKey).Load()
}
