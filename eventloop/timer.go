package eventloop

import (
	"sync"
	"sync/atomic"
	"time"
)

// rateMode distinguishes the two periodic scheduling disciplines spec.md
// §4.A describes.
type rateMode int

const (
	rateModeNone rateMode = iota
	rateModeFixedRate
	rateModeFixedDelay
)

// scheduledTask is one entry in the Loop's timer heap. Grounded on the
// timer heap shape in go-eventloop's loop.go, generalized with fixed-rate
// vs fixed-delay semantics per spec.md's Scheduled Task data model.
type scheduledTask struct {
	deadline time.Time
	task     func()
	period   time.Duration
	mode     rateMode
	seq      uint64 // insertion order, breaks deadline ties FIFO
	timer    *Timer
}

type timerHeap []*scheduledTask

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*scheduledTask)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Timer is the cancellable handle returned by Schedule,
// ScheduleAtFixedRate, and ScheduleWithFixedDelay — the spec's
// "Completion Token"-adjacent handle for scheduled work (spec.md §3
// Scheduled Task: "cancellation flag").
type Timer struct {
	mu        sync.Mutex
	cancelled atomic.Bool
	fired     atomic.Bool
	loop      *Loop
	task      *scheduledTask
}

// Cancel suppresses future firings. Per spec.md §3's invariant, a task that
// has already fired for its current deadline cannot be un-fired, but later
// periodic firings are suppressed. Cancel is idempotent and safe to call
// from any goroutine.
func (t *Timer) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (t *Timer) Cancelled() bool {
	return t.cancelled.Load()
}

// nextFireTime returns the deadline used to register this task in the heap.
func (t *Timer) nextFireTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.task.deadline
}
