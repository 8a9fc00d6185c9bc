// Package eventloop implements the single-threaded cooperative event loop
// described in spec.md §4.A: a FIFO task queue, a priority queue of
// scheduled tasks keyed by absolute deadline, and orderly shutdown.
//
// Adapted from hioload-ws's internal/concurrency/eventloop.go (the
// batched-dispatch worker loop and atomic running flag) and enriched with
// the timer-heap and goroutine-identity techniques from go-eventloop's
// loop.go, to cover the fuller contract spec.md requires: scheduled and
// periodic tasks, RejectedExecution semantics, and awaitable termination.
//
// Author: adapted from hioload-ws, for reactorcore.
// License: Apache-2.0
package eventloop

import (
	"container/heap"
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sizzo/reactorcore/control"
	"github.com/sizzo/reactorcore/internal/taskqueue"
	"github.com/sizzo/reactorcore/internal/wakeup"
)

// Task is a unit of work submitted to a Loop.
type Task = func()

// Loop is a single-threaded executor serializing task execution for the
// channels bound to it (spec.md §3 Event Loop).
//
// Exactly one goroutine — lazily started by the first Execute, Schedule,
// ScheduleAtFixedRate, or ScheduleWithFixedDelay call — ever runs tasks.
// Submission is safe from any goroutine; cross-loop communication must go
// through Execute.
type Loop struct {
	state atomicState

	tasks *taskqueue.Queue[Task]

	timersMu sync.Mutex
	timers   timerHeap
	timerSeq atomic.Uint64

	wake *wakeup.Pipe

	startOnce   sync.Once
	cleanupOnce sync.Once
	loopDone    chan struct{}

	workerGoroutine atomic.Uint64

	opts *options
}

// New creates an idle Loop. The worker goroutine is not started until the
// first task or scheduled task is submitted (spec.md §3's "created idle →
// first submission starts worker" lifecycle).
func New(opts ...Option) (*Loop, error) {
	wake, err := wakeup.New()
	if err != nil {
		return nil, err
	}
	o := resolveOptions(opts)
	l := &Loop{
		tasks:    taskqueue.New[Task](),
		wake:     wake,
		loopDone: make(chan struct{}),
		opts:     o,
	}
	if o.misuseDetector != nil {
		o.misuseDetector.Increment(o.misuseTypeKey)
	}
	if o.debug != nil {
		o.debug.RegisterProbe("loop.pending_tasks", func() any { return l.tasks.Len() })
		o.debug.RegisterProbe("loop.pending_timers", func() any { return l.pendingTimers() })
		control.RegisterPlatformProbes(o.debug)
	}
	return l, nil
}

// ensureStarted lazily starts the worker goroutine exactly once.
func (l *Loop) ensureStarted() {
	l.startOnce.Do(func() {
		if l.state.cas(stateIdle, stateRunning) {
			go l.run()
		}
	})
}

// Execute enqueues task for eventual execution on the worker goroutine.
// Safe to call from any goroutine, including the worker itself — per
// spec.md §4.A, a task submitted from within the loop is still enqueued,
// never run inline, preserving FIFO order relative to prior submissions.
func (l *Loop) Execute(task Task) error {
	if task == nil {
		return nil
	}
	state := l.state.load()
	if state == stateShuttingDown || state == stateTerminated {
		l.recordRejected()
		return ErrRejectedExecution
	}
	l.ensureStarted()
	l.tasks.Push(task)
	l.wakeIfIdle()
	return nil
}

// Schedule returns a cancellable Timer firing task no earlier than
// delay after Schedule is called (spec.md §4.A: "actual_fire − deadline ≥
// 0, never early").
func (l *Loop) Schedule(delay time.Duration, task Task) (*Timer, error) {
	return l.scheduleInternal(delay, 0, rateModeNone, task)
}

// ScheduleAtFixedRate schedules task to first fire after initialDelay, then
// at successive target deadlines start+k·period. If the worker falls
// behind, missed firings collapse into back-to-back catch-up runs rather
// than being skipped (spec.md §4.A).
func (l *Loop) ScheduleAtFixedRate(initialDelay, period time.Duration, task Task) (*Timer, error) {
	if period <= 0 {
		return nil, &CancelledError{Reason: "period must be positive"}
	}
	return l.scheduleInternal(initialDelay, period, rateModeFixedRate, task)
}

// ScheduleWithFixedDelay schedules task to first fire after initialDelay,
// then delay after each firing completes, so consecutive firings are
// separated by at least delay + the task's own runtime (spec.md §4.A).
func (l *Loop) ScheduleWithFixedDelay(initialDelay, delay time.Duration, task Task) (*Timer, error) {
	if delay <= 0 {
		return nil, &CancelledError{Reason: "delay must be positive"}
	}
	return l.scheduleInternal(initialDelay, delay, rateModeFixedDelay, task)
}

func (l *Loop) scheduleInternal(initialDelay, period time.Duration, mode rateMode, task Task) (*Timer, error) {
	if task == nil {
		return nil, nil
	}
	state := l.state.load()
	if state == stateShuttingDown || state == stateTerminated {
		l.recordRejected()
		return nil, ErrRejectedExecution
	}
	l.ensureStarted()

	t := &Timer{loop: l}
	st := &scheduledTask{
		deadline: time.Now().Add(initialDelay),
		task:     task,
		period:   period,
		mode:     mode,
		seq:      l.timerSeq.Add(1),
		timer:    t,
	}
	t.task = st

	l.timersMu.Lock()
	heap.Push(&l.timers, st)
	l.timersMu.Unlock()
	if l.opts.stats != nil {
		l.opts.stats.TimersScheduled.Add(1)
	}

	l.wakeIfIdle()
	return t, nil
}

// Shutdown marks the loop as shutting down: no further Execute/Schedule
// calls are accepted, but every task already submitted still runs before
// the loop terminates (spec.md §4.A). Shutdown returns once the loop has
// fully terminated or ctx is done, whichever comes first.
func (l *Loop) Shutdown(ctx context.Context) error {
	for {
		cur := l.state.load()
		if cur == stateTerminated {
			return nil
		}
		if cur == stateShuttingDown {
			break
		}
		if cur == stateIdle {
			// Never started: nothing to drain, terminate immediately.
			if l.state.cas(stateIdle, stateTerminated) {
				l.runCleanupOnce()
				close(l.loopDone)
				return nil
			}
			continue // lost the race with a concurrent first submission
		}
		if l.state.cas(stateRunning, stateShuttingDown) {
			break
		}
	}
	_ = l.wake.Signal()

	select {
	case <-l.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsShutdown reports whether Shutdown has been requested (the loop may
// still be draining).
func (l *Loop) IsShutdown() bool {
	s := l.state.load()
	return s == stateShuttingDown || s == stateTerminated
}

// IsTerminated reports whether the loop has fully stopped: both queues
// drained and cleanup has run.
func (l *Loop) IsTerminated() bool {
	return l.state.load() == stateTerminated
}

// AwaitTermination blocks until the loop terminates or ctx is done,
// returning immediately if already terminated (spec.md §5).
func (l *Loop) AwaitTermination(ctx context.Context) error {
	if l.IsTerminated() {
		return nil
	}
	select {
	case <-l.loopDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InEventLoop reports whether the calling goroutine is this Loop's worker.
func (l *Loop) InEventLoop() bool {
	id := l.workerGoroutine.Load()
	return id != 0 && id == currentGoroutineID()
}

// Stats returns the control.Stats block this loop updates, or nil if none
// was configured via WithStats.
func (l *Loop) Stats() *control.Stats { return l.opts.stats }

func (l *Loop) recordRejected() {
	if l.opts.stats != nil {
		l.opts.stats.TasksRejected.Add(1)
	}
}

func (l *Loop) wakeIfIdle() {
	_ = l.wake.Signal()
}

// run is the worker goroutine body, implementing the algorithm from
// spec.md §4.A:
//  1. block with a timeout derived from the earliest scheduled deadline
//  2. promote due scheduled tasks into the FIFO queue
//  3. drain and execute FIFO tasks
//  4. if shutting down and both queues are empty, exit
//  5. invoke cleanup() exactly once, then terminate
func (l *Loop) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	l.workerGoroutine.Store(currentGoroutineID())

	if l.opts.affinityCPU >= 0 {
		if err := pinAffinity(l.opts.affinityCPU); err != nil {
			l.opts.logger.Warn("eventloop: affinity pin failed", "cpu", l.opts.affinityCPU, "error", err)
		}
	}

	for {
		l.promoteDueTimers()
		l.drainTasks()

		if l.state.load() == stateShuttingDown && l.tasks.Len() == 0 && l.pendingTimers() == 0 {
			break
		}

		l.wake.WaitTimeout(l.nextTimeoutMs())
	}

	l.runCleanupOnce()
	l.state.store(stateTerminated)
	close(l.loopDone)
}

// runCleanupOnce invokes the configured cleanup callback exactly once per
// Loop lifetime (spec.md §8: "cleanup() is invoked exactly once per Event
// Loop lifetime"), whether termination happens via the worker's normal
// exit or the never-started Shutdown fast path.
func (l *Loop) runCleanupOnce() {
	l.cleanupOnce.Do(func() {
		if l.opts.cleanup != nil {
			l.safeRun(l.opts.cleanup)
		}
		if l.opts.misuseDetector != nil {
			l.opts.misuseDetector.Decrement(l.opts.misuseTypeKey)
		}
	})
}

// promoteDueTimers moves every timer whose deadline has passed into the
// FIFO task queue, wrapped so rescheduling (for periodic timers) happens
// after the user callback runs.
func (l *Loop) promoteDueTimers() {
	for {
		now := time.Now()
		l.timersMu.Lock()
		if len(l.timers) == 0 {
			l.timersMu.Unlock()
			return
		}
		top := l.timers[0]
		if top.deadline.After(now) {
			l.timersMu.Unlock()
			return
		}
		heap.Pop(&l.timers)
		l.timersMu.Unlock()

		st := top
		l.tasks.Push(func() { l.fireTimer(st) })
	}
}

// fireTimer runs a due scheduled task's callback and, for periodic timers
// that have not been cancelled, computes and pushes the next occurrence.
func (l *Loop) fireTimer(st *scheduledTask) {
	if st.timer.Cancelled() {
		if l.opts.stats != nil {
			l.opts.stats.TimersCancelled.Add(1)
		}
		return
	}
	st.timer.fired.Store(true)
	l.safeRun(st.task)
	if l.opts.stats != nil {
		l.opts.stats.TimersFired.Add(1)
	}

	if st.mode == rateModeNone || st.timer.Cancelled() {
		return
	}

	var next time.Time
	switch st.mode {
	case rateModeFixedRate:
		next = st.deadline.Add(st.period)
	case rateModeFixedDelay:
		next = time.Now().Add(st.period)
	}

	ns := &scheduledTask{
		deadline: next,
		task:     st.task,
		period:   st.period,
		mode:     st.mode,
		seq:      l.timerSeq.Add(1),
		timer:    st.timer,
	}
	st.timer.mu.Lock()
	st.timer.task = ns
	st.timer.mu.Unlock()

	l.timersMu.Lock()
	heap.Push(&l.timers, ns)
	l.timersMu.Unlock()
}

// drainTasks executes every task currently queued, tolerating tasks pushed
// by other tasks (e.g. fireTimer's rescheduling) by repeatedly draining
// until the queue is observed empty.
func (l *Loop) drainTasks() {
	for {
		task, ok := l.tasks.Pop()
		if !ok {
			return
		}
		l.safeRun(task)
		if l.opts.stats != nil {
			l.opts.stats.TasksExecuted.Add(1)
		}
	}
}

func (l *Loop) pendingTimers() int {
	l.timersMu.Lock()
	defer l.timersMu.Unlock()
	return len(l.timers)
}

// nextTimeoutMs computes how long the worker may block, capped by the
// earliest scheduled deadline, matching spec.md §4.A step 1.
func (l *Loop) nextTimeoutMs() int {
	if l.state.load() == stateShuttingDown {
		return 0
	}
	const maxWait = 10 * time.Second

	l.timersMu.Lock()
	wait := maxWait
	if len(l.timers) > 0 {
		if d := time.Until(l.timers[0].deadline); d < wait {
			wait = d
		}
	}
	l.timersMu.Unlock()

	if wait <= 0 {
		return 0
	}
	if ms := wait.Milliseconds(); ms > 0 {
		return int(ms)
	}
	return 1 // round sub-millisecond waits up, never down to an immediate busy spin
}

// safeRun executes fn with panic recovery, logging the panic per spec.md
// §7's "a task that throws is logged; the worker continues."
func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if l.opts.stats != nil {
				l.opts.stats.PanicsRecovered.Add(1)
			}
			l.opts.logger.Error("eventloop: task panicked", "recovered", r)
		}
	}()
	fn()
}

func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
