package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sizzo/reactorcore/control"
)

func TestExecuteRunsOnWorker(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Shutdown(context.Background())

	done := make(chan struct{})
	if err := l.Execute(func() {
		if !l.InEventLoop() {
			t.Error("task did not run on the loop's worker")
		}
		close(done)
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

// scenario 2: schedule delay.
func TestScheduleDelay(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Shutdown(context.Background())

	start := time.Now()
	done := make(chan time.Duration, 1)
	if _, err := l.Schedule(500*time.Millisecond, func() {
		done <- time.Since(start)
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case elapsed := <-done:
		if elapsed < 500*time.Millisecond {
			t.Fatalf("fired early: %v", elapsed)
		}
		if elapsed > 700*time.Millisecond {
			t.Fatalf("fired too late: %v", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task never fired")
	}
}

// scenario 3: fixed-rate with a 50ms task on a 100ms period over 550ms
// should yield exactly 5 firings with gaps >= 90ms.
func TestScheduleAtFixedRate(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Shutdown(context.Background())

	var mu sync.Mutex
	var fireTimes []time.Time

	timer, err := l.ScheduleAtFixedRate(0, 100*time.Millisecond, func() {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		fireTimes = append(fireTimes, time.Now())
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(550 * time.Millisecond)
	timer.Cancel()
	time.Sleep(150 * time.Millisecond) // let any in-flight firing settle

	mu.Lock()
	defer mu.Unlock()
	if len(fireTimes) != 5 {
		t.Fatalf("expected 5 firings, got %d: %v", len(fireTimes), fireTimes)
	}
	for i := 1; i < len(fireTimes); i++ {
		gap := fireTimes[i].Sub(fireTimes[i-1])
		if gap < 90*time.Millisecond {
			t.Fatalf("gap %d too small: %v", i, gap)
		}
	}
}

// scenario 4: lagged fixed-rate catch-up — first iteration sleeps 400ms
// under a 100ms period; over 550ms total, exactly 5 firings occur with the
// first gap >= 400ms and subsequent gaps small (catch-up, no skipping).
func TestScheduleAtFixedRateLaggedCatchUp(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Shutdown(context.Background())

	var mu sync.Mutex
	var fireTimes []time.Time
	var n atomic.Int32

	timer, err := l.ScheduleAtFixedRate(0, 100*time.Millisecond, func() {
		if n.Add(1) == 1 {
			time.Sleep(400 * time.Millisecond)
		}
		mu.Lock()
		fireTimes = append(fireTimes, time.Now())
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(550 * time.Millisecond)
	timer.Cancel()
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(fireTimes) != 5 {
		t.Fatalf("expected 5 firings (catch-up), got %d: %v", len(fireTimes), fireTimes)
	}
	if gap := fireTimes[1].Sub(fireTimes[0]); gap < 400*time.Millisecond {
		t.Fatalf("first gap too small: %v", gap)
	}
	for i := 2; i < len(fireTimes); i++ {
		gap := fireTimes[i].Sub(fireTimes[i-1])
		if gap > 50*time.Millisecond {
			t.Fatalf("catch-up gap %d too large: %v", i, gap)
		}
	}
}

// scenario 5: shutdown with pending tasks — all submitted tasks complete
// before isTerminated becomes true, and cleanup runs exactly once.
func TestShutdownDrainsPendingTasks(t *testing.T) {
	var cleanedUp atomic.Int32
	l, err := New(WithCleanup(func() { cleanedUp.Add(1) }))
	if err != nil {
		t.Fatal(err)
	}

	gate := make(chan struct{})
	var completed atomic.Int32
	started := make(chan struct{}, 3)

	for i := 0; i < 3; i++ {
		if err := l.Execute(func() {
			started <- struct{}{}
			<-gate
			completed.Add(1)
		}); err != nil {
			t.Fatal(err)
		}
	}

	<-started // first task has begun

	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- l.Shutdown(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	close(gate)

	if err := <-shutdownDone; err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	if !l.IsTerminated() {
		t.Fatal("expected loop to be terminated")
	}
	if got := completed.Load(); got != 3 {
		t.Fatalf("expected all 3 tasks to complete, got %d", got)
	}
	if got := cleanedUp.Load(); got != 1 {
		t.Fatalf("expected cleanup exactly once, got %d", got)
	}
}

func TestExecuteRejectedAfterShutdown(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := l.Execute(func() {}); err != ErrRejectedExecution {
		t.Fatalf("expected ErrRejectedExecution, got %v", err)
	}
}

func TestTimerCancelPreventsFiring(t *testing.T) {
	l, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer l.Shutdown(context.Background())

	fired := atomic.Bool{}
	timer, err := l.Schedule(50*time.Millisecond, func() { fired.Store(true) })
	if err != nil {
		t.Fatal(err)
	}
	timer.Cancel()
	time.Sleep(150 * time.Millisecond)
	if fired.Load() {
		t.Fatal("cancelled timer fired")
	}
}

func TestDebugProbesReportQueueDepth(t *testing.T) {
	dp := control.NewDebugProbes()
	l, err := New(WithDebugProbes(dp))
	if err != nil {
		t.Fatal(err)
	}
	defer l.Shutdown(context.Background())

	gate := make(chan struct{})
	if err := l.Execute(func() { <-gate }); err != nil {
		t.Fatal(err)
	}
	if err := l.Execute(func() {}); err != nil {
		t.Fatal(err)
	}

	// Give the worker a moment to pick up the first task and block on gate,
	// leaving the second task still pending in the FIFO.
	time.Sleep(50 * time.Millisecond)

	state := dp.DumpState()
	pending, ok := state["loop.pending_tasks"]
	if !ok {
		t.Fatal("expected loop.pending_tasks probe to be registered")
	}
	if pending != 1 {
		t.Fatalf("expected loop.pending_tasks = 1, got %v", pending)
	}
	if _, ok := state["platform.cpus"]; !ok {
		t.Fatal("expected platform.cpus probe to be registered")
	}
	close(gate)
}
