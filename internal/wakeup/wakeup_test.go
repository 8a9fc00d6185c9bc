package wakeup

import (
	"testing"
	"time"
)

func TestSignalWakesWaiter(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	done := make(chan struct{})
	go func() {
		p.WaitTimeout(-1)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := p.Signal(); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitTimeout did not wake up after Signal")
	}
}

func TestWaitTimeoutElapses(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	start := time.Now()
	p.WaitTimeout(30)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("WaitTimeout returned too early: %v", elapsed)
	}
}

func TestCoalescedSignals(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close()

	for i := 0; i < 5; i++ {
		if err := p.Signal(); err != nil {
			t.Fatalf("Signal: %v", err)
		}
	}
	p.WaitTimeout(100)
}
