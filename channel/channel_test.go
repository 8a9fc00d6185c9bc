package channel

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/sizzo/reactorcore/eventloop"
)

type testAddr string

func (a testAddr) Network() string { return "test" }
func (a testAddr) String() string  { return string(a) }

func newLoopedChannel(t *testing.T) (*Channel, *eventloop.Loop) {
	t.Helper()
	loop, err := eventloop.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { loop.Shutdown(context.Background()) })

	c := New(NextID(), nil, nil)
	c.SetOps(
		func(remote, local net.Addr) error { return nil },
		func() error { return nil },
		func() error { return nil },
		func(net.Addr) error { return nil },
		func() error { return nil },
	)
	return c, loop
}

func TestRegisterBindsLoopAndFiresActive(t *testing.T) {
	c, loop := newLoopedChannel(t)

	var active bool
	c.SetPipeline(&stubPipeline{onActive: func() { active = true }})

	tok := c.Register(loop)
	if err := tok.Await(context.Background()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if c.Loop() != loop {
		t.Fatal("channel not bound to loop")
	}
	if !active {
		t.Fatal("expected ChannelActive to fire")
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	c, loop := newLoopedChannel(t)

	if err := c.Register(loop).Await(context.Background()); err != nil {
		t.Fatal(err)
	}
	err := c.Register(loop).Await(context.Background())
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestServerChannelRejectsConnect(t *testing.T) {
	sc := NewServerChannel(NextID(), nil, nil, nil)
	loop, err := eventloop.New()
	if err != nil {
		t.Fatal(err)
	}
	defer loop.Shutdown(context.Background())

	if err := sc.Register(loop).Await(context.Background()); err != nil {
		t.Fatal(err)
	}

	var caught error
	sc.SetPipeline(&stubPipeline{onException: func(err error) { caught = err }})

	tok := sc.Connect(testAddr("x"), nil)
	if err := tok.Await(context.Background()); !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}
	if !errors.Is(caught, ErrUnsupportedOperation) {
		t.Fatalf("expected exception-caught event, got %v", caught)
	}
	if _, ok := sc.Outbound.(Discard); !ok {
		t.Fatal("expected discard outbound holder on server channel")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c, loop := newLoopedChannel(t)
	var inactiveCount int
	c.SetPipeline(&stubPipeline{onInactive: func() { inactiveCount++ }})

	if err := c.Register(loop).Await(context.Background()); err != nil {
		t.Fatal(err)
	}

	tok1 := c.Close()
	tok2 := c.Close()
	if err := tok1.Await(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := tok2.Await(context.Background()); err != nil {
		t.Fatal(err)
	}
	if inactiveCount != 1 {
		t.Fatalf("expected exactly one ChannelInactive fire, got %d", inactiveCount)
	}
	if !c.Closed() {
		t.Fatal("expected channel closed")
	}
}

type stubPipeline struct {
	onActive    func()
	onInactive  func()
	onException func(error)
	onUserEvent func(any)
}

func (s *stubPipeline) FireChannelActive() {
	if s.onActive != nil {
		s.onActive()
	}
}
func (s *stubPipeline) FireChannelInactive() {
	if s.onInactive != nil {
		s.onInactive()
	}
}
func (s *stubPipeline) FireExceptionCaught(err error) {
	if s.onException != nil {
		s.onException(err)
	}
}
func (s *stubPipeline) FireUserEventTriggered(evt any) {
	if s.onUserEvent != nil {
		s.onUserEvent(evt)
	}
}
