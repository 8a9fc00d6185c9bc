package tcp

import (
	"context"
	"testing"
	"time"

	"github.com/sizzo/reactorcore/channel"
	"github.com/sizzo/reactorcore/eventloop"
	"github.com/sizzo/reactorcore/pipeline"
)

// echoServerHandler writes every inbound chunk straight back out, so a
// client writing bytes observes them echoed through a real socket.
type echoServerHandler struct{ pipeline.BaseHandler }

func (*echoServerHandler) Name() string                    { return "echo-server" }
func (*echoServerHandler) InboundKind() channel.BufferKind  { return channel.KindBytes }
func (*echoServerHandler) OutboundKind() channel.BufferKind { return channel.KindBytes }
func (*echoServerHandler) HandleInbound(ctx *pipeline.HandlerContext) {
	buf := ctx.InboundIn().(*channel.ByteBuffer)
	if n := buf.Len(); n > 0 {
		data := append([]byte(nil), buf.Peek()...)
		buf.Discard(n)
		ctx.WriteOutbound(data)
		ctx.FireOutbound()
	}
}

type passThroughHandler struct{ pipeline.BaseHandler }

func (*passThroughHandler) Name() string                    { return "pass-through" }
func (*passThroughHandler) InboundKind() channel.BufferKind  { return channel.KindBytes }
func (*passThroughHandler) OutboundKind() channel.BufferKind { return channel.KindBytes }

func TestListenerDialEcho(t *testing.T) {
	loop, err := eventloop.New()
	if err != nil {
		t.Fatal(err)
	}
	defer loop.Shutdown(context.Background())

	ln, err := Listen(ListenerConfig{
		Addr:      "127.0.0.1:0",
		AcceptCPU: -1,
		Loop:      func() *eventloop.Loop { return loop },
		NewPipeline: func(b *Binding) {
			b.Pl.AddLast(&echoServerHandler{})
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ln.Serve(ctx)

	client, err := Dial(context.Background(), "tcp", ln.Addr().String(), nil)
	if err != nil {
		t.Fatal(err)
	}
	client.Pl.AddLast(&passThroughHandler{})
	var received []byte
	done := make(chan struct{})
	client.Pl.OnMessage(func(msg any) {
		if b, ok := msg.([]byte); ok {
			received = append(received, b...)
			if len(received) >= 5 {
				close(done)
			}
		}
	})
	if err := client.Start(context.Background(), loop); err != nil {
		t.Fatal(err)
	}

	client.Pl.WriteOutbound([]byte("hello"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}
	if string(received) != "hello" {
		t.Fatalf("expected echo of \"hello\", got %q", received)
	}
}
