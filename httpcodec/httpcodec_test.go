package httpcodec

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/sizzo/reactorcore/channel"
	"github.com/sizzo/reactorcore/pipeline"
)

func newCodecPipeline(t *testing.T, cfg Config) (*pipeline.Pipeline, *channel.Channel, *ClientCodec, *bytes.Buffer) {
	t.Helper()
	ch := channel.New(channel.NextID(), nil, nil)
	sink := &bytes.Buffer{}
	ch.SetOps(
		func(remote, local net.Addr) error { return nil },
		func() error { return nil },
		func() error {
			out := ch.Outbound.(*channel.ByteBuffer)
			sink.Write(out.Peek())
			out.Discard(out.Len())
			return nil
		},
		func(local net.Addr) error { return nil },
		func() error { return nil },
	)

	p := pipeline.New(ch, nil)
	codec := NewClientCodec(cfg)
	p.AddLast(codec)
	return p, ch, codec, sink
}

// scenario 6: HTTP CONNECT tunnel.
func TestConnectTunnel(t *testing.T) {
	p, ch, codec, sink := newCodecPipeline(t, DefaultConfig())

	p.WriteOutbound(Request{Method: MethodConnect, Target: "example.com:443"})
	if !bytes.Contains(sink.Bytes(), []byte("CONNECT example.com:443 HTTP/1.1")) {
		t.Fatalf("request not encoded: %q", sink.Bytes())
	}

	ch.Inbound.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n"))
	p.FireInboundBytesAvailable()

	if !codec.Done() {
		t.Fatal("expected codec to latch into tunnel mode")
	}

	msgs := p.TailMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 decoded response, got %d", len(msgs))
	}
	resp, ok := msgs[0].(Response)
	if !ok || resp.Status.Code != 200 {
		t.Fatalf("expected 200 response, got %#v", msgs[0])
	}

	// Subsequent bytes on the channel must emerge unparsed.
	tunnelPayload := []byte("not-http-at-all\x00\x01\x02")
	ch.Inbound.Write(tunnelPayload)
	p.FireInboundBytesAvailable()

	msgs = p.TailMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 tunnel message, got %d", len(msgs))
	}
	tb, ok := msgs[0].(TunnelBytes)
	if !ok || !bytes.Equal(tb.Data, tunnelPayload) {
		t.Fatalf("expected raw tunnel bytes %q, got %#v", tunnelPayload, msgs[0])
	}
}

// HEAD responses are treated as empty-bodied regardless of headers.
func TestHeadResponseIsEmptyBodied(t *testing.T) {
	p, ch, _, _ := newCodecPipeline(t, DefaultConfig())

	p.WriteOutbound(Request{Method: MethodHead, Target: "/"})

	ch.Inbound.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 1234\r\n\r\n"))
	p.FireInboundBytesAvailable()

	msgs := p.TailMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 decoded response, got %d", len(msgs))
	}
	resp := msgs[0].(Response)
	if !resp.BodyIsNone {
		t.Fatal("expected HEAD response to be treated as empty-bodied")
	}
	if len(resp.Body) != 0 {
		t.Fatalf("expected no body bytes consumed, got %d", len(resp.Body))
	}
}

type exceptionRecorder struct {
	pipeline.BaseHandler
	caught error
}

func (*exceptionRecorder) Name() string                    { return "exception-recorder" }
func (*exceptionRecorder) InboundKind() channel.BufferKind  { return channel.KindMessage }
func (*exceptionRecorder) OutboundKind() channel.BufferKind { return channel.KindMessage }
func (r *exceptionRecorder) ExceptionCaught(ctx *pipeline.HandlerContext, err error) {
	r.caught = err
}

// scenario 7: fail-on-missing-response.
func TestFailOnMissingResponse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailOnMissingResponse = true
	p, ch, codec, _ := newCodecPipeline(t, cfg)

	recorder := &exceptionRecorder{}
	p.AddLast(recorder)

	p.WriteOutbound(Request{Method: MethodGet, Target: "/a"})
	p.WriteOutbound(Request{Method: MethodGet, Target: "/b"})

	if got := codec.Outstanding(); got != 2 {
		t.Fatalf("expected outstanding=2, got %d", got)
	}

	tok := ch.Close()
	if err := tok.Await(context.Background()); err != nil {
		t.Fatal(err)
	}

	pce, ok := recorder.caught.(*PrematureClosureError)
	if !ok {
		t.Fatalf("expected *PrematureClosureError, got %#v", recorder.caught)
	}
	if pce.Missing != 2 {
		t.Fatalf("expected 2 missing responses, got %d", pce.Missing)
	}
	if pce.Error() != "httpcodec: premature closure: 2 missing response(s)" {
		t.Fatalf("unexpected error text: %q", pce.Error())
	}
}

// outstanding returns to zero after a normal non-chunked exchange.
func TestOutstandingZeroAfterNormalExchange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailOnMissingResponse = true
	p, ch, codec, _ := newCodecPipeline(t, cfg)

	p.WriteOutbound(Request{Method: MethodGet, Target: "/a"})
	p.WriteOutbound(Request{Method: MethodGet, Target: "/b"})

	ch.Inbound.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	ch.Inbound.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	p.FireInboundBytesAvailable()

	if got := codec.Outstanding(); got != 0 {
		t.Fatalf("expected outstanding=0 after N requests/N responses, got %d", got)
	}
}
