package httpcodec

import (
	"github.com/sizzo/reactorcore/channel"
	"github.com/sizzo/reactorcore/internal/taskqueue"
	"github.com/sizzo/reactorcore/pipeline"
)

// Config holds the ClientCodec's tunables, matching spec.md §6's exposed
// constructor knobs.
type Config struct {
	MaxInitialLineLength  int
	MaxHeaderSize         int
	MaxChunkSize          int
	FailOnMissingResponse bool
}

// DefaultConfig returns spec.md §6's documented defaults:
// maxInitialLineLength=4096, maxHeaderSize=8192, maxChunkSize=8192,
// failOnMissingResponse=false.
func DefaultConfig() Config {
	return Config{
		MaxInitialLineLength:  4096,
		MaxHeaderSize:         8192,
		MaxChunkSize:          8192,
	}
}

type bodyMode int

const (
	bodyNone bodyMode = iota
	bodyFixed
	bodyChunked
)

// ClientCodec is the paired encoder/decoder handler described in spec.md
// §4.D: outbound Request/Chunk values are encoded and correlated by
// method; inbound bytes are decoded into Response values, with HEAD,
// CONNECT-tunnel, and premature-closure handling layered over a plain
// HTTP/1.1 decoder.
//
// ClientCodec implements pipeline.Handler directly: its inbound kind is
// bytes (it reads from the channel's raw inbound holder) and its outbound
// kind is message (it reads Request/Chunk values written by the
// application).
type ClientCodec struct {
	pipeline.BaseHandler

	cfg     Config
	decoder *ResponseDecoder
	encoder *RequestEncoder

	methods *taskqueue.Queue[Method]
	done    bool // latched true after a 200 response to CONNECT
	outstanding int

	pendingResp *pendingResponse
}

type pendingResponse struct {
	resp        *Response
	alwaysEmpty bool
	mode        bodyMode
	length      int
}

// NewClientCodec constructs a ClientCodec with cfg's tunables.
func NewClientCodec(cfg Config) *ClientCodec {
	return &ClientCodec{
		cfg:     cfg,
		decoder: NewResponseDecoder(cfg.MaxInitialLineLength, cfg.MaxHeaderSize, cfg.MaxChunkSize),
		encoder: NewRequestEncoder(),
		methods: taskqueue.New[Method](),
	}
}

func (*ClientCodec) Name() string                    { return "http-client-codec" }
func (*ClientCodec) InboundKind() channel.BufferKind  { return channel.KindBytes }
func (*ClientCodec) OutboundKind() channel.BufferKind { return channel.KindMessage }

// HandleOutbound implements the encoder contract (spec.md §4.D).
func (c *ClientCodec) HandleOutbound(ctx *pipeline.HandlerContext) {
	mq, ok := ctx.OutboundIn().(*channel.MessageQueue)
	if !ok {
		return
	}
	for _, m := range mq.PopAll() {
		switch v := m.(type) {
		case Request:
			if !c.done {
				c.methods.Push(v.Method)
			}
			ctx.WriteOutbound(c.encoder.EncodeRequest(v))
			if c.cfg.FailOnMissingResponse && !v.Chunked {
				c.outstanding++
			}
		case Chunk:
			ctx.WriteOutbound(c.encoder.EncodeChunk(v))
			if c.cfg.FailOnMissingResponse && v.Last {
				c.outstanding++
			}
		default:
			// Unknown outbound message kinds pass through unchanged.
			ctx.WriteOutbound(m)
		}
	}
	ctx.FireOutbound()
}

// HandleInbound implements the decoder contract (spec.md §4.D), including
// tunnel pass-through once done is latched.
func (c *ClientCodec) HandleInbound(ctx *pipeline.HandlerContext) {
	buf, ok := ctx.InboundIn().(*channel.ByteBuffer)
	if !ok {
		return
	}

	if c.done {
		if n := buf.Len(); n > 0 {
			data := append([]byte(nil), buf.Peek()...)
			buf.Discard(n)
			ctx.WriteInbound(TunnelBytes{Data: data})
			ctx.FireInbound()
		}
		return
	}

	for {
		progressed, err := c.decodeOne(ctx, buf)
		if err != nil {
			ctx.Pipeline().FireExceptionCaught(err)
			return
		}
		if !progressed {
			return
		}
		if c.done {
			// CONNECT tunnel just latched; any bytes still buffered after
			// the response headers belong to the tunnel, not HTTP framing.
			c.HandleInbound(ctx)
			return
		}
	}
}

// decodeOne attempts to make one unit of forward progress: either parsing
// response headers, or completing a pending body. Returns (false, nil)
// when more bytes are needed (the "(nil, 0, nil) = incomplete" case).
func (c *ClientCodec) decodeOne(ctx *pipeline.HandlerContext, buf *channel.ByteBuffer) (bool, error) {
	if c.pendingResp == nil {
		resp, consumed, err := c.decoder.DecodeHeaders(buf.Peek())
		if err != nil {
			return false, err
		}
		if resp == nil {
			return false, nil
		}
		buf.Discard(consumed)

		alwaysEmpty, method, err := c.isContentAlwaysEmpty(resp)
		if err != nil {
			return false, err
		}
		mode, length := bodyNone, 0
		if !alwaysEmpty {
			switch {
			case isChunkedTransferEncoding(resp):
				mode = bodyChunked
			default:
				if cl := contentLength(resp); cl >= 0 {
					mode = bodyFixed
					length = cl
				}
			}
		}
		resp.BodyIsNone = alwaysEmpty
		c.pendingResp = &pendingResponse{resp: resp, alwaysEmpty: alwaysEmpty, mode: mode, length: length}
		_ = method
		if mode == bodyNone {
			c.completeResponse(ctx)
		}
		return true, nil
	}

	pr := c.pendingResp
	switch pr.mode {
	case bodyFixed:
		body, consumed, err := c.decoder.DecodeFixedBody(buf.Peek(), pr.length)
		if err != nil {
			return false, err
		}
		if body == nil {
			return false, nil
		}
		buf.Discard(consumed)
		pr.resp.Body = body
		c.completeResponse(ctx)
		return true, nil
	case bodyChunked:
		body, consumed, err := c.decoder.DecodeChunkedBody(buf.Peek())
		if err != nil {
			return false, err
		}
		if body == nil && consumed == 0 {
			return false, nil
		}
		buf.Discard(consumed)
		pr.resp.Body = body
		c.completeResponse(ctx)
		return true, nil
	default:
		c.completeResponse(ctx)
		return true, nil
	}
}

// completeResponse emits the decoded response downstream and, if
// fail-on-missing-response is enabled, decrements outstanding. The
// underlying decoder here reifies end-of-response as the returned
// *Response itself rather than a separate terminal token, so this single
// completion point plays the role of all three decrement cases in
// spec.md §4.D's decoder contract (non-chunked message, last chunk, and
// terminal aggregated token); see DESIGN.md for that resolved open
// question.
func (c *ClientCodec) completeResponse(ctx *pipeline.HandlerContext) {
	pr := c.pendingResp
	c.pendingResp = nil
	if c.cfg.FailOnMissingResponse {
		c.outstanding--
	}
	ctx.WriteInbound(*pr.resp)
	ctx.FireInbound()
}

// isContentAlwaysEmpty implements spec.md §4.D's body-presence policy in
// order: 100 Continue, HEAD, CONNECT+200 tunnel latch, then the
// underlying decoder's default heuristic.
func (c *ClientCodec) isContentAlwaysEmpty(resp *Response) (alwaysEmpty bool, method Method, err error) {
	if resp.Status.Code == 100 {
		return true, "", nil
	}

	m, ok := c.methods.Pop()
	if !ok {
		return false, "", &DecodingError{Cause: errNoCorrelatedRequest}
	}

	if m == MethodHead {
		return true, m, nil
	}
	if m == MethodConnect && resp.Status.Code == 200 {
		c.done = true
		c.methods.Clear()
		return true, m, nil
	}
	return c.decoder.DefaultContentAlwaysEmpty(resp), m, nil
}

// ChannelInactive detects premature closure: if fail-on-missing-response
// is enabled and requests remain unanswered when the channel goes
// inactive, a PrematureClosureError is fired through the inbound pipeline
// naming the count of missing responses (spec.md §4.D, §7, §8 scenario 7).
func (c *ClientCodec) ChannelInactive(ctx *pipeline.HandlerContext) {
	if c.cfg.FailOnMissingResponse && c.outstanding > 0 {
		ctx.Pipeline().FireExceptionCaught(&PrematureClosureError{Missing: c.outstanding})
	}
}

// Outstanding returns the current value of the request/response counter
// (spec.md §3's Request/Response Counter), for tests and diagnostics.
func (c *ClientCodec) Outstanding() int { return c.outstanding }

// Done reports whether the codec has latched into tunnel mode.
func (c *ClientCodec) Done() bool { return c.done }
