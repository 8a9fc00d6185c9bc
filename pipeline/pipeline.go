package pipeline

import (
	"sync"

	"github.com/sizzo/reactorcore/channel"
	"github.com/sizzo/reactorcore/control"
)

// Pipeline is the ordered chain of handlers processing inbound and
// outbound traffic for one channel.Channel (spec.md §4.C). It owns an
// arena of HandlerContext values; contexts address their neighbours by
// index into this arena.
type Pipeline struct {
	mu    sync.Mutex
	ch    *channel.Channel
	arena []*HandlerContext

	onMessage  func(any)
	appInbound *channel.MessageQueue

	logger control.Logger
}

// New creates a Pipeline bound to ch with an empty handler chain. It also
// attaches itself to ch via SetPipeline, so ch's lifecycle events reach
// this pipeline.
func New(ch *channel.Channel, logger control.Logger) *Pipeline {
	if logger == nil {
		logger = control.NoOpLogger{}
	}
	p := &Pipeline{
		ch:         ch,
		appInbound: channel.NewMessageQueue(),
		logger:     logger,
	}
	ch.SetPipeline(p)
	return p
}

// OnMessage registers a callback invoked for every message that reaches
// the tail of the inbound chain (the application-facing sink). When unset,
// such messages accumulate in TailMessages instead.
func (p *Pipeline) OnMessage(fn func(any)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onMessage = fn
}

// TailMessages drains and returns every message the inbound chain has
// delivered to the application sink since the last call, in arrival order.
func (p *Pipeline) TailMessages() []any {
	return p.appInbound.PopAll()
}

// AddLast appends handler to the tail of the chain. The new context's
// inbound input buffer is freshly allocated per the handler's declared
// InboundKind (or, for the very first handler added, aliases the
// channel's actual inbound byte holder per spec.md §4.C: "when new bytes
// arrive in the channel's inbound byte holder, the head context is
// notified"). Its outbound input buffer is always freshly allocated,
// since the tail context's outbound buffer is the application write
// entry point.
func (p *Pipeline) AddLast(handler Handler) *HandlerContext {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := len(p.arena)
	ctx := &HandlerContext{pipeline: p, index: idx, handler: handler}

	if idx == 0 {
		channel.AssertKind(p.ch.Inbound, handler.InboundKind())
		ctx.inboundIn = p.ch.Inbound
	} else {
		ctx.inboundIn = newHolder(handler.InboundKind())
	}
	ctx.outboundIn = newHolder(handler.OutboundKind())

	p.arena = append(p.arena, ctx)
	return ctx
}

func newHolder(kind channel.BufferKind) channel.BufferHolder {
	switch kind {
	case channel.KindMessage:
		return channel.NewMessageQueue()
	default:
		return channel.NewByteBuffer()
	}
}

// Len returns the number of handlers installed.
func (p *Pipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.arena)
}

func (p *Pipeline) deliverToApplication(data any) {
	p.mu.Lock()
	cb := p.onMessage
	p.mu.Unlock()
	if cb != nil {
		cb(data)
		return
	}
	p.appInbound.Push(data)
}

func (p *Pipeline) invokeInbound(i int) {
	ctx := p.arena[i]
	p.safeRun(func() { ctx.handler.HandleInbound(ctx) }, ctx)
}

func (p *Pipeline) invokeOutbound(i int) {
	ctx := p.arena[i]
	p.safeRun(func() { ctx.handler.HandleOutbound(ctx) }, ctx)
}

// FireInboundBytesAvailable notifies the head context that new bytes have
// arrived in the channel's inbound byte holder (spec.md §4.C).
func (p *Pipeline) FireInboundBytesAvailable() {
	p.mu.Lock()
	n := len(p.arena)
	p.mu.Unlock()
	if n == 0 {
		return
	}
	p.invokeInbound(0)
}

// WriteOutbound is the application's entry point: msg enters the tail
// context's outbound input buffer and the outbound chain fires from tail
// to head (spec.md §4.C).
func (p *Pipeline) WriteOutbound(msg any) {
	p.mu.Lock()
	n := len(p.arena)
	p.mu.Unlock()
	if n == 0 {
		writeInto(p.ch.Outbound, msg)
		return
	}
	tail := p.arena[n-1]
	writeInto(tail.outboundIn, msg)
	p.invokeOutbound(n - 1)
}

// FireChannelActive, FireChannelInactive, FireExceptionCaught, and
// FireUserEventTriggered walk the chain head-to-tail exactly once,
// satisfying channel.Pipeline and spec.md §4.C's four propagated inbound
// events.
func (p *Pipeline) FireChannelActive() {
	p.walk(func(ctx *HandlerContext) { ctx.handler.ChannelActive(ctx) })
}

func (p *Pipeline) FireChannelInactive() {
	p.walk(func(ctx *HandlerContext) { ctx.handler.ChannelInactive(ctx) })
}

func (p *Pipeline) FireExceptionCaught(err error) {
	p.walk(func(ctx *HandlerContext) { ctx.handler.ExceptionCaught(ctx, err) })
}

func (p *Pipeline) FireUserEventTriggered(evt any) {
	p.walk(func(ctx *HandlerContext) { ctx.handler.UserEventTriggered(ctx, evt) })
}

func (p *Pipeline) walk(fn func(*HandlerContext)) {
	p.mu.Lock()
	arena := append([]*HandlerContext(nil), p.arena...)
	p.mu.Unlock()
	for _, ctx := range arena {
		p.safeRun(func() { fn(ctx) }, ctx)
	}
}

// safeRun recovers a panicking handler callback and logs it, rather than
// letting it escape onto the event loop's worker goroutine. The recovered
// panic is not fired through the pipeline as an exception-caught event;
// only errors a handler passes to FireExceptionCaught itself reach the
// other handlers.
func (p *Pipeline) safeRun(fn func(), ctx *HandlerContext) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline: handler panicked", "handler", ctx.handler.Name(), "recovered", r)
		}
	}()
	fn()
}
