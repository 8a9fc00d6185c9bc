package pipeline

import "github.com/sizzo/reactorcore/channel"

// Handler processes inbound and outbound traffic for one HandlerContext.
// Each handler declares the BufferHolder kind it expects on its inbound
// and outbound side (spec.md §4.C); the pipeline enforces that declaration
// when wiring contexts together.
//
// Adapted from hioload-ws's api.Handler single-method Handle(data any)
// contract, split into directional methods and four propagated lifecycle
// callbacks per spec.md's Handler Context design.
type Handler interface {
	// Name identifies the handler for diagnostics; pipelines may use it to
	// address a handler for replacement or removal.
	Name() string

	// InboundKind is the BufferHolder kind this handler reads on its
	// inbound side.
	InboundKind() channel.BufferKind
	// OutboundKind is the BufferHolder kind this handler reads on its
	// outbound side.
	OutboundKind() channel.BufferKind

	// HandleInbound consumes from ctx's inbound buffer and forwards
	// decoded output to the next inbound context via ctx.WriteInbound +
	// ctx.FireInbound.
	HandleInbound(ctx *HandlerContext)
	// HandleOutbound consumes from ctx's outbound buffer and forwards
	// encoded output to the next outbound context via ctx.WriteOutbound +
	// ctx.FireOutbound.
	HandleOutbound(ctx *HandlerContext)

	// ChannelActive, ChannelInactive, ExceptionCaught, and
	// UserEventTriggered are the four propagated inbound events (spec.md
	// §4.C); the pipeline invokes them on every handler in chain order
	// regardless of what HandleInbound does.
	ChannelActive(ctx *HandlerContext)
	ChannelInactive(ctx *HandlerContext)
	ExceptionCaught(ctx *HandlerContext, err error)
	UserEventTriggered(ctx *HandlerContext, evt any)
}

// BaseHandler supplies pass-through defaults so a concrete handler only
// needs to override what it actually changes, matching spec.md §4.C's "a
// handler that does not override passes it through unchanged."
type BaseHandler struct{}

func (BaseHandler) ChannelActive(*HandlerContext)             {}
func (BaseHandler) ChannelInactive(*HandlerContext)            {}
func (BaseHandler) ExceptionCaught(*HandlerContext, error)     {}
func (BaseHandler) UserEventTriggered(*HandlerContext, any)    {}

// HandleInbound forwards whatever arrived unchanged to the next inbound
// context, appropriate for an observer handler that only overrides the
// lifecycle events.
func (BaseHandler) HandleInbound(ctx *HandlerContext) {
	passThroughInbound(ctx)
}

// HandleOutbound forwards whatever arrived unchanged to the next outbound
// context.
func (BaseHandler) HandleOutbound(ctx *HandlerContext) {
	passThroughOutbound(ctx)
}

func passThroughInbound(ctx *HandlerContext) {
	switch h := ctx.inboundIn.(type) {
	case *channel.ByteBuffer:
		if n := h.Len(); n > 0 {
			b := append([]byte(nil), h.Peek()...)
			h.Discard(n)
			ctx.WriteInbound(b)
			ctx.FireInbound()
		}
	case *channel.MessageQueue:
		for _, msg := range h.PopAll() {
			ctx.WriteInbound(msg)
		}
		ctx.FireInbound()
	}
}

func passThroughOutbound(ctx *HandlerContext) {
	switch h := ctx.outboundIn.(type) {
	case *channel.ByteBuffer:
		if n := h.Len(); n > 0 {
			b := append([]byte(nil), h.Peek()...)
			h.Discard(n)
			ctx.WriteOutbound(b)
			ctx.FireOutbound()
		}
	case *channel.MessageQueue:
		for _, msg := range h.PopAll() {
			ctx.WriteOutbound(msg)
		}
		ctx.FireOutbound()
	}
}
