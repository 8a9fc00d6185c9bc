package pipeline

import "github.com/sizzo/reactorcore/channel"

// HandlerContext is one handler's node in the pipeline's arena, carrying
// its directional buffers and neighbour indices rather than neighbour
// pointers (spec.md §9 design note on cyclic pipeline<->handler
// references).
type HandlerContext struct {
	pipeline *Pipeline
	index    int
	handler  Handler

	// inboundIn holds data delivered to this handler for inbound
	// processing: for index 0 this is the channel's actual inbound byte
	// holder (shared, not copied); for every other index it is a buffer
	// owned by this context that the previous inbound neighbour writes
	// into.
	inboundIn channel.BufferHolder

	// outboundIn holds data delivered to this handler for outbound
	// processing: for the last index this is the entry point for
	// application writes; for every other index it is written into by the
	// next outbound neighbour (the context closer to the tail).
	outboundIn channel.BufferHolder
}

// Handler returns the handler this context wraps.
func (ctx *HandlerContext) Handler() Handler { return ctx.handler }

// Pipeline returns the owning pipeline.
func (ctx *HandlerContext) Pipeline() *Pipeline { return ctx.pipeline }

// Channel returns the channel the owning pipeline is bound to.
func (ctx *HandlerContext) Channel() *channel.Channel { return ctx.pipeline.ch }

// InboundIn returns the buffer this handler reads from during
// HandleInbound.
func (ctx *HandlerContext) InboundIn() channel.BufferHolder { return ctx.inboundIn }

// OutboundIn returns the buffer this handler reads from during
// HandleOutbound.
func (ctx *HandlerContext) OutboundIn() channel.BufferHolder { return ctx.outboundIn }

// WriteInbound forwards data to the next inbound context's input buffer,
// or to the pipeline's application-facing sink if this context is the
// tail (spec.md §4.C: "writes decoded messages into the next inbound
// context's buffer").
func (ctx *HandlerContext) WriteInbound(data any) {
	p := ctx.pipeline
	if ctx.index+1 < len(p.arena) {
		writeInto(p.arena[ctx.index+1].inboundIn, data)
		return
	}
	p.deliverToApplication(data)
}

// FireInbound invokes the next inbound context's handler, or does nothing
// if this context is the tail (the application consumes via WriteInbound
// alone).
func (ctx *HandlerContext) FireInbound() {
	p := ctx.pipeline
	if ctx.index+1 < len(p.arena) {
		p.invokeInbound(ctx.index + 1)
	}
}

// WriteOutbound forwards data to the previous context's outbound input
// buffer, or directly into the channel's outbound byte holder if this
// context is the head (spec.md §4.C: "the final bytes land in the
// channel's outbound byte holder").
func (ctx *HandlerContext) WriteOutbound(data any) {
	p := ctx.pipeline
	if ctx.index > 0 {
		writeInto(p.arena[ctx.index-1].outboundIn, data)
		return
	}
	writeInto(p.ch.Outbound, data)
}

// FireOutbound invokes the previous context's handler, or flushes the
// channel if this context is the head.
func (ctx *HandlerContext) FireOutbound() {
	p := ctx.pipeline
	if ctx.index > 0 {
		p.invokeOutbound(ctx.index - 1)
		return
	}
	p.ch.Flush()
}

// writeInto dispatches data into h according to h's concrete kind,
// dropping it silently for a Discard holder.
func writeInto(h channel.BufferHolder, data any) {
	switch v := h.(type) {
	case *channel.ByteBuffer:
		if b, ok := data.([]byte); ok {
			v.Write(b)
		}
	case *channel.MessageQueue:
		v.Push(data)
	case channel.Discard:
	}
}
