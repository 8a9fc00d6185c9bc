package channel

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/sizzo/reactorcore/control"
	"github.com/sizzo/reactorcore/eventloop"
)

// Pipeline is the subset of the pipeline package's API a Channel needs to
// fire lifecycle events, kept as an interface here (rather than importing
// the pipeline package directly) to avoid a channel<->pipeline import
// cycle; pipeline.Pipeline satisfies this.
type Pipeline interface {
	FireChannelActive()
	FireChannelInactive()
	FireExceptionCaught(err error)
	FireUserEventTriggered(evt any)
}

// ops is the capability record backing doConnect/doDisconnect/doFlush/
// doBind/doClose, per spec.md §9's design note replacing a
// AbstractChannel/AbstractServerChannel class hierarchy with function
// pointers a constructor supplies. A regular Channel is built with ops
// pointing at a concrete transport binding (see transport/tcp); a
// ServerChannel is built with the unsupported stub ops below.
type ops struct {
	doConnect    func(remote, local net.Addr) error
	doDisconnect func() error
	doFlush      func() error
	doBind       func(local net.Addr) error
	doClose      func() error
}

func unsupportedOps() ops {
	unsupported := func() error { return ErrUnsupportedOperation }
	return ops{
		doConnect:    func(net.Addr, net.Addr) error { return ErrUnsupportedOperation },
		doDisconnect: unsupported,
		doFlush:      unsupported,
		doBind:       func(net.Addr) error { return nil },
		doClose:      func() error { return nil },
	}
}

// Channel is a bidirectional transport endpoint bound to exactly one event
// loop (spec.md §4.B).
type Channel struct {
	id     int64
	parent *Channel

	loopMu sync.Mutex
	loop   *eventloop.Loop

	localAddr  atomic.Pointer[net.Addr]
	remoteAddr atomic.Pointer[net.Addr]

	Inbound  *ByteBuffer
	Outbound BufferHolder // *ByteBuffer for a regular channel, Discard for a ServerChannel

	pipeline Pipeline
	closed   atomic.Bool
	closeTok atomic.Pointer[CompletionToken]

	ops    ops
	logger control.Logger
}

// New constructs a regular (non-server) Channel with a growable outbound
// ByteBuffer. The transport capability record is installed separately via
// SetOps, and the pipeline is attached via SetPipeline — pipeline.New does
// this at construction since Pipeline and Channel reference each other.
func New(id int64, parent *Channel, logger control.Logger) *Channel {
	if logger == nil {
		logger = control.NoOpLogger{}
	}
	return &Channel{
		id:       id,
		parent:   parent,
		Inbound:  NewByteBuffer(),
		Outbound: NewByteBuffer(),
		logger:   logger,
	}
}

// SetOps installs the transport capability record. Must be called before
// Register.
func (c *Channel) SetOps(doConnect func(remote, local net.Addr) error, doDisconnect, doFlush func() error, doBind func(local net.Addr) error, doClose func() error) {
	c.ops = ops{doConnect: doConnect, doDisconnect: doDisconnect, doFlush: doFlush, doBind: doBind, doClose: doClose}
}

// SetPipeline attaches the pipeline that receives this channel's lifecycle
// events.
func (c *Channel) SetPipeline(p Pipeline) { c.pipeline = p }

// ID returns the channel's process-wide stable identity (spec.md §4.B
// "Identity").
func (c *Channel) ID() int64 { return c.id }

// Parent returns the owning server channel, or nil for a top-level
// channel.
func (c *Channel) Parent() *Channel { return c.parent }

// Loop returns the event loop this channel is bound to, or nil before
// Register.
func (c *Channel) Loop() *eventloop.Loop {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	return c.loop
}

// RemoteAddress returns the remote address and true, or (nil, false) if
// unknown (spec.md §4.B).
func (c *Channel) RemoteAddress() (net.Addr, bool) {
	p := c.remoteAddr.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// LocalAddress returns the local address and true, or (nil, false) if
// unknown.
func (c *Channel) LocalAddress() (net.Addr, bool) {
	p := c.localAddr.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

func (c *Channel) setLocalAddress(a net.Addr)  { c.localAddr.Store(&a) }
func (c *Channel) setRemoteAddress(a net.Addr) { c.remoteAddr.Store(&a) }

// Register binds the channel to loop. One-shot: fails with
// ErrAlreadyRegistered if already bound.
func (c *Channel) Register(loop *eventloop.Loop) *CompletionToken {
	tok := NewCompletionToken()
	run := func() {
		c.loopMu.Lock()
		if c.loop != nil {
			c.loopMu.Unlock()
			tok.Complete(ErrAlreadyRegistered)
			return
		}
		c.loop = loop
		c.loopMu.Unlock()
		if c.pipeline != nil {
			c.pipeline.FireChannelActive()
		}
		tok.Complete(nil)
	}
	c.dispatch(loop, run)
	return tok
}

// Connect initiates a connection to remote from local (forbidden on a
// ServerChannel: fails the token with ErrUnsupportedOperation).
func (c *Channel) Connect(remote, local net.Addr) *CompletionToken {
	return c.runOp(func() error {
		if err := c.ops.doConnect(remote, local); err != nil {
			return err
		}
		c.setRemoteAddress(remote)
		if local != nil {
			c.setLocalAddress(local)
		}
		return nil
	})
}

// Disconnect tears down the connection (forbidden on a ServerChannel).
func (c *Channel) Disconnect() *CompletionToken {
	return c.runOp(c.ops.doDisconnect)
}

// Flush pushes the outbound buffer to the transport (forbidden on a
// ServerChannel).
func (c *Channel) Flush() *CompletionToken {
	return c.runOp(c.ops.doFlush)
}

// Bind associates local with this channel (used by server channels before
// accepting).
func (c *Channel) Bind(local net.Addr) *CompletionToken {
	return c.runOp(func() error {
		if err := c.ops.doBind(local); err != nil {
			return err
		}
		c.setLocalAddress(local)
		return nil
	})
}

// Close is idempotent and completes once the pipeline has observed the
// inactive event (spec.md §4.B).
func (c *Channel) Close() *CompletionToken {
	if existing := c.closeTok.Load(); existing != nil {
		return existing
	}
	tok := NewCompletionToken()
	if !c.closeTok.CompareAndSwap(nil, tok) {
		return c.closeTok.Load()
	}
	c.dispatch(c.Loop(), func() {
		alreadyClosed := c.closed.Swap(true)
		var err error
		if !alreadyClosed {
			err = c.ops.doClose()
			if c.pipeline != nil {
				c.pipeline.FireChannelInactive()
			}
		}
		tok.Complete(err)
	})
	return tok
}

// Closed reports whether Close has completed the channel's shutdown.
func (c *Channel) Closed() bool { return c.closed.Load() }

// runOp implements spec.md §4.B's execution discipline: inline on the loop
// thread, re-dispatched through Execute otherwise. Any error from the
// underlying op both fails the token and fires an exception-caught event
// through the pipeline; this is how ServerChannel rejections surface.
func (c *Channel) runOp(fn func() error) *CompletionToken {
	tok := NewCompletionToken()
	c.dispatch(c.Loop(), func() {
		err := fn()
		if err != nil && c.pipeline != nil {
			c.pipeline.FireExceptionCaught(err)
		}
		tok.Complete(err)
	})
	return tok
}

// dispatch runs fn inline if the caller is already on loop's worker,
// otherwise submits it via Execute.
func (c *Channel) dispatch(loop *eventloop.Loop, fn func()) {
	if loop == nil {
		fn()
		return
	}
	if loop.InEventLoop() {
		fn()
		return
	}
	if err := loop.Execute(fn); err != nil {
		c.logger.Warn("channel: dispatch rejected", "channel", c.id, "error", err)
	}
}
