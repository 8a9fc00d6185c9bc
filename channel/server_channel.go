package channel

import (
	"net"

	"github.com/sizzo/reactorcore/control"
)

// NewServerChannel constructs a Channel whose outbound buffer is the fixed
// Discard holder and whose connect/disconnect/flush ops are the
// unsupported stubs, per spec.md §4.B's Server-Channel specialization.
// doBind and doClose are supplied by the caller (typically transport/tcp's
// listener binding), since binding to a listen address and closing a
// listening socket remain meaningful operations on a server channel.
func NewServerChannel(id int64, logger control.Logger, doBind func(local net.Addr) error, doClose func() error) *Channel {
	c := New(id, nil, logger)
	c.Outbound = Discard{}
	c.ops = unsupportedOps()
	if doBind != nil {
		c.ops.doBind = doBind
	}
	if doClose != nil {
		c.ops.doClose = doClose
	}
	return c
}
