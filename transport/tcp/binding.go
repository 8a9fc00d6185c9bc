package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sizzo/reactorcore/channel"
	"github.com/sizzo/reactorcore/control"
	"github.com/sizzo/reactorcore/eventloop"
	"github.com/sizzo/reactorcore/pipeline"
	"github.com/sizzo/reactorcore/pool"
)

// readBufferSize is the chunk size Binding reads from the socket per
// Read call; hioload-ws's transport/netconn.go left this to the caller,
// this package fixes it so the pooled buffer size is constant.
const readBufferSize = 64 * 1024

// bufPool backs every Binding's read buffer. NUMA placement is disabled
// (useNUMA=false), so each GetBuffer is a plain allocation; the pool
// package is still built with its platform NUMA allocator (cgo and
// libnuma on Linux). BytePool's own NUMA path remains available to
// callers who want it elsewhere.
var bufPool = pool.NewBytePool(readBufferSize, -1, false)

// Binding couples a net.Conn to a channel.Channel: it installs the
// connect/disconnect/flush/bind/close capability record (channel.Channel's
// ops) and runs the blocking read loop that feeds the channel's inbound
// buffer.
type Binding struct {
	conn   net.Conn
	Ch     *channel.Channel
	Pl     *pipeline.Pipeline
	logger control.Logger

	closeOnce sync.Once
}

// NewBinding wraps an already-established conn. The caller is expected to
// build out the pipeline (p.AddLast(...)) before calling Start.
func NewBinding(conn net.Conn, logger control.Logger) *Binding {
	if logger == nil {
		logger = control.NoOpLogger{}
	}
	b := &Binding{conn: conn, logger: logger}
	b.Ch = channel.New(channel.NextID(), nil, logger)
	b.Ch.SetOps(b.doConnect, b.doDisconnect, b.doFlush, b.doBind, b.doClose)
	b.Pl = pipeline.New(b.Ch, logger)
	return b
}

// Dial opens a new TCP connection and wraps it in a Binding.
func Dial(ctx context.Context, network, addr string, logger control.Logger) (*Binding, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("tcp: dial %s %s: %w", network, addr, err)
	}
	return NewBinding(conn, logger), nil
}

// Start registers the channel on loop, waits for registration to
// complete (so ChannelActive has fired), then launches the read
// goroutine. Start does not record the connection's local or remote
// address on the channel.
func (b *Binding) Start(ctx context.Context, loop *eventloop.Loop) error {
	tok := b.Ch.Register(loop)
	if err := tok.Await(ctx); err != nil {
		return err
	}
	go b.readLoop(loop)
	return nil
}

// readLoop blocks on conn.Read and, for every chunk read, dispatches the
// inbound-bytes-available notification onto loop's worker so handlers
// always run on the channel's single owning thread (spec.md §4.B, §5).
func (b *Binding) readLoop(loop *eventloop.Loop) {
	buf := bufPool.GetBuffer()
	defer bufPool.PutBuffer(buf)
	for {
		n, err := b.conn.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if execErr := loop.Execute(func() {
				b.Ch.Inbound.Write(chunk)
				b.Pl.FireInboundBytesAvailable()
			}); execErr != nil {
				b.logger.Warn("tcp: dropped inbound chunk, loop rejected execution", "channel", b.Ch.ID(), "error", execErr)
				return
			}
		}
		if err != nil {
			b.Ch.Close()
			return
		}
	}
}

func (b *Binding) doConnect(remote, local net.Addr) error {
	// The connection is already established by Dial; doConnect only
	// validates that the requested remote matches what was dialed.
	if remote != nil && b.conn.RemoteAddr() != nil && remote.String() != b.conn.RemoteAddr().String() {
		return fmt.Errorf("tcp: channel bound to %s, not %s", b.conn.RemoteAddr(), remote)
	}
	return nil
}

func (b *Binding) doDisconnect() error {
	return b.conn.Close()
}

func (b *Binding) doFlush() error {
	out, ok := b.Ch.Outbound.(*channel.ByteBuffer)
	if !ok {
		return nil
	}
	n := out.Len()
	if n == 0 {
		return nil
	}
	data := out.Peek()
	if _, err := b.conn.Write(data); err != nil {
		return fmt.Errorf("tcp: write: %w", err)
	}
	out.Discard(n)
	return nil
}

func (b *Binding) doBind(local net.Addr) error {
	// A client-side Binding wraps an already-connected socket; binding a
	// local address after the fact is not meaningful here.
	return nil
}

func (b *Binding) doClose() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.conn.Close()
	})
	return err
}
