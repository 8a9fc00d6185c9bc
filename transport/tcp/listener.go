package tcp

import (
	"context"
	"net"

	"github.com/sizzo/reactorcore/affinity"
	"github.com/sizzo/reactorcore/control"
	"github.com/sizzo/reactorcore/eventloop"
)

// ListenerConfig configures a Listener. AcceptCPU optionally pins the
// accept goroutine to a CPU, mirroring hioload-ws's listener.go affinity
// hook.
type ListenerConfig struct {
	Addr      string
	AcceptCPU int // < 0 disables pinning
	Logger    control.Logger

	// NewPipeline is invoked once per accepted connection, after the
	// Binding's Channel and Pipeline exist but before Start registers it
	// on loop, so the caller can AddLast its handlers.
	NewPipeline func(b *Binding)

	// Loop selects which event loop the accepted channel registers on.
	// Called once per accepted connection to support round-robin across
	// a pool of loops.
	Loop func() *eventloop.Loop
}

// Listener runs a TCP accept loop, handing each accepted connection to
// the configured pipeline factory.
type Listener struct {
	cfg ListenerConfig
	ln  net.Listener
}

// Listen opens cfg.Addr and returns a Listener ready to Serve.
func Listen(cfg ListenerConfig) (*Listener, error) {
	if cfg.Logger == nil {
		cfg.Logger = control.NoOpLogger{}
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	return &Listener{cfg: cfg, ln: ln}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Serve runs the accept loop until ctx is cancelled or Close is called.
// Each accepted connection becomes a Binding registered on a loop drawn
// from cfg.Loop, with handlers installed via cfg.NewPipeline.
func (l *Listener) Serve(ctx context.Context) error {
	if l.cfg.AcceptCPU >= 0 {
		if err := affinity.SetAffinity(l.cfg.AcceptCPU); err != nil {
			l.cfg.Logger.Warn("tcp: accept loop affinity pin failed", "cpu", l.cfg.AcceptCPU, "error", err)
		}
	}

	go func() {
		<-ctx.Done()
		l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				l.cfg.Logger.Warn("tcp: accept error", "error", err)
				return err
			}
		}
		go l.handle(ctx, conn)
	}
}

func (l *Listener) handle(ctx context.Context, conn net.Conn) {
	b := NewBinding(conn, l.cfg.Logger)
	if l.cfg.NewPipeline != nil {
		l.cfg.NewPipeline(b)
	}
	target := l.cfg.Loop()
	if err := b.Start(ctx, target); err != nil {
		l.cfg.Logger.Warn("tcp: accepted connection failed to register", "error", err)
		conn.Close()
	}
}
