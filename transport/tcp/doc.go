// Package tcp binds channel.Channel to real net.Conn sockets: Binding
// drives a blocking read goroutine that feeds bytes into a channel's
// inbound buffer and fires the pipeline, and wires doFlush/doClose/doBind
// to the underlying connection. Listener adapts the accept loop to spawn
// one Binding (and caller-supplied pipeline) per accepted connection.
//
// Adapted from hioload-ws's transport/tcp/listener.go (accept loop, CPU
// affinity on the accept goroutine) and transport/netconn.go (pool-backed
// Read/Write), generalized from raw WebSocket framing to the
// Channel/Pipeline abstraction.
//
// Author: adapted from hioload-ws, for reactorcore.
// License: Apache-2.0
package tcp
