// Package wsframe adapts hioload-ws's WebSocket frame codec and upgrade
// handshake into a pipeline.Handler, demonstrating that the core
// Channel/Pipeline abstraction generalizes past the HTTP client codec to a
// second wire protocol. The WebSocket handshake itself remains, per the
// framework's scope, an external collaborator: FrameCodec only takes over
// once a caller has already completed the HTTP Upgrade exchange.
//
// Adapted from hioload-ws's protocol/frame_codec.go (incremental decode)
// and protocol/upgrader.go (Sec-WebSocket-Accept computation).
//
// Author: adapted from hioload-ws, for reactorcore.
// License: Apache-2.0
package wsframe
