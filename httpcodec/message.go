// Package httpcodec implements the HTTP client codec described in
// spec.md §4.D: a paired encoder/decoder sharing a method correlation
// queue, a tunnel-mode latch, and an optional outstanding-request counter
// for premature-closure detection.
//
// Grounded on the "(nil, 0, nil) = incomplete" incremental-parse
// convention in hioload-ws's protocol/frame_codec.go, generalized here to
// HTTP/1.1 response parsing via net/textproto (the ecosystem-idiomatic
// incremental MIME header reader) rather than reimplementing a header
// scanner by hand.
//
// Author: adapted from hioload-ws, for reactorcore.
// License: Apache-2.0
package httpcodec

import "strings"

// Method is an HTTP request method, matching spec.md §6's HttpMethod value
// type.
type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodPatch   Method = "PATCH"
	MethodTrace   Method = "TRACE"
)

// Request is an outbound HTTP request the encoder consumes. Chunked
// requests are represented as a Request with Chunked=true followed by one
// or more Chunk values, the last carrying Last=true.
type Request struct {
	Method  Method
	Target  string
	Proto   string // e.g. "HTTP/1.1"; defaults applied by the encoder if empty
	Headers map[string][]string
	Body    []byte // ignored when Chunked is true
	Chunked bool
}

// IsChunked reports whether this request's body arrives as a separate
// Chunk sequence, mirroring spec.md §6's HttpMessage.isChunked().
func (r Request) IsChunked() bool { return r.Chunked }

// Chunk is one piece of a chunked request or response body.
type Chunk struct {
	Data []byte
	Last bool
}

// IsLast mirrors spec.md §6's HttpChunk.isLast().
func (c Chunk) IsLast() bool { return c.Last }

// Status is an HTTP response status line's code and reason.
type Status struct {
	Code   int
	Reason string
}

// Response is an inbound HTTP response the decoder produces.
type Response struct {
	Proto      string
	Status     Status
	Headers    map[string][]string
	Body       []byte
	BodyIsNone bool // true when isContentAlwaysEmpty decided this response has no body
}

// GetStatus mirrors spec.md §6's HttpResponse.getStatus().getCode().
func (r Response) GetStatus() Status { return r.Status }

// HeaderValue returns the first value of the named header, case
// insensitively, or "" if absent.
func (r Response) HeaderValue(name string) string {
	for k, vs := range r.Headers {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// TunnelBytes is the opaque byte message the decoder emits once in tunnel
// mode (spec.md §4.D: "all subsequent bytes on the channel emerge as
// opaque byte buffers").
type TunnelBytes struct {
	Data []byte
}
