// Package httpcodec pairs an HTTP/1.1 request encoder and response
// decoder into a single pipeline.Handler that correlates outbound request
// methods with inbound responses, disambiguates HEAD and CONNECT-tunnel
// bodies, and optionally detects premature channel closure against
// outstanding requests (spec.md §4.D).
package httpcodec
