package httpcodec

import (
	"bytes"
	"fmt"
	"strings"
)

// RequestEncoder serializes outbound Request/Chunk values into HTTP/1.1
// wire bytes, standing in for spec.md §6's "underlying HttpRequestEncoder".
type RequestEncoder struct{}

// NewRequestEncoder returns a stateless RequestEncoder.
func NewRequestEncoder() *RequestEncoder { return &RequestEncoder{} }

// EncodeRequest serializes req's request line and headers, and its body
// when not chunked (chunked request bodies arrive as separate Chunk
// values via EncodeChunk).
func (e *RequestEncoder) EncodeRequest(req Request) []byte {
	proto := req.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s %s\r\n", req.Method, req.Target, proto)

	wroteContentLength := false
	wroteTransferEncoding := false
	for name, values := range req.Headers {
		for _, v := range values {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, v)
		}
		switch {
		case strings.EqualFold(name, "Content-Length"):
			wroteContentLength = true
		case strings.EqualFold(name, "Transfer-Encoding"):
			wroteTransferEncoding = true
		}
	}
	if req.Chunked && !wroteTransferEncoding {
		buf.WriteString("Transfer-Encoding: chunked\r\n")
	} else if !req.Chunked && !wroteContentLength {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(req.Body))
	}
	buf.WriteString("\r\n")
	if !req.Chunked {
		buf.Write(req.Body)
	}
	return buf.Bytes()
}

// EncodeChunk serializes one chunked-transfer-encoding body chunk.
func (e *RequestEncoder) EncodeChunk(c Chunk) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%x\r\n", len(c.Data))
	buf.Write(c.Data)
	buf.WriteString("\r\n")
	if c.Last {
		buf.WriteString("0\r\n\r\n")
	}
	return buf.Bytes()
}
