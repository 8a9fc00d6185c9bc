package httpcodec

import (
	"bufio"
	"bytes"
	"fmt"
	"net/textproto"
	"strconv"
	"strings"
)

// ResponseDecoder incrementally parses HTTP/1.1 responses out of a byte
// stream, standing in for spec.md §6's "underlying HttpResponseDecoder".
// Every Decode* method follows the "(nil, 0, nil) = incomplete, wait for
// more bytes" convention hioload-ws's protocol/frame_codec.go uses for
// WebSocket frames, generalized here to HTTP/1.1 header and body framing.
type ResponseDecoder struct {
	maxInitialLineLength int
	maxHeaderSize        int
	maxChunkSize         int
}

// NewResponseDecoder returns a decoder enforcing the given limits, the
// same tunables spec.md §6 names: maxInitialLineLength=4096,
// maxHeaderSize=8192, maxChunkSize=8192 are the package defaults used by
// NewClientCodec.
func NewResponseDecoder(maxInitialLineLength, maxHeaderSize, maxChunkSize int) *ResponseDecoder {
	return &ResponseDecoder{
		maxInitialLineLength: maxInitialLineLength,
		maxHeaderSize:        maxHeaderSize,
		maxChunkSize:         maxChunkSize,
	}
}

// DecodeHeaders looks for a complete status-line+headers block (terminated
// by a blank line) in buffered. Returns (nil, 0, nil) if the block is not
// yet fully buffered.
func (d *ResponseDecoder) DecodeHeaders(buffered []byte) (*Response, int, error) {
	idx := bytes.Index(buffered, []byte("\r\n\r\n"))
	if idx < 0 {
		if len(buffered) > d.maxInitialLineLength+d.maxHeaderSize {
			return nil, 0, &DecodingError{Cause: fmt.Errorf("headers exceed %d bytes without terminator", d.maxInitialLineLength+d.maxHeaderSize)}
		}
		return nil, 0, nil
	}
	headerBlock := buffered[:idx+4]

	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(headerBlock)))
	statusLine, err := tp.ReadLine()
	if err != nil {
		return nil, 0, &DecodingError{Cause: err}
	}
	if len(statusLine) > d.maxInitialLineLength {
		return nil, 0, &DecodingError{Cause: fmt.Errorf("status line exceeds %d bytes", d.maxInitialLineLength)}
	}
	proto, status, err := parseStatusLine(statusLine)
	if err != nil {
		return nil, 0, &DecodingError{Cause: err}
	}

	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil && len(mimeHeader) == 0 {
		return nil, 0, &DecodingError{Cause: err}
	}
	headers := map[string][]string(mimeHeader)

	resp := &Response{Proto: proto, Status: status, Headers: headers}
	return resp, idx + 4, nil
}

func parseStatusLine(line string) (proto string, status Status, err error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return "", Status{}, fmt.Errorf("malformed status line %q", line)
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", Status{}, fmt.Errorf("malformed status code in %q: %w", line, err)
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}
	return parts[0], Status{Code: code, Reason: reason}, nil
}

// DefaultContentAlwaysEmpty is the underlying decoder's own
// isContentAlwaysEmpty heuristic, used as the policy's step 5 fallback
// once the codec's HEAD/CONNECT/100-Continue overrides don't apply
// (spec.md §4.D).
func (d *ResponseDecoder) DefaultContentAlwaysEmpty(resp *Response) bool {
	code := resp.Status.Code
	if code >= 100 && code < 200 {
		return true
	}
	return code == 204 || code == 304
}

// isChunkedTransferEncoding reports whether the response declares
// "Transfer-Encoding: chunked".
func isChunkedTransferEncoding(resp *Response) bool {
	for _, v := range resp.Headers["Transfer-Encoding"] {
		if strings.EqualFold(strings.TrimSpace(v), "chunked") {
			return true
		}
	}
	return false
}

// contentLength returns the parsed Content-Length header value, or -1 if
// absent or malformed.
func contentLength(resp *Response) int {
	v := resp.HeaderValue("Content-Length")
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// DecodeFixedBody waits for exactly length bytes of buffered body data.
// Returns (nil, 0, nil) if not yet fully buffered.
func (d *ResponseDecoder) DecodeFixedBody(buffered []byte, length int) ([]byte, int, error) {
	if len(buffered) < length {
		return nil, 0, nil
	}
	body := make([]byte, length)
	copy(body, buffered[:length])
	return body, length, nil
}

// DecodeChunkedBody incrementally parses one chunked-transfer-encoding
// body out of buffered, returning the fully reassembled body once the
// terminating zero-length chunk and trailing CRLF are seen. Returns
// (nil, 0, nil) while more chunks are still arriving.
func (d *ResponseDecoder) DecodeChunkedBody(buffered []byte) ([]byte, int, error) {
	var body []byte
	pos := 0
	for {
		lineEnd := bytes.Index(buffered[pos:], []byte("\r\n"))
		if lineEnd < 0 {
			return nil, 0, nil
		}
		sizeLine := string(buffered[pos : pos+lineEnd])
		if semi := strings.IndexByte(sizeLine, ';'); semi >= 0 {
			sizeLine = sizeLine[:semi]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeLine), 16, 64)
		if err != nil {
			return nil, 0, &DecodingError{Cause: fmt.Errorf("malformed chunk size %q: %w", sizeLine, err)}
		}
		if size > int64(d.maxChunkSize) {
			return nil, 0, &DecodingError{Cause: fmt.Errorf("chunk size %d exceeds limit %d", size, d.maxChunkSize)}
		}
		chunkStart := pos + lineEnd + 2
		chunkEnd := chunkStart + int(size)
		if len(buffered) < chunkEnd+2 {
			return nil, 0, nil
		}
		if size == 0 {
			// Trailing headers (if any) are not surfaced; consume through
			// the final CRLF.
			return body, chunkEnd + 2, nil
		}
		body = append(body, buffered[chunkStart:chunkEnd]...)
		pos = chunkEnd + 2
	}
}
