package wsframe

import (
	"encoding/binary"
	"errors"

	"github.com/sizzo/reactorcore/channel"
	"github.com/sizzo/reactorcore/pipeline"
)

var errFrameTooLarge = errors.New("wsframe: frame payload exceeds maximum allowed size")

// FrameCodec is a pipeline.Handler pairing an incremental WebSocket frame
// decoder with a frame encoder, grounded on hioload-ws's
// protocol/frame_codec.go. Mask is applied when this codec sits on a
// client-side channel (Go clients must mask outbound frames per RFC 6455
// §5.1); a server-side codec is constructed with Mask=false.
type FrameCodec struct {
	pipeline.BaseHandler
	Mask bool
}

// NewFrameCodec returns a codec. mask controls whether outbound frames are
// masked (true for a WebSocket client, false for a server).
func NewFrameCodec(mask bool) *FrameCodec {
	return &FrameCodec{Mask: mask}
}

func (*FrameCodec) Name() string                    { return "ws-frame-codec" }
func (*FrameCodec) InboundKind() channel.BufferKind  { return channel.KindBytes }
func (*FrameCodec) OutboundKind() channel.BufferKind { return channel.KindMessage }

// HandleInbound repeatedly decodes frames out of the buffered bytes,
// following the "(nil, 0, nil) = incomplete" convention decodeFrame shares
// with httpcodec's ResponseDecoder.
func (c *FrameCodec) HandleInbound(ctx *pipeline.HandlerContext) {
	buf, ok := ctx.InboundIn().(*channel.ByteBuffer)
	if !ok {
		return
	}
	for {
		frame, consumed, err := decodeFrame(buf.Peek())
		if err != nil {
			ctx.Pipeline().FireExceptionCaught(err)
			return
		}
		if frame == nil {
			return
		}
		buf.Discard(consumed)
		ctx.WriteInbound(*frame)
		ctx.FireInbound()
	}
}

// HandleOutbound encodes every Frame value written by the application (or
// upstream handler) and forwards the encoded bytes.
func (c *FrameCodec) HandleOutbound(ctx *pipeline.HandlerContext) {
	mq, ok := ctx.OutboundIn().(*channel.MessageQueue)
	if !ok {
		return
	}
	for _, m := range mq.PopAll() {
		f, ok := m.(Frame)
		if !ok {
			continue
		}
		encoded, err := encodeFrame(f, c.Mask)
		if err != nil {
			ctx.Pipeline().FireExceptionCaught(err)
			continue
		}
		ctx.WriteOutbound(encoded)
	}
	ctx.FireOutbound()
}

// decodeFrame parses one WebSocket frame from raw. Returns (nil, 0, nil)
// if raw does not yet hold a complete frame.
func decodeFrame(raw []byte) (*Frame, int, error) {
	if len(raw) < 2 {
		return nil, 0, nil
	}
	fin := raw[0]&0x80 != 0
	opcode := Opcode(raw[0] & 0x0F)
	masked := raw[1]&0x80 != 0
	length := int64(raw[1] & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint64(raw[offset:]))
		offset += 8
	}
	if length > MaxFramePayload {
		return nil, 0, errFrameTooLarge
	}

	var maskKey [4]byte
	if masked {
		if len(raw) < offset+4 {
			return nil, 0, nil
		}
		copy(maskKey[:], raw[offset:offset+4])
		offset += 4
	}

	total := offset + int(length)
	if len(raw) < total {
		return nil, 0, nil
	}

	payload := make([]byte, length)
	copy(payload, raw[offset:total])
	if masked {
		for i := range payload {
			payload[i] ^= maskKey[i%4]
		}
	}

	return &Frame{
		Final:   fin,
		Opcode:  opcode,
		Masked:  masked,
		MaskKey: maskKey,
		Payload: payload,
	}, total, nil
}

// encodeFrame serializes f, masking with a fixed key if mask is set. A
// fixed key is acceptable here because frame masking exists to defeat
// proxy cache poisoning, not for confidentiality (RFC 6455 §10.3).
func encodeFrame(f Frame, mask bool) ([]byte, error) {
	plen := len(f.Payload)
	if plen > MaxFramePayload {
		return nil, errFrameTooLarge
	}

	var b0 byte
	if f.Final {
		b0 = 0x80
	}
	b0 |= byte(f.Opcode) & 0x0F

	var hdr [10]byte
	var header []byte
	switch {
	case plen <= 125:
		header = hdr[:2]
		header[0] = b0
		header[1] = byte(plen)
	case plen <= 0xFFFF:
		header = hdr[:4]
		header[0] = b0
		header[1] = 126
		binary.BigEndian.PutUint16(header[2:], uint16(plen))
	default:
		header = hdr[:10]
		header[0] = b0
		header[1] = 127
		binary.BigEndian.PutUint64(header[2:], uint64(plen))
	}
	if mask {
		header[1] |= 0x80
	}

	out := append([]byte(nil), header...)
	if !mask {
		out = append(out, f.Payload...)
		return out, nil
	}

	maskKey := [4]byte{0x12, 0x34, 0x56, 0x78}
	out = append(out, maskKey[:]...)
	payload := append([]byte(nil), f.Payload...)
	for i := range payload {
		payload[i] ^= maskKey[i%4]
	}
	out = append(out, payload...)
	return out, nil
}
