// Package channel implements the bidirectional transport endpoint bound to
// exactly one eventloop.Loop: identity, buffer holders (ByteBuffer,
// MessageQueue, Discard), lifecycle operations completed through a
// one-shot CompletionToken, and the ServerChannel specialization whose
// connect/disconnect/flush operations are unsupported.
package channel
