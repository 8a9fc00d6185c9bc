// Package channel implements the bidirectional transport endpoint
// (spec.md §4.B): identity, buffer holders, lifecycle operations, and the
// server-channel specialization that rejects connect/disconnect/flush.
//
// Adapted from hioload-ws's api/context.go channel-shaped data and
// core/concurrency/eventloop.go's token-completion pattern, generalized to
// the spec's Completion Token and BufferHolder data model.
//
// Author: adapted from hioload-ws, for reactorcore.
// License: Apache-2.0
package channel

import (
	"context"
	"sync"
	"sync/atomic"
)

type tokenState int32

const (
	tokenPending tokenState = iota
	tokenSuccess
	tokenFailure
)

// CompletionToken is a one-shot future completed exactly once by the event
// loop, per spec.md §3: "pending, success, failure(cause). Transitions are
// one-shot and idempotent under concurrent completion attempts (only the
// first wins)."
type CompletionToken struct {
	state atomic.Int32
	cause atomic.Value // error
	done  chan struct{}
	once  sync.Once
}

// NewCompletionToken returns a pending token.
func NewCompletionToken() *CompletionToken {
	return &CompletionToken{done: make(chan struct{})}
}

// Complete transitions the token to success (err == nil) or failure. Only
// the first call has any effect; later calls are silently ignored.
func (t *CompletionToken) Complete(err error) {
	t.once.Do(func() {
		if err != nil {
			t.cause.Store(err)
			t.state.Store(int32(tokenFailure))
		} else {
			t.state.Store(int32(tokenSuccess))
		}
		close(t.done)
	})
}

// Done returns a channel closed once the token completes.
func (t *CompletionToken) Done() <-chan struct{} { return t.done }

// Pending reports whether the token has not yet completed.
func (t *CompletionToken) Pending() bool {
	return tokenState(t.state.Load()) == tokenPending
}

// Err returns the failure cause, or nil if the token succeeded or is still
// pending.
func (t *CompletionToken) Err() error {
	v := t.cause.Load()
	if v == nil {
		return nil
	}
	return v.(error)
}

// Await blocks until the token completes or ctx is done.
func (t *CompletionToken) Await(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
