package httpcodec

import (
	"errors"
	"fmt"
)

// errNoCorrelatedRequest signals a response arrived with nothing in the
// correlation queue, violating spec.md §4.D's protocol invariant that "a
// response arrives only after its request was written."
var errNoCorrelatedRequest = errors.New("httpcodec: response received with no correlated request")

// DecodingError wraps a malformed-HTTP failure surfaced by the underlying
// response decoder (spec.md §7's DecodingError kind).
type DecodingError struct {
	Cause error
}

func (e *DecodingError) Error() string { return fmt.Sprintf("httpcodec: decoding error: %v", e.Cause) }
func (e *DecodingError) Unwrap() error { return e.Cause }

// PrematureClosureError is fired through the inbound pipeline when the
// channel becomes inactive while requests remain unanswered and
// fail-on-missing-response is enabled (spec.md §4.D, §7, and §8 scenario
// 7: '"2 missing response(s)"').
type PrematureClosureError struct {
	Missing int
}

func (e *PrematureClosureError) Error() string {
	return fmt.Sprintf("httpcodec: premature closure: %d missing response(s)", e.Missing)
}
