// Package eventloop provides a single-threaded, cooperatively scheduled
// task executor: a FIFO queue for immediate work and a min-heap of
// absolute-deadline scheduled and periodic tasks, all run on one lazily
// started worker goroutine.
//
// A Loop is the unit of affinity in reactorcore: channels and pipelines
// bind to exactly one Loop, and all handler callbacks for a bound channel
// run serialized on that Loop's worker, so handler code never needs its
// own locking against concurrent invocation.
package eventloop
