// Package pipeline implements the ordered chain of handlers processing
// inbound and outbound traffic for one channel.Channel (spec.md §4.C).
//
// Handler contexts reference their owning pipeline and neighbours by
// index into an arena the Pipeline owns, rather than by pointer, per
// spec.md §9's design note on cyclic pipeline<->handler references:
// "Implement as an arena of contexts addressed by indices; the pipeline
// owns the arena; contexts hold neighbour indices, not owning references."
//
// Adapted from hioload-ws's api/handler.go and api/context.go Handler/
// HandlerContext shapes, generalized to the spec's inbound/outbound byte
// and message buffer kinds.
package pipeline
