// Package pool provides a NUMA-aware byte-slice pool: BytePool hands out
// fixed-size buffers from a NUMAPool when NUMA placement is enabled; when
// it is disabled or unavailable on the current platform, BytePool
// allocates a fresh slice per GetBuffer and PutBuffer leaves the buffer to
// the garbage collector.
//
// Adapted from hioload-ws's pool package, trimmed to the BytePool/NUMAPool
// slice this module's transport layer actually exercises; the
// bufferpool/batch/ring-buffer machinery the original package also
// carried is not wired into any SPEC_FULL.md component and was dropped
// (see DESIGN.md).
//
// Author: adapted from hioload-ws, for reactorcore.
// License: Apache-2.0
package pool
