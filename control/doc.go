// Package control provides the ambient metrics, logging, debug-probe, and
// misuse-detection surface shared by eventloop, channel, pipeline, and
// httpcodec.
//
// Adapted from hioload-ws's control package:
//   - Typed metrics counters (Stats) plus a dynamic telemetry registry
//   - DebugProbes, a named runtime-introspection registry (wired into
//     eventloop.WithDebugProbes to expose a Loop's queue depths) plus
//     per-platform CPU-count probes
//   - A Logger facade over log/slog
//   - MisuseDetector, the per-type shared-resource instance counter from
//     spec.md §5
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
