// Package retry provides exponential backoff with jitter for the pauses
// between discovery rounds and reconnect attempts.
//
// Robots answer broadcast probes over a lossy Wi-Fi link. Spacing the
// rounds out, with some jitter, avoids several clients on the same network
// probing in lock step.
package retry
