// Package log provides structured protocol logging for robot sessions.
//
// This package defines the Logger interface and Event types for capturing
// protocol events at each layer of the client: raw datagrams, decoded
// vendor messages, session state changes and discovery attempts. It is
// separate from operational logging (slog); protocol capture provides a
// machine-readable trace for debugging a robot conversation after the fact.
//
// # Basic Usage
//
//	// Console output via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// Binary capture file
//	fl, _ := log.NewFileLogger("session.ylog")
//
//	// Both
//	logger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
//   - Transport: raw datagram bytes (FrameEvent)
//   - Wire: decoded vendor messages (MessageEvent)
//   - Session: state changes (StateChangeEvent)
//   - Discovery: probes and responses (DiscoveryEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Capture files are a stream of CBOR encoded events. The yanshee-log CLI
// views, filters and summarizes them.
package log
