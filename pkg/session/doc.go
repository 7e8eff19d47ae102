// Package session manages the connection lifecycle to one robot.
//
// A Session is created by Connect, which opens a transport to a
// discovered robot and performs the connect/connect_ack handshake. The
// returned Session is always Connected; on any failure the transport is
// closed before Connect returns, so callers never hold a half-open
// session.
//
// State transitions:
//
//	Disconnected --Connect--> Connecting --connect_ack--> Connected
//	Connecting --failure--> Disconnected
//	Connected --Disconnect or transport I/O failure--> Disconnected
//
// A Disconnected session never reconnects. Disconnect is idempotent;
// any other use after disconnect fails with ErrInvalidState.
//
// A Session is not meant to be shared by concurrent callers. Exchanges
// are serialized internally so a stray concurrent call cannot read
// another call's reply, but ordering between callers is undefined.
package session
