// Package discovery finds robots on the local network by name.
//
// A discovery run is a bounded loop: up to Query.MaxAttempts rounds, each
// one probe followed by a collection window of Query.PerAttemptTimeout.
// The run returns as soon as a responder's name equals the target, so a
// robot that answers the first probe costs a single round trip.
//
// # Probers
//
// A Prober sends one probe and reports every responder it hears:
//
//   - UDPProber broadcasts the vendor "discovery" datagram to port 20001
//     and decodes "discovery_ack" replies carrying {name, ip}.
//   - MDNSProber browses a DNS-SD service type (default _yanshee._tcp).
//   - MultiProber runs several probers concurrently in one round.
//
// # Match Policy
//
// MatchExact, the default, fails with ErrNotFound unless the target name
// answered. AcceptAny falls back to the first robot seen once all
// attempts are spent; with an empty target it takes the first responder
// immediately.
//
// When two responders report the same name from different addresses the
// first one seen wins and a DUPLICATE event is sent to the protocol
// logger.
package discovery
