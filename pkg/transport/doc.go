// Package transport moves raw message bytes between the client and a robot.
//
// The robot firmware speaks UDP: the client binds a reply socket on a
// random port in [9100, 9600), sends JSON datagrams to port 20001 and
// tells the robot where to answer through the message's "port" key.
// UDPTransport implements that link; BroadcastConn is the one-to-many
// variant used by discovery.
//
// StreamTransport carries the same datagrams over a net.Conn with
// length-prefixed framing, for TCP bridges and unix socket tunnels to the
// on-robot service.
//
// # Framing (stream links only)
//
//	┌────────────────────────────────┐
//	│   JSON message (≤ 1024 B)      │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│       TCP / unix socket        │
//	└────────────────────────────────┘
//
// Transports never retry. Every Receive is bounded by its timeout, and
// Close releases the socket and is safe to call more than once.
package transport
