// Package wire defines the JSON wire format spoken by Yanshee robots.
//
// The robot firmware listens for UDP datagrams on port 20001. Every
// datagram is a single JSON object. Requests name a command in the "cmd"
// key and tell the robot where to reply through the "port" key; replies
// carry the command name with an "_ack" suffix.
//
// # Message Keys
//
//	cmd      command name ("discovery", "connect", "query", ...)
//	account  client identifier ("sdk")
//	name     robot name (discovery/connect replies)
//	ip       robot IPv4 address (discovery replies)
//	port     UDP port the client listens on for the reply
//	version  SDK version ("01") or a version string in query replies
//	type     command sub type ("led", "version", "write", ...)
//	para     command parameters (string or object)
//	data     command data (string or object)
//	status   "ok" on success, a reason string otherwise
//
// Keys not listed above are opcode specific ("angle", "time", "volume",
// "is_interrupted") and are kept in Message.Fields.
//
// # Status Codes
//
// The vendor SDK reports results as small integers (RC). A reply whose
// status is "ok" maps to RCSuccess. Firmware that reports numeric codes
// may send them in "code" or as a numeric "status".
package wire
