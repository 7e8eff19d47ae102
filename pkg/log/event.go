package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the session (UUID). Empty for
	// discovery events, which happen before any session exists.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// RobotName is the robot's advertised name, when known.
	RobotName string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Session state
	Discovery   *DiscoveryEvent   `cbor:"13,keyasint,omitempty"` // Discovery attempts
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the datagram layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded JSON).
	LayerWire Layer = 1
	// LayerSession is the connect/disconnect/command layer.
	LayerSession Layer = 2
	// LayerDiscovery is the robot discovery layer.
	LayerDiscovery Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerSession:
		return "SESSION"
	case LayerDiscovery:
		return "DISCOVERY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message (request or ack).
	CategoryMessage Category = 0
	// CategoryDiscovery indicates a discovery attempt or result.
	CategoryDiscovery Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryDiscovery:
		return "DISCOVERY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw datagram data at the transport layer.
type FrameEvent struct {
	// Size is the datagram size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes (may be truncated for large datagrams).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MaxFrameCapture is the number of bytes of a datagram kept in a FrameEvent.
const MaxFrameCapture = 256

// NewFrameEvent builds a FrameEvent, truncating data to MaxFrameCapture.
func NewFrameEvent(data []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(data)}
	if len(data) > MaxFrameCapture {
		fe.Data = append([]byte(nil), data[:MaxFrameCapture]...)
		fe.Truncated = true
	} else {
		fe.Data = append([]byte(nil), data...)
	}
	return fe
}

// MessageEvent captures a decoded vendor message at the wire layer.
type MessageEvent struct {
	// Cmd is the "cmd" value ("connect", "query_ack", ...).
	Cmd string `cbor:"1,keyasint"`

	// Type is the "type" value, if any.
	Type string `cbor:"2,keyasint,omitempty"`

	// Opcode is the client opcode that produced the message, if any.
	Opcode string `cbor:"3,keyasint,omitempty"`

	// Status is the reply status string.
	Status string `cbor:"4,keyasint,omitempty"`

	// Code is the numeric vendor code for replies.
	Code *int `cbor:"5,keyasint,omitempty"`

	// Payload is the JSON text of the message.
	Payload string `cbor:"6,keyasint,omitempty"`

	// RoundTrip is the time between request send and ack receipt (acks only).
	// Stored as nanoseconds.
	RoundTrip *time.Duration `cbor:"7,keyasint,omitempty"`
}

// StateChangeEvent captures session lifecycle events.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// DiscoveryEvent captures one step of a discovery run.
type DiscoveryEvent struct {
	// Target is the robot name being searched for (may be empty).
	Target string `cbor:"1,keyasint,omitempty"`

	// Attempt is the 1-based attempt number.
	Attempt int `cbor:"2,keyasint"`

	// Outcome describes what happened.
	Outcome DiscoveryOutcome `cbor:"3,keyasint"`

	// Name and Address of the responding robot, if any.
	Name    string `cbor:"4,keyasint,omitempty"`
	Address string `cbor:"5,keyasint,omitempty"`
}

// DiscoveryOutcome describes a discovery step.
type DiscoveryOutcome uint8

const (
	// DiscoveryProbe indicates a probe was sent.
	DiscoveryProbe DiscoveryOutcome = 0
	// DiscoveryResponse indicates a robot replied.
	DiscoveryResponse DiscoveryOutcome = 1
	// DiscoveryDuplicate indicates a second robot replied with a known name.
	DiscoveryDuplicate DiscoveryOutcome = 2
	// DiscoveryFound indicates the run finished with a match.
	DiscoveryFound DiscoveryOutcome = 3
	// DiscoveryNotFound indicates the run exhausted its attempts.
	DiscoveryNotFound DiscoveryOutcome = 4
)

// String returns the outcome name.
func (o DiscoveryOutcome) String() string {
	switch o {
	case DiscoveryProbe:
		return "PROBE"
	case DiscoveryResponse:
		return "RESPONSE"
	case DiscoveryDuplicate:
		return "DUPLICATE"
	case DiscoveryFound:
		return "FOUND"
	case DiscoveryNotFound:
		return "NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the vendor code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
