package command

import (
	"errors"
	"fmt"

	"github.com/ubtedu/yanshee-go/pkg/session"
	"github.com/ubtedu/yanshee-go/pkg/transport"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// Command errors.
var (
	// ErrUnknownOpcode indicates no codec is registered for the opcode.
	ErrUnknownOpcode = errors.New("unknown opcode")

	// ErrInvalidArgument indicates arguments that do not fit the opcode.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProtocol indicates a malformed or short reply.
	ErrProtocol = errors.New("protocol error")

	// ErrVendorFailure matches every *Failure via errors.Is.
	ErrVendorFailure = errors.New("vendor failure")

	// ErrInvalidState indicates the session is not connected.
	ErrInvalidState = session.ErrInvalidState

	// ErrTimeout indicates the reply did not arrive in time.
	ErrTimeout = transport.ErrTimeout
)

// Failure is a failure reported by the robot.
type Failure struct {
	Code    wire.RC
	Message string
}

// Error implements error.
func (f *Failure) Error() string {
	if f.Message == "" {
		return fmt.Sprintf("robot reported %s", f.Code)
	}
	return fmt.Sprintf("robot reported %s: %s", f.Code, f.Message)
}

// Is makes errors.Is(f, ErrVendorFailure) true.
func (f *Failure) Is(target error) bool {
	return target == ErrVendorFailure
}

// Result is the outcome of an executed opcode: either a payload or a
// vendor failure.
type Result struct {
	// Payload is the decoded reply data on success.
	Payload []byte

	// Failure is set when the robot refused the command.
	Failure *Failure
}

// OK reports whether the robot accepted the command.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Phase is the progress of one Execute call.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseSent
	PhaseCompleted
	PhaseTimedOut
	PhaseProtocolError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseSent:
		return "SENT"
	case PhaseCompleted:
		return "COMPLETED"
	case PhaseTimedOut:
		return "TIMED_OUT"
	case PhaseProtocolError:
		return "PROTOCOL_ERROR"
	default:
		return "UNKNOWN"
	}
}
