package transport

import (
	"context"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/log"
)

// Transport is a bidirectional message link to one robot.
type Transport interface {
	// Send sends one message.
	Send(data []byte) error

	// Receive waits up to timeout for one message. A timeout of zero or
	// less waits until data arrives or the transport is closed.
	Receive(timeout time.Duration) ([]byte, error)

	// LocalPort returns the port replies are expected on.
	LocalPort() int

	// RemoteAddr returns the robot address messages are sent to.
	RemoteAddr() string

	// Close releases the underlying socket. Safe to call more than once.
	Close() error
}

// Opener opens transports to robot addresses.
type Opener interface {
	// Open establishes a transport to address. Failures wrap ErrConnection.
	Open(ctx context.Context, address string) (Transport, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, address string) (Transport, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, address string) (Transport, error) {
	return f(ctx, address)
}

// LoggerSetter is implemented by transports that can emit frame events.
type LoggerSetter interface {
	SetLogger(logger log.Logger, sessionID string)
}

// FrameReadWriter provides length-prefixed frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads a length-prefixed frame.
	ReadFrame() ([]byte, error)

	// WriteFrame writes a length-prefixed frame.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ Transport       = (*UDPTransport)(nil)
	_ Transport       = (*StreamTransport)(nil)
	_ LoggerSetter    = (*UDPTransport)(nil)
	_ LoggerSetter    = (*StreamTransport)(nil)
	_ Opener          = (*UDPOpener)(nil)
	_ Opener          = (*StreamOpener)(nil)
	_ Opener          = OpenerFunc(nil)
	_ FrameReadWriter = (*Framer)(nil)
)
