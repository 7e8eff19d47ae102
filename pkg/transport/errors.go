package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// Transport errors.
var (
	// ErrConnection indicates the link could not be established.
	ErrConnection = errors.New("connection failed")

	// ErrIO indicates a send or receive failed on an open link.
	ErrIO = errors.New("transport I/O error")

	// ErrTimeout indicates no data arrived before the receive deadline.
	ErrTimeout = errors.New("receive timeout")

	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("transport closed")
)

// classify maps a socket error onto the transport sentinels.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrIO, err)
}
