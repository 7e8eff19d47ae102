package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/log"
)

// StreamOpener opens length-prefixed transports over stream sockets.
type StreamOpener struct {
	// Network is "tcp", "tcp4" or "unix" (default: "tcp").
	Network string

	// ConnectTimeout bounds the dial when the context has no deadline
	// (default: 5s).
	ConnectTimeout time.Duration

	// MaxMessageSize is the maximum frame payload (default: 1024).
	MaxMessageSize int
}

// Open dials address. Errors wrap ErrConnection.
func (o *StreamOpener) Open(ctx context.Context, address string) (Transport, error) {
	network := o.Network
	if network == "" {
		network = "tcp"
	}
	timeout := o.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s %s: %v", ErrConnection, network, address, err)
	}
	return NewStreamTransport(conn, o.MaxMessageSize), nil
}

// StreamTransport carries messages as length-prefixed frames over a
// net.Conn.
type StreamTransport struct {
	conn    net.Conn
	framer  *Framer
	closeCh chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

// NewStreamTransport wraps an established connection. A maxSize of zero
// uses MaxMessageSize.
func NewStreamTransport(conn net.Conn, maxSize int) *StreamTransport {
	if maxSize <= 0 {
		maxSize = MaxMessageSize
	}
	return &StreamTransport{
		conn:    conn,
		framer:  NewFramerWithMaxSize(conn, maxSize),
		closeCh: make(chan struct{}),
	}
}

// SetLogger configures frame logging. Pass nil to disable.
func (t *StreamTransport) SetLogger(logger log.Logger, sessionID string) {
	t.framer.SetLogger(logger, sessionID)
}

// LocalPort returns the local TCP port, or 0 for non-IP sockets.
func (t *StreamTransport) LocalPort() int {
	if a, ok := t.conn.LocalAddr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

// RemoteAddr returns the peer address.
func (t *StreamTransport) RemoteAddr() string {
	if a := t.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// Send writes one frame.
func (t *StreamTransport) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-t.closeCh:
		return ErrClosed
	default:
	}

	if err := checkSize(data, t.framer.FrameWriter.maxMessageSize); err != nil {
		return err
	}
	if err := t.framer.WriteFrame(data); err != nil {
		return classify("send", err)
	}
	return nil
}

// Receive reads one frame with timeout.
func (t *StreamTransport) Receive(timeout time.Duration) ([]byte, error) {
	t.readMu.Lock()
	defer t.readMu.Unlock()

	select {
	case <-t.closeCh:
		return nil, ErrClosed
	default:
	}

	if timeout > 0 {
		t.conn.SetReadDeadline(time.Now().Add(timeout))
		defer t.conn.SetReadDeadline(time.Time{})
	}

	data, err := t.framer.ReadFrame()
	if err != nil {
		switch {
		case err == ErrFrameTruncated, err == ErrMessageEmpty:
			return nil, fmt.Errorf("receive: %w: %w", ErrIO, err)
		default:
			return nil, classify("receive", err)
		}
	}
	return data, nil
}

// Close closes the connection.
func (t *StreamTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closeCh)
		err = t.conn.Close()
	})
	return err
}
