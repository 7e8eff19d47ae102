package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// echoRobot answers every datagram by sending it back to the "port" the
// sender bound, i.e. the datagram's source.
func echoRobot(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		buf := make([]byte, 2048)
		for {
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			conn.WriteToUDP(buf[:n], from)
		}
	}()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func loopbackConfig() UDPConfig {
	return UDPConfig{BindAddress: "127.0.0.1"}
}

func TestUDPTransportRoundTrip(t *testing.T) {
	robot := echoRobot(t)

	tr, err := DialUDP(context.Background(), robot.LocalAddr().String(), loopbackConfig())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}
	defer tr.Close()

	port := tr.LocalPort()
	if port < ReplyPortMin || port >= ReplyPortMax {
		t.Errorf("LocalPort %d outside [%d, %d)", port, ReplyPortMin, ReplyPortMax)
	}
	if tr.RemoteAddr() != robot.LocalAddr().String() {
		t.Errorf("RemoteAddr = %q, want %q", tr.RemoteAddr(), robot.LocalAddr().String())
	}

	msg := []byte(`{"cmd":"heartbeat","account":"sdk"}`)
	if err := tr.Send(msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	got, err := tr.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !bytes.Equal(got, msg) {
		t.Errorf("got %q, want %q", got, msg)
	}
}

func TestUDPTransportReceiveTimeout(t *testing.T) {
	// Nothing listens on the target; the datagram is dropped.
	tr, err := DialUDP(context.Background(), "127.0.0.1:9", loopbackConfig())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}
	defer tr.Close()

	start := time.Now()
	_, err = tr.Receive(50 * time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed < 50*time.Millisecond || elapsed > 500*time.Millisecond {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestUDPTransportSizeLimits(t *testing.T) {
	tr, err := DialUDP(context.Background(), "127.0.0.1", loopbackConfig())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}
	defer tr.Close()

	if err := tr.Send(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty, got %v", err)
	}
	if err := tr.Send(bytes.Repeat([]byte("x"), MaxMessageSize+1)); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestUDPTransportDefaultPort(t *testing.T) {
	tr, err := DialUDP(context.Background(), "127.0.0.1", loopbackConfig())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}
	defer tr.Close()

	if tr.RemoteAddr() != "127.0.0.1:20001" {
		t.Errorf("RemoteAddr = %q, want 127.0.0.1:20001", tr.RemoteAddr())
	}
}

func TestUDPTransportClose(t *testing.T) {
	tr, err := DialUDP(context.Background(), "127.0.0.1", loopbackConfig())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := tr.Send([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after close: expected ErrClosed, got %v", err)
	}
	if _, err := tr.Receive(time.Millisecond); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive after close: expected ErrClosed, got %v", err)
	}
}

func TestUDPTransportCloseUnblocksReceive(t *testing.T) {
	tr, err := DialUDP(context.Background(), "127.0.0.1", loopbackConfig())
	if err != nil {
		t.Fatalf("DialUDP failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := tr.Receive(0)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	tr.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive not unblocked by Close")
	}
}

func TestDialUDPErrors(t *testing.T) {
	tests := []struct {
		name    string
		address string
		cfg     UDPConfig
	}{
		{"bad port", "127.0.0.1:notaport", loopbackConfig()},
		{"empty host", ":20001", loopbackConfig()},
		{"bad bind address", "127.0.0.1", UDPConfig{BindAddress: "not-an-ip"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DialUDP(context.Background(), tt.address, tt.cfg)
			if !errors.Is(err, ErrConnection) {
				t.Errorf("expected ErrConnection, got %v", err)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DialUDP(ctx, "127.0.0.1", loopbackConfig()); !errors.Is(err, ErrConnection) {
		t.Errorf("cancelled ctx: expected ErrConnection, got %v", err)
	}
}

func TestUDPOpener(t *testing.T) {
	robot := echoRobot(t)

	var opener Opener = NewUDPOpener(loopbackConfig())
	tr, err := opener.Open(context.Background(), robot.LocalAddr().String())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer tr.Close()

	logger := &recordingLogger{}
	tr.(LoggerSetter).SetLogger(logger, "sess-udp")

	if err := tr.Send([]byte("hello")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := tr.Receive(time.Second); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	events := logger.snapshot()
	if len(events) != 2 {
		t.Fatalf("got %d frame events, want 2", len(events))
	}
	if events[0].RemoteAddr != robot.LocalAddr().String() {
		t.Errorf("RemoteAddr = %q", events[0].RemoteAddr)
	}
}
