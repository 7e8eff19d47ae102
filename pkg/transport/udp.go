package transport

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/log"
)

// Vendor UDP defaults.
const (
	// RobotPort is the UDP port the robot firmware listens on.
	RobotPort = 20001

	// ReplyPortMin and ReplyPortMax bound the client's reply port,
	// [min, max).
	ReplyPortMin = 9100
	ReplyPortMax = 9600

	// DefaultBindAttempts is how many random reply ports are tried.
	DefaultBindAttempts = 100
)

// ErrNoReplyPort indicates no reply port in the range could be bound.
var ErrNoReplyPort = errors.New("no free reply port")

// UDPConfig configures UDP transports.
type UDPConfig struct {
	// BindAddress is the local IP to bind the reply socket to
	// (default: all interfaces).
	BindAddress string `yaml:"bind_address"`

	// PortMin and PortMax bound the random reply port, [min, max).
	PortMin int `yaml:"port_min"`
	PortMax int `yaml:"port_max"`

	// BindAttempts is the number of random ports tried (default: 100).
	BindAttempts int `yaml:"bind_attempts"`

	// RemotePort is used when the robot address carries no port
	// (default: 20001).
	RemotePort int `yaml:"remote_port"`

	// MaxMessageSize is the maximum datagram size (default: 1024).
	MaxMessageSize int `yaml:"max_message_size"`
}

// DefaultUDPConfig returns the vendor defaults.
func DefaultUDPConfig() UDPConfig {
	return UDPConfig{
		PortMin:        ReplyPortMin,
		PortMax:        ReplyPortMax,
		BindAttempts:   DefaultBindAttempts,
		RemotePort:     RobotPort,
		MaxMessageSize: MaxMessageSize,
	}
}

func (c UDPConfig) withDefaults() UDPConfig {
	d := DefaultUDPConfig()
	if c.PortMin <= 0 || c.PortMax <= c.PortMin {
		c.PortMin, c.PortMax = d.PortMin, d.PortMax
	}
	if c.BindAttempts <= 0 {
		c.BindAttempts = d.BindAttempts
	}
	if c.RemotePort <= 0 {
		c.RemotePort = d.RemotePort
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

// bindReplySocket binds a UDP socket on a random port in the configured range.
func bindReplySocket(cfg UDPConfig) (*net.UDPConn, error) {
	var ip net.IP
	if cfg.BindAddress != "" {
		ip = net.ParseIP(cfg.BindAddress)
		if ip == nil {
			return nil, fmt.Errorf("invalid bind address %q", cfg.BindAddress)
		}
	}

	span := cfg.PortMax - cfg.PortMin
	var lastErr error
	for i := 0; i < cfg.BindAttempts; i++ {
		port := cfg.PortMin + rand.Intn(span)
		conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: ip, Port: port})
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w in [%d, %d): %v", ErrNoReplyPort, cfg.PortMin, cfg.PortMax, lastErr)
}

// resolveRobot resolves a robot address, applying defaultPort if the
// address has none.
func resolveRobot(ctx context.Context, address string, defaultPort int) (*net.UDPAddr, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		host = address
		portStr = strconv.Itoa(defaultPort)
	}
	if host == "" {
		return nil, fmt.Errorf("empty host in %q", address)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port in %q", address)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
		if err != nil {
			return nil, err
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("no IPv4 address for %q", host)
		}
		ip = ips[0]
	}
	return &net.UDPAddr{IP: ip, Port: port}, nil
}

// UDPOpener opens UDP transports to robots.
type UDPOpener struct {
	Config UDPConfig
}

// NewUDPOpener creates an opener with the given config.
func NewUDPOpener(cfg UDPConfig) *UDPOpener {
	return &UDPOpener{Config: cfg}
}

// Open binds a reply socket and targets the robot at address.
func (o *UDPOpener) Open(ctx context.Context, address string) (Transport, error) {
	return DialUDP(ctx, address, o.Config)
}

// UDPTransport sends datagrams to one robot and receives its replies on
// a dedicated reply socket.
type UDPTransport struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
	maxMsg int
	log    frameLog

	closeOnce sync.Once
	closeCh   chan struct{}
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

// DialUDP binds a reply socket and returns a transport targeting address.
// Errors wrap ErrConnection.
func DialUDP(ctx context.Context, address string, cfg UDPConfig) (*UDPTransport, error) {
	cfg = cfg.withDefaults()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	remote, err := resolveRobot(ctx, address, cfg.RemotePort)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %v", ErrConnection, address, err)
	}

	conn, err := bindReplySocket(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	t := &UDPTransport{
		conn:    conn,
		remote:  remote,
		maxMsg:  cfg.MaxMessageSize,
		closeCh: make(chan struct{}),
	}
	t.log.remote = remote.String()
	return t, nil
}

// SetLogger configures frame logging. Pass nil to disable.
func (t *UDPTransport) SetLogger(logger log.Logger, sessionID string) {
	t.log.set(logger, sessionID)
}

// LocalPort returns the bound reply port.
func (t *UDPTransport) LocalPort() int {
	return t.conn.LocalAddr().(*net.UDPAddr).Port
}

// RemoteAddr returns the robot address.
func (t *UDPTransport) RemoteAddr() string {
	return t.remote.String()
}

// Send sends one datagram to the robot.
func (t *UDPTransport) Send(data []byte) error {
	if err := checkSize(data, t.maxMsg); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-t.closeCh:
		return ErrClosed
	default:
	}

	if _, err := t.conn.WriteToUDP(data, t.remote); err != nil {
		return classify("send", err)
	}
	t.log.emit(data, log.DirectionOut)
	return nil
}

// Receive waits for one datagram on the reply socket.
func (t *UDPTransport) Receive(timeout time.Duration) ([]byte, error) {
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

	buf := make([]byte, t.maxMsg)
	n, _, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, classify("receive", err)
	}
	data := buf[:n]
	t.log.emit(data, log.DirectionIn)
	return data, nil
}

// Close releases the reply socket.
func (t *UDPTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closeCh)
		err = t.conn.Close()
	})
	return err
}
