package transport

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/log"
)

// DefaultBroadcastAddress is the limited broadcast address.
const DefaultBroadcastAddress = "255.255.255.255"

// BroadcastConfig configures a BroadcastConn.
type BroadcastConfig struct {
	UDPConfig `yaml:",inline"`

	// Interface names the network interface whose subnet broadcast
	// address is used (for example "wlan0"). Ignored if Target is set.
	Interface string `yaml:"interface"`

	// Target overrides the destination, as "host" or "host:port".
	Target string `yaml:"target"`
}

// BroadcastConn is a one-to-many datagram socket: probes go to a
// broadcast address and replies from any robot arrive on the reply port.
type BroadcastConn struct {
	conn   *net.UDPConn
	target *net.UDPAddr
	maxMsg int
	log    frameLog

	closeOnce sync.Once
}

// Datagram is one received reply and its source.
type Datagram struct {
	Data []byte
	From *net.UDPAddr
}

// ListenBroadcast binds a reply socket for discovery probes.
func ListenBroadcast(cfg BroadcastConfig) (*BroadcastConn, error) {
	udp := cfg.UDPConfig.withDefaults()

	target, err := broadcastTarget(cfg, udp.RemotePort)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	conn, err := bindReplySocket(udp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	bc := &BroadcastConn{
		conn:   conn,
		target: target,
		maxMsg: udp.MaxMessageSize,
	}
	bc.log.remote = target.String()
	return bc, nil
}

func broadcastTarget(cfg BroadcastConfig, port int) (*net.UDPAddr, error) {
	if cfg.Target != "" {
		host, portStr, err := net.SplitHostPort(cfg.Target)
		if err != nil {
			host, portStr = cfg.Target, strconv.Itoa(port)
		}
		ip := net.ParseIP(host)
		if ip == nil {
			return nil, fmt.Errorf("invalid broadcast target %q", cfg.Target)
		}
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid broadcast port in %q", cfg.Target)
		}
		return &net.UDPAddr{IP: ip, Port: p}, nil
	}

	if cfg.Interface != "" {
		ip, err := InterfaceBroadcast(cfg.Interface)
		if err != nil {
			return nil, err
		}
		return &net.UDPAddr{IP: ip, Port: port}, nil
	}

	return &net.UDPAddr{IP: net.ParseIP(DefaultBroadcastAddress), Port: port}, nil
}

// InterfaceBroadcast returns the IPv4 subnet broadcast address of the
// named interface.
func InterfaceBroadcast(name string) (net.IP, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if bcast := SubnetBroadcast(ipnet); bcast != nil {
			return bcast, nil
		}
	}
	return nil, fmt.Errorf("interface %s has no IPv4 address", name)
}

// SubnetBroadcast returns the broadcast address of an IPv4 network, or
// nil for IPv6 networks.
func SubnetBroadcast(n *net.IPNet) net.IP {
	ip4 := n.IP.To4()
	if ip4 == nil {
		return nil
	}
	mask := n.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if len(mask) != net.IPv4len {
		return nil
	}
	out := make(net.IP, net.IPv4len)
	for i := range ip4 {
		out[i] = ip4[i] | ^mask[i]
	}
	return out
}

// SetLogger configures frame logging. Pass nil to disable.
func (b *BroadcastConn) SetLogger(logger log.Logger, sessionID string) {
	b.log.set(logger, sessionID)
}

// LocalPort returns the bound reply port.
func (b *BroadcastConn) LocalPort() int {
	return b.conn.LocalAddr().(*net.UDPAddr).Port
}

// Target returns the broadcast destination.
func (b *BroadcastConn) Target() string {
	return b.target.String()
}

// Broadcast sends one probe datagram.
func (b *BroadcastConn) Broadcast(data []byte) error {
	if err := checkSize(data, b.maxMsg); err != nil {
		return err
	}
	if _, err := b.conn.WriteToUDP(data, b.target); err != nil {
		return classify("broadcast", err)
	}
	b.log.emit(data, log.DirectionOut)
	return nil
}

// ReadUntil waits for one reply until deadline. It returns ErrTimeout
// once the deadline passes.
func (b *BroadcastConn) ReadUntil(deadline time.Time) (Datagram, error) {
	if err := b.conn.SetReadDeadline(deadline); err != nil {
		return Datagram{}, classify("receive", err)
	}
	buf := make([]byte, b.maxMsg)
	n, from, err := b.conn.ReadFromUDP(buf)
	if err != nil {
		return Datagram{}, classify("receive", err)
	}
	b.log.emit(buf[:n], log.DirectionIn)
	return Datagram{Data: buf[:n], From: from}, nil
}

// Close releases the socket.
func (b *BroadcastConn) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.conn.Close()
	})
	return err
}
