package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/transport"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// UDPProberConfig configures a UDPProber.
type UDPProberConfig struct {
	transport.BroadcastConfig `yaml:",inline"`

	// Logger receives the raw probe and reply datagrams (optional).
	Logger log.Logger `yaml:"-"`
}

// UDPProber probes with the vendor broadcast discovery datagram.
type UDPProber struct {
	config UDPProberConfig
}

var _ Prober = (*UDPProber)(nil)

// NewUDPProber creates a UDPProber.
func NewUDPProber(cfg UDPProberConfig) *UDPProber {
	return &UDPProber{config: cfg}
}

// Probe broadcasts one discovery datagram and feeds every discovery_ack
// heard before the timeout to seen.
func (p *UDPProber) Probe(ctx context.Context, target string, timeout time.Duration, seen func(Identity) bool) error {
	conn, err := transport.ListenBroadcast(p.config.BroadcastConfig)
	if err != nil {
		return err
	}
	defer conn.Close()
	if p.config.Logger != nil {
		conn.SetLogger(p.config.Logger, "")
	}

	// Unblock ReadUntil on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	probe, err := encodeProbe(target, conn.LocalPort())
	if err != nil {
		return err
	}
	if err := conn.Broadcast(probe); err != nil {
		return fmt.Errorf("send discovery probe: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		dg, err := conn.ReadUntil(deadline)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		id, ok := parseReply(dg)
		if !ok {
			continue
		}
		if seen(id) {
			return nil
		}
	}
}

func encodeProbe(target string, port int) ([]byte, error) {
	return wire.Encode(&wire.Message{
		Cmd:     wire.CmdDiscovery,
		Account: wire.DefaultAccount,
		Name:    wire.Truncate(target, wire.MaxNameLen),
		Version: wire.SDKVersion,
		Port:    port,
	})
}

// parseReply extracts an identity from a discovery_ack. Robots that omit
// "ip" are addressed by the datagram source.
func parseReply(dg transport.Datagram) (Identity, bool) {
	m, err := wire.DecodeAck(dg.Data, wire.CmdDiscovery)
	if err != nil || m.Name == "" {
		return Identity{}, false
	}
	addr := m.IP
	if addr == "" && dg.From != nil {
		addr = dg.From.IP.String()
	}
	if addr == "" {
		return Identity{}, false
	}
	return NewIdentity(m.Name, addr), true
}
