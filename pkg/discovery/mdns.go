package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/ubtedu/yanshee-go/pkg/transport"
)

// MDNSConfig configures the mDNS prober and advertiser.
type MDNSConfig struct {
	// Service is the DNS-SD service type (default: _yanshee._tcp).
	Service string `yaml:"service"`

	// Interface restricts mDNS to one network interface (empty for all).
	Interface string `yaml:"interface"`

	// TTL is the record TTL used when advertising (0 for the library default).
	TTL time.Duration `yaml:"ttl"`
}

func (c MDNSConfig) service() string {
	if c.Service == "" {
		return ServiceTypeRobot
	}
	return c.Service
}

// interfaces returns the configured interface, or nil for all.
func (c MDNSConfig) interfaces() []net.Interface {
	if c.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(c.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// MDNSProber probes by browsing for robots that advertise over DNS-SD.
type MDNSProber struct {
	config MDNSConfig
}

var _ Prober = (*MDNSProber)(nil)

// NewMDNSProber creates an MDNSProber.
func NewMDNSProber(cfg MDNSConfig) *MDNSProber {
	return &MDNSProber{config: cfg}
}

// Probe browses for timeout and reports each resolved robot to seen.
func (p *MDNSProber) Probe(ctx context.Context, target string, timeout time.Duration, seen func(Identity) bool) error {
	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	finished := make(chan struct{})
	var browseErr error

	var opts []zeroconf.ClientOption
	if ifaces := p.config.interfaces(); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	go func() {
		defer close(finished)
		browseErr = zeroconf.Browse(browseCtx, p.config.service(), Domain, entries, removed, opts...)
	}()

	// The browser may still deliver after we stop listening; keep reading
	// until it is done so it never blocks on a send.
	defer func() {
		cancel()
		go drainBrowse(entries, removed, finished)
	}()

	done := finished
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return ctx.Err()
			}
			id, valid := entryIdentity(entry)
			if !valid {
				continue
			}
			if seen(id) {
				return nil
			}

		case <-removed:
			// Robots going away mid-round do not change the outcome.

		case <-done:
			done = nil
			if browseErr != nil && browseCtx.Err() == nil {
				return fmt.Errorf("mdns browse: %w", browseErr)
			}

		case <-browseCtx.Done():
			return ctx.Err()
		}
	}
}

func drainBrowse(entries, removed <-chan *zeroconf.ServiceEntry, done <-chan struct{}) {
	for entries != nil || removed != nil {
		select {
		case _, ok := <-entries:
			if !ok {
				entries = nil
			}
		case _, ok := <-removed:
			if !ok {
				removed = nil
			}
		case <-done:
			return
		}
	}
}

// entryIdentity converts a resolved service entry. The TXT "name" wins
// over the instance name since DNS labels may be mangled.
func entryIdentity(entry *zeroconf.ServiceEntry) (Identity, bool) {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return Identity{}, false
	}
	name := entry.Instance
	if info, err := DecodeRobotTXT(StringsToTXTRecords(entry.Text)); err == nil && info.Name != "" {
		name = info.Name
	}
	if name == "" {
		return Identity{}, false
	}
	return NewIdentity(name, entry.AddrIPv4[0].String()), true
}

// MDNSAdvertiser publishes a robot over DNS-SD. The simulator uses it so
// that clients can find it without broadcast.
type MDNSAdvertiser struct {
	config MDNSConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates an advertiser.
func NewMDNSAdvertiser(cfg MDNSConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: cfg}
}

// Advertise starts (or replaces) the advertisement for info.
func (a *MDNSAdvertiser) Advertise(info *RobotInfo) error {
	if err := ValidateInstanceName(info.Name); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	port := info.UDPPort
	if port == 0 {
		port = transport.RobotPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		info.Name,
		a.config.service(),
		Domain,
		port,
		TXTRecordsToStrings(EncodeRobotTXT(info)),
		a.config.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register robot service %s: %w", strconv.Quote(info.Name), err)
	}

	a.server = server
	return nil
}

// Stop withdraws the advertisement.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
