package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ubtedu/yanshee-go/pkg/discovery"
	"github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/transport"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// Session errors.
var (
	// ErrInvalidState indicates an operation on a session in the wrong state.
	ErrInvalidState = errors.New("invalid session state")

	// ErrConnection indicates the transport could not be opened or the
	// robot refused the handshake.
	ErrConnection = transport.ErrConnection

	// ErrTimeout indicates the robot did not answer in time.
	ErrTimeout = transport.ErrTimeout

	// ErrMalformedReply indicates the wait ended after only undecodable
	// datagrams arrived.
	ErrMalformedReply = errors.New("malformed reply")
)

// Timing defaults.
const (
	// DefaultTimeout bounds the connect and disconnect exchanges.
	DefaultTimeout = 3 * time.Second

	// HeartbeatInterval is how often the vendor SDK sent heartbeats.
	HeartbeatInterval = 5 * time.Second
)

// Credentials name the client to the robot.
type Credentials struct {
	// Account is the client identifier (default "sdk").
	Account string `yaml:"account"`

	// ClientID is the client instance id (default "1"). The robot
	// assumes one client at a time, so it only appears in logs.
	ClientID string `yaml:"client_id"`
}

// DefaultCredentials returns the identifiers every vendor client uses.
func DefaultCredentials() Credentials {
	return Credentials{
		Account:  wire.DefaultAccount,
		ClientID: wire.DefaultClientID,
	}
}

func (c Credentials) withDefaults() Credentials {
	d := DefaultCredentials()
	if c.Account == "" {
		c.Account = d.Account
	}
	if c.ClientID == "" {
		c.ClientID = d.ClientID
	}
	return c
}

// Config configures a session.
type Config struct {
	// Timeout bounds the connect and disconnect exchanges (default: 3s).
	Timeout time.Duration `yaml:"timeout"`

	// LocalShortcut skips the handshake and heartbeats when the robot
	// address is loopback, as when the client runs on the robot itself.
	LocalShortcut bool `yaml:"local_shortcut"`

	// Logger receives protocol events (optional).
	Logger log.Logger `yaml:"-"`

	// OnStateChange is called after every state transition (optional).
	OnStateChange func(old, new State) `yaml:"-"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}

// Session is a live connection to one robot.
type Session struct {
	id       string
	identity discovery.Identity
	creds    Credentials
	config   Config
	logger   log.Logger
	local    bool

	mu        sync.RWMutex
	state     State
	transport transport.Transport

	// callMu serializes exchanges on the transport.
	callMu sync.Mutex
}

// Connect opens a transport to identity and performs the handshake.
//
// On success the session is Connected. On failure the error wraps
// ErrConnection and every resource acquired along the way is released.
func Connect(ctx context.Context, opener transport.Opener, identity discovery.Identity, creds Credentials, cfg Config) (*Session, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if identity.Address == "" {
		return nil, fmt.Errorf("%w: robot %q has no address", ErrConnection, identity.Name)
	}

	s := &Session{
		id:       uuid.New().String(),
		identity: identity,
		creds:    creds.withDefaults(),
		config:   cfg,
		logger:   log.Or(cfg.Logger),
		local:    cfg.LocalShortcut && isLoopback(identity.Address),
		state:    StateDisconnected,
	}

	s.setState(StateConnecting, "connect")

	tr, err := opener.Open(ctx, identity.Address)
	if err != nil {
		s.setState(StateDisconnected, "open failed")
		if errors.Is(err, ErrConnection) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrConnection, identity.Address, err)
	}
	if ls, ok := tr.(transport.LoggerSetter); ok && cfg.Logger != nil {
		ls.SetLogger(cfg.Logger, s.id)
	}

	if !s.local {
		if err := s.handshake(ctx, tr); err != nil {
			_ = tr.Close()
			s.setState(StateDisconnected, "handshake failed")
			return nil, fmt.Errorf("%w: %s: %w", ErrConnection, identity, err)
		}
	}

	s.mu.Lock()
	s.transport = tr
	s.mu.Unlock()
	s.setState(StateConnected, "connect_ack")
	return s, nil
}

func (s *Session) handshake(ctx context.Context, tr transport.Transport) error {
	req := &wire.Message{
		Cmd:     wire.CmdConnect,
		Account: s.creds.Account,
		Port:    tr.LocalPort(),
		Version: wire.SDKVersion,
	}
	reply, err := s.exchange(ctx, tr, req, s.config.Timeout)
	if err != nil {
		return err
	}
	if rc, msg := reply.Result(); rc != wire.RCSuccess {
		return fmt.Errorf("robot refused connection: %s (%s)", msg, rc)
	}
	return nil
}

// ID returns the session's connection id used in protocol logs.
func (s *Session) ID() string {
	return s.id
}

// Identity returns the robot this session is bound to.
func (s *Session) Identity() discovery.Identity {
	return s.identity
}

// Credentials returns the credentials used for the handshake.
func (s *Session) Credentials() Credentials {
	return s.creds
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsConnected reports whether commands may be issued.
func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

// Disconnect sends disconnect, waits for disconnect_ack and releases the
// transport. The session ends Disconnected whatever the exchange outcome;
// the exchange error is returned by the first call only. Calling
// Disconnect again is a no-op.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return nil
	}
	tr := s.transport
	s.transport = nil
	s.mu.Unlock()
	s.setState(StateDisconnected, "disconnect")

	s.callMu.Lock()
	defer s.callMu.Unlock()
	defer tr.Close()

	if s.local {
		return nil
	}

	req := &wire.Message{
		Cmd:     wire.CmdDisconnect,
		Account: s.creds.Account,
		Version: wire.SDKVersion,
	}
	if _, err := s.exchange(ctx, tr, req, s.config.Timeout); err != nil {
		return fmt.Errorf("disconnect %s: %w", s.identity, err)
	}
	return nil
}

// Heartbeat sends one heartbeat datagram. The robot does not answer it.
// Sessions using the local shortcut send nothing.
func (s *Session) Heartbeat(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tr, err := s.live()
	if err != nil {
		return err
	}
	if s.local {
		return nil
	}

	s.callMu.Lock()
	defer s.callMu.Unlock()

	msg := &wire.Message{Cmd: wire.CmdHeartbeat, Account: s.creds.Account}
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	if err := tr.Send(data); err != nil {
		return s.fail(err)
	}
	s.logMessage(ctx, log.DirectionOut, msg, data, nil)
	return nil
}

// RoundTrip sends req and waits up to timeout for the matching ack. The
// reply port is filled in when req does not carry one. Acks for other
// commands are discarded.
//
// A timeout returns an error wrapping ErrTimeout, or ErrMalformedReply
// when an undecodable datagram arrived during the wait; both leave the
// session Connected. A transport I/O failure disconnects the session.
func (s *Session) RoundTrip(ctx context.Context, req *wire.Message, timeout time.Duration) (*wire.Message, error) {
	tr, err := s.live()
	if err != nil {
		return nil, err
	}

	s.callMu.Lock()
	defer s.callMu.Unlock()

	if req.Port == 0 {
		req.Port = tr.LocalPort()
	}
	reply, err := s.exchange(ctx, tr, req, timeout)
	if err != nil {
		return nil, s.fail(err)
	}
	return reply, nil
}

// live returns the transport of a Connected session.
func (s *Session) live() (transport.Transport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateConnected || s.transport == nil {
		return nil, fmt.Errorf("%w: session is %s", ErrInvalidState, s.state)
	}
	return s.transport, nil
}

// fail drops the session after a fatal transport error.
func (s *Session) fail(err error) error {
	if !errors.Is(err, transport.ErrIO) && !errors.Is(err, transport.ErrClosed) {
		return err
	}

	s.mu.Lock()
	tr := s.transport
	wasConnected := s.state == StateConnected
	s.transport = nil
	s.mu.Unlock()

	if tr != nil {
		_ = tr.Close()
	}
	if wasConnected {
		s.setState(StateDisconnected, err.Error())
	}
	return err
}

// exchange sends req and reads until its ack arrives or the deadline passes.
func (s *Session) exchange(ctx context.Context, tr transport.Transport, req *wire.Message, timeout time.Duration) (*wire.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := wire.Encode(req)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	sent := time.Now()
	if err := tr.Send(data); err != nil {
		return nil, err
	}
	s.logMessage(ctx, log.DirectionOut, req, data, nil)

	want := req.Cmd.Ack()

	// Acks for other commands are stale and skipped. An undecodable
	// datagram is remembered so the wait ends as malformed, not as a
	// timeout.
	var malformed error
	expired := func(cause error) error {
		if malformed != nil {
			return fmt.Errorf("waiting for %s: %w: %w", want, ErrMalformedReply, malformed)
		}
		return fmt.Errorf("waiting for %s: %w", want, cause)
	}

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, expired(ErrTimeout)
		}

		raw, err := tr.Receive(remaining)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				if ctxErr := ctx.Err(); ctxErr != nil && malformed == nil {
					return nil, ctxErr
				}
				return nil, expired(err)
			}
			return nil, err
		}

		reply, err := wire.DecodeAck(raw, req.Cmd)
		if err != nil {
			if !errors.Is(err, wire.ErrUnexpectedCmd) {
				malformed = err
			}
			s.logDiscard(raw, err)
			continue
		}

		rtt := time.Since(sent)
		s.logMessage(ctx, log.DirectionIn, reply, raw, &rtt)
		return reply, nil
	}
}

func (s *Session) setState(next State, reason string) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	if prev == next {
		return
	}

	log.Stamp(s.logger, log.Event{
		SessionID:  s.id,
		Layer:      log.LayerSession,
		Category:   log.CategoryState,
		RemoteAddr: s.identity.Address,
		RobotName:  s.identity.Name,
		StateChange: &log.StateChangeEvent{
			OldState: prev.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})

	if s.config.OnStateChange != nil {
		s.config.OnStateChange(prev, next)
	}
}

func (s *Session) logMessage(ctx context.Context, dir log.Direction, m *wire.Message, raw []byte, rtt *time.Duration) {
	me := &log.MessageEvent{
		Cmd:       m.Cmd.String(),
		Type:      m.Type,
		Opcode:    OpcodeFrom(ctx),
		Payload:   string(raw),
		RoundTrip: rtt,
	}
	if dir == log.DirectionIn {
		me.Status = m.Status
		me.Code = m.Code
	}
	log.Stamp(s.logger, log.Event{
		SessionID:  s.id,
		Direction:  dir,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		RemoteAddr: s.identity.Address,
		RobotName:  s.identity.Name,
		Message:    me,
	})
}

func (s *Session) logDiscard(raw []byte, err error) {
	log.Stamp(s.logger, log.Event{
		SessionID:  s.id,
		Direction:  log.DirectionIn,
		Layer:      log.LayerWire,
		Category:   log.CategoryError,
		RemoteAddr: s.identity.Address,
		RobotName:  s.identity.Name,
		Frame:      log.NewFrameEvent(raw),
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: "discarded reply",
		},
	})
}

func isLoopback(address string) bool {
	host := address
	if h, _, err := net.SplitHostPort(address); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
