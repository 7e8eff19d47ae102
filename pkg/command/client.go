package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/session"
	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// DefaultTimeout is how long Execute waits for a reply.
const DefaultTimeout = 3 * time.Second

// Session is the part of *session.Session that Execute needs.
type Session interface {
	IsConnected() bool
	RoundTrip(ctx context.Context, req *wire.Message, timeout time.Duration) (*wire.Message, error)
}

var _ Session = (*session.Session)(nil)

// Request names an opcode and its arguments.
type Request struct {
	Opcode string
	Args   []Arg

	// ExpectedResponseSize is the minimum payload length. Zero uses the
	// codec's fixed size, if any.
	ExpectedResponseSize int
}

// Config configures a Client.
type Config struct {
	// Registry resolves opcodes (default: DefaultRegistry()).
	Registry *Registry

	// Timeout bounds each reply wait (default: 3s). Codecs implementing
	// Waiter may extend it. A context deadline that expires sooner wins.
	Timeout time.Duration

	// OnPhase observes call progress (optional).
	OnPhase func(opcode string, phase Phase)
}

// Client executes opcodes. A Client holds no session state and can be
// shared between sessions.
type Client struct {
	registry *Registry
	timeout  time.Duration
	onPhase  func(string, Phase)
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		registry: cfg.Registry,
		timeout:  cfg.Timeout,
		onPhase:  cfg.OnPhase,
	}
}

// Registry returns the client's opcode registry.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Execute sends req over s and waits for the reply.
//
// The session must be connected; otherwise ErrInvalidState is returned
// before anything is sent. A vendor failure is reported in the Result,
// not as an error.
func (c *Client) Execute(ctx context.Context, s Session, req Request) (Result, error) {
	if !s.IsConnected() {
		return Result{}, fmt.Errorf("%w: execute %s", ErrInvalidState, req.Opcode)
	}

	codec, ok := c.registry.Lookup(req.Opcode)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownOpcode, req.Opcode)
	}

	msg, err := codec.Encode(req.Args)
	if err != nil {
		if !errors.Is(err, ErrInvalidArgument) {
			err = fmt.Errorf("%w: %s: %v", ErrInvalidArgument, req.Opcode, err)
		}
		return Result{}, err
	}

	timeout := c.timeout
	if w, ok := codec.(Waiter); ok {
		timeout = max(timeout, w.ReplyWait(req.Args))
	}

	c.phase(req.Opcode, PhaseIdle)
	c.phase(req.Opcode, PhaseSent)

	reply, err := s.RoundTrip(session.WithOpcode(ctx, req.Opcode), msg, timeout)
	if err != nil {
		if errors.Is(err, session.ErrMalformedReply) {
			c.phase(req.Opcode, PhaseProtocolError)
			return Result{}, fmt.Errorf("%s: %w: %w", req.Opcode, ErrProtocol, err)
		}
		if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			c.phase(req.Opcode, PhaseTimedOut)
			if !errors.Is(err, ErrTimeout) {
				err = fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			return Result{}, fmt.Errorf("%s: %w", req.Opcode, err)
		}
		return Result{}, fmt.Errorf("%s: %w", req.Opcode, err)
	}

	if rc, text := reply.Result(); rc != wire.RCSuccess {
		c.phase(req.Opcode, PhaseCompleted)
		return Result{Failure: &Failure{Code: rc, Message: text}}, nil
	}

	payload, err := codec.Decode(req.Args, reply)
	if err != nil {
		c.phase(req.Opcode, PhaseProtocolError)
		if !errors.Is(err, ErrProtocol) {
			err = fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		return Result{}, fmt.Errorf("%s: %w", req.Opcode, err)
	}

	want := req.ExpectedResponseSize
	if want == 0 {
		want = codec.ResponseSize()
	}
	if len(payload) < want {
		c.phase(req.Opcode, PhaseProtocolError)
		return Result{}, fmt.Errorf("%s: %w: payload %d bytes, expected %d", req.Opcode, ErrProtocol, len(payload), want)
	}
	if fixed := codec.ResponseSize(); fixed > 0 && len(payload) > fixed {
		payload = payload[:fixed]
	}

	c.phase(req.Opcode, PhaseCompleted)
	return Result{Payload: payload}, nil
}

func (c *Client) phase(opcode string, p Phase) {
	if c.onPhase != nil {
		c.onPhase(opcode, p)
	}
}
