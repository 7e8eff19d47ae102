package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// ErrDuplicateOpcode indicates an opcode registered twice.
var ErrDuplicateOpcode = errors.New("opcode already registered")

// Codec converts between an opcode's arguments and vendor messages.
type Codec interface {
	// Params lists the argument kinds the opcode takes.
	Params() []ArgKind

	// Encode builds the request. Errors wrap ErrInvalidArgument.
	Encode(args []Arg) (*wire.Message, error)

	// Decode extracts the payload from a successful reply.
	Decode(args []Arg, reply *wire.Message) ([]byte, error)

	// ResponseSize is the fixed payload size, or 0 for variable payloads.
	ResponseSize() int
}

// Waiter is implemented by codecs whose robot holds the reply back, as
// the detect opcodes do. Execute waits at least ReplyWait for the reply.
type Waiter interface {
	ReplyWait(args []Arg) time.Duration
}

// FuncCodec builds a Codec from functions.
type FuncCodec struct {
	// Opcode names the codec in error messages.
	Opcode string

	// Kinds lists the expected argument kinds.
	Kinds []ArgKind

	// Size is the fixed payload size (0 for variable).
	Size int

	// Validate checks argument values after kinds are checked (optional).
	Validate func(args []Arg) error

	// Build creates the request message.
	Build func(args []Arg) (*wire.Message, error)

	// Extract pulls the payload from the reply (optional; nil means no payload).
	Extract func(args []Arg, reply *wire.Message) ([]byte, error)

	// Wait is how long the robot may take to answer (optional).
	Wait func(args []Arg) time.Duration
}

var (
	_ Codec  = (*FuncCodec)(nil)
	_ Waiter = (*FuncCodec)(nil)
)

// Params implements Codec.
func (c *FuncCodec) Params() []ArgKind {
	return c.Kinds
}

// Encode implements Codec.
func (c *FuncCodec) Encode(args []Arg) (*wire.Message, error) {
	if err := checkArgs(c.Opcode, c.Kinds, args); err != nil {
		return nil, err
	}
	if c.Validate != nil {
		if err := c.Validate(args); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArgument, c.Opcode, err)
		}
	}
	return c.Build(args)
}

// Decode implements Codec.
func (c *FuncCodec) Decode(args []Arg, reply *wire.Message) ([]byte, error) {
	if c.Extract == nil {
		return nil, nil
	}
	return c.Extract(args, reply)
}

// ResponseSize implements Codec.
func (c *FuncCodec) ResponseSize() int {
	return c.Size
}

// ReplyWait implements Waiter.
func (c *FuncCodec) ReplyWait(args []Arg) time.Duration {
	if c.Wait == nil {
		return 0
	}
	return c.Wait(args)
}

// Registry maps opcodes to codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// DefaultRegistry creates a registry holding the built-in opcodes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for op, c := range builtinCodecs() {
		r.codecs[op] = c
	}
	return r
}

// Register adds a codec. Registering an existing opcode fails.
func (r *Registry) Register(opcode string, c Codec) error {
	if opcode == "" || c == nil {
		return fmt.Errorf("%w: empty opcode or codec", ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.codecs[opcode]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOpcode, opcode)
	}
	r.codecs[opcode] = c
	return nil
}

// Lookup returns the codec for opcode.
func (r *Registry) Lookup(opcode string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[opcode]
	return c, ok
}

// Opcodes returns the registered opcodes in sorted order.
func (r *Registry) Opcodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops := make([]string, 0, len(r.codecs))
	for op := range r.codecs {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
