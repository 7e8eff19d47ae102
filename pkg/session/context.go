package session

import "context"

type opcodeKey struct{}

// WithOpcode tags ctx with the client opcode being executed, so protocol
// log events can name it.
func WithOpcode(ctx context.Context, opcode string) context.Context {
	return context.WithValue(ctx, opcodeKey{}, opcode)
}

// OpcodeFrom returns the opcode set by WithOpcode, or "".
func OpcodeFrom(ctx context.Context) string {
	op, _ := ctx.Value(opcodeKey{}).(string)
	return op
}
