package command

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// ArgKind is the type of a request argument.
type ArgKind uint8

const (
	KindString ArgKind = iota
	KindInt
	KindBool
	KindBytes
)

// String returns the kind name.
func (k ArgKind) String() string {
	switch k {
	case KindString:
		return "STRING"
	case KindInt:
		return "INT"
	case KindBool:
		return "BOOL"
	case KindBytes:
		return "BYTES"
	default:
		return "UNKNOWN"
	}
}

// Arg is one typed request argument.
type Arg struct {
	Kind  ArgKind
	Str   string
	Int   int
	Bool  bool
	Bytes []byte
}

// String creates a string argument.
func String(s string) Arg { return Arg{Kind: KindString, Str: s} }

// Int creates an integer argument.
func Int(n int) Arg { return Arg{Kind: KindInt, Int: n} }

// Bool creates a boolean argument.
func Bool(b bool) Arg { return Arg{Kind: KindBool, Bool: b} }

// Bytes creates a byte-string argument.
func Bytes(b []byte) Arg { return Arg{Kind: KindBytes, Bytes: b} }

// String formats the argument value.
func (a Arg) String() string {
	switch a.Kind {
	case KindString:
		return a.Str
	case KindInt:
		return strconv.Itoa(a.Int)
	case KindBool:
		return strconv.FormatBool(a.Bool)
	case KindBytes:
		return hex.EncodeToString(a.Bytes)
	default:
		return "?"
	}
}

// ParseArg converts command line text into an argument of the given kind.
// Bytes are read as hex.
func ParseArg(kind ArgKind, s string) (Arg, error) {
	switch kind {
	case KindString:
		return String(s), nil
	case KindInt:
		n, err := strconv.Atoi(s)
		if err != nil {
			return Arg{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidArgument, s)
		}
		return Int(n), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Arg{}, fmt.Errorf("%w: %q is not a boolean", ErrInvalidArgument, s)
		}
		return Bool(b), nil
	case KindBytes:
		b, err := hex.DecodeString(s)
		if err != nil {
			return Arg{}, fmt.Errorf("%w: %q is not hex", ErrInvalidArgument, s)
		}
		return Bytes(b), nil
	default:
		return Arg{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidArgument, kind)
	}
}

// checkArgs validates argument count and kinds against params.
func checkArgs(opcode string, params []ArgKind, args []Arg) error {
	if len(args) != len(params) {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidArgument, opcode, len(params), len(args))
	}
	for i, want := range params {
		if args[i].Kind != want {
			return fmt.Errorf("%w: %s argument %d must be %s, got %s", ErrInvalidArgument, opcode, i+1, want, args[i].Kind)
		}
	}
	return nil
}
