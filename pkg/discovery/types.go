package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/wire"
)

// Service type constants for mDNS.
const (
	// ServiceTypeRobot is the DNS-SD service type robots advertise.
	ServiceTypeRobot = "_yanshee._tcp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// Timing constants.
const (
	// DefaultPerAttemptTimeout is the vendor socket receive timeout.
	DefaultPerAttemptTimeout = 3 * time.Second

	// DefaultMaxAttempts is used by callers that have no budget of their own.
	DefaultMaxAttempts = 3
)

// Discovery errors.
var (
	// ErrNotFound indicates the target did not answer within the budget.
	ErrNotFound = errors.New("robot not found")

	// ErrInvalidQuery indicates a query that can never succeed.
	ErrInvalidQuery = errors.New("invalid discovery query")
)

// Identity names a robot on the network.
type Identity struct {
	// Name is the robot's advertised name, at most 32 bytes.
	Name string `json:"name" yaml:"name"`

	// Address is the robot's IPv4 address, at most 16 bytes.
	Address string `json:"address" yaml:"address"`
}

// NewIdentity builds an identity, truncating fields to the vendor limits.
func NewIdentity(name, address string) Identity {
	return Identity{
		Name:    wire.Truncate(name, wire.MaxNameLen),
		Address: wire.Truncate(address, wire.MaxIPLen),
	}
}

// Equal reports whether two identities name the same robot.
func (id Identity) Equal(other Identity) bool {
	return id.Name == other.Name
}

// String returns "name@address".
func (id Identity) String() string {
	return id.Name + "@" + id.Address
}

// Policy decides what a run returns when the target never answered.
type Policy int

const (
	// MatchExact requires the target name to answer.
	MatchExact Policy = iota

	// AcceptAny falls back to the first robot seen.
	AcceptAny
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case MatchExact:
		return "EXACT"
	case AcceptAny:
		return "ANY"
	default:
		return "UNKNOWN"
	}
}

// ParsePolicy parses "exact" or "any".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "exact", "EXACT":
		return MatchExact, nil
	case "any", "ANY":
		return AcceptAny, nil
	default:
		return MatchExact, errors.New("unknown discovery policy " + s)
	}
}

// Query is the input to Discover.
type Query struct {
	// TargetName is the robot name to find. Names longer than
	// wire.MaxNameLen are cut to the length robots report.
	TargetName string `yaml:"target"`

	// MaxAttempts bounds the number of probe rounds. Must be positive.
	MaxAttempts int `yaml:"max_attempts"`

	// PerAttemptTimeout is the collection window per round
	// (default: 3s).
	PerAttemptTimeout time.Duration `yaml:"per_attempt_timeout"`

	// Policy selects the fallback behavior (default: MatchExact).
	Policy Policy `yaml:"-"`
}

// validate checks q and applies defaults.
func (q Query) validate() (Query, error) {
	if q.MaxAttempts <= 0 {
		return q, errors.Join(ErrInvalidQuery, errors.New("max attempts must be positive"))
	}
	if q.TargetName == "" && q.Policy == MatchExact {
		return q, errors.Join(ErrInvalidQuery, errors.New("exact match needs a target name"))
	}
	if q.PerAttemptTimeout <= 0 {
		q.PerAttemptTimeout = DefaultPerAttemptTimeout
	}
	q.TargetName = wire.Truncate(q.TargetName, wire.MaxNameLen)
	return q, nil
}

// Prober sends one probe and reports responders until timeout passes,
// ctx is done, or seen returns true.
//
// seen may be called from multiple goroutines; implementations must not
// call it after Probe returns.
type Prober interface {
	Probe(ctx context.Context, target string, timeout time.Duration, seen func(Identity) bool) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, target string, timeout time.Duration, seen func(Identity) bool) error

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, target string, timeout time.Duration, seen func(Identity) bool) error {
	return f(ctx, target, timeout, seen)
}
