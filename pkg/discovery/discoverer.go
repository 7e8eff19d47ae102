package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ubtedu/yanshee-go/pkg/log"
	"github.com/ubtedu/yanshee-go/pkg/retry"
)

// Config configures a Discoverer.
type Config struct {
	// Prober sends probes (default: UDPProber with vendor defaults).
	Prober Prober

	// Backoff spaces out rounds. Nil means rounds run back to back.
	Backoff retry.Policy

	// Logger receives discovery events (optional).
	Logger log.Logger
}

// Discoverer runs bounded discovery rounds over a Prober.
// A Discoverer holds no per-run state and is safe for concurrent use.
type Discoverer struct {
	prober  Prober
	backoff retry.Policy
	logger  log.Logger

	// backoffMu serializes use of the shared backoff policy.
	backoffMu sync.Mutex
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(cfg Config) *Discoverer {
	if cfg.Prober == nil {
		cfg.Prober = NewUDPProber(UDPProberConfig{})
	}
	return &Discoverer{
		prober:  cfg.Prober,
		backoff: cfg.Backoff,
		logger:  log.Or(cfg.Logger),
	}
}

// Discover finds the robot described by q.
//
// It returns as soon as a responder's name equals q.TargetName. After
// q.MaxAttempts rounds without a match it returns ErrNotFound, or the
// first robot seen when q.Policy is AcceptAny.
func (d *Discoverer) Discover(ctx context.Context, q Query) (Identity, error) {
	q, err := q.validate()
	if err != nil {
		return Identity{}, err
	}

	run := &discoveryRun{
		query:  q,
		logger: d.logger,
		byName: make(map[string]Identity),
	}

	d.resetBackoff()
	var lastErr error
	for attempt := 1; attempt <= q.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := retry.Sleep(ctx, d.nextDelay()); err != nil {
				return Identity{}, err
			}
		}

		run.setAttempt(attempt)
		run.event(log.DiscoveryProbe, Identity{})

		err := d.prober.Probe(ctx, q.TargetName, q.PerAttemptTimeout, run.seen)
		if id, ok := run.match(); ok {
			run.event(log.DiscoveryFound, id)
			return id, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Identity{}, ctxErr
		}
		if err != nil {
			lastErr = err
			run.error(err)
		}
	}

	if q.Policy == AcceptAny {
		if id, ok := run.first(); ok {
			run.event(log.DiscoveryFound, id)
			return id, nil
		}
	}

	run.event(log.DiscoveryNotFound, Identity{})
	err = fmt.Errorf("%w: %q after %d attempts", ErrNotFound, q.TargetName, q.MaxAttempts)
	if lastErr != nil {
		err = fmt.Errorf("%w (last probe error: %v)", err, lastErr)
	}
	return Identity{}, err
}

func (d *Discoverer) resetBackoff() {
	if d.backoff == nil {
		return
	}
	d.backoffMu.Lock()
	defer d.backoffMu.Unlock()
	d.backoff.Reset()
}

func (d *Discoverer) nextDelay() time.Duration {
	if d.backoff == nil {
		return 0
	}
	d.backoffMu.Lock()
	defer d.backoffMu.Unlock()
	return d.backoff.Next()
}

// discoveryRun collects responders across the rounds of one Discover call.
type discoveryRun struct {
	query  Query
	logger log.Logger

	mu      sync.Mutex
	attempt int
	order   []string
	byName  map[string]Identity
	matched *Identity
}

func (r *discoveryRun) setAttempt(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt = n
}

// seen records a responder and reports whether the round can stop.
func (r *discoveryRun) seen(raw Identity) bool {
	id := NewIdentity(raw.Name, raw.Address)

	r.mu.Lock()
	if r.matched != nil {
		r.mu.Unlock()
		return true
	}
	prev, known := r.byName[id.Name]
	if known && prev.Address != id.Address {
		r.mu.Unlock()
		r.event(log.DiscoveryDuplicate, id)
		return false
	}
	if !known {
		r.byName[id.Name] = id
		r.order = append(r.order, id.Name)
	}
	hit := r.isTarget(id)
	if hit {
		m := r.byName[id.Name]
		r.matched = &m
	}
	r.mu.Unlock()

	if !known {
		r.event(log.DiscoveryResponse, id)
	}
	return hit
}

func (r *discoveryRun) isTarget(id Identity) bool {
	if r.query.TargetName == "" {
		return r.query.Policy == AcceptAny
	}
	return id.Name == r.query.TargetName
}

func (r *discoveryRun) match() (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.matched == nil {
		return Identity{}, false
	}
	return *r.matched, true
}

func (r *discoveryRun) first() (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return Identity{}, false
	}
	return r.byName[r.order[0]], true
}

func (r *discoveryRun) event(outcome log.DiscoveryOutcome, id Identity) {
	r.mu.Lock()
	attempt := r.attempt
	r.mu.Unlock()

	log.Stamp(r.logger, log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerDiscovery,
		Category:  log.CategoryDiscovery,
		RobotName: id.Name,
		Discovery: &log.DiscoveryEvent{
			Target:  r.query.TargetName,
			Attempt: attempt,
			Outcome: outcome,
			Name:    id.Name,
			Address: id.Address,
		},
	})
}

func (r *discoveryRun) error(err error) {
	log.Stamp(r.logger, log.Event{
		Layer:    log.LayerDiscovery,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerDiscovery,
			Message: err.Error(),
			Context: "probe",
		},
	})
}
