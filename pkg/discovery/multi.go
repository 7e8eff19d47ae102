package discovery

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MultiProber runs several probers in the same round, for example UDP
// broadcast alongside mDNS.
type MultiProber struct {
	probers []Prober
}

var _ Prober = (*MultiProber)(nil)

// NewMultiProber combines probers. Nil entries are skipped.
func NewMultiProber(probers ...Prober) *MultiProber {
	m := &MultiProber{}
	for _, p := range probers {
		if p != nil {
			m.probers = append(m.probers, p)
		}
	}
	return m
}

// Probe runs all probers concurrently. The first match stops the others.
// The round fails only when every prober failed.
func (m *MultiProber) Probe(ctx context.Context, target string, timeout time.Duration, seen func(Identity) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		stopped bool
	)
	guarded := func(id Identity) bool {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return true
		}
		if seen(id) {
			stopped = true
			cancel()
			return true
		}
		return false
	}

	errs := make([]error, len(m.probers))
	var wg sync.WaitGroup
	for i, p := range m.probers {
		wg.Add(1)
		go func(i int, p Prober) {
			defer wg.Done()
			errs[i] = p.Probe(ctx, target, timeout, guarded)
		}(i, p)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if stopped {
		return nil
	}
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed > 0 && failed == len(errs) {
		return errors.Join(errs...)
	}
	return nil
}
