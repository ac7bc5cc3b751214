// Package infra holds the resilience helpers used by outbound link probes:
// a TTL cache, in-flight request coalescing and per-host circuit breakers.
package infra

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RequestDeduplicator coalesces identical in-flight calls. While a call for a
// key is running, later callers for the same key wait for its result.
type RequestDeduplicator[V any] struct {
	mu       sync.Mutex
	inflight map[string]*inflightCall[V]
}

type inflightCall[V any] struct {
	done    chan struct{}
	result  V
	err     error
	waiters int
}

// NewRequestDeduplicator creates an empty deduplicator.
func NewRequestDeduplicator[V any]() *RequestDeduplicator[V] {
	return &RequestDeduplicator[V]{inflight: make(map[string]*inflightCall[V])}
}

// Do runs fn unless a call with the same key is in flight, in which case it
// waits for that call. shared reports whether the result came from another caller.
func (d *RequestDeduplicator[V]) Do(ctx context.Context, key string, fn func() (V, error)) (result V, shared bool, err error) {
	d.mu.Lock()
	if call, ok := d.inflight[key]; ok {
		call.waiters++
		d.mu.Unlock()

		select {
		case <-call.done:
			return call.result, true, call.err
		case <-ctx.Done():
			var zero V
			return zero, false, ctx.Err()
		}
	}

	call := &inflightCall[V]{done: make(chan struct{}), waiters: 1}
	d.inflight[key] = call
	d.mu.Unlock()

	call.result, call.err = fn()
	close(call.done)

	d.mu.Lock()
	delete(d.inflight, key)
	d.mu.Unlock()

	return call.result, false, call.err
}

// InFlight returns the number of keys currently running.
func (d *RequestDeduplicator[V]) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a CircuitBreaker.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	ResetTimeout     time.Duration // how long to stay open before probing
	HalfOpenMax      int           // probes allowed while half-open
}

// DefaultBreakerConfig suits probing third-party sites: a host that refuses
// three times in a row is skipped for a minute.
var DefaultBreakerConfig = BreakerConfig{
	FailureThreshold: 3,
	ResetTimeout:     time.Minute,
	HalfOpenMax:      1,
}

// CircuitBreaker fails fast after repeated failures against one target.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg BreakerConfig
	now func() time.Time

	state            CircuitState
	consecutiveFails int
	lastFailure      time.Time
	halfOpenCount    int
}

// NewCircuitBreaker returns a closed breaker. Zero config fields take defaults.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultBreakerConfig.ResetTimeout
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = DefaultBreakerConfig.HalfOpenMax
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Allow reports whether a call may proceed, moving open to half-open once
// the reset timeout has passed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailure) < cb.cfg.ResetTimeout {
			return false
		}
		cb.state = CircuitHalfOpen
		cb.halfOpenCount = 1
		return true
	case CircuitHalfOpen:
		if cb.halfOpenCount < cb.cfg.HalfOpenMax {
			cb.halfOpenCount++
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess closes the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutiveFails = 0
	cb.state = CircuitClosed
	cb.halfOpenCount = 0
}

// RecordFailure counts a failure, opening the breaker at the threshold or
// immediately when half-open.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFails++
	cb.lastFailure = cb.now()

	switch cb.state {
	case CircuitClosed:
		if cb.consecutiveFails >= cb.cfg.FailureThreshold {
			cb.state = CircuitOpen
		}
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.halfOpenCount = 0
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Err returns ErrCircuitOpen describing why Allow refused.
func (cb *CircuitBreaker) Err(target string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return &ErrCircuitOpen{
		Target:   target,
		RetryAt:  cb.lastFailure.Add(cb.cfg.ResetTimeout),
		Failures: cb.consecutiveFails,
	}
}

// ErrCircuitOpen is returned for calls refused by an open breaker.
type ErrCircuitOpen struct {
	Target   string
	RetryAt  time.Time
	Failures int
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit open for %s after %d failures, retry after %s",
		e.Target, e.Failures, e.RetryAt.Format(time.RFC3339))
}

// BreakerSet lazily keeps one CircuitBreaker per key, typically a host name.
type BreakerSet struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	breakers map[string]*CircuitBreaker
}

// NewBreakerSet returns an empty set whose breakers use cfg.
func NewBreakerSet(cfg BreakerConfig) *BreakerSet {
	return &BreakerSet{cfg: cfg, breakers: make(map[string]*CircuitBreaker)}
}

// For returns the breaker for key, creating it on first use.
func (s *BreakerSet) For(key string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.breakers[key]
	if !ok {
		cb = NewCircuitBreaker(s.cfg)
		s.breakers[key] = cb
	}
	return cb
}

// Open lists keys whose breaker is currently open.
func (s *BreakerSet) Open() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k, cb := range s.breakers {
		if cb.State() == CircuitOpen {
			keys = append(keys, k)
		}
	}
	return keys
}
