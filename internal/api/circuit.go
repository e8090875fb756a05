package api

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while a host's breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open: host is failing, backing off")

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// circuitBreaker trips after threshold consecutive 429/5xx responses from one
// host, stays open for resetTimeout, then lets a single probe through.
type circuitBreaker struct {
	mu           sync.Mutex
	state        circuitState
	consecutive  int
	threshold    int
	resetTimeout time.Duration
	openedAt     time.Time
}

// Allow returns the current state and whether a request may proceed.
func (cb *circuitBreaker) Allow() (circuitState, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == circuitOpen {
		if time.Since(cb.openedAt) < cb.resetTimeout {
			return circuitOpen, false
		}
		cb.state = circuitHalfOpen
	}
	return cb.state, true
}

// RecordSuccess closes the circuit and returns the previous state.
func (cb *circuitBreaker) RecordSuccess() circuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	prev := cb.state
	cb.consecutive = 0
	cb.state = circuitClosed
	return prev
}

// RecordFailure counts a failure and returns the resulting state.
func (cb *circuitBreaker) RecordFailure() circuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.consecutive++
	if cb.state == circuitHalfOpen || cb.consecutive >= cb.threshold {
		cb.state = circuitOpen
		cb.openedAt = time.Now()
	}
	return cb.state
}

// breakerSet keeps one breaker per host so a failing CDN does not block the
// content API or other CDNs.
type breakerSet struct {
	mu           sync.Mutex
	byHost       map[string]*circuitBreaker
	threshold    int
	resetTimeout time.Duration
}

func newBreakerSet(threshold int, resetTimeout time.Duration) *breakerSet {
	return &breakerSet{
		byHost:       make(map[string]*circuitBreaker),
		threshold:    threshold,
		resetTimeout: resetTimeout,
	}
}

func (s *breakerSet) get(host string) *circuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.byHost[host]
	if !ok {
		cb = &circuitBreaker{threshold: s.threshold, resetTimeout: s.resetTimeout}
		s.byHost[host] = cb
	}
	return cb
}
