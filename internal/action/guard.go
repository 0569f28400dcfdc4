// Package action models a user-triggered side effect as a small state
// machine: idle -> pending -> success | failure. A pending guard rejects
// re-entrant triggers; a finished one may be started again.
package action

import (
	"errors"
	"sync"
	"time"
)

type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

var ErrPending = errors.New("action already in progress")

type Snapshot struct {
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Guard struct {
	mu      sync.Mutex
	state   State
	lastErr error
	updated time.Time
}

func NewGuard() *Guard {
	return &Guard{state: StateIdle, updated: time.Now()}
}

// Begin moves the guard to pending. It returns ErrPending if an attempt is
// already outstanding.
func (g *Guard) Begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StatePending {
		return ErrPending
	}
	g.state = StatePending
	g.lastErr = nil
	g.updated = time.Now()
	return nil
}

func (g *Guard) Succeed() {
	g.finish(StateSuccess, nil)
}

func (g *Guard) Fail(err error) {
	g.finish(StateFailure, err)
}

// Finish settles the attempt from its error.
func (g *Guard) Finish(err error) {
	if err != nil {
		g.Fail(err)
		return
	}
	g.Succeed()
}

func (g *Guard) finish(state State, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StatePending {
		return
	}
	g.state = state
	g.lastErr = err
	g.updated = time.Now()
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) Pending() bool {
	return g.State() == StatePending
}

func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Snapshot{State: g.state, UpdatedAt: g.updated}
	if g.lastErr != nil {
		s.Error = g.lastErr.Error()
	}
	return s
}

// Registry hands out one guard per key. Settled guards older than ttl are
// swept by Sweep.
type Registry struct {
	mu     sync.Mutex
	guards map[string]*Guard
}

func NewRegistry() *Registry {
	return &Registry{guards: make(map[string]*Guard)}
}

func (r *Registry) Get(key string) *Guard {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guards[key]
	if !ok {
		g = NewGuard()
		r.guards[key] = g
	}
	return g
}

func (r *Registry) Sweep(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, g := range r.guards {
		s := g.Snapshot()
		if s.State != StatePending && time.Since(s.UpdatedAt) > ttl {
			delete(r.guards, key)
			removed++
		}
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.guards)
}
