package session

import (
	"sync"
	"time"
)

// Registry keeps one controller per chat
type Registry struct {
	factory func() *Controller
	clock   Clock

	mu       sync.RWMutex
	sessions map[int64]*Controller
}

// NewRegistry creates a registry that builds controllers with factory
func NewRegistry(factory func() *Controller, clock Clock) *Registry {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Registry{
		factory:  factory,
		clock:    clock,
		sessions: make(map[int64]*Controller),
	}
}

// Get returns the controller of chatID, creating it on first use
func (r *Registry) Get(chatID int64) (c *Controller, created bool) {
	r.mu.RLock()
	c, ok := r.sessions[chatID]
	r.mu.RUnlock()
	if ok {
		return c, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.sessions[chatID]; ok {
		return c, false
	}
	c = r.factory()
	r.sessions[chatID] = c
	return c, true
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseIdle closes sessions idle longer than maxIdle. Sessions with a request in flight are kept.
func (r *Registry) CloseIdle(maxIdle time.Duration) int {
	now := r.clock.Now()
	var idle []*Controller

	r.mu.Lock()
	for chatID, c := range r.sessions {
		if c.Busy() || now.Sub(c.LastActive()) <= maxIdle {
			continue
		}
		idle = append(idle, c)
		delete(r.sessions, chatID)
	}
	r.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	return len(idle)
}

// CloseAll closes every session
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[int64]*Controller)
	r.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}
