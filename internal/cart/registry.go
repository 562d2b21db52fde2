package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Session pairs a cart with its recommendation refresher.
type Session struct {
	Cart      *Cart
	Refresher *Refresher

	lastSeen time.Time
}

// Registry owns the carts of all live sessions.  Keys are session ids for
// signed-in visitors and GuestKey(id) for guests.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	delay    time.Duration
	fetch    RecommendFunc
	now      func() time.Time
	log      *zap.Logger
}

func NewRegistry(delay time.Duration, fetch RecommendFunc, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{sessions: map[string]*Session{}, delay: delay, fetch: fetch, now: time.Now, log: log}
}

// GuestKey namespaces a client-chosen guest cart id.
func GuestKey(cartID string) string { return "guest:" + cartID }

// Get returns the session for key, creating an empty one if needed, and
// marks it as used.
func (r *Registry) Get(key string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		s = &Session{Cart: New(), Refresher: NewRefresher(r.delay, r.fetch)}
		r.sessions[key] = s
	}
	s.lastSeen = r.now()
	return s
}

// Drop discards a session's cart, for example at sign-out.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	s, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()
	if ok {
		s.Refresher.Close()
	}
}

// Len returns the number of live carts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions unused for longer than idle and returns how many
// were dropped.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	var stale []*Session
	r.mu.Lock()
	for k, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, k)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Refresher.Close()
	}
	return len(stale)
}

// RunSweeper sweeps every interval until ctx is done, then closes every
// remaining session.
func (r *Registry) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-t.C:
			if n := r.Sweep(idle); n > 0 {
				r.log.Debug("idle carts swept", zap.Int("count", n))
			}
		}
	}
}

// Close drops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = map[string]*Session{}
	r.mu.Unlock()
	for _, s := range all {
		s.Refresher.Close()
	}
}
