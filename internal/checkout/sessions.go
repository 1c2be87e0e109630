package checkout

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("checkout session not found")

// SessionsConfig configures the session registry.
type SessionsConfig struct {
	TTL         time.Duration
	Now         func() time.Time
	NewCheckout func() *Checkout
	// OnChange, when set, receives the registry size after every create or removal.
	OnChange    func(active int)
}

// Sessions keeps live checkouts in memory, keyed by a random id. Each session
// is guarded by its own mutex so a Checkout is never used concurrently.
type Sessions struct {
	mu          sync.Mutex
	entries     map[string]*session
	ttl         time.Duration
	now         func() time.Time
	newCheckout func() *Checkout
	onChange    func(active int)
}

type session struct {
	mu       sync.Mutex
	checkout *Checkout
	expires  time.Time
}

// NewSessions constructs an empty registry.
func NewSessions(cfg SessionsConfig) *Sessions {
	s := &Sessions{
		entries:     make(map[string]*session),
		ttl:         cfg.TTL,
		now:         cfg.Now,
		newCheckout: cfg.NewCheckout,
		onChange:    cfg.OnChange,
	}
	if s.ttl <= 0 {
		s.ttl = 30 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newCheckout == nil {
		s.newCheckout = func() *Checkout { return New(nil) }
	}
	return s
}

// Fresh returns a new, unregistered checkout configured like session checkouts.
func (s *Sessions) Fresh() *Checkout {
	return s.newCheckout()
}

// Create registers a new session and returns its id.
func (s *Sessions) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = &session{checkout: s.newCheckout(), expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	s.changed()
	return id
}

// With runs fn with exclusive access to the session's checkout and extends its TTL.
func (s *Sessions) With(id string, fn func(*Checkout) error) error {
	s.mu.Lock()
	entry, ok := s.entries[id]
	now := s.now()
	expired := ok && now.After(entry.expires)
	if expired {
		delete(s.entries, id)
		ok = false
	}
	if ok {
		entry.expires = now.Add(s.ttl)
	}
	s.mu.Unlock()
	if expired {
		s.changed()
	}
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.checkout)
}

// Delete removes a session. It reports whether a live session existed;
// an expired one is dropped and reported as missing.
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	entry, ok := s.entries[id]
	live := ok && !s.now().After(entry.expires)
	delete(s.entries, id)
	s.mu.Unlock()
	if ok {
		s.changed()
	}
	return live
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if now.After(entry.expires) {
			delete(s.entries, id)
			removed++
		}
	}
	s.mu.Unlock()
	if removed > 0 {
		s.changed()
	}
	return removed
}

// Len returns the number of registered sessions, expired or not.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Sessions) changed() {
	if s.onChange != nil {
		s.onChange(s.Len())
	}
}
