package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store maps session ids to sessions and expires idle ones.
type Store struct {
	ttl        time.Duration
	maxHistory int
	now        func() time.Time
	log        zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// WithLogger sets the logger used by the janitor.
func WithLogger(log zerolog.Logger) Option {
	return func(st *Store) { st.log = log }
}

// NewStore creates a store whose sessions expire after ttl without use and
// keep at most maxHistory undo versions.
func NewStore(ttl time.Duration, maxHistory int, opts ...Option) *Store {
	st := &Store{
		ttl:        ttl,
		maxHistory: maxHistory,
		now:        time.Now,
		log:        zerolog.Nop(),
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Create starts a new session.
func (st *Store) Create() *Session {
	s := &Session{
		id:  uuid.NewString(),
		max: st.maxHistory,
		now: st.now,
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	s.lastSeen = st.now()
	st.sessions[s.id] = s
	return s
}

// Get returns a live session and marks it as used. Expired sessions are
// removed and reported as missing.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Touch marks a session as used.
func (st *Store) Touch(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		s.lastSeen = st.now()
	}
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of stored sessions, expired ones included until the
// next sweep.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(s.lastSeen) > st.ttl
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps the store every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(st.now()); n > 0 {
				st.log.Debug().Int("expired", n).Int("live", st.Len()).Msg("sessions swept")
			}
		}
	}
}
