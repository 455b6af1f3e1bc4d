package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Factory builds the controller of a new session.
type Factory func(ctx context.Context) (*Controller, error)

type session struct {
	c        *Controller
	lastSeen time.Time
}

// Sessions keeps one controller per browser session in memory. Drafts
// are never persisted; an idle session expires after ttl.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	factory  Factory
	now      func() time.Time
}

// NewSessions creates an empty session store.
func NewSessions(factory Factory, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Sessions{
		sessions: make(map[string]*session),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
	}
}

// Get returns the live controller of id and refreshes its expiry.
func (s *Sessions) Get(id string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(sess.lastSeen) > s.ttl {
		delete(s.sessions, id)
		sess.c.Close()
		return nil, false
	}
	sess.lastSeen = now
	return sess.c, true
}

// Create starts a new session.
func (s *Sessions) Create(ctx context.Context) (string, *Controller, error) {
	c, err := s.factory(ctx)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &session{c: c, lastSeen: s.now()}
	s.mu.Unlock()
	return id, c, nil
}

// GetOrCreate returns the controller of id, starting a new session when
// id is unknown or expired. created reports which happened.
func (s *Sessions) GetOrCreate(ctx context.Context, id string) (string, *Controller, bool, error) {
	if id != "" {
		if c, ok := s.Get(id); ok {
			return id, c, false, nil
		}
	}
	newID, c, err := s.Create(ctx)
	return newID, c, true, err
}

// Drop discards a session, e.g. after a successful submission.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.c.Close()
	}
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	now := s.now()
	var expired []*session
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.c.Close()
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
