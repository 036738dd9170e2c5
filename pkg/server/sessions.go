package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/alphacouncil/pkg/pipeline"
)

// Session is one browser session's pipeline.
type Session struct {
	ID         string
	Controller *pipeline.Controller
	lastSeen   time.Time
}

// DefaultMaxSessions caps the live sessions of a store.
const DefaultMaxSessions = 1024

// ErrTooManySessions is returned when the store is full and every session
// has a run in flight.
var ErrTooManySessions = errors.New("too many active sessions")

// Sessions holds the in-memory sessions keyed by id.
type Sessions struct {
	mu            sync.Mutex
	items         map[string]*Session
	newController func() *pipeline.Controller
	ttl           time.Duration
	max           int
	now           func() time.Time
}

// NewSessions creates a store. A ttl of zero never expires sessions; a max of
// zero or less uses DefaultMaxSessions.
func NewSessions(newController func() *pipeline.Controller, ttl time.Duration, maxSessions int, now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Sessions{
		items:         make(map[string]*Session),
		newController: newController,
		ttl:           ttl,
		max:           maxSessions,
		now:           now,
	}
}

// Get returns the session for id, creating and storing it when id is empty
// or unknown. A supplied id is kept only when it is a valid UUID. When the
// store is full the least recently seen idle session is evicted.
func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.items[id]; ok {
		sess.lastSeen = s.now()
		return sess, nil
	}
	if len(s.items) >= s.max && !s.evictLocked() {
		return nil, ErrTooManySessions
	}
	sess := s.detachedLocked(id)
	s.items[sess.ID] = sess
	return sess, nil
}

// Peek returns the stored session for id, or a fresh session that is not
// stored. Read-only requests use it so they never grow the store.
func (s *Sessions) Peek(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.items[id]; ok {
		sess.lastSeen = s.now()
		return sess
	}
	return s.detachedLocked(id)
}

func (s *Sessions) detachedLocked(id string) *Session {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	return &Session{ID: id, Controller: s.newController(), lastSeen: s.now()}
}

func (s *Sessions) evictLocked() bool {
	var oldest *Session
	for _, sess := range s.items {
		if sess.Controller.State().Status.Active() {
			continue
		}
		if oldest == nil || sess.lastSeen.Before(oldest.lastSeen) {
			oldest = sess
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.items, oldest.ID)
	return true
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops sessions idle longer than the ttl. Sessions with a run in
// flight are kept.
func (s *Sessions) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, sess := range s.items {
		if sess.lastSeen.Before(cutoff) && !sess.Controller.State().Status.Active() {
			delete(s.items, id)
			n++
		}
	}
	return n
}

type sessionKey struct{}

// sessionMiddleware resolves the session from SessionHeader and echoes its id.
// Safe methods see a stored session or a detached idle one; only mutating
// requests create sessions.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)

		var sess *Session
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			sess = s.sessions.Peek(id)
		default:
			var err error
			if sess, err = s.sessions.Get(id); err != nil {
				respondError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		w.Header().Set(SessionHeader, sess.ID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *Session {
	sess, _ := r.Context().Value(sessionKey{}).(*Session)
	return sess
}
