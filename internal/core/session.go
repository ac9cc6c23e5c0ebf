package core

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the store is at capacity.
	ErrTooManySessions = errors.New("too many active sessions")
)

// Session is one user's working state: the uploaded files, the preview of
// the first file, the selected price column and the offers of the last run.
// Sessions are values; every change produces a new Session that replaces
// the stored one.
type Session struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Files       []UploadedFile `json:"-"`
	Preview     *FilePreview   `json:"preview,omitempty"`
	PriceColumn string         `json:"price_column,omitempty"`
	Offers      []OfferRecord  `json:"-"`
	Reports     []FileReport   `json:"reports,omitempty"`
}

// FileNames returns the names of the uploaded files in upload order.
func (s Session) FileNames() []string {
	names := make([]string, len(s.Files))
	for i, f := range s.Files {
		names[i] = f.Name
	}
	return names
}

// Processed reports whether a run has completed for this session.
func (s Session) Processed() bool {
	return s.PriceColumn != "" && s.Reports != nil
}

// WithResult returns a copy of s holding the result of a run. The previous
// offers are replaced, never extended.
func (s Session) WithResult(res ProcessResult, at time.Time) Session {
	s.PriceColumn = res.PriceColumn
	s.Offers = res.Offers
	s.Reports = res.Files
	if s.Reports == nil {
		s.Reports = []FileReport{}
	}
	s.UpdatedAt = at
	return s
}

type sessionEntry struct {
	session    Session
	lastAccess time.Time
}

// SessionStore keeps sessions in memory. Sessions idle for longer than the
// TTL are treated as gone and removed by Sweep.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	max      int
	now      func() time.Time
}

// NewSessionStore creates a store. A non-positive max means unbounded.
func NewSessionStore(ttl time.Duration, max int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// Create stores a new session for files and returns it.
func (st *SessionStore) Create(files []UploadedFile, preview *FilePreview) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if st.max > 0 && len(st.sessions) >= st.max {
		st.sweepLocked(now)
		if len(st.sessions) >= st.max {
			return Session{}, ErrTooManySessions
		}
	}

	s := Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Files:     files,
		Preview:   preview,
	}
	st.sessions[s.ID] = &sessionEntry{session: s, lastAccess: now}
	return s, nil
}

// Get returns the session with id and refreshes its idle timer.
func (st *SessionStore) Get(id string) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[id]
	now := st.now()
	if !ok || st.expired(e, now) {
		return Session{}, ErrSessionNotFound
	}
	e.lastAccess = now
	return e.session, nil
}

// Put replaces a stored session. The session must still exist.
func (st *SessionStore) Put(s Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.sessions[s.ID]
	now := st.now()
	if !ok || st.expired(e, now) {
		return ErrSessionNotFound
	}
	e.session = s
	e.lastAccess = now
	return nil
}

// Delete removes a session. It reports whether the session existed.
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Len returns the number of stored sessions, expired ones included until
// the next sweep.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (st *SessionStore) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked(st.now())
}

func (st *SessionStore) sweepLocked(now time.Time) int {
	removed := 0
	for id, e := range st.sessions {
		if st.expired(e, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *SessionStore) expired(e *sessionEntry, now time.Time) bool {
	return st.ttl > 0 && now.Sub(e.lastAccess) > st.ttl
}
