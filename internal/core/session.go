package core

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/csvexplorer/internal/dataset"
	"github.com/JonMunkholm/csvexplorer/internal/logging"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found or expired")

	// ErrTooManySessions is returned when the store is full.
	ErrTooManySessions = errors.New("too many sessions, please try again later")
)

// Default store limits.
const (
	DefaultSessionTTL  = 2 * time.Hour
	DefaultMaxSessions = 1000
)

// FileInfo describes one uploaded file.
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Rows     int       `json:"rows"`
	Columns  int       `json:"columns"`
	Uploaded time.Time `json:"uploaded"`
}

type uploadedFile struct {
	info FileInfo

	// table is the parse result. Selecting the file restarts from here.
	table *dataset.Table
}

// Session is one user's workspace: the uploaded files, which one is
// selected, and the current snapshot of the selected table. Each mutation
// swaps the snapshot under the session lock, so readers always see either
// the old or the new table.
type Session struct {
	ID      string
	Created time.Time

	mu         sync.Mutex
	files      []*uploadedFile
	selected   string
	current    *dataset.Table
	version    uint64 // bumped whenever current is replaced
	lastAccess time.Time
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:         uuid.New().String(),
		Created:    now,
		lastAccess: now,
	}
}

// NewSession creates a standalone session, for callers that do not need a
// SessionStore (the CLI).
func NewSession() *Session {
	return newSession(time.Now())
}

// Files lists the uploaded files in upload order.
func (s *Session) Files() []FileInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FileInfo, len(s.files))
	for i, f := range s.files {
		out[i] = f.info
	}
	return out
}

// Selected returns the name of the selected file, or "".
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Table returns the current snapshot, or nil when no file is selected.
func (s *Session) Table() *dataset.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Version counts the snapshots the session has held. A form rendered at one
// version is stale once the version moves on.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// setCurrent swaps the snapshot. The caller holds s.mu.
func (s *Session) setCurrent(t *dataset.Table) {
	s.current = t
	s.version++
}

// LastAccess returns when the session was last used.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

// addFile registers f, replacing a file of the same name in place. The
// caller holds s.mu.
func (s *Session) addFile(f *uploadedFile) {
	i := slices.IndexFunc(s.files, func(u *uploadedFile) bool { return u.info.Name == f.info.Name })
	if i >= 0 {
		s.files[i] = f
	} else {
		s.files = append(s.files, f)
	}

	switch s.selected {
	case "", f.info.Name:
		s.selected = f.info.Name
		s.setCurrent(f.table)
	}
}

// file returns the uploaded file called name. The caller holds s.mu.
func (s *Session) file(name string) (*uploadedFile, bool) {
	for _, f := range s.files {
		if f.info.Name == name {
			return f, true
		}
	}
	return nil, false
}

// SessionStore keeps sessions in memory and expires idle ones.
type SessionStore struct {
	ttl time.Duration
	max int
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a store. Non-positive arguments take the defaults.
func NewSessionStore(ttl time.Duration, maxSessions int) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &SessionStore{
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session. When the store is full, expired sessions are
// swept first.
func (st *SessionStore) Create() (*Session, error) {
	if st.Len() >= st.max {
		st.Sweep()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.max {
		return nil, ErrTooManySessions
	}
	s := newSession(st.now())
	st.sessions[s.ID] = s
	return s, nil
}

// Get returns the live session with id and marks it as used.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := st.now()
	if st.expired(s, now) {
		st.Delete(id)
		return nil, ErrSessionNotFound
	}
	s.touch(now)
	return s, nil
}

// Delete drops the session with id, if any.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (st *SessionStore) Sweep() int {
	now := st.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = st.ttl / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				log.Info("expired sessions removed", "count", n, "remaining", st.Len())
			}
		}
	}
}

func (st *SessionStore) expired(s *Session, now time.Time) bool {
	return now.Sub(s.LastAccess()) > st.ttl
}
