package history

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxSessions bounds how many sessions are held at once so that a
// client cycling through session IDs cannot grow memory without limit.
// Least-recently-used sessions are evicted first.
const DefaultMaxSessions = 2048

// MemoryStore is the in-memory Store implementation. All state is lost on
// restart, which is fine for a chat widget whose sessions are short-lived.
type MemoryStore struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, []Entry]
}

// NewMemoryStore creates a MemoryStore holding at most maxSessions sessions.
// maxSessions <= 0 selects DefaultMaxSessions.
func NewMemoryStore(maxSessions int) *MemoryStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, []Entry](maxSessions)
	return &MemoryStore{sessions: cache}
}

// Get returns a copy of the session transcript, oldest first.
func (s *MemoryStore) Get(sessionID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Append adds entries to the session transcript, trimming the oldest entries
// once the transcript exceeds MaxEntries.
func (s *MemoryStore) Append(sessionID string, entries ...Entry) {
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, _ := s.sessions.Get(sessionID)
	updated := make([]Entry, 0, len(current)+len(entries))
	updated = append(updated, current...)
	updated = append(updated, entries...)
	if len(updated) > MaxEntries {
		updated = updated[len(updated)-MaxEntries:]
	}
	s.sessions.Add(sessionID, updated)
}
