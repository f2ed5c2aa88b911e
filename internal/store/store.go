// Package store caches full conversation entries per session id. It is
// the authoritative client-side view of any session that is not
// currently open; the controller mirrors the active entry into its own
// state for rendering. The store never touches the network - callers
// populate it with already-normalized data.
package store

import (
	"sync"

	"github.com/GarvGoel08/DocOnGo/models"
)

// Store is a mutex-guarded map from session id to conversation entry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]models.ConversationEntry
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]models.ConversationEntry)}
}

// Get returns a copy of the cached entry for the session, if present.
// The copy is deep enough that callers cannot alias cached slices.
func (s *Store) Get(sessionID string) (models.ConversationEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return models.ConversationEntry{}, false
	}
	return cloneEntry(entry), true
}

// Put replaces the entry for the session wholesale. Entries are never
// merged; the caller owns assembling the complete state.
func (s *Store) Put(sessionID string, entry models.ConversationEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = cloneEntry(entry)
}

// Remove evicts the session's cache entry. Backend state is unaffected.
func (s *Store) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
}

// Contains reports whether the session has a cached entry.
func (s *Store) Contains(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[sessionID]
	return ok
}

// Len returns the number of cached sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneEntry(entry models.ConversationEntry) models.ConversationEntry {
	out := models.ConversationEntry{
		Metadata: entry.Metadata,
	}
	if entry.Messages != nil {
		out.Messages = append([]models.Message(nil), entry.Messages...)
	}
	if entry.Metadata.DetectedSymptoms != nil {
		out.Metadata.DetectedSymptoms = append([]string(nil), entry.Metadata.DetectedSymptoms...)
	}
	return out
}
