package documents

import "sync"

// StoredDocument is the most recently ingested document for a session,
// retained in memory so a chat turn can quote it without a search round trip.
type StoredDocument struct {
	Filename string
	Text     string
}

// SessionStore keeps the latest ingested document per session key. Writes to
// the same key overwrite the previous entry. The empty key acts as a shared
// default slot for callers that do not send a session id.
type SessionStore struct {
	mu   sync.RWMutex
	docs map[string]StoredDocument
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{docs: make(map[string]StoredDocument)}
}

// Set records doc as the current document for the session.
func (s *SessionStore) Set(sessionID string, doc StoredDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[sessionID] = doc
}

// Get returns the current document for the session, if any.
func (s *SessionStore) Get(sessionID string) (StoredDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[sessionID]
	return doc, ok
}
