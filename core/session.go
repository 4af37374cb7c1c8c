package core

import (
	"context"
	"sync"
	"time"
)

// Session is the persisted record of one panel open. It tracks the current
// generate id and the latest settled result set so a panel can be restored.
//
// Contract:
//   - Mutations update the Updated timestamp
//   - Results returns a deep copy
//   - Clone performs deep copies of maps/slices for safe divergence.
type Session struct {
	ID              string            `json:"id"`
	EditorSessionID string            `json:"editorSessionId"`
	GenerateID      string            `json:"generateId"`
	Results         []SlotResult      `json:"results"`
	Generations     int               `json:"generations"`
	Created         time.Time         `json:"created"`
	Updated         time.Time         `json:"updated"`
	Metadata        map[string]string `json:"metadata"`
	mu              sync.RWMutex
}

// NewSession creates a new session with the given ids.
func NewSession(id, editorSessionID string) *Session {
	now := time.Now()
	return &Session{ID: id, EditorSessionID: editorSessionID, Results: []SlotResult{}, Created: now, Updated: now, Metadata: map[string]string{}}
}

// Record stores the given generate id and result snapshot.
func (s *Session) Record(generateID string, results []SlotResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generateID != s.GenerateID {
		s.Generations++
	}
	s.GenerateID = generateID
	s.Results = CloneResults(results)
	s.Updated = time.Now()
}

// SnapshotResults returns a deep copy of the stored results.
func (s *Session) SnapshotResults() []SlotResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CloneResults(s.Results)
}

// FindLayout returns the successful layout with the given id.
func (s *Session) FindLayout(id string) (Layout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.Results {
		if r.IsSuccess() && r.Layout.ID == id {
			return *r.Layout, true
		}
	}
	return Layout{}, false
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:              s.ID,
		EditorSessionID: s.EditorSessionID,
		GenerateID:      s.GenerateID,
		Results:         CloneResults(s.Results),
		Generations:     s.Generations,
		Created:         s.Created,
		Updated:         s.Updated,
		Metadata:        make(map[string]string, len(s.Metadata)),
	}
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// SessionStore persists panel sessions.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Record(ctx context.Context, id, generateID string, results []SlotResult) error
	Delete(ctx context.Context, id string) error
}
