package testutil

import (
	"github.com/hupe1980/layoutgen/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("session-1").Generate("generate-1").Success("a").Failure().Build()
type SessionBuilder struct {
	id              string
	editorSessionID string
	generateID      string
	results         []core.SlotResult
	metadata        map[string]string
}

// NewSessionBuilder creates a new builder for a session with the given id.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, editorSessionID: "editor-session-test", metadata: map[string]string{}}
}

// EditorSession overrides the editor session id (chainable).
func (b *SessionBuilder) EditorSession(id string) *SessionBuilder { b.editorSessionID = id; return b }

// Generate sets the generate id of the recorded results (chainable).
func (b *SessionBuilder) Generate(id string) *SessionBuilder { b.generateID = id; return b }

// Success appends a successful slot for layout id (chainable).
func (b *SessionBuilder) Success(layoutID string) *SessionBuilder {
	b.results = append(b.results, core.Succeeded(core.Layout{ID: layoutID}))
	return b
}

// Failure appends an error slot (chainable).
func (b *SessionBuilder) Failure() *SessionBuilder {
	b.results = append(b.results, core.Failed())
	return b
}

// Meta sets a metadata key/value pair (chainable).
func (b *SessionBuilder) Meta(key, val string) *SessionBuilder { b.metadata[key] = val; return b }

// Build returns a *core.Session with the recorded results.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id, b.editorSessionID)
	for k, v := range b.metadata {
		s.Metadata[k] = v
	}
	if b.generateID != "" || len(b.results) > 0 {
		s.Record(b.generateID, b.results)
	}
	return s
}
