package core

import "context"

// ArtifactStore defines the interface for preview artifact persistence.
// Implementations should be thread-safe and scope artifacts by session
// identifier. Short method names (Save/Get/List/Delete) mirror SessionStore.
type ArtifactStore interface {
	Save(ctx context.Context, sessionID, artifactID string, data []byte) error
	Get(ctx context.Context, sessionID, artifactID string) ([]byte, error)
	List(ctx context.Context, sessionID string) ([]string, error)
	Delete(ctx context.Context, sessionID, artifactID string) error
}
