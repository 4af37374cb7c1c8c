// Package artifact contains concrete implementations of core.ArtifactStore.
//
// Artifacts are opaque byte blobs scoped by session id. The layout generator
// stores one rendered preview per layout under "<layoutID>.png". Callers
// should depend on the core interface so the in-memory store used by tests
// and the S3 store in the s3 sub-package can be swapped freely.
package artifact
