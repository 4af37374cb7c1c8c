// Package session houses concrete implementations of core.SessionStore.
//
// A session records one panel open: the editor session it belongs to, the
// current generate id and the latest settled result set. The in-memory store
// serves tests and the CLI; the redis sub-package shares sessions across
// processes.
package session
