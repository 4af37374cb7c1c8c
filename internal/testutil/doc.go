// Package testutil contains helper generators and builders used across tests
// to reduce boilerplate when driving the orchestrator (scripted and gated
// generators, request recorders, session builders). They are not intended for
// production usage.
package testutil
