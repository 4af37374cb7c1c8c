package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/layoutgen/core"
)

// RecordingGenerator runs Fn for every request and records the requests it
// saw. A nil Fn succeeds with a layout named after the request id.
type RecordingGenerator struct {
	Fn func(ctx context.Context, req core.Request) (core.Layout, error)

	mu       sync.Mutex
	requests []core.Request
}

// Generate implements core.Generator.
func (g *RecordingGenerator) Generate(ctx context.Context, req core.Request) (core.Layout, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if g.Fn == nil {
		return core.Layout{ID: "layout-" + req.IDs.RequestID}, nil
	}
	return g.Fn(ctx, req)
}

// Requests returns a copy of the recorded requests.
func (g *RecordingGenerator) Requests() []core.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]core.Request, len(g.requests))
	copy(out, g.requests)
	return out
}

// BySlot returns a generator that fails the lanes listed in failures with the
// mapped error and succeeds the others with layout id "<prefix><lane>".
func BySlot(prefix string, failures map[int]error) *RecordingGenerator {
	return &RecordingGenerator{Fn: func(_ context.Context, req core.Request) (core.Layout, error) {
		if err, ok := failures[req.Slot]; ok {
			return core.Layout{}, err
		}
		return core.Layout{ID: fmt.Sprintf("%s%d", prefix, req.Slot)}, nil
	}}
}

type gatedResult struct {
	layout core.Layout
	err    error
}

// GatedGenerator blocks every request until the test releases it or the
// request context is cancelled, giving tests full control over completion
// order.
type GatedGenerator struct {
	started chan core.Request

	mu    sync.Mutex
	gates map[string]chan gatedResult
}

// NewGatedGenerator creates a gated generator able to queue up to capacity
// started requests.
func NewGatedGenerator(capacity int) *GatedGenerator {
	return &GatedGenerator{
		started: make(chan core.Request, capacity),
		gates:   map[string]chan gatedResult{},
	}
}

// Generate implements core.Generator.
func (g *GatedGenerator) Generate(ctx context.Context, req core.Request) (core.Layout, error) {
	gate := make(chan gatedResult, 1)
	g.mu.Lock()
	g.gates[req.IDs.RequestID] = gate
	g.mu.Unlock()

	g.started <- req

	select {
	case r := <-gate:
		return r.layout, r.err
	case <-ctx.Done():
		return core.Layout{}, ctx.Err()
	}
}

// Next waits for the next started request.
func (g *GatedGenerator) Next(t testing.TB) core.Request {
	t.Helper()
	select {
	case req := <-g.started:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a started request")
		return core.Request{}
	}
}

// NextN waits for n started requests and returns them ordered by lane.
func (g *GatedGenerator) NextN(t testing.TB, n int) []core.Request {
	t.Helper()
	out := make([]core.Request, n)
	for i := 0; i < n; i++ {
		req := g.Next(t)
		out[req.Slot] = req
	}
	return out
}

// Succeed releases req with a layout.
func (g *GatedGenerator) Succeed(req core.Request, layout core.Layout) {
	g.release(req, gatedResult{layout: layout})
}

// Fail releases req with err.
func (g *GatedGenerator) Fail(req core.Request, err error) {
	g.release(req, gatedResult{err: err})
}

func (g *GatedGenerator) release(req core.Request, r gatedResult) {
	g.mu.Lock()
	gate, ok := g.gates[req.IDs.RequestID]
	delete(g.gates, req.IDs.RequestID)
	g.mu.Unlock()

	if ok {
		gate <- r
	}
}
