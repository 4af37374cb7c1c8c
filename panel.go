package layoutgen

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/generation"
	"github.com/hupe1980/layoutgen/logging"
	"github.com/hupe1980/layoutgen/prompt"
)

var (
	// ErrPanelClosed is returned by operations on a closed panel.
	ErrPanelClosed = errors.New("layoutgen: panel closed")

	// ErrLayoutNotFound is returned by Select for unknown layout ids.
	ErrLayoutNotFound = errors.New("layoutgen: layout not found")
)

// Panel is one open layout panel. All methods are goroutine-safe.
type Panel struct {
	id        string
	orch      *generation.Orchestrator
	store     core.SessionStore
	artifacts core.ArtifactStore
	limiter   *core.Limiter
	logger    logging.Logger
	persistTo context.Context
	onChange  func(generation.State)

	mu     sync.Mutex
	closed bool
}

// SessionID returns the panel session id.
func (p *Panel) SessionID() string { return p.id }

// Generate starts a new lineage for prompt and attachments.
func (p *Panel) Generate(ctx context.Context, text string, attachments []core.Attachment) error {
	if err := p.admit(text, attachments); err != nil {
		return err
	}
	p.orch.Generate(ctx, text, attachments)
	return nil
}

// Regenerate appends another batch to the current lineage.
func (p *Panel) Regenerate(ctx context.Context, text string, attachments []core.Attachment) error {
	if err := p.admit(text, attachments); err != nil {
		return err
	}
	p.orch.Regenerate(ctx, text, attachments)
	return nil
}

func (p *Panel) admit(text string, attachments []core.Attachment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPanelClosed
	}
	if err := prompt.Validate(text, attachments); err != nil {
		return err
	}
	return p.limiter.Increment()
}

// Abort cancels the most recent batch.
func (p *Panel) Abort() { p.orch.Abort() }

// Wait blocks until no batch is outstanding.
func (p *Panel) Wait() { p.orch.Wait() }

// State returns the current readout.
func (p *Panel) State() generation.State { return p.orch.State() }

// Remaining returns how many generations are left, -1 when unlimited.
func (p *Panel) Remaining() int { return p.limiter.Remaining() }

// Select returns the generated layout with the given id.
func (p *Panel) Select(layoutID string) (core.Layout, error) {
	for _, r := range p.orch.Results() {
		if r.IsSuccess() && r.Layout.ID == layoutID {
			return *r.Layout, nil
		}
	}
	return core.Layout{}, ErrLayoutNotFound
}

// Screenshot returns the rendered preview of a selected layout.
func (p *Panel) Screenshot(ctx context.Context, layoutID string) ([]byte, error) {
	l, err := p.Select(layoutID)
	if err != nil {
		return nil, err
	}
	if l.Screenshot == "" {
		return nil, ErrLayoutNotFound
	}
	sessionID, artifactID, ok := strings.Cut(l.Screenshot, "/")
	if !ok {
		return nil, ErrLayoutNotFound
	}
	return p.artifacts.Get(ctx, sessionID, artifactID)
}

// Close aborts outstanding requests, waits for them to settle and stores the
// final result set. Close is idempotent.
func (p *Panel) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.orch.Abort()
	p.orch.Wait()

	s := p.orch.State()
	if err := p.store.Record(ctx, p.id, s.GenerateID, s.Results); err != nil {
		return err
	}
	p.logger.Info("Panel closed", "session_id", p.id, "results", len(s.Results))
	return nil
}

// handleChange persists settled states and forwards every state.
func (p *Panel) handleChange(s generation.State) {
	if !s.IsLoading && s.GenerateID != "" {
		if err := p.store.Record(p.persistTo, p.id, s.GenerateID, s.Results); err != nil {
			p.logger.Error("Failed to persist panel state", "session_id", p.id, "error", err.Error())
		}
	}
	if p.onChange != nil {
		p.onChange(s)
	}
}
