// Package layoutgen generates page section layouts with a language model.
//
// A LayoutGen holds the shared services (generator, session store, preview
// store, logger). Every time the user opens the layout panel the caller
// obtains a Panel via OpenPanel. The panel fans each prompt out to N
// concurrent slot requests, tracks the slots as pending, success or error,
// rolls a batch back when all its requests failed and persists every settled
// result set to the session store.
//
// Defaults are in-memory stores and a NoOp logger; production deployments
// typically supply the Redis session store, the S3 preview store and a
// structured logger.
package layoutgen

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/hupe1980/layoutgen/artifact"
	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/generation"
	"github.com/hupe1980/layoutgen/ids"
	"github.com/hupe1980/layoutgen/layout"
	"github.com/hupe1980/layoutgen/logging"
	"github.com/hupe1980/layoutgen/model"
	"github.com/hupe1980/layoutgen/session"
)

// ErrNoGenerator is returned by New when neither a Generator nor a Model is set.
var ErrNoGenerator = errors.New("layoutgen: a Generator or a Model is required")

// Options configures the LayoutGen instance.
type Options struct {
	// Parallelism is the number of slot requests per batch.
	Parallelism int

	// Claim selects how completions map onto pending slots.
	Claim generation.ClaimStrategy

	// MaxGenerations caps Generate and Regenerate calls per panel. Zero means
	// unlimited.
	MaxGenerations int

	// Generator produces the layout for a single slot. When nil a
	// layout.Generator is built around Model.
	Generator core.Generator

	// Model backs the default generator.
	Model model.Model

	// Instruction overrides the system prompt template of the default generator.
	Instruction string

	// RateLimiter paces model calls of the default generator.
	RateLimiter *rate.Limiter

	// Renderer enables preview screenshots in the default generator.
	Renderer core.Renderer

	// Context supplies the editor snapshot sent with each batch.
	Context core.ContextProvider

	// EditorSessionID defaults to the process-wide id.
	EditorSessionID string

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// LayoutGen is the high-level façade aggregating generator and services.
type LayoutGen struct {
	opts Options
	gen  core.Generator
}

// New creates a new LayoutGen instance with optional overrides. Any unset
// store is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) (*LayoutGen, error) {
	opts := Options{
		Parallelism:   generation.DefaultParallelism,
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.EditorSessionID == "" {
		opts.EditorSessionID = ids.EditorSessionID()
	}

	gen := opts.Generator
	if gen == nil {
		if opts.Model == nil {
			return nil, ErrNoGenerator
		}
		gen = layout.NewGenerator(opts.Model, func(o *layout.Options) {
			if opts.Instruction != "" {
				o.Instruction = opts.Instruction
			}
			o.Limiter = opts.RateLimiter
			o.Renderer = opts.Renderer
			o.Artifacts = opts.ArtifactStore
			o.Logger = opts.Logger
		})
	}

	return &LayoutGen{opts: opts, gen: gen}, nil
}

// EditorSessionID returns the editor session id stamped on every request.
func (l *LayoutGen) EditorSessionID() string { return l.opts.EditorSessionID }

// PanelOptions configure a single panel.
type PanelOptions struct {
	// OnChange receives every state change of the panel.
	OnChange func(generation.State)
	// Context overrides the LayoutGen editor context for this panel.
	Context core.ContextProvider
}

// OpenPanel mints a session id, records the session and returns a panel
// ready to generate.
func (l *LayoutGen) OpenPanel(ctx context.Context, optFns ...func(o *PanelOptions)) (*Panel, error) {
	popts := PanelOptions{Context: l.opts.Context}
	for _, fn := range optFns {
		fn(&popts)
	}

	sessionID := ids.NewSessionID()
	if err := l.opts.SessionStore.Create(ctx, core.NewSession(sessionID, l.opts.EditorSessionID)); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger := l.opts.Logger
	if sl, ok := logger.(*logging.LayoutGenLogger); ok {
		logger = sl.WithSession(sessionID)
	}

	p := &Panel{
		id:        sessionID,
		store:     l.opts.SessionStore,
		artifacts: l.opts.ArtifactStore,
		limiter:   core.NewLimiter(l.opts.MaxGenerations),
		logger:    logger,
		persistTo: context.WithoutCancel(ctx),
		onChange:  popts.OnChange,
	}

	p.orch = generation.New(l.gen, func(o *generation.Options) {
		o.Parallelism = l.opts.Parallelism
		o.Claim = l.opts.Claim
		o.EditorSessionID = l.opts.EditorSessionID
		o.SessionID = sessionID
		o.Context = popts.Context
		o.Logger = logger
		o.OnChange = p.handleChange
	})

	logger.Info("Panel opened", "session_id", sessionID, "parallelism", p.orch.Parallelism())

	return p, nil
}

// Session loads a persisted panel session.
func (l *LayoutGen) Session(ctx context.Context, sessionID string) (*core.Session, error) {
	return l.opts.SessionStore.Get(ctx, sessionID)
}
