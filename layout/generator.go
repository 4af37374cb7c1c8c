package layout

import (
	"context"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/ids"
	"github.com/hupe1980/layoutgen/internal/util"
	"github.com/hupe1980/layoutgen/logging"
	"github.com/hupe1980/layoutgen/model"
)

// SourceGenerated marks layouts produced by the model.
const SourceGenerated = "generated"

// Options configure the Generator.
type Options struct {
	// Instruction is the system prompt template. Defaults to DefaultInstruction.
	Instruction string
	// Limiter paces model calls across all slots. Nil disables pacing.
	Limiter *rate.Limiter
	// Policy sanitises the preview HTML returned by the model.
	Policy *bluemonday.Policy
	// Renderer turns the preview HTML into a PNG. Nil disables screenshots.
	Renderer core.Renderer
	// Artifacts stores rendered screenshots. Required when Renderer is set.
	Artifacts core.ArtifactStore
	// Stream requests streamed completions from the model.
	Stream bool
	Logger logging.Logger
}

// Generator produces one layout per slot request.
type Generator struct {
	model model.Model
	opts  Options
}

// NewGenerator creates a Generator backed by m.
func NewGenerator(m model.Model, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Instruction: DefaultInstruction,
		Policy:      bluemonday.UGCPolicy(),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Generator{model: m, opts: opts}
}

// Generate implements core.Generator.
func (g *Generator) Generate(ctx context.Context, req core.Request) (core.Layout, error) {
	if g.opts.Limiter != nil {
		if err := g.opts.Limiter.Wait(ctx); err != nil {
			return core.Layout{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	mreq, err := g.buildRequest(req)
	if err != nil {
		return core.Layout{}, err
	}

	start := time.Now()
	resp, err := model.Collect(ctx, g.model, mreq)
	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	logging.LogLLMCall(g.opts.Logger, g.model.Info().Name, tokens, time.Since(start), err)
	if err != nil {
		return core.Layout{}, fmt.Errorf("model call: %w", err)
	}

	parsed, err := parseResponse(resp.Content.Text())
	if err != nil {
		return core.Layout{}, err
	}

	// The model's id is a hint. Sibling slots often answer with the same one.
	layout := core.Layout{
		ID:       ids.NewLayoutID(parsed.ID),
		Label:    parsed.Label,
		Source:   SourceGenerated,
		HTML:     g.opts.Policy.Sanitize(parsed.HTML),
		Template: parsed.Template,
	}

	if err := g.screenshot(ctx, req, &layout); err != nil {
		return core.Layout{}, err
	}

	return layout, nil
}

func (g *Generator) buildRequest(req core.Request) (model.Request, error) {
	instructions, err := util.RenderTemplate(g.opts.Instruction, map[string]any{
		"context":          req.CurrentContext,
		"prevGeneratedIds": req.PrevGeneratedIDs,
		"attachments":      req.Attachments,
	})
	if err != nil {
		return model.Request{}, fmt.Errorf("render instruction: %w", err)
	}

	var parts []core.Part
	for _, a := range req.Attachments {
		parts = append(parts, core.DataPart{Data: map[string]any{
			"type":    a.Type,
			"label":   a.Label,
			"source":  a.Source,
			"content": a.Content,
		}})
	}
	parts = append(parts, core.TextPart{Text: req.Prompt})

	return model.Request{
		Instructions: instructions,
		Contents:     []core.Content{{Role: "user", Parts: parts}},
		Stream:       g.opts.Stream,
	}, nil
}

// screenshot renders the preview and stores it as "<layoutID>.png" in the
// request's session scope.
func (g *Generator) screenshot(ctx context.Context, req core.Request, layout *core.Layout) error {
	if g.opts.Renderer == nil || g.opts.Artifacts == nil || layout.HTML == "" {
		return nil
	}

	png, err := g.opts.Renderer.Render(ctx, layout.HTML, req.CurrentContext)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	key := layout.ID + ".png"
	if err := g.opts.Artifacts.Save(ctx, req.IDs.SessionID, key, png); err != nil {
		return fmt.Errorf("store preview: %w", err)
	}
	layout.Screenshot = req.IDs.SessionID + "/" + key
	return nil
}
