package layout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hupe1980/layoutgen/artifact"
	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/model"
)

const heroJSON = `{"id":"hero-1","label":"Hero","html":"<section><h1>Hi</h1><script>alert(1)</script></section>","template":{"elType":"container"}}`

type fakeRenderer struct {
	html string
	ec   core.EditorContext
	err  error
}

func (r *fakeRenderer) Render(_ context.Context, html string, ec core.EditorContext) ([]byte, error) {
	r.html, r.ec = html, ec
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png:" + html), nil
}

func testRequest() core.Request {
	return core.Request{
		Prompt:           "hero section about coffee",
		PrevGeneratedIDs: []string{"old-1", "old-2"},
		CurrentContext:   core.EditorContext{Body: core.BodyStyle{BackgroundColor: "rgb(0, 0, 0)"}},
		IDs:              core.IDs{SessionID: "session-1", RequestID: "request-1"},
		Attachments: []core.RequestAttachment{
			{Type: "url", Content: "<div>ref</div>", Label: "example.com", Source: "user-url"},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	m := model.NewMockModel("mock-llm")
	m.AddResponse("coffee", heroJSON)

	g := NewGenerator(m)
	layout, err := g.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(layout.ID, "hero-1-"), layout.ID)
	assert.Equal(t, "Hero", layout.Label)
	assert.Equal(t, SourceGenerated, layout.Source)
	assert.Contains(t, layout.HTML, "<h1>Hi</h1>")
	assert.NotContains(t, layout.HTML, "script")
	assert.Empty(t, layout.Screenshot)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "rgb(0, 0, 0)")
	assert.Contains(t, reqs[0].Instructions, "background image: none")
	assert.Contains(t, reqs[0].Instructions, "old-1, old-2")
	assert.Contains(t, reqs[0].Instructions, "attached references")

	parts := reqs[0].Contents[0].Parts
	require.Len(t, parts, 2)
	data, ok := parts[0].(core.DataPart)
	require.True(t, ok)
	assert.Equal(t, "url", data.Data["type"])
	assert.Equal(t, "<div>ref</div>", data.Data["content"])
}

func TestGenerator_FirstRequestHasNoHistory(t *testing.T) {
	m := model.NewMockModel("mock-llm")
	m.AddResponse("coffee", heroJSON)

	req := testRequest()
	req.PrevGeneratedIDs = []string{}
	req.Attachments = []core.RequestAttachment{}

	_, err := NewGenerator(m).Generate(context.Background(), req)
	require.NoError(t, err)

	instructions := m.Requests()[0].Instructions
	assert.NotContains(t, instructions, "already received")
	assert.NotContains(t, instructions, "attached references")
}

func TestGenerator_FallbackTemplateID(t *testing.T) {
	m := model.NewMockModel("mock-llm")
	m.AddResponse("coffee", `{"html":"<p>x</p>"}`)

	layout, err := NewGenerator(m).Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(layout.ID, "template-"))
}

func TestGenerator_Errors(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		m := model.NewMockModel("mock-llm")
		boom := errors.New("boom")
		m.AddError("coffee", boom)

		_, err := NewGenerator(m).Generate(context.Background(), testRequest())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("invalid response", func(t *testing.T) {
		m := model.NewMockModel("mock-llm")
		m.AddResponse("coffee", "no json here")

		_, err := NewGenerator(m).Generate(context.Background(), testRequest())
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("bad instruction template", func(t *testing.T) {
		m := model.NewMockModel("mock-llm")
		g := NewGenerator(m, func(o *Options) { o.Instruction = "{{.broken" })

		_, err := g.Generate(context.Background(), testRequest())
		assert.Error(t, err)
		assert.Empty(t, m.Requests())
	})

	t.Run("cancelled while waiting for limiter", func(t *testing.T) {
		m := model.NewMockModel("mock-llm")
		limiter := rate.NewLimiter(rate.Limit(0.001), 1)
		require.True(t, limiter.Allow())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewGenerator(m, func(o *Options) { o.Limiter = limiter }).Generate(ctx, testRequest())
		assert.Error(t, err)
		assert.Empty(t, m.Requests())
	})
}

func TestGenerator_Screenshot(t *testing.T) {
	m := model.NewMockModel("mock-llm")
	m.AddResponse("coffee", heroJSON)

	renderer := &fakeRenderer{}
	store := artifact.NewInMemoryStore()
	g := NewGenerator(m, func(o *Options) {
		o.Renderer = renderer
		o.Artifacts = store
	})

	layout, err := g.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "session-1/"+layout.ID+".png", layout.Screenshot)
	assert.Equal(t, "rgb(0, 0, 0)", renderer.ec.Body.BackgroundColor)
	assert.Equal(t, layout.HTML, renderer.html)

	png, err := store.Get(context.Background(), "session-1", layout.ID+".png")
	require.NoError(t, err)
	assert.Equal(t, "png:"+layout.HTML, string(png))
}

func TestGenerator_ScreenshotFailureFailsSlot(t *testing.T) {
	m := model.NewMockModel("mock-llm")
	m.AddResponse("coffee", heroJSON)

	renderErr := errors.New("browser crashed")
	store := artifact.NewInMemoryStore()
	g := NewGenerator(m, func(o *Options) {
		o.Renderer = &fakeRenderer{err: renderErr}
		o.Artifacts = store
	})

	_, err := g.Generate(context.Background(), testRequest())
	assert.ErrorIs(t, err, renderErr)

	keys, err := store.List(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestGenerator_ModelIDIsOnlyAHint(t *testing.T) {
	m := model.NewMockModel("mock-llm")
	m.AddResponse("coffee", `{"id":"../../hero","html":"<h1>variant</h1>"}`)

	store := artifact.NewInMemoryStore()
	g := NewGenerator(m, func(o *Options) {
		o.Renderer = &fakeRenderer{}
		o.Artifacts = store
	})

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		layout, err := g.Generate(context.Background(), testRequest())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(layout.ID, "hero-"), layout.ID)
		assert.NotContains(t, layout.ID, "/")
		assert.NotContains(t, layout.ID, ".")
		seen[layout.ID] = true
	}
	assert.Len(t, seen, 3)

	keys, err := store.List(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestGenerator_Stream(t *testing.T) {
	m := model.NewMockModel("mock-llm")
	m.AddResponse("coffee", heroJSON)

	g := NewGenerator(m, func(o *Options) { o.Stream = true })
	layout, err := g.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(layout.ID, "hero-1-"), layout.ID)
	assert.True(t, m.Requests()[0].Stream)
}

var _ core.Generator = (*Generator)(nil)
