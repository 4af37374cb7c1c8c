package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func layoutIDs(results []core.SlotResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		switch {
		case r.IsSuccess():
			out[i] = r.Layout.ID
		case r.IsError():
			out[i] = "<error>"
		default:
			out[i] = "<pending>"
		}
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	o := New(&testutil.RecordingGenerator{})
	assert.Equal(t, DefaultParallelism, o.Parallelism())
	assert.True(t, strings.HasPrefix(o.SessionID(), "session-"))

	s := o.State()
	assert.Empty(t, s.Results)
	assert.False(t, s.IsLoading)
	assert.NoError(t, s.Err)
}

func TestGenerate_AllSucceed(t *testing.T) {
	gen := &testutil.RecordingGenerator{}
	o := New(gen, func(o *Options) {
		o.EditorSessionID = "editor-session-1"
		o.SessionID = "session-1"
	})

	o.Generate(context.Background(), "hero section", nil)
	o.Wait()

	s := o.State()
	require.Len(t, s.Results, 3)
	for _, r := range s.Results {
		assert.True(t, r.IsSuccess())
	}
	assert.False(t, s.IsLoading)
	assert.NoError(t, s.Err)

	reqs := gen.Requests()
	require.Len(t, reqs, 3)
	requestIDs := map[string]bool{}
	for _, r := range reqs {
		assert.Equal(t, "hero section", r.Prompt)
		assert.Equal(t, "editor-session-1", r.IDs.EditorSessionID)
		assert.Equal(t, "session-1", r.IDs.SessionID)
		assert.Equal(t, s.GenerateID, r.IDs.GenerateID)
		assert.Equal(t, reqs[0].IDs.BatchID, r.IDs.BatchID)
		assert.True(t, strings.HasPrefix(r.IDs.RequestID, "request-"))
		requestIDs[r.IDs.RequestID] = true
	}
	assert.Len(t, requestIDs, 3)
}

func TestGenerate_PartialFailure(t *testing.T) {
	for _, tc := range []struct {
		name  string
		claim ClaimStrategy
		want  []string
	}{
		{"first-last heuristic", ClaimFirstLast, []string{"A", "B", "<error>"}},
		{"by index", ClaimByIndex, []string{"A", "<error>", "B"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gen := testutil.NewGatedGenerator(3)
			o := New(gen, func(o *Options) { o.Claim = tc.claim })

			o.Generate(context.Background(), "hero section", nil)
			reqs := gen.NextN(t, 3)

			gen.Succeed(reqs[0], core.Layout{ID: "A"})
			require.Eventually(t, func() bool { return o.Results()[0].IsSuccess() }, time.Second, time.Millisecond)
			gen.Fail(reqs[1], errBoom)
			gen.Succeed(reqs[2], core.Layout{ID: "B"})
			o.Wait()

			s := o.State()
			assert.Equal(t, tc.want, layoutIDs(s.Results))
			assert.False(t, s.IsLoading)
			assert.NoError(t, s.Err)
		})
	}
}

func TestGenerate_AllFailRollsBack(t *testing.T) {
	o := New(testutil.BySlot("L", map[int]error{0: errBoom, 1: errBoom, 2: errBoom}))

	o.Generate(context.Background(), "hero section", nil)
	o.Wait()

	s := o.State()
	assert.Empty(t, s.Results)
	assert.False(t, s.IsLoading)
	require.Error(t, s.Err)
	assert.ErrorIs(t, s.Err, errBoom)
	assert.ErrorIs(t, s.Err, core.ErrSlotFailed)

	var se *core.SlotError
	require.ErrorAs(t, s.Err, &se)
	assert.Equal(t, 0, se.Slot)
}

func TestRegenerate_AllFailKeepsHistory(t *testing.T) {
	var fail bool
	var mu sync.Mutex
	gen := &testutil.RecordingGenerator{Fn: func(_ context.Context, req core.Request) (core.Layout, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail || req.Slot == 1 {
			return core.Layout{}, errBoom
		}
		return core.Layout{ID: "L" + req.IDs.RequestID}, nil
	}}
	o := New(gen)

	o.Generate(context.Background(), "hero section", nil)
	o.Wait()
	before := o.Results()
	require.Len(t, before, 3)

	mu.Lock()
	fail = true
	mu.Unlock()

	o.Regenerate(context.Background(), "hero section", nil)
	o.Wait()

	s := o.State()
	assert.Equal(t, before, s.Results)
	assert.NoError(t, s.Err)
	assert.False(t, s.IsLoading)
}

func TestRegenerate_AppendsAndKeepsGenerateID(t *testing.T) {
	gen := &testutil.RecordingGenerator{}
	o := New(gen)

	o.Generate(context.Background(), "p", nil)
	o.Wait()
	first := o.State()

	o.Regenerate(context.Background(), "p", nil)
	o.Wait()
	second := o.State()

	require.Len(t, second.Results, 6)
	assert.Equal(t, first.Results, second.Results[:3])
	assert.Equal(t, first.GenerateID, second.GenerateID)

	reqs := gen.Requests()
	require.Len(t, reqs, 6)
	regen := reqs[3:]
	for _, r := range regen {
		assert.Equal(t, first.GenerateID, r.IDs.GenerateID)
		assert.NotEqual(t, reqs[0].IDs.BatchID, r.IDs.BatchID)
		assert.ElementsMatch(t, core.GeneratedIDs(first.Results), r.PrevGeneratedIDs)
	}

	o.Generate(context.Background(), "p", nil)
	o.Wait()
	third := o.State()
	assert.Len(t, third.Results, 3)
	assert.NotEqual(t, first.GenerateID, third.GenerateID)
}

func TestPrevGeneratedIDs_SkipFailedSlots(t *testing.T) {
	gen := testutil.BySlot("L", map[int]error{2: errBoom})
	o := New(gen)

	o.Generate(context.Background(), "p", nil)
	o.Wait()
	o.Regenerate(context.Background(), "p", nil)
	o.Wait()

	reqs := gen.Requests()
	require.Len(t, reqs, 6)
	for _, r := range reqs[:3] {
		assert.Empty(t, r.PrevGeneratedIDs)
	}
	for _, r := range reqs[3:] {
		assert.ElementsMatch(t, []string{"L0", "L1"}, r.PrevGeneratedIDs)
	}
}

func TestGenerate_StripsAttachments(t *testing.T) {
	gen := &testutil.RecordingGenerator{}
	ec := core.EditorContext{Body: core.BodyStyle{BackgroundColor: "rgb(255, 255, 255)"}}
	o := New(gen, func(o *Options) {
		o.Parallelism = 1
		o.Context = core.StaticContext(ec)
	})

	o.Generate(context.Background(), "", []core.Attachment{{
		Type:        "json",
		Content:     `{"elType":"container"}`,
		Label:       "Copied section",
		Source:      "copy",
		PreviewHTML: "<img>",
		Metadata:    map[string]string{"secret": "x"},
	}})
	o.Wait()

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	want := []core.RequestAttachment{{Type: "json", Content: `{"elType":"container"}`, Label: "Copied section", Source: "copy"}}
	if diff := cmp.Diff(want, reqs[0].Attachments); diff != "" {
		t.Errorf("attachments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ec, reqs[0].CurrentContext)
}

func TestIsLoading_Transitions(t *testing.T) {
	gen := testutil.NewGatedGenerator(3)
	o := New(gen)

	o.Generate(context.Background(), "p", nil)
	s := o.State()
	assert.True(t, s.IsLoading)
	assert.Equal(t, []string{"<pending>", "<pending>", "<pending>"}, layoutIDs(s.Results))

	reqs := gen.NextN(t, 3)
	gen.Succeed(reqs[0], core.Layout{ID: "A"})
	gen.Succeed(reqs[1], core.Layout{ID: "B"})
	require.Eventually(t, func() bool { return len(core.GeneratedIDs(o.Results())) == 2 }, time.Second, time.Millisecond)
	assert.True(t, o.IsLoading())

	gen.Fail(reqs[2], errBoom)
	o.Wait()
	assert.False(t, o.IsLoading())
}

func TestAbort_BeforeSettleRollsBack(t *testing.T) {
	gen := testutil.NewGatedGenerator(3)

	var mu sync.Mutex
	var states []State
	o := New(gen, func(o *Options) {
		o.OnChange = func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}
	})

	o.Generate(context.Background(), "p", nil)
	gen.NextN(t, 3)
	o.Abort()
	o.Wait()

	s := o.State()
	assert.Empty(t, s.Results)
	assert.False(t, s.IsLoading)
	assert.ErrorIs(t, s.Err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	sawAllErrors := false
	for i, st := range states {
		if i > 0 {
			assert.Greater(t, st.Version, states[i-1].Version)
		}
		if len(st.Results) == 3 && layoutIDs(st.Results)[0] == "<error>" && layoutIDs(st.Results)[2] == "<error>" && layoutIDs(st.Results)[1] == "<error>" {
			sawAllErrors = true
			assert.True(t, st.IsLoading)
		}
	}
	assert.True(t, sawAllErrors, "all slots become Error before the rollback")
	assert.Empty(t, states[len(states)-1].Results)
}

func TestAbort_TargetsLatestBatch(t *testing.T) {
	gen := testutil.NewGatedGenerator(6)
	o := New(gen)

	o.Generate(context.Background(), "p", nil)
	first := gen.NextN(t, 3)
	o.Regenerate(context.Background(), "p", nil)
	gen.NextN(t, 3)

	o.Abort()
	require.Eventually(t, func() bool { return len(o.Results()) == 3 }, time.Second, time.Millisecond)
	assert.True(t, o.IsLoading(), "first batch is still outstanding")

	for i, r := range first {
		gen.Succeed(r, core.Layout{ID: string(rune('A' + i))})
	}
	o.Wait()

	assert.ElementsMatch(t, []string{"A", "B", "C"}, core.GeneratedIDs(o.Results()))
	assert.NoError(t, o.Err())
}

func TestAbort_NoBatchIsNoOp(t *testing.T) {
	o := New(&testutil.RecordingGenerator{})
	assert.NotPanics(t, o.Abort)
	o.Wait()
}

func TestGenerate_ResetDropsStaleCompletions(t *testing.T) {
	gen := testutil.NewGatedGenerator(6)
	o := New(gen)

	o.Generate(context.Background(), "old", nil)
	stale := gen.NextN(t, 3)
	o.Generate(context.Background(), "new", nil)
	fresh := gen.NextN(t, 3)

	for _, r := range stale {
		gen.Succeed(r, core.Layout{ID: "stale"})
	}
	for i, r := range fresh {
		gen.Succeed(r, core.Layout{ID: string(rune('A' + i))})
	}
	o.Wait()

	assert.ElementsMatch(t, []string{"A", "B", "C"}, core.GeneratedIDs(o.Results()))
}

func TestParentContextCancellation(t *testing.T) {
	gen := testutil.NewGatedGenerator(3)
	o := New(gen)

	ctx, cancel := context.WithCancel(context.Background())
	o.Generate(ctx, "p", nil)
	gen.NextN(t, 3)
	cancel()
	o.Wait()

	assert.Empty(t, o.Results())
	assert.ErrorIs(t, o.Err(), context.Canceled)
}

func TestOnChange_MayStartAnotherBatch(t *testing.T) {
	gen := &testutil.RecordingGenerator{}

	var (
		o       *Orchestrator
		started sync.Once
	)
	o = New(gen, func(opts *Options) {
		opts.OnChange = func(s State) {
			if !s.IsLoading && len(s.Results) == 3 {
				started.Do(func() { o.Regenerate(context.Background(), "more", nil) })
			}
		}
	})

	done := make(chan struct{})
	go func() {
		o.Generate(context.Background(), "hero", nil)
		o.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator blocked while OnChange started a batch")
	}

	s := o.State()
	require.Len(t, s.Results, 6)
	assert.False(t, s.IsLoading)
	assert.Len(t, gen.Requests(), 6)
}
