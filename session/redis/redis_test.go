package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/layoutgen/core"
	"github.com/hupe1980/layoutgen/internal/testutil"
	"github.com/hupe1980/layoutgen/session"
)

var _ core.SessionStore = (*Store)(nil)

func setupTestStore(t *testing.T, optFns ...func(o *Options)) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	store := NewStore(&redis.Options{Addr: mr.Addr()}, optFns...)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestStore_CreateGet(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Create(ctx, core.NewSession("session-1", "editor-session-1")))
	assert.ErrorIs(t, store.Create(ctx, core.NewSession("session-1", "other")), session.ErrAlreadyExists)
	assert.True(t, mr.Exists("layoutgen:session:session-1"))

	got, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "editor-session-1", got.EditorSessionID)
	assert.NotNil(t, got.Metadata)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_Record(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.NewSession("session-1", "editor-session-1")))

	results := []core.SlotResult{core.Succeeded(core.Layout{ID: "a", Label: "Hero"}), core.Failed()}
	require.NoError(t, store.Record(ctx, "session-1", "generate-1", results))
	require.NoError(t, store.Record(ctx, "session-1", "generate-2", results[:1]))

	got, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "generate-2", got.GenerateID)
	assert.Equal(t, 2, got.Generations)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Hero", got.Results[0].Layout.Label)

	assert.ErrorIs(t, store.Record(ctx, "missing", "generate-1", nil), session.ErrNotFound)
}

func TestStore_RecordConcurrent(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.NewSession("session-1", "editor-session-1")))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Record(ctx, "session-1", "generate-1", []core.SlotResult{core.Pending()})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "generate-1", got.GenerateID)
	assert.Equal(t, 1, got.Generations)
}

func TestStore_TTLAndPrefix(t *testing.T) {
	store, mr := setupTestStore(t, func(o *Options) {
		o.Prefix = "test"
		o.TTL = time.Minute
	})
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.NewSession("session-1", "editor-session-1")))

	assert.Equal(t, "test:session:session-1", store.Key("session-1"))
	assert.Equal(t, time.Minute, mr.TTL("test:session:session-1"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "session-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, core.NewSession("session-1", "editor-session-1")))

	require.NoError(t, store.Delete(ctx, "session-1"))
	assert.ErrorIs(t, store.Delete(ctx, "session-1"), session.ErrNotFound)
}

func TestStore_RoundTripsBuiltSession(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	sess := testutil.NewSessionBuilder("session-1").
		EditorSession("editor-session-9").
		Generate("generate-1").
		Success("a").
		Failure().
		Build()
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "editor-session-9", got.EditorSessionID)
	assert.Equal(t, 1, got.Generations)
	require.Len(t, got.Results, 2)
	assert.True(t, got.Results[0].IsSuccess())
	assert.True(t, got.Results[1].IsError())
}
