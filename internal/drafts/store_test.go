package drafts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "drafts.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	draft := &Draft{Title: "Hello", Content: "<p>World</p>", TagIDs: []string{"1", "2"}}
	require.NoError(t, store.Save(ctx, draft))
	require.Len(t, draft.ID, 26, "ULID assigned on create")
	assert.False(t, draft.CreatedAt.IsZero())

	got, err := store.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, []string{"1", "2"}, got.TagIDs)
	assert.False(t, got.IsEdit())

	got.Title = "Hello again"
	got.PostID = "42"
	require.NoError(t, store.Save(ctx, got))

	again, err := store.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello again", again.Title)
	assert.True(t, again.IsEdit())
}

func TestGet_ByPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	draft := &Draft{Title: "Prefix"}
	require.NoError(t, store.Save(ctx, draft))

	got, err := store.Get(ctx, draft.ID[:10])
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	_, err = store.Get(ctx, draft.ID[:2])
	assert.ErrorIs(t, err, ErrNotFound, "prefixes that short are not searched")

	_, err = store.Get(ctx, "ZZZZZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_AmbiguousPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Draft{BaseModel: BaseModel{ID: "01AAAA00000000000000000001"}}))
	require.NoError(t, store.Save(ctx, &Draft{BaseModel: BaseModel{ID: "01AAAA00000000000000000002"}}))

	_, err := store.Get(ctx, "01AAAA")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestListOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	older := &Draft{Title: "older"}
	newer := &Draft{Title: "newer"}
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))
	require.NoError(t, store.db.Model(&Draft{}).Where("id = ?", older.ID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	drafts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "newer", drafts[0].Title)
	assert.Equal(t, "older", drafts[1].Title)
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	draft := &Draft{Title: "gone"}
	require.NoError(t, store.Save(ctx, draft))
	require.NoError(t, store.Delete(ctx, draft.ID))

	_, err := store.Get(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, draft.ID), ErrNotFound)
}

func TestPruneOlderThan(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stale := &Draft{Title: "stale"}
	fresh := &Draft{Title: "fresh"}
	require.NoError(t, store.Save(ctx, stale))
	require.NoError(t, store.Save(ctx, fresh))
	require.NoError(t, store.db.Model(&Draft{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	removed, err := store.PruneOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	drafts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "fresh", drafts[0].Title)
}

func TestStartJanitor(t *testing.T) {
	store := openTestStore(t)

	c, err := StartJanitor(store, "@every 1h", 24*time.Hour, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	_, err = StartJanitor(store, "not a schedule", time.Hour, zerolog.Nop())
	assert.Error(t, err)
}

func TestPrune_RunsJob(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stale := &Draft{Title: "stale"}
	require.NoError(t, store.Save(ctx, stale))
	require.NoError(t, store.db.Model(&Draft{}).Where("id = ?", stale.ID).
		UpdateColumn("updated_at", time.Now().Add(-48*time.Hour)).Error)

	prune(store, time.Hour, zerolog.Nop())

	drafts, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}
