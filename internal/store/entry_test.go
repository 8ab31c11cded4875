package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifelog/apiserver/types"
)

func newEntryRepo(t *testing.T) *EntryRepository {
	t.Helper()
	return NewEntryRepository(t.TempDir())
}

func TestEntryCreateAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := newEntryRepo(t)

	before := time.Now().UTC()
	created, err := repo.Create(ctx, types.Entry{
		ID:         "client-supplied",
		Timestamp:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		UserID:     "u1",
		CategoryID: "c1",
		Items: []types.EntryItem{
			{ItemID: "i1", Measure: types.Measurement{Kind: types.ScaleRating, Value: 4}},
		},
	})
	require.NoError(t, err)

	assert.NotEqual(t, "client-supplied", created.ID)
	assert.False(t, created.Timestamp.Before(before), "timestamp is assigned at creation")
	assert.Equal(t, "u1", created.UserID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Items, 1)
}

func TestEntryListByUser(t *testing.T) {
	ctx := context.Background()
	repo := newEntryRepo(t)

	for _, userID := range []string{"alice", "bob", "alice"} {
		_, err := repo.Create(ctx, types.Entry{UserID: userID, CategoryID: "c1"})
		require.NoError(t, err)
	}

	owned, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	for _, entry := range owned {
		assert.Equal(t, "alice", entry.UserID)
	}

	none, err := repo.ListByUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEntryDeletePreservesOrder(t *testing.T) {
	ctx := context.Background()
	repo := newEntryRepo(t)

	var ids []string
	for i := 0; i < 3; i++ {
		created, err := repo.Create(ctx, types.Entry{UserID: "u1", CategoryID: "c1"})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	require.NoError(t, repo.Delete(ctx, ids[0]))

	entries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ids[1], entries[0].ID)
	assert.Equal(t, ids[2], entries[1].ID)
}

func TestEntryDeleteNotFoundDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	repo := newEntryRepo(t)

	_, err := repo.Create(ctx, types.Entry{UserID: "u1", CategoryID: "c1"})
	require.NoError(t, err)

	before, err := repo.List(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)

	after, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
