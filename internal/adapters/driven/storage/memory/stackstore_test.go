package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/datacat/internal/core/domain"
)

func TestStackStore_SaveLoad(t *testing.T) {
	store := NewStackStore()
	ctx := context.Background()

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.Save(ctx, []domain.StackEntry{
		{Position: 1, Path: "/b/Data.toml"},
		{Position: 0, Path: "/a/Data.toml"},
	}))
	entries, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/a/Data.toml", entries[0].Path)
	assert.Equal(t, "/b/Data.toml", entries[1].Path)
	assert.Equal(t, 1, store.Saves())
}

func TestStackStore_SaveReplaces(t *testing.T) {
	store := NewStackStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []domain.StackEntry{{Path: "/a"}, {Position: 1, Path: "/b"}}))
	require.NoError(t, store.Save(ctx, nil))

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, store.Close())
}
