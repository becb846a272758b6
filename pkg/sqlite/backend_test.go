package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	require.NoError(t, err)

	ctx := context.Background()
	it := &types.ItemType{Name: "Automobile"}
	require.NoError(t, store.InsertItemType(ctx, it))
	require.NoError(t, store.Close())

	t.Run("data survives reopen", func(t *testing.T) {
		store, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: dir})
		require.NoError(t, err)
		defer store.Close()

		got, err := store.GetItemType(ctx, it.ItemTypeID)
		require.NoError(t, err)
		assert.Equal(t, "Automobile", got.Name)
	})

	t.Run("closed store rejects calls", func(t *testing.T) {
		_, err := store.GetItemType(ctx, it.ItemTypeID)
		assert.ErrorIs(t, err, types.ErrStoreClosed)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := Open(types.Config{Backend: "postgres", DataDir: t.TempDir()})
		assert.Error(t, err)
	})
}
