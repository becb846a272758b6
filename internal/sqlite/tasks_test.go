package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

func TestTasks(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	f := seedFixture(t, b)

	record := func(date string) *types.Task {
		t.Helper()
		task := &types.Task{
			ItemID:      f.item.ItemID,
			TaskTypeID:  f.oil.TaskTypeID,
			CompletedAt: types.MustDate(date),
		}
		require.NoError(t, b.InsertTask(ctx, task))
		return task
	}

	_, ok, err := b.LastCompleted(ctx, f.item.ItemID, f.oil.TaskTypeID)
	require.NoError(t, err)
	assert.False(t, ok, "no history yet")

	record("2024-03-01")
	latest := record("2024-06-01")
	record("2024-04-15")

	t.Run("last completed is the latest date, not the latest insert", func(t *testing.T) {
		d, ok, err := b.LastCompleted(ctx, f.item.ItemID, f.oil.TaskTypeID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, types.MustDate("2024-06-01"), d)
	})

	t.Run("list is newest first", func(t *testing.T) {
		list, err := b.ListTasks(ctx, f.item.ItemID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, types.MustDate("2024-06-01"), list[0].CompletedAt)
		assert.Equal(t, types.MustDate("2024-04-15"), list[1].CompletedAt)
		assert.Equal(t, types.MustDate("2024-03-01"), list[2].CompletedAt)
	})

	t.Run("deleted tasks leave the history", func(t *testing.T) {
		require.NoError(t, b.SoftDeleteTask(ctx, latest.TaskID))
		d, ok, err := b.LastCompleted(ctx, f.item.ItemID, f.oil.TaskTypeID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, types.MustDate("2024-04-15"), d)
	})

	t.Run("cost, notes, and details round trip", func(t *testing.T) {
		cost := 49.95
		task := &types.Task{
			ItemID:      f.item.ItemID,
			TaskTypeID:  f.tires.TaskTypeID,
			CompletedAt: types.MustDate("2024-05-05"),
			Cost:        &cost,
			Notes:       "rotated front to back",
			Details:     map[string]any{"mileage": float64(12000)},
		}
		require.NoError(t, b.InsertTask(ctx, task))

		got, err := b.GetTask(ctx, task.TaskID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
	})

	t.Run("completion date is required", func(t *testing.T) {
		err := b.InsertTask(ctx, &types.Task{ItemID: f.item.ItemID, TaskTypeID: f.oil.TaskTypeID})
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}
