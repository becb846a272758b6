package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

func TestForecastReferences(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	f := seedFixture(t, b)

	_, err := b.GetForecastReference(ctx, f.item.ItemID, "mileage")
	assert.ErrorIs(t, err, types.ErrNotFound)

	ref := &types.ForecastReference{
		ItemID:               f.item.ItemID,
		MeasurementKind:      "mileage",
		StartDate:            types.MustDate("2014-01-01"),
		StartMeasurement:     0,
		ReferenceDate:        types.MustDate("2015-01-01"),
		ReferenceMeasurement: 365,
	}
	require.NoError(t, b.PutForecastReference(ctx, ref))

	got, err := b.GetForecastReference(ctx, f.item.ItemID, "mileage")
	require.NoError(t, err)
	assert.Equal(t, ref, got)

	t.Run("put overwrites the previous reference", func(t *testing.T) {
		newer := &types.ForecastReference{
			ItemID:               f.item.ItemID,
			MeasurementKind:      "mileage",
			StartDate:            types.MustDate("2020-01-01"),
			StartMeasurement:     10000,
			ReferenceDate:        types.MustDate("2020-07-01"),
			ReferenceMeasurement: 16000,
		}
		require.NoError(t, b.PutForecastReference(ctx, newer))

		got, err := b.GetForecastReference(ctx, f.item.ItemID, "mileage")
		require.NoError(t, err)
		assert.Equal(t, newer, got)
	})

	t.Run("list by item ordered by kind", func(t *testing.T) {
		require.NoError(t, b.PutForecastReference(ctx, &types.ForecastReference{
			ItemID:               f.item.ItemID,
			MeasurementKind:      "engine_hours",
			StartDate:            types.MustDate("2024-01-01"),
			ReferenceDate:        types.MustDate("2024-02-01"),
			ReferenceMeasurement: 40,
		}))
		list, err := b.ListForecastReferences(ctx, f.item.ItemID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "engine_hours", list[0].MeasurementKind)
		assert.Equal(t, "mileage", list[1].MeasurementKind)
	})
}
