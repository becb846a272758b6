package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/upkeep/internal/logging"
	"github.com/mesh-intelligence/upkeep/internal/sqlite"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// testEnv wires every service to a fresh SQLite store with a fixed clock.
type testEnv struct {
	store      *sqlite.Backend
	catalog    *Catalog
	planner    *Planner
	forecaster *Forecaster
	inventory  *Inventory
	today      time.Time

	car    *types.ItemType
	oil    *types.TaskType
	tires  *types.TaskType
	wipers *types.TaskType
	civic  *types.Item
}

func setupEnv(t *testing.T, today string) *testEnv {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Close() })

	log := logging.Nop()
	env := &testEnv{
		store:     b,
		catalog:   NewCatalog(b, log),
		planner:   NewPlanner(b, log),
		inventory: NewInventory(b, log),
		today:     types.MustDate(today),
	}
	env.forecaster = NewForecaster(b, log, func() time.Time { return env.today.Add(15 * time.Hour) })

	ctx := context.Background()
	var err error
	env.car, err = env.inventory.CreateItemType(ctx, "Automobile", "")
	require.NoError(t, err)
	env.oil, err = env.inventory.CreateTaskType(ctx, env.car.ItemTypeID, "Oil Change", "")
	require.NoError(t, err)
	env.tires, err = env.inventory.CreateTaskType(ctx, env.car.ItemTypeID, "Tire Rotation", "")
	require.NoError(t, err)
	env.wipers, err = env.inventory.CreateTaskType(ctx, env.car.ItemTypeID, "Wiper Blades", "")
	require.NoError(t, err)

	acquired := types.MustDate("2024-01-01")
	env.civic, err = env.inventory.CreateItem(ctx, ItemSpec{
		ItemTypeID: env.car.ItemTypeID,
		Name:       "Civic",
		AcquiredAt: &acquired,
	})
	require.NoError(t, err)
	return env
}

var mileageSchema = types.IntervalSchema{
	{Name: "type", Kind: types.KindText},
	{Name: "value", Kind: types.KindInteger},
	{Name: "unit", Kind: types.KindText},
}

func (e *testEnv) template(t *testing.T, tt *types.TaskType, days int, schema types.IntervalSchema) *types.MaintenanceTemplate {
	t.Helper()
	tmpl, err := e.catalog.CreateTemplate(context.Background(), TemplateSpec{
		ItemTypeID:       e.car.ItemTypeID,
		TaskTypeID:       tt.TaskTypeID,
		TimeIntervalDays: days,
		Schema:           schema,
	})
	require.NoError(t, err)
	return tmpl
}

func intPtr(n int) *int { return &n }
