package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/upkeep/internal/logging"
	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/internal/sqlite"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

type services struct {
	inventory *maintenance.Inventory
	catalog   *maintenance.Catalog
}

func setupServices(t *testing.T) services {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Close() })
	log := logging.Nop()
	return services{
		inventory: maintenance.NewInventory(b, log),
		catalog:   maintenance.NewCatalog(b, log),
	}
}

const carCatalog = `
item_types:
  - name: Automobile
    task_types:
      - name: Oil Change
        every: 90 days
        fields:
          Type: text
          Value: int
          Unit: text
      - name: Tire Rotation
        every: 1 year
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(carCatalog))
	require.NoError(t, err)
	require.Len(t, f.ItemTypes, 1)
	assert.Equal(t, "Automobile", f.ItemTypes[0].Name)
	require.Len(t, f.ItemTypes[0].TaskTypes, 2)
	assert.Equal(t, "90 days", f.ItemTypes[0].TaskTypes[0].Every)

	t.Run("bare number", func(t *testing.T) {
		f, err := Parse(strings.NewReader("item_types:\n  - name: House\n    task_types:\n      - name: Filter\n        every: 90\n"))
		require.NoError(t, err)
		assert.Equal(t, "90", f.ItemTypes[0].TaskTypes[0].Every)
	})

	t.Run("empty document", func(t *testing.T) {
		f, err := Parse(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, f.ItemTypes)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse(strings.NewReader("item_types:\n  - name: House\n    colour: red\n"))
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := setupServices(t)
	f, err := Parse(strings.NewReader(carCatalog))
	require.NoError(t, err)

	res, err := Apply(ctx, s.inventory, s.catalog, f, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, Result{ItemTypesCreated: 1, TaskTypesCreated: 2, TemplatesCreated: 2}, res)

	car, err := s.inventory.FindItemType(ctx, "automobile")
	require.NoError(t, err)
	templates, err := s.catalog.ListActiveTemplates(ctx, car.ItemTypeID)
	require.NoError(t, err)
	require.Len(t, templates, 2)

	byDays := map[int]*types.MaintenanceTemplate{}
	for _, tmpl := range templates {
		byDays[tmpl.TimeIntervalDays] = tmpl
	}
	require.Contains(t, byDays, 90)
	require.Contains(t, byDays, 365)
	assert.Equal(t, types.IntervalSchema{
		{Name: "type", Kind: types.KindText},
		{Name: "unit", Kind: types.KindText},
		{Name: "value", Kind: types.KindInteger},
	}, byDays[90].Schema)
	assert.Empty(t, byDays[365].Schema)

	t.Run("second apply reuses everything", func(t *testing.T) {
		res, err := Apply(ctx, s.inventory, s.catalog, f, logging.Nop())
		require.NoError(t, err)
		assert.Equal(t, Result{ItemTypesReused: 1, TaskTypesReused: 2, TemplatesReused: 2}, res)

		templates, err := s.catalog.ListActiveTemplates(ctx, car.ItemTypeID)
		require.NoError(t, err)
		assert.Len(t, templates, 2)
	})
}

func TestApply_InvalidFileWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing every", "item_types:\n  - name: Boat\n    task_types:\n      - name: Hull\n"},
		{"bad unit", "item_types:\n  - name: Boat\n    task_types:\n      - name: Hull\n        every: 3 fortnights\n"},
		{"zero interval", "item_types:\n  - name: Boat\n    task_types:\n      - name: Hull\n        every: 0\n"},
		{"bad kind", "item_types:\n  - name: Boat\n    task_types:\n      - name: Hull\n        every: 30\n        fields:\n          depth: boolean\n"},
		{"colliding fields", "item_types:\n  - name: Boat\n    task_types:\n      - name: Hull\n        every: 30\n        fields:\n          Depth: integer\n          depth: text\n"},
		{"blank item type", "item_types:\n  - name: \" \"\n"},
		{"later entry invalid", "item_types:\n  - name: Boat\n    task_types:\n      - name: Hull\n        every: 30\n  - name: Kayak\n    task_types:\n      - name: Wax\n        every: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := setupServices(t)
			f, err := Parse(strings.NewReader(tt.doc))
			require.NoError(t, err)

			_, err = Apply(ctx, s.inventory, s.catalog, f, logging.Nop())
			assert.ErrorIs(t, err, types.ErrValidation)

			list, err := s.inventory.ListItemTypes(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestBuiltin(t *testing.T) {
	ctx := context.Background()
	s := setupServices(t)

	f := Builtin()
	require.NotEmpty(t, f.ItemTypes)
	res, err := Apply(ctx, s.inventory, s.catalog, f, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, res.TaskTypesCreated, res.TemplatesCreated)
	assert.Equal(t, len(f.ItemTypes), res.ItemTypesCreated)
}
