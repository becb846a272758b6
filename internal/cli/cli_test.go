package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/upkeep/internal/seed"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// harness runs commands in-process against temporary directories with a
// fixed clock.
type harness struct {
	t         *testing.T
	configDir string
	dataDir   string
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, name := range []string{"UPKEEP_CONFIG_DIR", "UPKEEP_DATA_DIR", "UPKEEP_LOG_LEVEL", "UPKEEP_LISTING_CANDIDATE_FILTER"} {
		t.Setenv(name, "")
	}
	root := t.TempDir()
	return &harness{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
		now:       time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root, a := newRootCmd(func() time.Time { return h.now })
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config-dir", h.configDir, "--data-dir", h.dataDir}, args...))
	err := run(root, a)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "upkeep %v", args)
	return out
}

func (h *harness) mustJSON(v any, args ...string) {
	h.t.Helper()
	out := h.mustRun(append(args, "--json")...)
	require.NoError(h.t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

// civic initializes the store with the built-in catalog and creates an
// automobile acquired on 2024-01-01.
func (h *harness) civic() *types.Item {
	h.t.Helper()
	h.mustRun("init", "--catalog")
	var item types.Item
	h.mustJSON(&item, "item", "create", "Automobile", "Civic", "--acquired", "2024-01-01")
	return &item
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Contains(t, out, "upkeep v"+Version)
	assert.Contains(t, out, modulePath)
	assert.NoDirExists(t, h.dataDir)
}

func TestInit(t *testing.T) {
	h := newHarness(t)

	var res struct {
		ConfigDir string       `json:"config_dir"`
		DataDir   string       `json:"data_dir"`
		Catalog   *seed.Result `json:"catalog"`
	}
	h.mustJSON(&res, "init", "--catalog")
	assert.Equal(t, h.dataDir, res.DataDir)
	assert.FileExists(t, filepath.Join(h.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(h.dataDir, "upkeep.db"))
	require.NotNil(t, res.Catalog)
	assert.Equal(t, len(seed.Builtin().ItemTypes), res.Catalog.ItemTypesCreated)

	t.Run("second init reuses the catalog", func(t *testing.T) {
		h.mustJSON(&res, "init", "--catalog")
		assert.Zero(t, res.Catalog.TemplatesCreated)
		assert.Equal(t, len(seed.Builtin().ItemTypes), res.Catalog.ItemTypesReused)
	})
}

func TestPlanAndDue(t *testing.T) {
	h := newHarness(t)
	civic := h.civic()

	var plan types.ItemMaintenancePlan
	h.mustJSON(&plan, "plan", "create", civic.ItemID, "Oil Change",
		"--value", "type=mileage", "--value", "value=5000", "--value", "unit=miles")
	assert.Equal(t, 90, plan.TimeIntervalDays)
	assert.Equal(t, types.IntValue(5000), plan.CustomValue["value"])
	assert.Equal(t, types.TextValue("miles"), plan.CustomValue["unit"])

	var due []types.Due
	h.mustJSON(&due, "due", civic.ItemID, "oil change")
	require.Len(t, due, 1)
	assert.Equal(t, types.MustDate("2024-03-31"), due[0].NextDue)
	assert.False(t, due[0].Overdue)
	assert.Equal(t, 59, due[0].DaysRemaining)
	assert.Nil(t, due[0].LastCompleted)

	var task types.Task
	h.mustJSON(&task, "task", "record", civic.ItemID, "Oil Change", "--date", "2024-06-01", "--cost", "45.50", "--detail", "odometer=42000")
	require.NotNil(t, task.Cost)
	assert.InDelta(t, 45.5, *task.Cost, 1e-9)

	h.mustJSON(&due, "due", civic.ItemID, "Oil Change", "--as-of", "2024-09-15")
	require.Len(t, due, 1)
	assert.Equal(t, types.MustDate("2024-08-30"), due[0].NextDue)
	assert.True(t, due[0].Overdue)
	assert.Equal(t, -16, due[0].DaysRemaining)

	out := h.mustRun("due", "--as-of", "2024-09-15")
	assert.Contains(t, out, "Civic")
	assert.Contains(t, out, "overdue by 16 days")

	t.Run("duplicate plan is a conflict", func(t *testing.T) {
		_, err := h.run("plan", "create", civic.ItemID, "Oil Change",
			"--value", "type=mileage", "--value", "value=5000", "--value", "unit=miles")
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.Equal(t, exitUserError, exitCode(err))
	})

	t.Run("custom value must match the template", func(t *testing.T) {
		var other types.Item
		h.mustJSON(&other, "item", "create", "Automobile", "Accord")
		_, err := h.run("plan", "create", other.ItemID, "Oil Change", "--value", "type=mileage", "--value", "value=5000")
		assert.ErrorIs(t, err, types.ErrValidation)
		var fe *types.FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "unit", fe.Field)
	})

	t.Run("update overrides the interval", func(t *testing.T) {
		var updated types.ItemMaintenancePlan
		h.mustJSON(&updated, "plan", "update", plan.PlanID, "--every", "2 weeks")
		assert.Equal(t, 14, updated.TimeIntervalDays)
		assert.Equal(t, plan.CustomValue, updated.CustomValue)

		_, err := h.run("plan", "update", plan.PlanID)
		assert.Equal(t, exitUserError, exitCode(err))
	})

	t.Run("candidates exclude planned task types", func(t *testing.T) {
		var list []types.TaskType
		h.mustJSON(&list, "plan", "candidates", civic.ItemID)
		names := make([]string, len(list))
		for i, tt := range list {
			names[i] = tt.Name
		}
		assert.NotContains(t, names, "Oil Change")
		assert.Contains(t, names, "Tire Rotation")
	})

	t.Run("deleted plan leaves nothing due", func(t *testing.T) {
		h.mustRun("plan", "delete", plan.PlanID)
		var due []types.Due
		h.mustJSON(&due, "due", civic.ItemID)
		assert.Empty(t, due)
	})
}

func TestCandidateFilterFromConfig(t *testing.T) {
	h := newHarness(t)
	civic := h.civic()
	h.mustRun("task-type", "create", "Automobile", "Detailing")

	require.NoError(t, os.WriteFile(filepath.Join(h.configDir, "config.yaml"),
		[]byte("listing:\n  candidate_filter: template\n"), 0o644))

	var list []types.TaskType
	h.mustJSON(&list, "plan", "candidates", civic.ItemID)
	require.Len(t, list, 1)
	assert.Equal(t, "Detailing", list[0].Name)

	h.mustJSON(&list, "plan", "candidates", civic.ItemID, "--filter", "active_plan")
	assert.Greater(t, len(list), 1)

	_, err := h.run("plan", "candidates", civic.ItemID, "--filter", "everything")
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
}

func TestTemplateCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	h.mustRun("item-type", "create", "Boat", "--description", "Things that float")
	h.mustRun("task-type", "create", "boat", "Hull Cleaning")

	var tmpl types.MaintenanceTemplate
	h.mustJSON(&tmpl, "template", "create", "Boat", "hull cleaning", "--every", "1 year", "--field", "Depth=decimal")
	assert.Equal(t, 365, tmpl.TimeIntervalDays)
	assert.Equal(t, types.IntervalSchema{{Name: "depth", Kind: types.KindDecimal}}, tmpl.Schema)

	_, err := h.run("template", "create", "Boat", "Hull Cleaning", "--every", "30")
	assert.ErrorIs(t, err, types.ErrConflict)

	_, err = h.run("template", "create", "Boat", "Hull Cleaning", "--every", "30", "--field", "depth=boolean")
	assert.ErrorIs(t, err, types.ErrValidation)

	var list []types.MaintenanceTemplate
	h.mustJSON(&list, "template", "list", "Boat")
	require.Len(t, list, 1)

	h.mustRun("template", "delete", tmpl.TemplateID)
	h.mustJSON(&list, "template", "list", "Boat")
	assert.Empty(t, list)
	h.mustJSON(&list, "template", "list", "Boat", "--all")
	require.Len(t, list, 1)
	assert.Equal(t, types.LifecycleDeleted, list[0].State)

	t.Run("schema inferred from a sample value", func(t *testing.T) {
		h.mustRun("task-type", "create", "Boat", "Engine Service")
		var tmpl types.MaintenanceTemplate
		h.mustJSON(&tmpl, "template", "create", "Boat", "Engine Service", "--every", "90",
			"--sample", "Type=hours", "--sample", "value=100", "--sample", "ratio=0.5")
		assert.Equal(t, types.IntervalSchema{
			{Name: "ratio", Kind: types.KindDecimal},
			{Name: "type", Kind: types.KindText},
			{Name: "value", Kind: types.KindInteger},
		}, tmpl.Schema)

		_, err := h.run("template", "create", "Boat", "Engine Service", "--every", "90",
			"--sample", "value=100", "--field", "value=integer")
		assert.ErrorIs(t, err, errUsage)
		_, err = h.run("template", "create", "Boat", "Engine Service", "--every", "90", "--sample", "value")
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("import a catalog file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("item_types:\n  - name: Boat\n    task_types:\n      - name: Hull Cleaning\n        every: 26 weeks\n"), 0o644))
		var res seed.Result
		h.mustJSON(&res, "template", "import", path)
		assert.Equal(t, seed.Result{ItemTypesReused: 1, TaskTypesReused: 1, TemplatesCreated: 1}, res)
	})
}

func TestForecastCommands(t *testing.T) {
	h := newHarness(t)
	civic := h.civic()

	h.mustRun("forecast", "set", civic.ItemID, "Mileage",
		"--start-date", "2014-01-01", "--start", "0", "--ref-date", "2015-01-01", "--ref", "365")

	var res struct {
		Value float64 `json:"value"`
		Date  string  `json:"date"`
	}
	h.mustJSON(&res, "forecast", "predict", civic.ItemID, "mileage", "--date", "2016-01-01")
	assert.InDelta(t, 730.0, res.Value, 1e-9)
	assert.Equal(t, "2016-01-01", res.Date)

	out := h.mustRun("forecast", "list", civic.ItemID)
	assert.Contains(t, out, "mileage")
	assert.Contains(t, out, "2015-01-01")
	assert.Contains(t, out, "PER DAY")

	var rows []struct {
		MeasurementKind string   `json:"measurement_kind"`
		DailyRate       *float64 `json:"daily_rate"`
	}
	h.mustJSON(&rows, "forecast", "list", civic.ItemID)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].DailyRate)
	assert.InDelta(t, 1.0, *rows[0].DailyRate, 1e-9)

	_, err := h.run("forecast", "set", civic.ItemID, "mileage",
		"--start-date", "2015-01-01", "--start", "0", "--ref-date", "2014-01-01", "--ref", "365")
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = h.run("forecast", "predict", civic.ItemID, "hours")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestItemDetailsForecastImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init", "--catalog")

	var item types.Item
	h.mustJSON(&item, "item", "create", "Automobile", "Wagon", "--detail", "color=blue",
		"--details-json", `{"forecast": {"mileage": {"start_date": "2015-03-10", "start_measurement": 1000, "reference_date": "2021-05-15", "reference_measurement": 59000}}}`)
	assert.Equal(t, "blue", item.Details["color"])
	assert.NotContains(t, item.Details, "forecast")

	var refs []types.ForecastReference
	h.mustJSON(&refs, "forecast", "list", item.ItemID)
	require.Len(t, refs, 1)
	assert.Equal(t, "mileage", refs[0].MeasurementKind)
}

func TestUnknownItemIsUserError(t *testing.T) {
	h := newHarness(t)
	h.mustRun("init")
	_, err := h.run("due", "no-such-item")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(types.Validationf("bad")))
	assert.Equal(t, exitUserError, exitCode(usagef("missing flag")))
	assert.Equal(t, exitUserError, exitCode(&types.FieldError{Field: "unit", Reason: "missing"}))
	assert.Equal(t, exitSysError, exitCode(errors.New("disk full")))
}
