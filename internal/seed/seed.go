// Package seed imports maintenance catalogs from YAML files.
//
// A catalog file lists item types, their task types, and the default
// interval of each task type:
//
//	item_types:
//	  - name: Automobile
//	    task_types:
//	      - name: Oil Change
//	        every: 90 days
//	        fields:
//	          type: text
//	          value: integer
//	          unit: text
//
// Applying a catalog is idempotent: rows that already exist are reused.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/upkeep/internal/interval"
	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

//go:embed builtin.yaml
var builtinCatalog []byte

// File is the YAML catalog document.
type File struct {
	ItemTypes []ItemTypeEntry `yaml:"item_types"`
}

// ItemTypeEntry is one item type and its task types.
type ItemTypeEntry struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	TaskTypes   []TaskTypeEntry `yaml:"task_types"`
}

// TaskTypeEntry is one task type. Every is an interval such as "90",
// "6 weeks" or "1 year"; Fields maps custom interval field names to kinds.
type TaskTypeEntry struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Every       string            `yaml:"every"`
	Fields      map[string]string `yaml:"fields,omitempty"`
}

// Inventory is the subset of maintenance.Inventory the importer uses.
type Inventory interface {
	CreateItemType(ctx context.Context, name, description string) (*types.ItemType, error)
	FindItemType(ctx context.Context, ref string) (*types.ItemType, error)
	CreateTaskType(ctx context.Context, itemTypeID, name, description string) (*types.TaskType, error)
	FindTaskType(ctx context.Context, itemTypeID, ref string) (*types.TaskType, error)
}

// Catalog is the subset of maintenance.Catalog the importer uses.
type Catalog interface {
	CreateTemplate(ctx context.Context, spec maintenance.TemplateSpec) (*types.MaintenanceTemplate, error)
}

// Result counts what an import created and what it found already present.
type Result struct {
	ItemTypesCreated int `json:"item_types_created"`
	ItemTypesReused  int `json:"item_types_reused"`
	TaskTypesCreated int `json:"task_types_created"`
	TaskTypesReused  int `json:"task_types_reused"`
	TemplatesCreated int `json:"templates_created"`
	TemplatesReused  int `json:"templates_reused"`
}

// Parse decodes a catalog document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, types.Validationf("parse catalog: %v", err)
	}
	return &f, nil
}

// Load reads and parses a catalog file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Builtin returns the catalog shipped with the binary.
func Builtin() *File {
	f, err := Parse(bytes.NewReader(builtinCatalog))
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return f
}

type compiledTask struct {
	entry  TaskTypeEntry
	days   int
	schema types.IntervalSchema
}

type compiledItemType struct {
	entry ItemTypeEntry
	tasks []compiledTask
}

// compile validates the whole file so that a bad entry is reported before
// anything is written.
func compile(f *File) ([]compiledItemType, error) {
	out := make([]compiledItemType, 0, len(f.ItemTypes))
	for i, it := range f.ItemTypes {
		if strings.TrimSpace(it.Name) == "" {
			return nil, types.Validationf("item_types[%d]: name is required", i)
		}
		c := compiledItemType{entry: it}
		for j, tt := range it.TaskTypes {
			if strings.TrimSpace(tt.Name) == "" {
				return nil, types.Validationf("%s task_types[%d]: name is required", it.Name, j)
			}
			if strings.TrimSpace(tt.Every) == "" {
				return nil, types.Validationf("%s/%s: every is required", it.Name, tt.Name)
			}
			days, err := interval.ParseDays(tt.Every)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", it.Name, tt.Name, err)
			}
			if days <= 0 {
				return nil, types.Validationf("%s/%s: interval must be positive", it.Name, tt.Name)
			}
			schema, err := schemaOf(tt.Fields)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", it.Name, tt.Name, err)
			}
			c.tasks = append(c.tasks, compiledTask{entry: tt, days: days, schema: schema})
		}
		out = append(out, c)
	}
	return out, nil
}

func schemaOf(fields map[string]string) (types.IntervalSchema, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := make(types.IntervalSchema, 0, len(names))
	for _, name := range names {
		kind, err := interval.ParseKind(fields[name])
		if err != nil {
			return nil, err
		}
		schema = append(schema, types.IntervalField{Name: name, Kind: kind})
	}
	return interval.ValidateSchema(schema)
}

// Apply creates the item types, task types, and templates of f. Existing
// active rows with the same names are reused, so applying a file twice
// leaves the store unchanged.
func Apply(ctx context.Context, inv Inventory, cat Catalog, f *File, log zerolog.Logger) (Result, error) {
	var res Result
	entries, err := compile(f)
	if err != nil {
		return res, err
	}

	for _, c := range entries {
		it, created, err := ensureItemType(ctx, inv, c.entry)
		if err != nil {
			return res, err
		}
		if created {
			res.ItemTypesCreated++
		} else {
			res.ItemTypesReused++
		}

		for _, task := range c.tasks {
			tt, created, err := ensureTaskType(ctx, inv, it.ItemTypeID, task.entry)
			if err != nil {
				return res, err
			}
			if created {
				res.TaskTypesCreated++
			} else {
				res.TaskTypesReused++
			}

			_, err = cat.CreateTemplate(ctx, maintenance.TemplateSpec{
				ItemTypeID:       it.ItemTypeID,
				TaskTypeID:       tt.TaskTypeID,
				TimeIntervalDays: task.days,
				Schema:           task.schema,
			})
			switch {
			case err == nil:
				res.TemplatesCreated++
			case errors.Is(err, types.ErrConflict):
				res.TemplatesReused++
			default:
				return res, fmt.Errorf("template %s/%s: %w", it.Name, tt.Name, err)
			}
		}
	}

	log.Info().
		Int("item_types", res.ItemTypesCreated).
		Int("task_types", res.TaskTypesCreated).
		Int("templates", res.TemplatesCreated).
		Int("templates_reused", res.TemplatesReused).
		Msg("catalog applied")
	return res, nil
}

func ensureItemType(ctx context.Context, inv Inventory, e ItemTypeEntry) (*types.ItemType, bool, error) {
	it, err := inv.CreateItemType(ctx, e.Name, e.Description)
	if err == nil {
		return it, true, nil
	}
	if !errors.Is(err, types.ErrConflict) {
		return nil, false, fmt.Errorf("item type %s: %w", e.Name, err)
	}
	it, err = inv.FindItemType(ctx, e.Name)
	if err != nil {
		return nil, false, fmt.Errorf("item type %s: %w", e.Name, err)
	}
	return it, false, nil
}

func ensureTaskType(ctx context.Context, inv Inventory, itemTypeID string, e TaskTypeEntry) (*types.TaskType, bool, error) {
	tt, err := inv.CreateTaskType(ctx, itemTypeID, e.Name, e.Description)
	if err == nil {
		return tt, true, nil
	}
	if !errors.Is(err, types.ErrConflict) {
		return nil, false, fmt.Errorf("task type %s: %w", e.Name, err)
	}
	tt, err = inv.FindTaskType(ctx, itemTypeID, e.Name)
	if err != nil {
		return nil, false, fmt.Errorf("task type %s: %w", e.Name, err)
	}
	return tt, false, nil
}
