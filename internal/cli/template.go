package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/upkeep/internal/interval"
	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/internal/seed"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Manage maintenance templates",
	}

	var (
		every   string
		fields  []string
		samples []string
	)
	create := &cobra.Command{
		Use:   "create <item-type> <task-type>",
		Short: "Create the template for an item type and task type",
		Long: `Create the default schedule of a task type.

The interval accepts days or a unit: "90", "6 weeks", "1 year". Custom
interval fields are declared as name=kind with kind integer, decimal or text:

  upkeep template create Automobile "Oil Change" --every "90 days" \
    --field type=text --field value=integer --field unit=text

Or infer the kinds from an example value with --sample:

  upkeep template create Automobile "Oil Change" --every "90 days" \
    --sample type=mileage --sample value=5000 --sample unit=miles`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			it, err := a.inventory.FindItemType(ctx, args[0])
			if err != nil {
				return err
			}
			tt, err := a.inventory.FindTaskType(ctx, it.ItemTypeID, args[1])
			if err != nil {
				return err
			}
			days, err := interval.ParseDays(every)
			if err != nil {
				return err
			}
			if len(fields) > 0 && len(samples) > 0 {
				return usagef("--field and --sample cannot be combined")
			}
			schema, err := parseSchemaFields(fields, interval.ParseKind)
			if err != nil {
				return err
			}
			if len(samples) > 0 {
				if schema, err = schemaFromSamples(samples); err != nil {
					return err
				}
			}
			tmpl, err := a.catalog.CreateTemplate(ctx, maintenance.TemplateSpec{
				ItemTypeID:       it.ItemTypeID,
				TaskTypeID:       tt.TaskTypeID,
				TimeIntervalDays: days,
				Schema:           schema,
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, tmpl, func(w io.Writer) {
				fmt.Fprintf(w, "Created template %s: %s every %d days (%s)\n", tmpl.TemplateID, tt.Name, tmpl.TimeIntervalDays, formatSchema(tmpl.Schema))
			})
		},
	}
	create.Flags().StringVar(&every, "every", "", "interval, e.g. \"90\", \"6 weeks\", \"1 year\"")
	create.Flags().StringArrayVar(&fields, "field", nil, "custom interval field name=kind (repeatable)")
	create.Flags().StringArrayVar(&samples, "sample", nil, "example custom interval value name=value, kind inferred (repeatable)")
	_ = create.MarkFlagRequired("every")

	var all bool
	list := &cobra.Command{
		Use:   "list [item-type]",
		Short: "List active templates, optionally for one item type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxOf(cmd)
			var itemTypeID string
			if len(args) == 1 {
				it, err := a.inventory.FindItemType(ctx, args[0])
				if err != nil {
					return err
				}
				itemTypeID = it.ItemTypeID
			}
			var (
				list []*types.MaintenanceTemplate
				err  error
			)
			if all {
				list, err = a.catalog.AuditTemplates(ctx, itemTypeID)
			} else {
				list, err = a.catalog.ListActiveTemplates(ctx, itemTypeID)
			}
			if err != nil {
				return err
			}
			return a.emit(cmd, list, func(w io.Writer) {
				itemTypes := a.itemTypeNames(cmd)
				taskTypes := a.taskTypeNames(cmd, "")
				header := []string{"ID", "ITEM TYPE", "TASK TYPE", "DAYS", "FIELDS"}
				if all {
					header = append(header, "STATE")
				}
				tw := newTable(w, header...)
				for _, t := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s", t.TemplateID, nameOr(itemTypes, t.ItemTypeID), nameOr(taskTypes, t.TaskTypeID), t.TimeIntervalDays, formatSchema(t.Schema))
					if all {
						fmt.Fprintf(tw, "\t%s", t.State)
					}
					fmt.Fprintln(tw)
				}
				tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include deleted templates")

	del := &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Soft-delete a template; existing plans are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.catalog.SoftDeleteTemplate(ctxOf(cmd), args[0]); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted template %s\n", args[0])
			})
		},
	}

	imp := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a YAML catalog of item types, task types and templates",
		Long: `Import a YAML catalog. Without a file, the built-in catalog is imported.
Entries that already exist are reused, so importing twice is harmless.

  item_types:
    - name: Automobile
      task_types:
        - name: Oil Change
          every: 90 days
          fields: {type: text, value: integer, unit: text}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := seed.Builtin()
			if len(args) == 1 {
				var err error
				if f, err = seed.Load(args[0]); err != nil {
					return err
				}
			}
			res, err := seed.Apply(ctxOf(cmd), a.inventory, a.catalog, f, a.log)
			if err != nil {
				return err
			}
			return a.emit(cmd, res, func(w io.Writer) { printSeedResult(w, res) })
		},
	}

	cmd.AddCommand(create, list, del, imp)
	return cmd
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}
