package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

func newItemTypeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item-type",
		Aliases: []string{"item-types"},
		Short:   "Manage item types",
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an item type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.inventory.CreateItemType(ctxOf(cmd), args[0], description)
			if err != nil {
				return err
			}
			return a.emit(cmd, it, func(w io.Writer) {
				fmt.Fprintf(w, "Created item type %s (%s)\n", it.Name, it.ItemTypeID)
			})
		},
	}
	create.Flags().StringVar(&description, "description", "", "item type description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List active item types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.inventory.ListItemTypes(ctxOf(cmd))
			if err != nil {
				return err
			}
			return a.emit(cmd, list, func(w io.Writer) {
				tw := newTable(w, "ID", "NAME", "DESCRIPTION")
				for _, it := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", it.ItemTypeID, it.Name, it.Description)
				}
				tw.Flush()
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <item-type>",
		Short: "Soft-delete an item type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.inventory.FindItemType(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			if err := a.inventory.SoftDeleteItemType(ctxOf(cmd), it.ItemTypeID); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"deleted": it.ItemTypeID}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted item type %s\n", it.Name)
			})
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}

func newTaskTypeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task-type",
		Aliases: []string{"task-types"},
		Short:   "Manage task types of an item type",
	}

	var description string
	create := &cobra.Command{
		Use:   "create <item-type> <name>",
		Short: "Create a task type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.inventory.FindItemType(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			tt, err := a.inventory.CreateTaskType(ctxOf(cmd), it.ItemTypeID, args[1], description)
			if err != nil {
				return err
			}
			return a.emit(cmd, tt, func(w io.Writer) {
				fmt.Fprintf(w, "Created task type %s for %s (%s)\n", tt.Name, it.Name, tt.TaskTypeID)
			})
		},
	}
	create.Flags().StringVar(&description, "description", "", "task type description")

	list := &cobra.Command{
		Use:   "list <item-type>",
		Short: "List the active task types of an item type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.inventory.FindItemType(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			list, err := a.inventory.ListTaskTypes(ctxOf(cmd), it.ItemTypeID)
			if err != nil {
				return err
			}
			return a.emit(cmd, list, func(w io.Writer) {
				tw := newTable(w, "ID", "NAME", "DESCRIPTION")
				for _, tt := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", tt.TaskTypeID, tt.Name, tt.Description)
				}
				tw.Flush()
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <item-type> <task-type>",
		Short: "Soft-delete a task type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.inventory.FindItemType(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			tt, err := a.inventory.FindTaskType(ctxOf(cmd), it.ItemTypeID, args[1])
			if err != nil {
				return err
			}
			if err := a.inventory.SoftDeleteTaskType(ctxOf(cmd), tt.TaskTypeID); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"deleted": tt.TaskTypeID}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted task type %s\n", tt.Name)
			})
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Manage items",
	}

	var (
		owner       string
		acquired    string
		detailArgs  []string
		detailsJSON string
	)
	create := &cobra.Command{
		Use:   "create <item-type> <name>",
		Short: "Create an item",
		Long: `Create an item of an item type.

Details are free-form. A "forecast" entry seeds usage forecasts:

  upkeep item create Automobile "Civic" --acquired 2015-03-10 \
    --details-json '{"forecast": {"mileage": {"start_date": "2015-03-10",
      "start_measurement": 1000, "reference_date": "2021-05-15",
      "reference_measurement": 59000}}}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.inventory.FindItemType(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			acq, err := optionalDate(acquired)
			if err != nil {
				return err
			}
			details, err := parseAssignments(detailArgs, true)
			if err != nil {
				return err
			}
			if detailsJSON != "" {
				var extra map[string]any
				if err := json.Unmarshal([]byte(detailsJSON), &extra); err != nil {
					return usagef("--details-json: %v", err)
				}
				if details == nil {
					details = make(map[string]any, len(extra))
				}
				for k, v := range extra {
					details[k] = v
				}
			}
			spec := maintenance.ItemSpec{ItemTypeID: it.ItemTypeID, Name: args[1], AcquiredAt: acq, Details: details}
			if owner != "" {
				spec.OwnerID = &owner
			}
			item, err := a.inventory.CreateItem(ctxOf(cmd), spec)
			if err != nil {
				return err
			}
			return a.emit(cmd, item, func(w io.Writer) {
				fmt.Fprintf(w, "Created item %s (%s)\n", item.Name, item.ItemID)
			})
		},
	}
	create.Flags().StringVar(&owner, "owner", "", "owner id")
	create.Flags().StringVar(&acquired, "acquired", "", "acquisition date (YYYY-MM-DD)")
	create.Flags().StringArrayVar(&detailArgs, "detail", nil, "detail key=value (repeatable)")
	create.Flags().StringVar(&detailsJSON, "details-json", "", "details as a JSON object")

	var listOwner string
	list := &cobra.Command{
		Use:   "list",
		Short: "List active items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.inventory.ListItems(ctxOf(cmd), listOwner)
			if err != nil {
				return err
			}
			return a.emit(cmd, items, func(w io.Writer) {
				tw := newTable(w, "ID", "NAME", "TYPE", "ACQUIRED")
				names := a.itemTypeNames(cmd)
				for _, it := range items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ItemID, it.Name, names[it.ItemTypeID], formatDatePtr(it.AcquiredAt))
				}
				tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&listOwner, "owner", "", "only items of this owner")

	show := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.inventory.GetItem(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, item, func(w io.Writer) {
				fmt.Fprintf(w, "ID:       %s\n", item.ItemID)
				fmt.Fprintf(w, "Name:     %s\n", item.Name)
				fmt.Fprintf(w, "Type:     %s\n", a.itemTypeNames(cmd)[item.ItemTypeID])
				fmt.Fprintf(w, "Acquired: %s\n", formatDatePtr(item.AcquiredAt))
				if item.OwnerID != nil {
					fmt.Fprintf(w, "Owner:    %s\n", *item.OwnerID)
				}
				if len(item.Details) > 0 {
					out, _ := json.MarshalIndent(item.Details, "          ", "  ")
					fmt.Fprintf(w, "Details:  %s\n", out)
				}
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Soft-delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.inventory.SoftDeleteItem(ctxOf(cmd), args[0]); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted item %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(create, list, show, del)
	return cmd
}

// itemTypeNames maps active item type ids to names for display. Lookup
// failures yield an empty map.
func (a *app) itemTypeNames(cmd *cobra.Command) map[string]string {
	names := make(map[string]string)
	list, err := a.inventory.ListItemTypes(ctxOf(cmd))
	if err != nil {
		a.log.Debug().Err(err).Msg("item type names")
		return names
	}
	for _, it := range list {
		names[it.ItemTypeID] = it.Name
	}
	return names
}

// resolveItemTask loads an item and resolves a task type of its item type by
// id or name.
func (a *app) resolveItemTask(cmd *cobra.Command, itemID, taskRef string) (*types.Item, *types.TaskType, error) {
	item, err := a.inventory.GetItem(ctxOf(cmd), itemID)
	if err != nil {
		return nil, nil, err
	}
	tt, err := a.inventory.FindTaskType(ctxOf(cmd), item.ItemTypeID, taskRef)
	if err != nil {
		return nil, nil, err
	}
	return item, tt, nil
}

// taskTypeNames maps active task type ids to names, for one item type or
// for all of them when itemTypeID is empty.
func (a *app) taskTypeNames(cmd *cobra.Command, itemTypeID string) map[string]string {
	names := make(map[string]string)
	list, err := a.inventory.ListTaskTypes(ctxOf(cmd), itemTypeID)
	if err != nil {
		a.log.Debug().Err(err).Msg("task type names")
		return names
	}
	for _, tt := range list {
		names[tt.TaskTypeID] = tt.Name
	}
	return names
}
