package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/upkeep/internal/seed"
)

func newInitCmd(a *app) *cobra.Command {
	var withCatalog bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration and data directories, write a default config.yaml,\n" +
			"and create the database. With --catalog, import the built-in catalog of\n" +
			"item types and maintenance templates.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := struct {
				ConfigDir string       `json:"config_dir"`
				DataDir   string       `json:"data_dir"`
				Catalog   *seed.Result `json:"catalog,omitempty"`
			}{ConfigDir: a.cfg.Dir, DataDir: a.dataDir}

			if withCatalog {
				res, err := seed.Apply(ctxOf(cmd), a.inventory, a.catalog, seed.Builtin(), a.log)
				if err != nil {
					return err
				}
				result.Catalog = &res
			}
			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "upkeep initialized\nconfig: %s\ndata:   %s\n", result.ConfigDir, result.DataDir)
				if result.Catalog != nil {
					printSeedResult(w, *result.Catalog)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&withCatalog, "catalog", false, "import the built-in catalog")
	return cmd
}

func printSeedResult(w io.Writer, r seed.Result) {
	fmt.Fprintf(w, "item types: %d created, %d existing\n", r.ItemTypesCreated, r.ItemTypesReused)
	fmt.Fprintf(w, "task types: %d created, %d existing\n", r.TaskTypesCreated, r.TaskTypesReused)
	fmt.Fprintf(w, "templates:  %d created, %d existing\n", r.TemplatesCreated, r.TemplatesReused)
}
