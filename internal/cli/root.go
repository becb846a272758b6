// Package cli implements the upkeep command-line interface.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/upkeep/internal/config"
	"github.com/mesh-intelligence/upkeep/internal/logging"
	"github.com/mesh-intelligence/upkeep/internal/maintenance"
	"github.com/mesh-intelligence/upkeep/internal/paths"
	"github.com/mesh-intelligence/upkeep/pkg/sqlite"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
	jsonMode  bool
}

// app is the per-invocation state shared by subcommands. It is populated by
// the root PersistentPreRunE.
type app struct {
	flags   rootFlags
	now     func() time.Time
	cfg     *config.Config
	dataDir string
	log     zerolog.Logger
	store   sqlite.Store

	inventory *maintenance.Inventory
	catalog   *maintenance.Catalog
	planner   *maintenance.Planner
}

// NewRootCmd creates the top-level "upkeep" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd(time.Now)
	return root
}

func newRootCmd(now func() time.Time) (*cobra.Command, *app) {
	a := &app{now: now, log: logging.Nop()}
	root := &cobra.Command{
		Use:   "upkeep",
		Short: "Track recurring maintenance for the things you own",
		Long: "upkeep keeps a catalog of maintenance templates per item type, instantiates\n" +
			"plans for individual items, and forecasts when each task is next due.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoStore] == "true" {
				return nil
			}
			return a.open(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level, overrides log.level")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newItemTypeCmd(a),
		newTaskTypeCmd(a),
		newItemCmd(a),
		newTemplateCmd(a),
		newPlanCmd(a),
		newTaskCmd(a),
		newDueCmd(a),
		newForecastCmd(a),
	)
	return root, a
}

// annotationNoStore marks commands that run without opening the store.
const annotationNoStore = "upkeep/no-store"

// Execute runs the root command and exits with the matching code.
func Execute() {
	root, a := newRootCmd(time.Now)
	if err := run(root, a); err != nil {
		fmt.Fprintln(os.Stderr, "upkeep:", err)
		os.Exit(exitCode(err))
	}
}

// run executes root and closes the store whether or not the command failed.
func run(root *cobra.Command, a *app) error {
	err := root.Execute()
	if cerr := a.close(); cerr != nil && err == nil {
		err = fmt.Errorf("close store: %w", cerr)
	}
	return err
}

// exitCode maps domain errors to exitUserError and everything else to
// exitSysError.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrConflict),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, errUsage):
		return exitUserError
	default:
		return exitSysError
	}
}

var errUsage = errors.New("usage")

// usagef reports a bad command line.
func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// loadConfig resolves the config directory, reads the configuration, and
// builds the logger.
func (a *app) loadConfig(cmd *cobra.Command) error {
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if a.flags.logLevel != "" {
		cfg.Log.Level = a.flags.logLevel
	}
	a.cfg = cfg
	a.log = logging.New(cfg.Log, cmd.ErrOrStderr())

	a.dataDir, err = paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	return nil
}

func (a *app) open(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}
	store, err := sqlite.Open(a.cfg.Store(a.dataDir))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.store = store
	a.inventory = maintenance.NewInventory(store, a.log)
	a.catalog = maintenance.NewCatalog(store, a.log)
	a.planner = maintenance.NewPlanner(store, a.log)
	a.log.Debug().Str("data_dir", a.dataDir).Msg("store opened")
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// forecaster returns a Forecaster whose today is asOf, or the clock when
// asOf is zero.
func (a *app) forecaster(asOf time.Time) *maintenance.Forecaster {
	now := a.now
	if !asOf.IsZero() {
		now = func() time.Time { return asOf }
	}
	return maintenance.NewForecaster(a.store, a.log, now)
}

// emit writes v as indented JSON in --json mode and calls human otherwise.
func (a *app) emit(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return writeJSON(w, v)
	}
	human(w)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
