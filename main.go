package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/swd/batch"
	"github.com/pthm-cable/swd/config"
	"github.com/pthm-cable/swd/logging"
	"github.com/pthm-cable/swd/params"
	"github.com/pthm-cable/swd/store"
	"github.com/pthm-cable/swd/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "swd",
		Short: "Spotted wing drosophila population model",
		Long: `swd simulates the stage-structured population of spotted wing
drosophila in a single location from daily temperatures, with optional
fruit-ripeness and photoperiod-diapause effects.

Single runs and parameter sweeps write CSV files and plots to the output
directory and record their summaries in the run store.`,
		SilenceUsage: true,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config.yaml (empty = use defaults)")
	pf.String("params", "", "Path to a model parameter file (empty = built-in defaults)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (empty = use config)")
	pf.String("log-format", "", "Log format: text or json (empty = use config)")
	pf.String("output", "", "Output directory for CSV logs, plots and snapshots (empty = use config)")

	rootCmd.AddCommand(
		newRunCmd(),
		newBatchCmd(),
		newParamsCmd(),
		newRunsCmd(),
	)
	return rootCmd
}

// env is the loaded configuration shared by the subcommands.
type env struct {
	cfg    *config.Config
	params *params.Parameters
	logger *slog.Logger
}

// loadEnv reads the config and parameter files named by the global flags
// and applies the flag overrides.
func loadEnv(cmd *cobra.Command) (*env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	paramsPath, _ := cmd.Flags().GetString("params")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	outputDir, _ := cmd.Flags().GetString("output")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	p, err := params.LoadFile(paramsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load parameters: %w", err)
	}

	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	return &env{cfg: cfg, params: p, logger: logger}, nil
}

// openStore creates and initializes the configured run store.
func (e *env) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewStore(e.cfg.Store.Kind, e.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return st, nil
}

// execute plans and runs a scenario with the loaded configuration.
func (e *env) execute(cmd *cobra.Command, scenario string) (batch.Report, []batch.LedgerEntry, error) {
	if err := e.cfg.Validate(); err != nil {
		return batch.Report{}, nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := e.params.Validate(); err != nil {
		return batch.Report{}, nil, fmt.Errorf("invalid parameters: %w", err)
	}

	temps, err := e.cfg.Temperatures()
	if err != nil {
		return batch.Report{}, nil, err
	}
	sc, err := batch.Plan(scenario, e.cfg, temps)
	if err != nil {
		return batch.Report{}, nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := e.openStore(ctx)
	if err != nil {
		return batch.Report{}, nil, err
	}
	defer st.Close()

	output, err := telemetry.NewOutputManager(e.cfg.Output.Dir)
	if err != nil {
		return batch.Report{}, nil, err
	}
	defer output.Close()

	driver := batch.NewDriver(e.cfg, e.params, batch.Options{
		Store:  st,
		Output: output,
		Logger: e.logger,
	})
	defer driver.Close()

	report, err := driver.Run(ctx, sc)
	if err != nil {
		return report, driver.Ledger(), err
	}
	if err := output.Close(); err != nil {
		return report, driver.Ledger(), fmt.Errorf("closing output files: %w", err)
	}
	return report, driver.Ledger(), nil
}
