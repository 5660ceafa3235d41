package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/swd/batch"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <scenario>",
		Short: "Run a parameter sweep",
		Long: `Run one of the sweeps configured under batch: in the config file.

Scenarios:
  population  start day x initial population x seeded stage
  fruit       fruit growth-time multiplier x harvest lag
  diapause    diapause critical temperature x daylight hours
  consttemp   constant temperatures, gate free

Runs of one batch execute concurrently on the worker pool; the next batch
starts when the previous one has finished.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: batch.Sweeps,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario := args[0]
			if !isSweep(scenario) {
				return fmt.Errorf("unknown scenario %q (want one of %s)", scenario, strings.Join(batch.Sweeps, ", "))
			}

			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				e.cfg.Batch.Workers, _ = cmd.Flags().GetInt("workers")
				e.cfg.Recompute()
			}
			if cmd.Flags().Changed("days") {
				e.cfg.Run.Days, _ = cmd.Flags().GetFloat64("days")
			}
			if cmd.Flags().Changed("temps") {
				e.cfg.Run.TemperatureFile, _ = cmd.Flags().GetString("temps")
			}

			report, _, err := e.execute(cmd, scenario)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d runs in %d batches, %d failed (%s)\n",
				report.BatchID, report.Runs, report.Batches, report.Failed, report.Elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().Int("workers", 0, "Worker goroutines (0 = GOMAXPROCS)")
	cmd.Flags().Float64("days", 0, "Days to simulate per run")
	cmd.Flags().String("temps", "", "CSV file of daily temperatures")

	return cmd
}

func isSweep(name string) bool {
	return slices.Contains(batch.Sweeps, name)
}
