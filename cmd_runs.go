package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Query the run store",
		Long: `Query runs recorded in the run store. Only the sqlite store keeps
runs between invocations; set store.kind: sqlite in the config file.`,
	}
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd())
	return cmd
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, _ := cmd.Flags().GetString("batch")
			failedOnly, _ := cmd.Flags().GetBool("failed")
			jsonOut, _ := cmd.Flags().GetBool("json")

			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			st, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), batchID)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			if failedOnly {
				kept := runs[:0]
				for _, r := range runs {
					if r.Failed() {
						kept = append(kept, r)
					}
				}
				runs = kept
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			fmt.Fprintf(out, "%-36s  %-12s  %-32s  %12s  %s\n", "ID", "SCENARIO", "LABEL", "FEMALES_MAX", "STARTED")
			for _, r := range runs {
				peak := fmt.Sprintf("%.4g", r.Summary.FemalesMax)
				if r.Failed() {
					peak = "failed"
				}
				fmt.Fprintf(out, "%-36s  %-12s  %-32s  %12s  %s\n",
					r.ID, r.Scenario, r.Label, peak, r.StartedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintf(out, "\n%d runs\n", len(runs))
			return nil
		},
	}

	cmd.Flags().String("batch", "", "Only list runs of this batch ID")
	cmd.Flags().Bool("failed", false, "Only list failed runs")
	cmd.Flags().Bool("json", false, "Output as JSON")

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			st, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			run, ok, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reading run: %w", err)
			}
			if !ok {
				return fmt.Errorf("run %s not found", args[0])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	}
}
