package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/swd/params"
)

func newParamsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Inspect model parameters",
	}
	cmd.AddCommand(newParamsShowCmd(), newParamsValidateCmd())
	return cmd
}

func newParamsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective parameters as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(e.params)
			if err != nil {
				return fmt.Errorf("marshaling parameters: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newParamsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a parameter file against the model",
		Long: `Check that every name in a parameter file is a model parameter and
every value is in range. Without an argument the file given by --params
is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("params")
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no parameter file given")
			}

			p, err := params.LoadFile(path)
			if err != nil {
				return err
			}
			if err := p.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d parameters)\n", path, len(p.Names()))
			return nil
		},
	}
}
