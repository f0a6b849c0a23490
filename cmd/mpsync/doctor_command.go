package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mpsync/internal/deps"
	"mpsync/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n\n", ctx.configPath)
			}

			statuses := preflight.CheckSystemDeps(cfg)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				rows = append(rows, []string{status.Name, status.Command, yesNo(!status.Optional), yesNo(status.Available), status.Detail})
			}
			fmt.Fprintln(out, renderTable([]column{
				{Header: "Tool"},
				{Header: "Command", MaxWidth: 48},
				{Header: "Required"},
				{Header: "Found"},
				{Header: "Detail", MaxWidth: 40},
			}, rows))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			lines, failed := preflightLines(preflight.RunAll(cmd.Context(), cfg, nil), colorize)
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			var errs []error
			if err := deps.Require(statuses); err != nil {
				errs = append(errs, err)
			}
			if failed > 0 {
				errs = append(errs, fmt.Errorf("%d preflight check(s) failed", failed))
			}
			return errors.Join(errs...)
		},
	}
}
