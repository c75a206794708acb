package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"stapper.dev/pkg/stapper/internal/controller"
	m "stapper.dev/pkg/stapper/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "view <report.yaml>",
		Short: "View a run report written with --report",
		Long:  "Print the outcomes and status summary of a previously saved run report.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := reportStore.LoadReport(m.Path(args[0]))
			if err != nil {
				slog.Error("Failed to load run report", "path", args[0], "error", err)
				return fmt.Errorf("failed to load run report: %w", err)
			}

			ctx := cmd.Context()
			ui := controller.NewSimpleUI(cmd, false)

			if err := ui.Start(ctx, controller.WithRunMode(report.Mode)); err != nil {
				return err
			}
			defer ui.Close(ctx)

			ui.DisplayRunInfo(ctx, report.RunID, report.Mode, report.Root, len(report.Outcomes))

			outcomes := report.Outcomes
			if failedOnly {
				outcomes = report.Failures()
			}

			for _, outcome := range outcomes {
				ui.DisplayOutcome(ctx, outcome)
			}

			if report.PatchPath != "" {
				cmd.Printf("patch: %s\n", report.PatchPath)
			}

			ui.DisplaySummary(ctx, report)

			return nil
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "only list outcomes that failed")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
