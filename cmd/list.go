package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "stapper.dev/pkg/stapper/internal/model"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured targets and whether they are instrumented",
		Long: `Resolve every target of the list given with -c below the source root and
report whether its file exists and currently carries a probe.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets, err := loadTargets(cmd)
			if err != nil {
				return err
			}

			orch, cleanup, err := resolveOrchestrator(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = orch.Inspect(cmd.Context(), m.Path(viper.GetString(sourceRootKey)), targets)

			return err
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
