package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "stapper.dev/pkg/stapper/internal/model"
)

// sampleTargets seeds the target list written by `stapper init -c`.
var sampleTargets = []m.TargetSpec{
	{Group: "string", Key: "strlen", Function: m.UseFileName()},
	{Group: "string", Key: "strnlen", Function: m.UseFileName()},
	{Group: "libio", Key: "iofopen", Function: m.Override("_IO_new_fopen")},
}

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default stapper.yaml and, with -c, a sample target list",
		Long: `Create a stapper.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually. When -c names a file that
does not exist yet, a sample target list is written there as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetsPath := strings.TrimSpace(targetsFlag)
			if targetsPath != "" {
				if err := ensureAbsent(m.Path(targetsPath)); err != nil {
					return err
				}
			}

			configPath := filepath.Join(configFolderPath, configFileName)
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("wrote %s\n", configPath)

			if targetsPath == "" {
				return nil
			}

			if err := targetConfig.SaveTargets(m.Path(targetsPath), sampleTargets); err != nil {
				slog.Error("Failed to write sample target list", "path", targetsPath, "error", err)
				return err
			}

			cmd.Printf("wrote %s\n", targetsPath)

			return nil
		},
	}
}

func ensureAbsent(path m.Path) error {
	_, err := fsAdapter.FileInfo(path)
	if err == nil {
		return fmt.Errorf("target list %s already exists", path)
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
