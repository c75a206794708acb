package cmd

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

const unknownVersion = "unknown"

// buildVersion is what `stapper version` prints.
type buildVersion struct {
	Tool     string
	Go       string
	Revision string
	Modified bool
}

func readBuildVersion() (buildVersion, bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return buildVersion{}, false
	}

	version := buildVersion{Tool: info.Main.Version, Go: info.GoVersion}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			version.Revision = setting.Value
		case "vcs.modified":
			version.Modified = setting.Value == "true"
		}
	}

	return version, true
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long:  "Displays the build version, VCS revision and Go version used to build stapper.",
		Run: func(cmd *cobra.Command, _ []string) {
			version, ok := readBuildVersion()
			if !ok {
				cmd.Println("version: " + unknownVersion)
				return
			}

			cmd.Println("tool version\t", version.Tool)

			if version.Revision != "" {
				revision := version.Revision
				if version.Modified {
					revision += " (modified)"
				}

				cmd.Println("revision\t", revision)
			}

			cmd.Println("go version\t", version.Go)
		},
	}
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
