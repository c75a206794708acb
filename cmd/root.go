// Package cmd provides the root command and CLI setup for stapper.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"stapper.dev/pkg/stapper/internal/adapter"
	"stapper.dev/pkg/stapper/internal/controller"
	"stapper.dev/pkg/stapper/internal/domain"
	m "stapper.dev/pkg/stapper/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var targetConfig adapter.TargetConfigAdapter
var reportStore adapter.ReportStore

// orchestrator overrides the configuration-built orchestrator when set.
var orchestrator domain.Orchestrator

var targetsFlag string
var rootPathFlag string
var verboseFlag bool
var removeFlag bool
var patchFlag bool
var outputFlag string
var reportFlag string

func init() {
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	targetConfig = adapter.NewINITargetConfigAdapter()
	reportStore = adapter.NewReportStore()
}

const rootLongDescription = `Stapper inserts tracing probes at the entry of C functions listed in an
INI target list, removes them again, or emits the change as a patch.

Target list format:
  [string]               ; group directory below the source root
  strlen                 ; instrument strlen (or __strlen, __libc_strlen) in string/strlen.c
  strnlen = *            ; same as a bare key
  [libio]
  iofopen = _IO_new_fopen ; instrument _IO_new_fopen in libio/iofopen.c`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stapper -c targets.ini",
		Short: "Insert or remove tracing probes in C sources",
		Long:  rootLongDescription,
		// Usage is printed explicitly where it helps.
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger("", viper.GetBool(logVerboseKey))
		},
		RunE: runRoot,
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&targetsFlag, targetsFlagName, "c", "", "INI file listing the functions to instrument (required)")

	cmd.PersistentFlags().StringVar(&rootPathFlag, rootFlagName, viper.GetString(sourceRootKey), "source tree root holding the group directories")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(rootFlagName), sourceRootKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "debug logging and per-file diffs")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.Flags().BoolVarP(&removeFlag, removeFlagName, "r", false, "remove probes instead of inserting them")
	cmd.Flags().BoolVarP(&patchFlag, patchFlagName, "p", false, "write a patch instead of modifying the source tree")
	cmd.MarkFlagsMutuallyExclusive(removeFlagName, patchFlagName)

	cmd.Flags().StringVarP(&outputFlag, outputFlagName, "o", viper.GetString(patchOutputKey), "patch file written in patch mode")
	bindFlagToConfig(cmd.Flags().Lookup(outputFlagName), patchOutputKey)

	cmd.Flags().StringVar(&reportFlag, reportFlagName, "", "write a YAML run report to this file")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func runRoot(cmd *cobra.Command, _ []string) error {
	targets, err := loadTargets(cmd)
	if err != nil {
		return err
	}

	orch, cleanup, err := resolveOrchestrator(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report, runErr := orch.Run(cmd.Context(), domain.RunArgs{
		Targets: targets,
		Mode:    selectedMode(),
		Root:    m.Path(viper.GetString(sourceRootKey)),
	})

	if reportFlag != "" {
		if err := reportStore.SaveReport(m.Path(reportFlag), report); err != nil {
			slog.Error("Failed to save run report", "path", reportFlag, "error", err)

			if runErr == nil {
				return err
			}
		}
	}

	return runErr
}

// loadTargets reads the target list named by --config. Without one the
// usage is printed and ErrConfigMissing returned.
func loadTargets(cmd *cobra.Command) ([]m.TargetSpec, error) {
	if strings.TrimSpace(targetsFlag) == "" {
		_ = cmd.Usage()
		return nil, domain.ErrConfigMissing
	}

	targets, err := targetConfig.LoadTargets(m.Path(targetsFlag))
	if err != nil {
		slog.Error("Failed to load targets", "path", targetsFlag, "error", err)
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}

	return targets, nil
}

func selectedMode() m.Mode {
	switch {
	case removeFlag:
		return m.ModeRemove
	case patchFlag:
		return m.ModePatch
	default:
		return m.ModeApply
	}
}

func resolveOrchestrator(cmd *cobra.Command) (domain.Orchestrator, func(), error) {
	if orchestrator != nil {
		return orchestrator, func() {}, nil
	}

	return buildOrchestrator(cmd)
}

// buildOrchestrator wires the production adapters from the current
// configuration. The returned cleanup releases the preprocessor's scratch
// directory.
func buildOrchestrator(cmd *cobra.Command) (domain.Orchestrator, func(), error) {
	format := domain.ProbeFormat{
		Macro:  viper.GetString(probeMacroKey),
		Marker: viper.GetString(probeMarkerKey),
		Header: viper.GetString(probeHeaderKey),
	}

	vcs, err := newVCSAdapter(viper.GetString(patchVCSKey))
	if err != nil {
		return nil, nil, err
	}

	var preprocessorOptions []adapter.CPreprocessorOption
	if format.Header != "" {
		preprocessorOptions = append(preprocessorOptions, adapter.WithShimHeaders(format.Header))
	}

	if viper.GetBool(frontendLibcShimKey) {
		preprocessorOptions = append(preprocessorOptions, adapter.WithLibcShim())
	}

	preprocessor := adapter.NewCPreprocessorAdapter(viper.GetString(frontendCPPKey), preprocessorOptions...)
	extractor := domain.NewPrototypeExtractor(
		preprocessor,
		adapter.NewTreeSitterCParserAdapter(),
		domain.NewMatchPolicy(viper.GetStringSlice(matchExemptKey)),
		domain.ExtractorOptions{
			IncludeDirs: viper.GetStringSlice(frontendIncludeDirsKey),
			ExtraArgs:   viper.GetStringSlice(frontendExtraArgsKey),
			ProbeMacro:  format.Macro,
		},
	)

	orch := domain.NewOrchestrator(
		fsAdapter,
		extractor,
		domain.NewMutator(fsAdapter, format),
		controller.NewSimpleUI(cmd, viper.GetBool(logVerboseKey)),
		domain.OrchestratorOptions{
			Format:    format,
			CacheSize: viper.GetInt(cacheSizeKey),
			VCS:       vcs,
			Session: domain.SessionOptions{
				Output:       m.Path(viper.GetString(patchOutputKey)),
				WorkDir:      m.Path(configFolderPath),
				CopyParallel: viper.GetInt(patchCopyParallelKey),
			},
		},
	)

	cleanup := func() {
		if err := preprocessor.Close(); err != nil {
			slog.Warn("Failed to remove preprocessor scratch directory", "error", err)
		}
	}

	return orch, cleanup, nil
}

func newVCSAdapter(kind string) (adapter.VCSAdapter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", vcsGit:
		return adapter.NewGitVCSAdapter(vcsGit), nil
	case vcsBuiltin:
		return adapter.NewSnapshotVCSAdapter(fsAdapter), nil
	default:
		return nil, fmt.Errorf("unsupported %s %q (want %s or %s)", patchVCSKey, kind, vcsGit, vcsBuiltin)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
