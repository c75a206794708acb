package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "stapper.dev/pkg/stapper/internal/model"
	"stapper.dev/pkg/stapper/pkg/textdiff"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
)

// SimpleUI implements UI using cobra Command's output writer.
type SimpleUI struct {
	cmd     *cobra.Command
	verbose bool
	config  StartConfig
}

// NewSimpleUI creates a new SimpleUI. A verbose UI also prints the diff of
// every changed file.
func NewSimpleUI(cmd *cobra.Command, verbose bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, verbose: verbose}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.config = StartConfig{}
	for _, option := range options {
		option(&s.config)
	}

	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// DisplayRunInfo announces a run.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, runID string, mode m.Mode, root m.Path, targets int) {
	if err := ctx.Err(); err != nil {
		return
	}

	if len(runID) > 8 {
		runID = runID[:8]
	}

	s.printf("%s run %s: %d target(s) under %s\n", infoStyle.Render(strings.ToUpper(mode.String())), runID, targets, root)
}

// DisplayOutcome prints one target's outcome.
func (s *SimpleUI) DisplayOutcome(_ context.Context, outcome m.Outcome) {
	line := fmt.Sprintf("%s %s (%s)", statusLabel(outcome.Status), outcome.ID, outcome.Path)

	if outcome.Prototype != nil && outcome.Prototype.Name != "" {
		line += " -> " + outcome.Prototype.Name
	}

	if outcome.Message != "" {
		line += ": " + outcome.Message
	}

	s.printf("%s\n", line)

	if !s.verbose || !outcome.Status.Changed() {
		return
	}

	diff, err := textdiff.Unified("a/"+string(outcome.Path), "b/"+string(outcome.Path), outcome.Before, outcome.After, textdiff.DefaultContext)
	if err != nil {
		s.printf("diff error: %v\n", err)
		return
	}

	s.printf("%s", diff)
}

// DisplayPatch reports the patch artifact.
func (s *SimpleUI) DisplayPatch(ctx context.Context, path m.Path, diff string) {
	if err := ctx.Err(); err != nil {
		return
	}

	if diff == "" {
		s.printf("%s patch %s is empty\n", warnStyle.Render("WARN"), path)
		return
	}

	s.printf("%s patch written to %s (%d line(s))\n", passStyle.Render("PATCH"), path, len(textdiff.SplitLines(diff)))

	if s.verbose {
		s.printf("%s", diff)
	}
}

// DisplaySummary prints a table of outcome counts per status.
func (s *SimpleUI) DisplaySummary(_ context.Context, report m.RunReport) {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Status", "Targets"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	for _, status := range summaryOrder {
		if count := report.Count(status); count > 0 {
			table.Append([]string{status.String(), fmt.Sprintf("%d", count)})
		}
	}

	table.SetFooter([]string{"Total", fmt.Sprintf("%d", len(report.Outcomes))})
	table.Render()

	s.printf("\n%s", tableBuffer.String())
}

// DisplayTargetStates prints the state of every configured target.
func (s *SimpleUI) DisplayTargetStates(ctx context.Context, states []m.TargetState) {
	if err := ctx.Err(); err != nil {
		return
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Target", "Function", "Path", "State"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	instrumented := 0

	for _, state := range states {
		label := "clean"

		switch {
		case !state.Exists:
			label = "missing"
		case state.Instrumented:
			label = "instrumented"
			instrumented++
		}

		table.Append([]string{state.Target.ID(), state.Target.RequestedName(), string(state.Path), label})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Targets %d", len(states)), "", "", fmt.Sprintf("%d instrumented", instrumented)})
	table.Render()

	s.printf("\n%s", tableBuffer.String())
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

var summaryOrder = []m.Status{
	m.Applied,
	m.Removed,
	m.AlreadyInstrumented,
	m.NotInstrumented,
	m.FileNotFound,
	m.NoMatch,
	m.ParseFailure,
	m.AnchorNotFound,
	m.ProbeNotFound,
	m.Failed,
}

func statusLabel(status m.Status) string {
	label := strings.ToUpper(status.String())

	switch {
	case status.Changed():
		return passStyle.Render(label)
	case status.Warning():
		return warnStyle.Render(label)
	case status.Skipped():
		return infoStyle.Render(label)
	default:
		return failStyle.Render(label)
	}
}
