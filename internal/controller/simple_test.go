package controller

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "stapper.dev/pkg/stapper/internal/model"
)

func newTestUI(verbose bool) (*SimpleUI, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	return NewSimpleUI(cmd, verbose), out
}

func strlenTarget() m.TargetSpec {
	return m.TargetSpec{Group: "string", Key: "strlen", Function: m.UseFileName()}
}

func TestSimpleUI_StartAppliesOptions(t *testing.T) {
	ui, _ := newTestUI(false)

	require.NoError(t, ui.Start(context.Background(), WithRunMode(m.ModeRemove)))
	assert.Equal(t, ModeRun, ui.config.mode)
	assert.Equal(t, m.ModeRemove, ui.config.runMode)

	require.NoError(t, ui.Start(context.Background(), WithInspectMode()))
	assert.Equal(t, ModeInspect, ui.config.mode)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, ui.Start(ctx))
}

func TestSimpleUI_DisplayRunInfo(t *testing.T) {
	ui, out := newTestUI(false)

	ui.DisplayRunInfo(context.Background(), "0123456789abcdef", m.ModePatch, "..", 3)

	assert.Contains(t, out.String(), "PATCH")
	assert.Contains(t, out.String(), "run 01234567: 3 target(s) under ..")
}

func TestSimpleUI_DisplayOutcome(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		ui, out := newTestUI(false)

		outcome := m.NewOutcome(strlenTarget(), "../string/strlen.c", m.Applied, nil)
		outcome.Prototype = &m.FunctionPrototype{Name: "__strlen"}

		ui.DisplayOutcome(context.Background(), outcome)

		assert.Contains(t, out.String(), "APPLIED")
		assert.Contains(t, out.String(), "string/strlen (../string/strlen.c) -> __strlen")
	})

	t.Run("failure carries message", func(t *testing.T) {
		ui, out := newTestUI(false)

		outcome := m.NewOutcome(strlenTarget(), "../string/strlen.c", m.AnchorNotFound, errors.New("probe anchor not found"))
		ui.DisplayOutcome(context.Background(), outcome)

		assert.Contains(t, out.String(), "ANCHOR-NOT-FOUND")
		assert.Contains(t, out.String(), ": probe anchor not found")
	})

	t.Run("verbose prints diff", func(t *testing.T) {
		ui, out := newTestUI(true)

		outcome := m.NewOutcome(strlenTarget(), "../string/strlen.c", m.Applied, nil)
		outcome.Before = []byte("{\n}\n")
		outcome.After = []byte("{\n  PROBE( strlen, 0 )\n}\n")

		ui.DisplayOutcome(context.Background(), outcome)

		assert.Contains(t, out.String(), "--- a/../string/strlen.c")
		assert.Contains(t, out.String(), "+  PROBE( strlen, 0 )")
	})

	t.Run("verbose skips unchanged", func(t *testing.T) {
		ui, out := newTestUI(true)

		outcome := m.NewOutcome(strlenTarget(), "../string/strlen.c", m.AlreadyInstrumented, nil)
		outcome.Before = []byte("x\n")
		outcome.After = []byte("x\n")

		ui.DisplayOutcome(context.Background(), outcome)

		assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	})
}

func TestSimpleUI_DisplayPatch(t *testing.T) {
	ui, out := newTestUI(false)
	ui.DisplayPatch(context.Background(), "stapper.patch", "")
	assert.Contains(t, out.String(), "patch stapper.patch is empty")

	ui, out = newTestUI(true)
	diff := "--- a/x.c\n+++ b/x.c\n@@ -1 +1 @@\n-a\n+b\n"
	ui.DisplayPatch(context.Background(), "stapper.patch", diff)
	assert.Contains(t, out.String(), "patch written to stapper.patch (5 line(s))")
	assert.Contains(t, out.String(), diff)
}

func TestSimpleUI_DisplaySummary(t *testing.T) {
	ui, out := newTestUI(false)

	report := m.RunReport{Outcomes: []m.Outcome{
		m.NewOutcome(strlenTarget(), "a.c", m.Applied, nil),
		m.NewOutcome(strlenTarget(), "b.c", m.Applied, nil),
		m.NewOutcome(strlenTarget(), "c.c", m.FileNotFound, nil),
	}}

	ui.DisplaySummary(context.Background(), report)

	text := out.String()
	assert.Contains(t, text, "applied")
	assert.Contains(t, text, "file-not-found")
	assert.NotContains(t, text, "removed")
	assert.Contains(t, text, "TOTAL")
	assert.Contains(t, text, "3")
}

func TestSimpleUI_DisplayTargetStates(t *testing.T) {
	ui, out := newTestUI(false)

	states := []m.TargetState{
		{Target: strlenTarget(), Path: "../string/strlen.c", Exists: true, Instrumented: true},
		{Target: m.TargetSpec{Group: "libio", Key: "iofopen", Function: m.Override("_IO_new_fopen")}, Path: "../libio/iofopen.c", Exists: true},
		{Target: m.TargetSpec{Group: "string", Key: "gone"}, Path: "../string/gone.c"},
	}

	ui.DisplayTargetStates(context.Background(), states)

	text := out.String()
	assert.Contains(t, text, "string/strlen")
	assert.Contains(t, text, "_IO_new_fopen")
	assert.Contains(t, text, "instrumented")
	assert.Contains(t, text, "clean")
	assert.Contains(t, text, "missing")
	assert.Contains(t, text, "1 INSTRUMENTED")
}
