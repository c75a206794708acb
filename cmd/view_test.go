package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stapper.dev/pkg/stapper/internal/adapter"
	m "stapper.dev/pkg/stapper/internal/model"
)

func executeView(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	cmd.AddCommand(newViewCmd())

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)
	cmd.SetArgs(append([]string{"view"}, args...))

	err := cmd.Execute()

	return output.String(), err
}

func saveTestReport(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "run.yaml")
	report := m.RunReport{
		RunID:     "0123456789abcdef",
		Mode:      m.ModePatch,
		Root:      "glibc",
		PatchPath: "stapper.patch",
		Outcomes: []m.Outcome{
			{ID: "string/strlen", Path: "glibc/string/strlen.c", Status: m.Applied},
			{ID: "libio/iofopen", Path: "glibc/libio/iofopen.c", Status: m.ParseFailure, Message: "syntax error at 3:1"},
		},
	}

	require.NoError(t, adapter.NewReportStore().SaveReport(m.Path(path), report))

	return path
}

func TestViewCmd_PrintsReport(t *testing.T) {
	useMockOrchestrator(t)
	path := saveTestReport(t)

	output, err := executeView(t, path)
	require.NoError(t, err)

	assert.Contains(t, output, "01234567")
	assert.Contains(t, output, "string/strlen")
	assert.Contains(t, output, "libio/iofopen")
	assert.Contains(t, output, "patch: stapper.patch")
}

func TestViewCmd_FailedOnly(t *testing.T) {
	useMockOrchestrator(t)
	path := saveTestReport(t)

	output, err := executeView(t, "--failed", path)
	require.NoError(t, err)

	assert.Contains(t, output, "syntax error at 3:1")
	assert.NotContains(t, output, "glibc/string/strlen.c")
}

func TestViewCmd_RequiresPath(t *testing.T) {
	useMockOrchestrator(t)

	_, err := executeView(t)
	require.Error(t, err)
}

func TestViewCmd_MissingReport(t *testing.T) {
	useMockOrchestrator(t)

	_, err := executeView(t, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
