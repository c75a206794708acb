package adapter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "stapper.dev/pkg/stapper/internal/model"
)

func TestINITargetConfigAdapter_LoadTargets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.ini")
	writeTestFile(t, path, `; functions to trace
[string]
strlen =
strnlen = *

[libio]
iofopen = _IO_new_fopen
`)

	targets, err := NewINITargetConfigAdapter().LoadTargets(m.Path(path))
	require.NoError(t, err)
	require.Len(t, targets, 3)

	assert.Equal(t, "string/strlen", targets[0].ID())
	assert.False(t, targets[0].Function.IsOverride())
	assert.Equal(t, "strlen", targets[0].RequestedName())

	assert.Equal(t, "string/strnlen", targets[1].ID())
	assert.False(t, targets[1].Function.IsOverride())

	assert.Equal(t, "libio/iofopen", targets[2].ID())
	assert.True(t, targets[2].Function.IsOverride())
	assert.Equal(t, "_IO_new_fopen", targets[2].RequestedName())
	assert.Equal(t, m.Path(filepath.Join("..", "libio", "iofopen.c")), targets[2].ResolvedPath(".."))
}

func TestINITargetConfigAdapter_RejectsKeysOutsideSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.ini")
	writeTestFile(t, path, "strlen =\n[string]\nstrnlen =\n")

	_, err := NewINITargetConfigAdapter().LoadTargets(m.Path(path))
	require.Error(t, err)
}

func TestINITargetConfigAdapter_MissingFile(t *testing.T) {
	_, err := NewINITargetConfigAdapter().LoadTargets(m.Path(filepath.Join(t.TempDir(), "nope.ini")))
	require.Error(t, err)
}

func TestINITargetConfigAdapter_BareKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.ini")
	writeTestFile(t, path, "[string]\nstrlen\nstrchr: __strchr_sse2\n")

	targets, err := NewINITargetConfigAdapter().LoadTargets(m.Path(path))
	require.NoError(t, err)
	require.Len(t, targets, 2)

	assert.False(t, targets[0].Function.IsOverride())
	assert.Equal(t, "strlen", targets[0].RequestedName())
	assert.Equal(t, "__strchr_sse2", targets[1].RequestedName())
}

func TestINITargetConfigAdapter_SaveTargetsRoundTrip(t *testing.T) {
	path := m.Path(filepath.Join(t.TempDir(), "targets.ini"))
	adapter := NewINITargetConfigAdapter()

	want := []m.TargetSpec{
		{Group: "string", Key: "strlen", Function: m.UseFileName()},
		{Group: "libio", Key: "iofopen", Function: m.Override("_IO_new_fopen")},
		{Group: "string", Key: "strnlen", Function: m.UseFileName()},
	}

	require.NoError(t, adapter.SaveTargets(path, want))

	got, err := adapter.LoadTargets(path)
	require.NoError(t, err)

	// Sections keep their first appearance, so string/strnlen joins string.
	require.Len(t, got, 3)
	assert.Equal(t, []string{"string/strlen", "string/strnlen", "libio/iofopen"}, []string{got[0].ID(), got[1].ID(), got[2].ID()})
	assert.Equal(t, "_IO_new_fopen", got[2].RequestedName())
	assert.False(t, got[1].Function.IsOverride())
}
