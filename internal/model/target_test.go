package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFunctionName(t *testing.T) {
	tests := []struct {
		raw          string
		wantOverride bool
		wantResolved string
	}{
		{"", false, "strlen"},
		{"   ", false, "strlen"},
		{"*", false, "strlen"},
		{" * ", false, "strlen"},
		{"__strlen_sse2", true, "__strlen_sse2"},
		{"  _IO_new_fopen ", true, "_IO_new_fopen"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name := ParseFunctionName(tt.raw)
			assert.Equal(t, tt.wantOverride, name.IsOverride())
			assert.Equal(t, tt.wantResolved, name.Resolve("strlen"))
		})
	}
}

func TestFunctionName_String(t *testing.T) {
	assert.Equal(t, UseFileNameValue, UseFileName().String())
	assert.Equal(t, "_IO_new_fopen", Override("_IO_new_fopen").String())
}

func TestTargetSpec(t *testing.T) {
	target := TargetSpec{Group: "libio", Key: "iofopen", Function: Override("_IO_new_fopen")}

	assert.Equal(t, "libio/iofopen", target.ID())
	assert.Equal(t, "_IO_new_fopen", target.RequestedName())
	assert.Equal(t, Path(filepath.Join("glibc", "libio", "iofopen.c")), target.ResolvedPath("glibc"))

	plain := TargetSpec{Group: "string", Key: "strlen"}
	assert.Equal(t, "strlen", plain.RequestedName())
}

func TestStatusClassification(t *testing.T) {
	for _, status := range []Status{Applied, Removed} {
		assert.True(t, status.Changed(), status.String())
	}

	for _, status := range []Status{AlreadyInstrumented, NotInstrumented} {
		assert.True(t, status.Warning(), status.String())
	}

	for _, status := range []Status{FileNotFound, NoMatch} {
		assert.True(t, status.Skipped(), status.String())
	}

	for _, status := range []Status{ParseFailure, AnchorNotFound, ProbeNotFound, Failed} {
		assert.False(t, status.Changed() || status.Warning() || status.Skipped(), status.String())
	}
}

func TestStatusNamesRoundTrip(t *testing.T) {
	for status := range statusNames {
		parsed, ok := ParseStatus(status.String())
		assert.True(t, ok)
		assert.Equal(t, status, parsed)
	}

	_, ok := ParseStatus("exploded")
	assert.False(t, ok)

	mode, ok := ParseMode("patch")
	assert.True(t, ok)
	assert.Equal(t, ModePatch, mode)
}

func TestRunReport_CountAndFailures(t *testing.T) {
	report := RunReport{Outcomes: []Outcome{
		{ID: "string/strlen", Status: Applied},
		{ID: "string/strnlen", Status: AlreadyInstrumented},
		{ID: "string/missing", Status: FileNotFound},
		{ID: "libio/iofopen", Status: ParseFailure},
		{ID: "libio/fclose", Status: Applied},
	}}

	assert.Equal(t, 2, report.Count(Applied))
	assert.Equal(t, 0, report.Count(Removed))

	failures := report.Failures()
	if assert.Len(t, failures, 1) {
		assert.Equal(t, "libio/iofopen", failures[0].ID)
	}
}
