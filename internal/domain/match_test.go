package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stapper.dev/pkg/stapper/internal/adapter"
	m "stapper.dev/pkg/stapper/internal/model"
)

func TestMatchPolicy_Matches(t *testing.T) {
	policy := NewMatchPolicy(nil)

	tests := []struct {
		requested string
		candidate string
		want      bool
	}{
		{"foo", "foo", true},
		{"foo", "__foo", true},
		{"foo", "__libc_foo", true},
		{"foo", "barfoo", false},
		{"foo", "foobar", false},
		{"foo", "fo", false},
		{"strlen", "__strlen", true},
		{"strlen", "strnlen", false},
		{"", "foo", false},
	}

	for _, tt := range tests {
		t.Run(tt.requested+"_"+tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Matches(tt.requested, tt.candidate))
		})
	}
}

func TestMatchPolicy_Requested(t *testing.T) {
	policy := NewMatchPolicy(nil)

	assert.Equal(t, "strlen", policy.Requested(m.TargetSpec{Group: "string", Key: "strlen", Function: m.UseFileName()}))
	assert.Equal(t, "_IO_new_fopen", policy.Requested(m.TargetSpec{Group: "libio", Key: "iofopen", Function: m.Override("_IO_new_fopen")}))
}

func TestMatchPolicy_Profile(t *testing.T) {
	policy := NewMatchPolicy(DefaultExemptNames)

	assert.Equal(t, ProfileExempt, policy.Profile("basename"))
	assert.Equal(t, ProfileExempt, policy.Profile("strerror_r"))
	assert.Equal(t, ProfileInternal, policy.Profile("strlen"))
}

func TestMacroProfile_PreprocessOptions(t *testing.T) {
	base := adapter.PreprocessOptions{IncludeDirs: []string{"fake_libc_include"}, ExtraArgs: []string{"-nostdinc"}}

	internal := ProfileInternal.PreprocessOptions(base, "PROBE")
	assert.Contains(t, internal.Defines, "_LIBC=")
	assert.Contains(t, internal.Defines, "PROBE(...)=")
	assert.Contains(t, internal.Defines, "weak_alias(x, y)=")
	assert.Empty(t, internal.Undefines)
	assert.Equal(t, []string{"fake_libc_include"}, internal.IncludeDirs)
	assert.Equal(t, []string{"-nostdinc"}, internal.ExtraArgs)

	exempt := ProfileExempt.PreprocessOptions(base, "PROBE")
	assert.NotContains(t, exempt.Defines, "_LIBC=")
	assert.Equal(t, []string{"_LIBC"}, exempt.Undefines)
	assert.Contains(t, exempt.Defines, "libc_hidden_def(x)=")

	assert.Empty(t, base.Defines, "base options must not be modified")
}

func TestMatchPolicy_SelectFirstMatchWins(t *testing.T) {
	policy := NewMatchPolicy(nil)

	defs := []m.FunctionDefinition{
		{Name: "helper", Line: 1},
		{Name: "__libc_foo", Params: []string{"a"}, Line: 5},
		{Name: "foo", Params: []string{"b"}, Line: 9},
	}

	def, ok := policy.Select("foo", defs)
	require.True(t, ok)
	assert.Equal(t, "__libc_foo", def.Name)

	_, ok = policy.Select("bar", defs)
	assert.False(t, ok)
}
