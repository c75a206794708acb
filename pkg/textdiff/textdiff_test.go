package textdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"trailing newline", "a\nb\n", []string{"a\n", "b\n"}},
		{"no trailing newline", "a\nb", []string{"a\n", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a\r\n", "b\r\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.text))
		})
	}
}

func TestUnified(t *testing.T) {
	before := []byte("size_t\nstrlen (const char *str)\n{\n  return 0;\n}\n")
	after := []byte("size_t\nstrlen (const char *str)\n{\nPROBE( strlen, 1, str )\n  return 0;\n}\n")

	diff, err := Unified("a/string/strlen.c", "b/string/strlen.c", before, after, DefaultContext)
	require.NoError(t, err)

	assert.Equal(t, `--- a/string/strlen.c
+++ b/string/strlen.c
@@ -1,5 +1,6 @@
 size_t
 strlen (const char *str)
 {
+PROBE( strlen, 1, str )
   return 0;
 }
`, diff)
}

func TestUnified_MissingNewline(t *testing.T) {
	t.Run("added", func(t *testing.T) {
		diff, err := Unified("a/f.c", "b/f.c", []byte("a\nb"), []byte("a\nb\n"), DefaultContext)
		require.NoError(t, err)
		assert.Equal(t, "--- a/f.c\n+++ b/f.c\n@@ -1,2 +1,2 @@\n a\n-b\n\\ No newline at end of file\n+b\n", diff)
	})

	t.Run("kept", func(t *testing.T) {
		diff, err := Unified("a/f.c", "b/f.c", []byte("x\ny"), []byte("z\ny"), DefaultContext)
		require.NoError(t, err)
		assert.Equal(t, "--- a/f.c\n+++ b/f.c\n@@ -1,2 +1,2 @@\n-x\n+z\n y\n\\ No newline at end of file\n", diff)
	})
}

func TestUnified_Equal(t *testing.T) {
	diff, err := Unified("a", "b", []byte("x\n"), []byte("x\n"), DefaultContext)
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestGitFile(t *testing.T) {
	diff, err := GitFile("string/new.c", nil, []byte("int x;\n"))
	require.NoError(t, err)
	assert.Contains(t, diff, "diff --git a/string/new.c b/string/new.c\n")
	assert.Contains(t, diff, "--- /dev/null\n")
	assert.Contains(t, diff, "+++ b/string/new.c\n")
	assert.Contains(t, diff, "+int x;\n")
}
