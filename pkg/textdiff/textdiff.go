// Package textdiff renders unified diffs between two versions of a text file.
package textdiff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines git uses.
const DefaultContext = 3

// DevNull names the missing side of a created or deleted file.
const DevNull = "/dev/null"

// NoNewline is the marker diff prints after a last line without a newline.
const NoNewline = "\\ No newline at end of file"

// SplitLines splits text after every newline. Unlike difflib.SplitLines it
// does not invent a trailing empty line. A final line without a newline is
// kept as is.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// diffLines is SplitLines with an unterminated last line followed by the
// NoNewline marker, so hunks stay line oriented and the missing newline
// shows up as a change.
func diffLines(text string) []string {
	lines := SplitLines(text)

	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines[n-1] += "\n" + NoNewline + "\n"
	}

	return lines
}

// Unified returns the unified diff turning before into after, or an empty
// string when they are equal.
func Unified(fromFile, toFile string, before, after []byte, context int) (string, error) {
	if string(before) == string(after) {
		return "", nil
	}

	if context < 0 {
		context = DefaultContext
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        diffLines(string(before)),
		B:        diffLines(string(after)),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  context,
	})
}

// GitFile returns a git-style diff section for a file at relPath. Missing
// sides are passed as nil.
func GitFile(relPath string, before, after []byte) (string, error) {
	fromFile, toFile := "a/"+relPath, "b/"+relPath
	if before == nil {
		fromFile = DevNull
	}

	if after == nil {
		toFile = DevNull
	}

	body, err := Unified(fromFile, toFile, before, after, DefaultContext)
	if err != nil || body == "" {
		return "", err
	}

	return "diff --git a/" + relPath + " b/" + relPath + "\n" + body, nil
}
