package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	m "stapper.dev/pkg/stapper/internal/model"
)

// Default on-disk instrumentation format.
const (
	DefaultProbeMacro  = "PROBE"
	DefaultMarker      = "/* stapper: instrumented */"
	DefaultProbeHeader = "stapper_probe.h"
)

// ProbeFormat describes the lines stapper writes into a source file.
type ProbeFormat struct {
	Macro  string
	Marker string
	Header string
}

// DefaultProbeFormat returns the built-in format.
func DefaultProbeFormat() ProbeFormat {
	return ProbeFormat{Macro: DefaultProbeMacro, Marker: DefaultMarker, Header: DefaultProbeHeader}
}

// IncludeLine returns the include directive for the probe header, or ""
// when no header is configured.
func (f ProbeFormat) IncludeLine() string {
	if f.Header == "" {
		return ""
	}

	return `#include "` + f.Header + `"`
}

// ProbePrefix is the text a generated probe statement starts with once its
// indentation is removed.
func (f ProbeFormat) ProbePrefix() string {
	return f.Macro + "( "
}

// IsProbeLine reports whether line is a generated probe statement. Macros
// that merely end in the probe macro's name, such as STAP_PROBE, do not count.
func (f ProbeFormat) IsProbeLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), f.ProbePrefix())
}

// FormatProbe renders the probe statement for a function.
func FormatProbe(macro, requested string, params []string) string {
	var b strings.Builder

	b.WriteString(macro)
	b.WriteString("( ")
	b.WriteString(requested)
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(len(params)))

	for _, param := range params {
		b.WriteString(", ")
		b.WriteString(param)
	}

	b.WriteString(" )")

	return b.String()
}

// SplitLines splits content into lines that keep their terminators, so
// JoinLines(SplitLines(c)) == c.
func SplitLines(content []byte) []string {
	text := string(content)
	if text == "" {
		return nil
	}

	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// JoinLines concatenates lines back into file content.
func JoinLines(lines []string) []byte {
	return []byte(strings.Join(lines, ""))
}

// LineEnding returns the terminator used by the first terminated line,
// defaulting to "\n".
func LineEnding(lines []string) string {
	for _, line := range lines {
		if strings.HasSuffix(line, "\r\n") {
			return "\r\n"
		}

		if strings.HasSuffix(line, "\n") {
			return "\n"
		}
	}

	return "\n"
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// IsInstrumented reports whether the first line is the marker.
func IsInstrumented(lines []string, marker string) bool {
	return len(lines) > 0 && trimEOL(lines[0]) == marker
}

// LocateProbeAnchor finds the line holding the opening brace of the body
// of realName. The first line that mentions realName followed by an opening
// parenthesis (case-insensitively, at an identifier boundary) starts the
// search; the anchor is the first following line, that line included as
// predecessor, whose successor is a lone "{" terminated by a newline. The
// returned index is that brace line.
func LocateProbeAnchor(lines []string, realName string) (int, error) {
	if realName == "" {
		return -1, fmt.Errorf("%w: empty function name", ErrAnchorNotFound)
	}

	declaration := regexp.MustCompile(`(?i)(^|[^A-Za-z0-9_])` + regexp.QuoteMeta(realName) + `[ \t]*\(`)

	start := -1

	for i, line := range lines {
		if declaration.MatchString(line) {
			start = i
			break
		}
	}

	if start < 0 {
		return -1, fmt.Errorf("%w: no declaration of %s", ErrAnchorNotFound, realName)
	}

	for i := start; i+1 < len(lines); i++ {
		next := lines[i+1]
		if strings.TrimSpace(next) == "{" && strings.HasSuffix(next, "\n") {
			return i + 1, nil
		}
	}

	return -1, fmt.Errorf("%w: no opening brace after %s on line %d", ErrAnchorNotFound, realName, start+1)
}

// InsertProbe returns lines with the marker, the include line and the probe
// statement for proto added. The input is never modified; when no anchor is
// found the error is returned together with nil.
func InsertProbe(lines []string, format ProbeFormat, proto m.FunctionPrototype) ([]string, error) {
	brace, err := LocateProbeAnchor(lines, proto.Name)
	if err != nil {
		return nil, err
	}

	eol := LineEnding(lines)
	indent := leadingBlanks(lines[brace]) + "  "
	probe := indent + FormatProbe(format.Macro, proto.Requested, proto.Params) + eol

	out := make([]string, 0, len(lines)+3)
	out = append(out, format.Marker+eol)

	if include := format.IncludeLine(); include != "" {
		out = append(out, include+eol)
	}

	out = append(out, lines[:brace+1]...)
	out = append(out, probe)
	out = append(out, lines[brace+1:]...)

	return out, nil
}

// StripProbe removes the marker, the include line directly after it and the
// first probe statement. A marked file without a probe statement yields
// ErrProbeNotFound and nil.
func StripProbe(lines []string, format ProbeFormat) ([]string, error) {
	if !IsInstrumented(lines, format.Marker) {
		return nil, fmt.Errorf("%w: marker missing", ErrProbeNotFound)
	}

	body := lines[1:]

	if include := format.IncludeLine(); include != "" && len(body) > 0 && trimEOL(body[0]) == include {
		body = body[1:]
	}

	for i, line := range body {
		if format.IsProbeLine(line) {
			out := make([]string, 0, len(body)-1)
			out = append(out, body[:i]...)

			return append(out, body[i+1:]...), nil
		}
	}

	return nil, fmt.Errorf("%w: no line starts with %q", ErrProbeNotFound, format.ProbePrefix())
}

func leadingBlanks(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
