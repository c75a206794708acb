package domain

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"regexp"
	"strings"

	"stapper.dev/pkg/stapper/internal/adapter"
	m "stapper.dev/pkg/stapper/internal/model"
)

// fakePreprocessor is a tiny stand-in for cpp. It evaluates flat
// #ifdef/#ifndef/#else/#endif blocks against the -D/-U options, drops other
// directives, and erases single-line calls of function-like macros defined
// to nothing, keeping whatever follows the closing parenthesis.
type fakePreprocessor struct {
	calls []adapter.PreprocessOptions
	err   error
}

func (p *fakePreprocessor) Preprocess(_ context.Context, path m.Path, opts adapter.PreprocessOptions) ([]byte, error) {
	p.calls = append(p.calls, opts)
	if p.err != nil {
		return nil, p.err
	}

	content, err := os.ReadFile(string(path))
	if err != nil {
		return nil, err
	}

	defined := make(map[string]bool)
	var erased []*regexp.Regexp

	for _, def := range opts.Defines {
		name, value, _ := strings.Cut(def, "=")
		if macro, _, ok := strings.Cut(name, "("); ok && value == "" {
			erased = append(erased, macroCall(macro))
			continue
		}

		defined[name] = true
	}

	for _, undef := range opts.Undefines {
		delete(defined, undef)
	}

	var (
		out    bytes.Buffer
		active = []bool{true}
	)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		top := active[len(active)-1]

		switch {
		case strings.HasPrefix(trimmed, "#ifdef "):
			active = append(active, top && defined[strings.TrimSpace(trimmed[len("#ifdef "):])])
			continue
		case strings.HasPrefix(trimmed, "#ifndef "):
			active = append(active, top && !defined[strings.TrimSpace(trimmed[len("#ifndef "):])])
			continue
		case trimmed == "#else":
			parent := active[len(active)-2]
			active[len(active)-1] = parent && !top
			continue
		case trimmed == "#endif":
			active = active[:len(active)-1]
			continue
		case strings.HasPrefix(trimmed, "#"):
			continue
		}

		if !top {
			continue
		}

		out.WriteString(eraseCalls(line, erased))
		out.WriteByte('\n')
	}

	return out.Bytes(), scanner.Err()
}

func macroCall(name string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^A-Za-z0-9_])` + regexp.QuoteMeta(name) + `\s*\(`)
}

// eraseCalls removes every call of macros from line, from the name through
// the balanced closing parenthesis.
func eraseCalls(line string, macros []*regexp.Regexp) string {
	for _, macro := range macros {
		for {
			loc := macro.FindStringSubmatchIndex(line)
			if loc == nil {
				break
			}

			start, end := loc[3], loc[1]
			depth := 1

			for end < len(line) && depth > 0 {
				switch line[end] {
				case '(':
					depth++
				case ')':
					depth--
				}
				end++
			}

			line = line[:start] + line[end:]
		}
	}

	return line
}

// stubExtractor returns canned prototypes keyed by requested name.
type stubExtractor struct {
	prototypes map[string]m.FunctionPrototype
	errs       map[string]error
	calls      []string
}

func (s *stubExtractor) Extract(_ context.Context, file m.Path, requested string) (m.FunctionPrototype, error) {
	s.calls = append(s.calls, requested)

	if err := s.errs[requested]; err != nil {
		return m.FunctionPrototype{}, err
	}

	proto, ok := s.prototypes[requested]
	if !ok {
		return m.FunctionPrototype{}, ErrNoMatch
	}

	proto.File = file

	return proto, nil
}
