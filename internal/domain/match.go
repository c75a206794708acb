package domain

import (
	"log/slog"
	"strings"

	"stapper.dev/pkg/stapper/internal/adapter"
	m "stapper.dev/pkg/stapper/internal/model"
)

// InternalGuard is the macro glibc sources test to select internal-linkage
// definitions.
const InternalGuard = "_LIBC"

// DefaultExemptNames are the targets parsed with InternalGuard undefined.
var DefaultExemptNames = []string{"strerror_r", "basename"}

// MacroProfile selects the macro set the preprocessor runs with.
type MacroProfile int

const (
	// ProfileInternal neutralizes annotations and defines InternalGuard.
	ProfileInternal MacroProfile = iota
	// ProfileExempt neutralizes annotations and undefines InternalGuard.
	ProfileExempt
)

func (p MacroProfile) String() string {
	if p == ProfileExempt {
		return "exempt"
	}

	return "internal"
}

// NeutralizingDefines returns the -D definitions that expand glibc's
// aliasing and attribute annotations to nothing. probeMacro is defined away
// as well so an instrumented file still parses.
func NeutralizingDefines(probeMacro string) []string {
	defines := []string{
		"libc_hidden_builtin_def(x)=",
		"libc_hidden_def(x)=",
		"libc_hidden_proto(x, ...)=",
		"libc_hidden_weak(x)=",
		"weak_alias(x, y)=",
		"strong_alias(x, y)=",
		"versioned_symbol(lib, local, symbol, version)=",
		"__attribute__(x)=",
		"attribute_hidden=",
		"internal_function=",
	}

	if probeMacro != "" {
		defines = append(defines, probeMacro+"(...)=")
	}

	return defines
}

// PreprocessOptions extends base with the profile's macro set.
func (p MacroProfile) PreprocessOptions(base adapter.PreprocessOptions, probeMacro string) adapter.PreprocessOptions {
	opts := adapter.PreprocessOptions{
		IncludeDirs: append([]string{}, base.IncludeDirs...),
		Defines:     append(append([]string{}, base.Defines...), NeutralizingDefines(probeMacro)...),
		Undefines:   append([]string{}, base.Undefines...),
		ExtraArgs:   append([]string{}, base.ExtraArgs...),
	}

	switch p {
	case ProfileExempt:
		opts.Undefines = append(opts.Undefines, InternalGuard)
	default:
		opts.Defines = append(opts.Defines, InternalGuard+"=")
	}

	return opts
}

// MatchPolicy decides which definition a target refers to and how its file
// is preprocessed.
type MatchPolicy struct {
	exempt map[string]struct{}
}

// NewMatchPolicy builds a MatchPolicy. Names in exempt are parsed with
// ProfileExempt.
func NewMatchPolicy(exempt []string) *MatchPolicy {
	set := make(map[string]struct{}, len(exempt))
	for _, name := range exempt {
		set[strings.TrimSpace(name)] = struct{}{}
	}

	return &MatchPolicy{exempt: set}
}

// Matches reports whether candidate names the requested function. The
// requested name must be a suffix of the candidate and, unless the two are
// equal, be preceded by an underscore: "foo" matches "__foo" and
// "__libc_foo" but neither "barfoo" nor "foobar".
func (p *MatchPolicy) Matches(requested, candidate string) bool {
	if requested == "" || !strings.HasSuffix(candidate, requested) {
		return false
	}

	if len(candidate) == len(requested) {
		return true
	}

	return candidate[len(candidate)-len(requested)-1] == '_'
}

// Requested returns the name the target asks for.
func (p *MatchPolicy) Requested(target m.TargetSpec) string {
	return target.RequestedName()
}

// Profile returns the macro profile for requested.
func (p *MatchPolicy) Profile(requested string) MacroProfile {
	if _, ok := p.exempt[requested]; ok {
		return ProfileExempt
	}

	return ProfileInternal
}

// Select returns the first definition matching requested. Rejected
// candidates are logged at debug level.
func (p *MatchPolicy) Select(requested string, defs []m.FunctionDefinition) (m.FunctionDefinition, bool) {
	for _, def := range defs {
		if p.Matches(requested, def.Name) {
			return def, true
		}

		slog.Debug("Skipping non-matching definition", "requested", requested, "candidate", def.Name, "line", def.Line)
	}

	return m.FunctionDefinition{}, false
}
