package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"stapper.dev/pkg/stapper/internal/adapter"
	m "stapper.dev/pkg/stapper/internal/model"
)

// PrototypeExtractor resolves the function a target refers to inside a
// source file.
type PrototypeExtractor interface {
	Extract(ctx context.Context, file m.Path, requested string) (m.FunctionPrototype, error)
}

// ExtractorOptions configures the preprocessor run shared by every target.
type ExtractorOptions struct {
	IncludeDirs []string
	ExtraArgs   []string
	ProbeMacro  string
}

type prototypeExtractor struct {
	preprocessor adapter.PreprocessorAdapter
	parser       adapter.CParserAdapter
	policy       *MatchPolicy
	options      ExtractorOptions
}

// NewPrototypeExtractor constructs a PrototypeExtractor that preprocesses
// with preprocessor, parses with parser and selects with policy.
func NewPrototypeExtractor(
	preprocessor adapter.PreprocessorAdapter,
	parser adapter.CParserAdapter,
	policy *MatchPolicy,
	options ExtractorOptions,
) PrototypeExtractor {
	return &prototypeExtractor{
		preprocessor: preprocessor,
		parser:       parser,
		policy:       policy,
		options:      options,
	}
}

func (e *prototypeExtractor) Extract(ctx context.Context, file m.Path, requested string) (m.FunctionPrototype, error) {
	profile := e.policy.Profile(requested)
	opts := profile.PreprocessOptions(adapter.PreprocessOptions{
		IncludeDirs: e.options.IncludeDirs,
		ExtraArgs:   e.options.ExtraArgs,
	}, e.options.ProbeMacro)

	slog.Debug("Extracting prototype", "file", file, "requested", requested, "profile", profile.String())

	src, err := e.preprocessor.Preprocess(ctx, file, opts)
	if err != nil {
		return m.FunctionPrototype{}, fmt.Errorf("%w: preprocess %s: %w", ErrParseFailure, file, err)
	}

	// A syntax error elsewhere in the file does not matter as long as the
	// selected definition itself is intact.
	defs, syntaxErr := e.parser.FunctionDefinitions(ctx, src)

	def, ok := e.policy.Select(requested, defs)

	switch {
	case ok && !def.Malformed:
		if syntaxErr != nil {
			slog.Debug("Ignoring syntax error outside the selected definition", "file", file, "function", def.Name, "error", syntaxErr)
		}
	case ok:
		return m.FunctionPrototype{}, fmt.Errorf("%w: parse %s: %s on line %d: %w", ErrParseFailure, file, def.Name, def.Line, syntaxErr)
	case syntaxErr != nil:
		return m.FunctionPrototype{}, fmt.Errorf("%w: parse %s: %w", ErrParseFailure, file, syntaxErr)
	default:
		return m.FunctionPrototype{}, fmt.Errorf("%w: %s in %s", ErrNoMatch, requested, file)
	}

	params := make([]string, len(def.Params))
	copy(params, def.Params)

	return m.FunctionPrototype{
		File:      file,
		Key:       strings.TrimSuffix(filepath.Base(string(file)), m.SourceExt),
		Requested: requested,
		Name:      def.Name,
		Params:    params,
	}, nil
}
