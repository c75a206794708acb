package domain

import (
	"context"
	"fmt"
	"log/slog"

	"stapper.dev/pkg/stapper/internal/adapter"
	m "stapper.dev/pkg/stapper/internal/model"
)

// MutationResult describes what a Mutator did to a file.
type MutationResult struct {
	Status m.Status
	Before []byte
	After  []byte
}

// Mutator inserts and removes probe statements in source files. Both
// operations are idempotent and replace the file as a whole.
type Mutator interface {
	Apply(ctx context.Context, path m.Path, proto m.FunctionPrototype) (MutationResult, error)
	Remove(ctx context.Context, path m.Path, proto m.FunctionPrototype) (MutationResult, error)
}

type probeMutator struct {
	fs     adapter.SourceFSAdapter
	format ProbeFormat
}

// NewMutator constructs a Mutator writing through fs in the given format.
func NewMutator(fs adapter.SourceFSAdapter, format ProbeFormat) Mutator {
	return &probeMutator{fs: fs, format: format}
}

func (pm *probeMutator) Apply(ctx context.Context, path m.Path, proto m.FunctionPrototype) (MutationResult, error) {
	return pm.mutate(ctx, path, func(content []byte, lines []string) (MutationResult, []string, error) {
		if IsInstrumented(lines, pm.format.Marker) {
			slog.Warn("File already instrumented", "path", path, "function", proto.Name)
			return MutationResult{Status: m.AlreadyInstrumented, Before: content, After: content}, nil, nil
		}

		out, err := InsertProbe(lines, pm.format, proto)
		if err != nil {
			return MutationResult{Status: StatusForError(err), Before: content}, nil, err
		}

		return MutationResult{Status: m.Applied, Before: content}, out, nil
	})
}

func (pm *probeMutator) Remove(ctx context.Context, path m.Path, proto m.FunctionPrototype) (MutationResult, error) {
	return pm.mutate(ctx, path, func(content []byte, lines []string) (MutationResult, []string, error) {
		if !IsInstrumented(lines, pm.format.Marker) {
			slog.Warn("File not instrumented", "path", path, "function", proto.Name)
			return MutationResult{Status: m.NotInstrumented, Before: content, After: content}, nil, nil
		}

		out, err := StripProbe(lines, pm.format)
		if err != nil {
			return MutationResult{Status: StatusForError(err), Before: content}, nil, err
		}

		return MutationResult{Status: m.Removed, Before: content}, out, nil
	})
}

type transform func(content []byte, lines []string) (MutationResult, []string, error)

// mutate reads path, computes the new lines and writes them back. A nil
// line slice from fn means the file stays as it is.
func (pm *probeMutator) mutate(ctx context.Context, path m.Path, fn transform) (MutationResult, error) {
	if err := ctx.Err(); err != nil {
		return MutationResult{Status: m.Failed}, err
	}

	content, err := pm.fs.ReadFile(path)
	if err != nil {
		return MutationResult{Status: StatusForError(err)}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, lines, err := fn(content, SplitLines(content))
	if err != nil {
		slog.Error("Failed to compute mutation", "path", path, "error", err)
		return result, fmt.Errorf("%s: %w", path, err)
	}

	if lines == nil {
		return result, nil
	}

	result.After = JoinLines(lines)

	if err := pm.fs.WriteFileAtomic(path, result.After); err != nil {
		slog.Error("Failed to write mutated file", "path", path, "error", err)
		return MutationResult{Status: m.Failed, Before: content}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return result, nil
}
