package domain

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"stapper.dev/pkg/stapper/internal/adapter"
	m "stapper.dev/pkg/stapper/internal/model"
)

// Patch session defaults.
const (
	DefaultPatchOutput = "stapper.patch"
	BaselineMessage    = "stapper baseline"
	sandboxPattern     = "stapper-patch-*"
)

// VCSMetadataDirs are never copied into a sandbox.
var VCSMetadataDirs = []string{".git", ".hg", ".svn"}

// TargetRunner processes targets against a source root.
type TargetRunner interface {
	RunTargets(ctx context.Context, rc *RunContext, root m.Path, targets []m.TargetSpec, mode m.Mode) []m.Outcome
}

// SessionOptions configures a PatchSession.
type SessionOptions struct {
	// Root is the real source tree.
	Root m.Path
	// Output is where the patch is written.
	Output m.Path
	// WorkDir is the tool's own directory; it is left out of the sandbox.
	WorkDir m.Path
	// CopyParallel bounds the number of group directories copied at once.
	CopyParallel int
}

// PatchResult is the product of a patch session.
type PatchResult struct {
	Diff     string
	Path     m.Path
	Outcomes []m.Outcome
}

// PatchSession applies targets inside a disposable copy of the source tree
// and derives the resulting diff.
type PatchSession interface {
	Run(ctx context.Context, rc *RunContext, targets []m.TargetSpec) (PatchResult, error)
}

type patchSession struct {
	fs      adapter.SourceFSAdapter
	vcs     adapter.VCSAdapter
	runner  TargetRunner
	options SessionOptions
}

// NewPatchSession constructs a PatchSession.
func NewPatchSession(fs adapter.SourceFSAdapter, vcs adapter.VCSAdapter, runner TargetRunner, options SessionOptions) PatchSession {
	if options.Output == "" {
		options.Output = DefaultPatchOutput
	}

	if options.CopyParallel <= 0 {
		options.CopyParallel = 1
	}

	return &patchSession{fs: fs, vcs: vcs, runner: runner, options: options}
}

func (ps *patchSession) Run(ctx context.Context, rc *RunContext, targets []m.TargetSpec) (PatchResult, error) {
	sandbox, err := ps.fs.CreateTempDir(sandboxPattern)
	if err != nil {
		slog.Error("Failed to create sandbox", "error", err)
		return PatchResult{}, fmt.Errorf("failed to create sandbox: %w", err)
	}

	defer ps.cleanup(sandbox)

	if err := ps.copyTree(ctx, sandbox); err != nil {
		return PatchResult{}, err
	}

	if err := ps.commitBaseline(ctx, sandbox); err != nil {
		return PatchResult{}, err
	}

	outcomes := ps.runner.RunTargets(ctx, rc, sandbox, targets, m.ModeApply)
	ps.relocate(sandbox, outcomes)

	diff, err := ps.vcs.Diff(ctx, sandbox)
	if err != nil {
		slog.Error("Failed to diff sandbox", "sandbox", sandbox, "error", err)
		return PatchResult{Outcomes: outcomes}, fmt.Errorf("failed to diff sandbox: %w", err)
	}

	if err := ps.fs.WriteFile(ps.options.Output, []byte(diff), 0o644); err != nil {
		slog.Error("Failed to write patch", "path", ps.options.Output, "error", err)
		return PatchResult{Diff: diff, Outcomes: outcomes}, fmt.Errorf("failed to write patch %s: %w", ps.options.Output, err)
	}

	slog.Info("Patch written", "path", ps.options.Output, "bytes", len(diff))

	return PatchResult{Diff: diff, Path: ps.options.Output, Outcomes: outcomes}, nil
}

// copyTree copies every group directory below the source root into sandbox.
func (ps *patchSession) copyTree(ctx context.Context, sandbox m.Path) error {
	dirs, err := ps.sourceDirs()
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(ps.options.CopyParallel)

	for _, dir := range dirs {
		dir := dir
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			src := ps.options.Root.Join(dir)
			if err := ps.fs.CopyDir(src, sandbox.Join(dir), VCSMetadataDirs...); err != nil {
				slog.Error("Failed to copy directory into sandbox", "dir", src, "error", err)
				return fmt.Errorf("failed to copy %s: %w", src, err)
			}

			return nil
		})
	}

	return group.Wait()
}

func (ps *patchSession) sourceDirs() ([]string, error) {
	names, err := ps.fs.ListDirs(ps.options.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", ps.options.Root, err)
	}

	skip := make(map[string]struct{}, len(VCSMetadataDirs))
	for _, name := range VCSMetadataDirs {
		skip[name] = struct{}{}
	}

	var workDir m.Path
	if ps.options.WorkDir != "" {
		if workDir, err = ps.fs.AbsPath(ps.options.WorkDir); err != nil {
			return nil, err
		}
	}

	dirs := make([]string, 0, len(names))

	for _, name := range names {
		if _, ok := skip[name]; ok {
			continue
		}

		if workDir != "" {
			abs, err := ps.fs.AbsPath(ps.options.Root.Join(name))
			if err != nil {
				return nil, err
			}

			if abs == workDir {
				slog.Debug("Leaving tool directory out of sandbox", "dir", abs)
				continue
			}
		}

		dirs = append(dirs, name)
	}

	return dirs, nil
}

func (ps *patchSession) commitBaseline(ctx context.Context, sandbox m.Path) error {
	if err := ps.vcs.Init(ctx, sandbox); err != nil {
		return fmt.Errorf("failed to initialize sandbox repository: %w", err)
	}

	if err := ps.vcs.AddAll(ctx, sandbox); err != nil {
		return fmt.Errorf("failed to stage sandbox: %w", err)
	}

	if err := ps.vcs.Commit(ctx, sandbox, BaselineMessage); err != nil {
		return fmt.Errorf("failed to commit baseline: %w", err)
	}

	return nil
}

// relocate rewrites sandbox paths in outcomes to their source tree
// counterparts.
func (ps *patchSession) relocate(sandbox m.Path, outcomes []m.Outcome) {
	for i := range outcomes {
		outcomes[i].Path = ps.realPath(sandbox, outcomes[i].Path)

		if proto := outcomes[i].Prototype; proto != nil {
			relocated := *proto
			relocated.File = ps.realPath(sandbox, proto.File)
			outcomes[i].Prototype = &relocated
		}
	}
}

func (ps *patchSession) realPath(sandbox, path m.Path) m.Path {
	if path == "" {
		return path
	}

	rel, err := ps.fs.RelPath(sandbox, path)
	if err != nil {
		return path
	}

	return ps.options.Root.Join(string(rel))
}

func (ps *patchSession) cleanup(sandbox m.Path) {
	if err := ps.fs.RemoveAll(sandbox); err != nil {
		slog.Warn("Failed to remove sandbox", "sandbox", sandbox, "error", err)
	}
}
