package domain

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"stapper.dev/pkg/stapper/internal/adapter"
	"stapper.dev/pkg/stapper/internal/controller"
	m "stapper.dev/pkg/stapper/internal/model"
)

// RunArgs holds the inputs of one run.
type RunArgs struct {
	Targets []m.TargetSpec
	Mode    m.Mode
	Root    m.Path
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Format    ProbeFormat
	CacheSize int
	// VCS and Session are only used in patch mode.
	VCS     adapter.VCSAdapter
	Session SessionOptions
}

// Orchestrator drives a run over the configured targets.
type Orchestrator interface {
	TargetRunner
	Run(ctx context.Context, args RunArgs) (m.RunReport, error)
	Inspect(ctx context.Context, root m.Path, targets []m.TargetSpec) ([]m.TargetState, error)
}

type orchestrator struct {
	fs        adapter.SourceFSAdapter
	extractor PrototypeExtractor
	mutator   Mutator
	ui        controller.UI
	options   OrchestratorOptions
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(
	fsAdapter adapter.SourceFSAdapter,
	extractor PrototypeExtractor,
	mutator Mutator,
	ui controller.UI,
	options OrchestratorOptions,
) Orchestrator {
	if options.Format == (ProbeFormat{}) {
		options.Format = DefaultProbeFormat()
	}

	return &orchestrator{
		fs:        fsAdapter,
		extractor: extractor,
		mutator:   mutator,
		ui:        ui,
		options:   options,
	}
}

// Run processes args.Targets in order. Per-target failures are recorded in
// the report and never stop the batch; the returned error is reserved for
// failures of the run itself.
func (o *orchestrator) Run(ctx context.Context, args RunArgs) (m.RunReport, error) {
	rc, err := NewRunContext(o.options.CacheSize)
	if err != nil {
		return m.RunReport{}, err
	}

	report := m.RunReport{RunID: rc.RunID, Mode: args.Mode, Root: args.Root}

	if err := o.ui.Start(ctx, controller.WithRunMode(args.Mode)); err != nil {
		slog.Error("Failed to start UI", "error", err)
		return report, err
	}
	defer o.ui.Close(ctx)

	o.ui.DisplayRunInfo(ctx, rc.RunID, args.Mode, args.Root, len(args.Targets))

	var runErr error

	switch args.Mode {
	case m.ModeApply, m.ModeRemove:
		report.Outcomes = o.RunTargets(ctx, rc, args.Root, args.Targets, args.Mode)
	case m.ModePatch:
		report.Outcomes, report.PatchPath, runErr = o.runPatch(ctx, rc, args)
	default:
		return report, fmt.Errorf("unsupported mode: %v", args.Mode)
	}

	for _, outcome := range report.Outcomes {
		o.ui.DisplayOutcome(ctx, outcome)
	}

	o.ui.DisplaySummary(ctx, report)

	if runErr != nil {
		return report, runErr
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("run interrupted: %w", err)
	}

	slog.Info("Run finished", "run", rc.RunID, "mode", args.Mode.String(), "targets", len(args.Targets),
		"changed", report.Count(m.Applied)+report.Count(m.Removed), "failures", len(report.Failures()))

	return report, nil
}

func (o *orchestrator) runPatch(ctx context.Context, rc *RunContext, args RunArgs) ([]m.Outcome, m.Path, error) {
	if o.options.VCS == nil {
		return nil, "", fmt.Errorf("patch mode requires a version control adapter")
	}

	options := o.options.Session
	options.Root = args.Root

	result, err := NewPatchSession(o.fs, o.options.VCS, o, options).Run(ctx, rc, args.Targets)
	if err != nil {
		return result.Outcomes, "", fmt.Errorf("patch session: %w", err)
	}

	o.ui.DisplayPatch(ctx, result.Path, result.Diff)

	return result.Outcomes, result.Path, nil
}

// RunTargets processes targets below root strictly in order. Cancellation
// is honored between targets.
func (o *orchestrator) RunTargets(ctx context.Context, rc *RunContext, root m.Path, targets []m.TargetSpec, mode m.Mode) []m.Outcome {
	outcomes := make([]m.Outcome, 0, len(targets))

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			slog.Warn("Run cancelled", "processed", i, "remaining", len(targets)-i)
			break
		}

		outcomes = append(outcomes, o.runTarget(ctx, rc, root, target, mode))
	}

	return outcomes
}

func (o *orchestrator) runTarget(ctx context.Context, rc *RunContext, root m.Path, target m.TargetSpec, mode m.Mode) m.Outcome {
	path := target.ResolvedPath(root)

	info, err := o.fs.FileInfo(path)
	if err == nil && info.IsDir() {
		err = fmt.Errorf("%s is a directory: %w", path, fs.ErrNotExist)
	}

	if err != nil {
		status := StatusForError(err)
		slog.Warn("Skipping target", "target", target.ID(), "path", path, "status", status.String(), "error", err)

		return m.NewOutcome(target, path, status, err)
	}

	proto, err := o.prototype(ctx, rc, path, target)
	if err != nil {
		if mode != m.ModeRemove {
			status := StatusForError(err)
			slog.Warn("Skipping target", "target", target.ID(), "path", path, "status", status.String(), "error", err)

			return m.NewOutcome(target, path, status, err)
		}

		slog.Debug("Removing without prototype", "target", target.ID(), "error", err)

		proto = m.FunctionPrototype{File: path, Key: target.Key, Requested: target.RequestedName()}
	}

	var result MutationResult

	switch mode {
	case m.ModeRemove:
		result, err = o.mutator.Remove(ctx, path, proto)
	default:
		result, err = o.mutator.Apply(ctx, path, proto)
	}

	outcome := m.NewOutcome(target, path, result.Status, err)
	outcome.Prototype = &proto
	outcome.Before = result.Before
	outcome.After = result.After

	if err == nil && result.Status.Changed() {
		slog.Info("Target processed", "target", target.ID(), "function", proto.Name, "status", result.Status.String())
	}

	return outcome
}

func (o *orchestrator) prototype(ctx context.Context, rc *RunContext, path m.Path, target m.TargetSpec) (m.FunctionPrototype, error) {
	if proto, ok := rc.Prototype(target.ID()); ok {
		slog.Debug("Prototype cache hit", "target", target.ID())
		return proto, nil
	}

	proto, err := o.extractor.Extract(ctx, path, target.RequestedName())
	if err != nil {
		return m.FunctionPrototype{}, err
	}

	proto.Key = target.Key
	rc.StorePrototype(target.ID(), proto)

	return proto, nil
}

// Inspect reports whether each target's file exists and carries the marker.
func (o *orchestrator) Inspect(ctx context.Context, root m.Path, targets []m.TargetSpec) ([]m.TargetState, error) {
	if err := o.ui.Start(ctx, controller.WithInspectMode()); err != nil {
		return nil, err
	}
	defer o.ui.Close(ctx)

	states := make([]m.TargetState, 0, len(targets))

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return states, err
		}

		path := target.ResolvedPath(root)
		state := m.TargetState{Target: target, Path: path}

		content, err := o.fs.ReadFile(path)

		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			slog.Error("Failed to read target", "path", path, "error", err)
			return states, fmt.Errorf("failed to read %s: %w", path, err)
		default:
			state.Exists = true
			state.Instrumented = IsInstrumented(SplitLines(content), o.options.Format.Marker)
		}

		states = append(states, state)
	}

	o.ui.DisplayTargetStates(ctx, states)

	return states, nil
}
