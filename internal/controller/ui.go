// Package controller provides output adapters for displaying instrumentation runs.
package controller

import (
	"context"

	m "stapper.dev/pkg/stapper/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeRun StartMode = iota
	ModeInspect
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode    StartMode
	runMode m.Mode
}

// WithRunMode sets the UI to report a run in the given mode.
func WithRunMode(mode m.Mode) StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
		c.runMode = mode
	}
}

// WithInspectMode sets the UI to report target state only.
func WithInspectMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeInspect
	}
}

// UI defines how runs are reported to the operator.
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	DisplayRunInfo(ctx context.Context, runID string, mode m.Mode, root m.Path, targets int)
	DisplayOutcome(ctx context.Context, outcome m.Outcome)
	DisplayPatch(ctx context.Context, path m.Path, diff string)
	DisplaySummary(ctx context.Context, report m.RunReport)
	DisplayTargetStates(ctx context.Context, states []m.TargetState)
}
