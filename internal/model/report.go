package model

import "fmt"

// Mode selects what a run does to the configured targets.
type Mode int

const (
	// ModeApply inserts probes in place.
	ModeApply Mode = iota
	// ModeRemove strips probes in place.
	ModeRemove
	// ModePatch applies probes inside a disposable copy and emits a diff.
	ModePatch
)

func (m Mode) String() string {
	switch m {
	case ModeApply:
		return "apply"
	case ModeRemove:
		return "remove"
	case ModePatch:
		return "patch"
	default:
		return "unknown"
	}
}

// MarshalYAML renders the mode by name.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// Status represents the result of processing one target.
type Status int

const (
	// Applied indicates a probe was inserted.
	Applied Status = iota
	// Removed indicates a probe was stripped.
	Removed
	// AlreadyInstrumented indicates apply found the marker and did nothing.
	AlreadyInstrumented
	// NotInstrumented indicates remove found no marker and did nothing.
	NotInstrumented
	// FileNotFound indicates the resolved path does not exist.
	FileNotFound
	// ParseFailure indicates the front end could not build a syntax tree.
	ParseFailure
	// NoMatch indicates no definition satisfied the match policy.
	NoMatch
	// AnchorNotFound indicates no lone opening brace followed the declaration.
	AnchorNotFound
	// ProbeNotFound indicates a marker without its probe statement.
	ProbeNotFound
	// Failed indicates any other error.
	Failed
)

var statusNames = map[Status]string{
	Applied:             "applied",
	Removed:             "removed",
	AlreadyInstrumented: "already-instrumented",
	NotInstrumented:     "not-instrumented",
	FileNotFound:        "file-not-found",
	ParseFailure:        "parse-failure",
	NoMatch:             "no-match",
	AnchorNotFound:      "anchor-not-found",
	ProbeNotFound:       "probe-not-found",
	Failed:              "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return "unknown"
}

// MarshalYAML renders the status by name.
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Changed reports whether the status corresponds to a file mutation.
func (s Status) Changed() bool {
	return s == Applied || s == Removed
}

// Warning reports whether the status is an idempotent no-op.
func (s Status) Warning() bool {
	return s == AlreadyInstrumented || s == NotInstrumented
}

// Skipped reports whether the target was skipped without an error in the tool itself.
func (s Status) Skipped() bool {
	return s == FileNotFound || s == NoMatch
}

// Outcome records what happened to one target.
type Outcome struct {
	Target    TargetSpec         `yaml:"-"`
	ID        string             `yaml:"target"`
	Path      Path               `yaml:"path"`
	Prototype *FunctionPrototype `yaml:"prototype,omitempty"`
	Status    Status             `yaml:"status"`
	Err       error              `yaml:"-"`
	Message   string             `yaml:"message,omitempty"`
	Before    []byte             `yaml:"-"`
	After     []byte             `yaml:"-"`
}

// NewOutcome builds an outcome for target at path.
func NewOutcome(target TargetSpec, path Path, status Status, err error) Outcome {
	outcome := Outcome{
		Target: target,
		ID:     target.ID(),
		Path:   path,
		Status: status,
		Err:    err,
	}

	if err != nil {
		outcome.Message = err.Error()
	}

	return outcome
}

// RunReport aggregates the outcomes of one run.
type RunReport struct {
	RunID     string    `yaml:"run_id"`
	Mode      Mode      `yaml:"mode"`
	Root      Path      `yaml:"root"`
	PatchPath Path      `yaml:"patch,omitempty"`
	Outcomes  []Outcome `yaml:"outcomes"`
}

// Count returns how many outcomes have the given status.
func (r RunReport) Count(status Status) int {
	count := 0

	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			count++
		}
	}

	return count
}

// Failures returns the outcomes that are neither changes, warnings nor skips.
func (r RunReport) Failures() []Outcome {
	var failures []Outcome

	for _, outcome := range r.Outcomes {
		if outcome.Status.Changed() || outcome.Status.Warning() || outcome.Status.Skipped() {
			continue
		}

		failures = append(failures, outcome)
	}

	return failures
}

// TargetState describes a target's current on-disk state.
type TargetState struct {
	Target       TargetSpec
	Path         Path
	Exists       bool
	Instrumented bool
}

// ParseMode maps a mode name back onto a Mode.
func ParseMode(name string) (Mode, bool) {
	for _, mode := range []Mode{ModeApply, ModeRemove, ModePatch} {
		if mode.String() == name {
			return mode, true
		}
	}

	return ModeApply, false
}

// UnmarshalYAML reads a mode by name.
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}

	mode, ok := ParseMode(name)
	if !ok {
		return fmt.Errorf("unknown mode %q", name)
	}

	*m = mode

	return nil
}

// ParseStatus maps a status name back onto a Status.
func ParseStatus(name string) (Status, bool) {
	for status, statusName := range statusNames {
		if statusName == name {
			return status, true
		}
	}

	return Failed, false
}

// UnmarshalYAML reads a status by name.
func (s *Status) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}

	status, ok := ParseStatus(name)
	if !ok {
		return fmt.Errorf("unknown status %q", name)
	}

	*s = status

	return nil
}
