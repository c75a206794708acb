package domain

import (
	"errors"
	"io/fs"

	m "stapper.dev/pkg/stapper/internal/model"
)

// Sentinel errors. Callers match them with errors.Is; the returned errors
// wrap them with the file and name involved.
var (
	// ErrConfigMissing means no target list was given on the command line.
	ErrConfigMissing = errors.New("target configuration file is required")
	// ErrParseFailure means the C front end could not produce a syntax tree.
	ErrParseFailure = errors.New("parse failure")
	// ErrNoMatch means no definition in the file satisfies the match policy.
	ErrNoMatch = errors.New("no matching function definition")
	// ErrAnchorNotFound means no lone opening brace follows the declaration.
	ErrAnchorNotFound = errors.New("probe anchor not found")
	// ErrProbeNotFound means a marked file carries no probe statement.
	ErrProbeNotFound = errors.New("probe statement not found")
)

// StatusForError maps a per-target error onto the status reported for it.
func StatusForError(err error) m.Status {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return m.FileNotFound
	case errors.Is(err, ErrParseFailure):
		return m.ParseFailure
	case errors.Is(err, ErrNoMatch):
		return m.NoMatch
	case errors.Is(err, ErrAnchorNotFound):
		return m.AnchorNotFound
	case errors.Is(err, ErrProbeNotFound):
		return m.ProbeNotFound
	default:
		return m.Failed
	}
}
