package adapter

import (
	"fmt"

	"github.com/go-ini/ini"

	m "stapper.dev/pkg/stapper/internal/model"
)

// bareKeyValue is what go-ini reports for a key written without a value.
const bareKeyValue = "true"

// TargetConfigAdapter loads and writes the declarative target list.
type TargetConfigAdapter interface {
	// LoadTargets returns the targets in configuration order: sections in
	// file order, then keys in file order within each section.
	LoadTargets(path m.Path) ([]m.TargetSpec, error)
	// SaveTargets writes targets to path, grouped by section in order of
	// first appearance.
	SaveTargets(path m.Path, targets []m.TargetSpec) error
}

// INITargetConfigAdapter reads target lists from INI files where every section
// names a source group directory and every key a .c base name in it.
type INITargetConfigAdapter struct{}

// NewINITargetConfigAdapter constructs an INITargetConfigAdapter.
func NewINITargetConfigAdapter() *INITargetConfigAdapter {
	return &INITargetConfigAdapter{}
}

// LoadTargets parses the INI file at path. Bare keys, empty values and "*"
// all select the key as function name.
func (a *INITargetConfigAdapter) LoadTargets(path m.Path) ([]m.TargetSpec, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters: "=:",
		AllowBooleanKeys:   true,
	}, string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load target list %s: %w", path, err)
	}

	var targets []m.TargetSpec

	for _, section := range cfg.Sections() {
		if section.Name() == ini.DefaultSection {
			if len(section.Keys()) > 0 {
				return nil, fmt.Errorf("target list %s: keys outside of a group section", path)
			}

			continue
		}

		for _, key := range section.Keys() {
			value := key.Value()
			if value == bareKeyValue {
				value = ""
			}

			targets = append(targets, m.TargetSpec{
				Group:    section.Name(),
				Key:      key.Name(),
				Function: m.ParseFunctionName(value),
			})
		}
	}

	return targets, nil
}

// SaveTargets writes targets as an INI file.
func (a *INITargetConfigAdapter) SaveTargets(path m.Path, targets []m.TargetSpec) error {
	cfg := ini.Empty()

	for _, target := range targets {
		section, err := cfg.NewSection(target.Group)
		if err != nil {
			return fmt.Errorf("failed to add group %s: %w", target.Group, err)
		}

		if _, err := section.NewKey(target.Key, target.Function.String()); err != nil {
			return fmt.Errorf("failed to add target %s: %w", target.ID(), err)
		}
	}

	if err := cfg.SaveTo(string(path)); err != nil {
		return fmt.Errorf("failed to write target list %s: %w", path, err)
	}

	return nil
}
