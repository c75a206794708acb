package model

import "strings"

// UseFileNameValue is the configuration value that explicitly selects the
// file base name as the function name.
const UseFileNameValue = "*"

// FunctionName is the function a target asks for: either the file base name
// or an explicit override.
type FunctionName struct {
	override string
}

// UseFileName selects the target's file base name as the function name.
func UseFileName() FunctionName {
	return FunctionName{}
}

// Override selects an explicit function name.
func Override(name string) FunctionName {
	return FunctionName{override: strings.TrimSpace(name)}
}

// ParseFunctionName maps a raw configuration value onto a FunctionName.
// Empty values and the "*" sentinel mean "use the file base name".
func ParseFunctionName(raw string) FunctionName {
	value := strings.TrimSpace(raw)
	if value == "" || value == UseFileNameValue {
		return UseFileName()
	}

	return Override(value)
}

// IsOverride reports whether an explicit name was configured.
func (f FunctionName) IsOverride() bool {
	return f.override != ""
}

// Resolve returns the override, or key when none was configured.
func (f FunctionName) Resolve(key string) string {
	if f.override != "" {
		return f.override
	}

	return key
}

// String renders the configured value.
func (f FunctionName) String() string {
	if f.override == "" {
		return UseFileNameValue
	}

	return f.override
}

// TargetSpec is a single configured target: a source file inside a group
// directory and the function to instrument in it.
type TargetSpec struct {
	Group    string
	Key      string
	Function FunctionName
}

// ID uniquely identifies a target within one configuration.
func (t TargetSpec) ID() string {
	return t.Group + "/" + t.Key
}

// RequestedName is the function name the operator asked for.
func (t TargetSpec) RequestedName() string {
	return t.Function.Resolve(t.Key)
}

// ResolvedPath derives the source file location below root.
func (t TargetSpec) ResolvedPath(root Path) Path {
	return root.Join(t.Group, t.Key+SourceExt)
}
