package model

// FunctionDefinition is a function definition reported by the C front end.
type FunctionDefinition struct {
	Name   string
	Params []string
	Line   int
	// Malformed is set when the definition itself contains a syntax error.
	Malformed bool
}

// FunctionPrototype is the definition a target resolved to.
type FunctionPrototype struct {
	File      Path     `yaml:"file"`
	Key       string   `yaml:"key"`
	Requested string   `yaml:"requested"`
	Name      string   `yaml:"name"`
	Params    []string `yaml:"params"`
}

// Arity returns the number of named parameters.
func (p FunctionPrototype) Arity() int {
	return len(p.Params)
}
