package adapter

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	m "stapper.dev/pkg/stapper/internal/model"
)

// SyntaxError reports the first position the C grammar could not parse.
type SyntaxError struct {
	Line   int
	Column int
	Text   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Text)
}

// CParserAdapter turns preprocessed C into the function definitions it contains.
type CParserAdapter interface {
	// FunctionDefinitions returns every function definition in traversal
	// (source) order. A source that does not parse cleanly yields a
	// *SyntaxError for its first error together with the definitions that
	// could still be recovered; those containing an error are marked
	// Malformed. Stray top-level semicolons, as left behind by erased
	// alias macros, are not errors.
	FunctionDefinitions(ctx context.Context, src []byte) ([]m.FunctionDefinition, error)
}

// TreeSitterCParserAdapter is a CParserAdapter backed by the tree-sitter C grammar.
type TreeSitterCParserAdapter struct{}

// NewTreeSitterCParserAdapter constructs a TreeSitterCParserAdapter.
func NewTreeSitterCParserAdapter() *TreeSitterCParserAdapter {
	return &TreeSitterCParserAdapter{}
}

// FunctionDefinitions parses src and collects its function definitions.
func (a *TreeSitterCParserAdapter) FunctionDefinitions(ctx context.Context, src []byte) ([]m.FunctionDefinition, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(c.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()

	var defs []m.FunctionDefinition

	collectFunctionDefinitions(root, src, &defs)

	if found := firstErrorNode(root, src); found != nil {
		return defs, newSyntaxError(found, src)
	}

	return defs, nil
}

func collectFunctionDefinitions(node *sitter.Node, src []byte, defs *[]m.FunctionDefinition) {
	if node == nil {
		return
	}

	if node.Type() == "function_definition" {
		if def, ok := functionDefinition(node, src); ok {
			def.Malformed = firstErrorNode(node, src) != nil
			*defs = append(*defs, def)
		}

		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		collectFunctionDefinitions(node.NamedChild(i), src, defs)
	}
}

// functionDefinition reads the name and parameter names of a
// function_definition node. For declarators such as
// `int (*f (int a)) (char)` the innermost function declarator, the one
// bound directly to the name, supplies the parameters.
func functionDefinition(node *sitter.Node, src []byte) (m.FunctionDefinition, bool) {
	var funcDecl *sitter.Node

	declarator := node.ChildByFieldName("declarator")

	for declarator != nil && declarator.Type() != "identifier" {
		if declarator.Type() == "function_declarator" {
			funcDecl = declarator
		}

		declarator = innerDeclarator(declarator)
	}

	if declarator == nil || funcDecl == nil {
		return m.FunctionDefinition{}, false
	}

	return m.FunctionDefinition{
		Name:   declarator.Content(src),
		Params: parameterNames(funcDecl.ChildByFieldName("parameters"), src),
		Line:   int(node.StartPoint().Row) + 1,
	}, true
}

func parameterNames(params *sitter.Node, src []byte) []string {
	names := make([]string, 0)
	if params == nil {
		return names
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)

		switch param.Type() {
		case "parameter_declaration":
			if name := declaratorName(param.ChildByFieldName("declarator"), src); name != "" {
				names = append(names, name)
			}
		case "identifier":
			// K&R identifier list.
			names = append(names, param.Content(src))
		}
	}

	return names
}

func declaratorName(node *sitter.Node, src []byte) string {
	for node != nil {
		if node.Type() == "identifier" {
			return node.Content(src)
		}

		node = innerDeclarator(node)
	}

	return ""
}

// innerDeclarator steps one level into a (possibly abstract) declarator.
func innerDeclarator(node *sitter.Node) *sitter.Node {
	switch node.Type() {
	case "function_declarator", "pointer_declarator", "array_declarator":
		return node.ChildByFieldName("declarator")
	case "parenthesized_declarator", "attributed_declarator":
		if node.NamedChildCount() == 0 {
			return nil
		}

		return node.NamedChild(0)
	default:
		return nil
	}
}

// firstErrorNode returns the first ERROR or MISSING node below node, or nil.
// ERROR nodes holding nothing but semicolons are skipped.
func firstErrorNode(node *sitter.Node, src []byte) *sitter.Node {
	if node == nil || !node.HasError() && !node.IsMissing() {
		return nil
	}

	if node.IsMissing() {
		return node
	}

	if node.Type() == "ERROR" {
		if strings.Trim(node.Content(src), "; \t\r\n") == "" {
			return nil
		}

		return node
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i), src); found != nil {
			return found
		}
	}

	return nil
}

func newSyntaxError(node *sitter.Node, src []byte) *SyntaxError {
	text := node.Content(src)
	if len(text) > 40 {
		text = text[:40]
	}

	point := node.StartPoint()

	return &SyntaxError{Line: int(point.Row) + 1, Column: int(point.Column) + 1, Text: text}
}
