// Package engine defines the runtime values a query evaluates over and the Engine that
// evaluates queries. StarlarkEngine is the bundled implementation.
package engine

import (
	"context"

	"github.com/sammcj/mcp-mq/internal/markdown"
)

// Value is a runtime value produced or consumed by an Engine.
// The set of implementations is closed; switches over it are exhaustive.
type Value interface {
	isValue()
}

type (
	// Array is an ordered sequence of values.
	Array []Value
	// Dict maps string keys to values.
	Dict map[string]Value
	// Markdown wraps a parsed markdown node.
	Markdown struct{ Node *markdown.Node }
	String   string
	// Symbol is a named atom, displayed by its bare name.
	Symbol  string
	Number  float64
	Boolean bool
	// Function is a user-defined function value.
	Function struct{ Name string }
	// NativeFunction is a function implemented by the engine host.
	NativeFunction struct{ Name string }
	// Module is a namespace of engine definitions.
	Module struct{ Name string }
	// Ast is an unevaluated syntax tree, kept as its source text.
	Ast struct{ Source string }
	// None is the absent value.
	None struct{}
)

func (Array) isValue()          {}
func (Dict) isValue()           {}
func (Markdown) isValue()       {}
func (String) isValue()         {}
func (Symbol) isValue()         {}
func (Number) isValue()         {}
func (Boolean) isValue()        {}
func (Function) isValue()       {}
func (NativeFunction) isValue() {}
func (Module) isValue()         {}
func (Ast) isValue()            {}
func (None) isValue()           {}

// Engine evaluates a query against a list of input values.
type Engine interface {
	Eval(ctx context.Context, code string, input []Value) ([]Value, error)
}
