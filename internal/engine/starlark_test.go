package engine

import (
	"context"
	"testing"

	"github.com/sammcj/mcp-mq/internal/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalOne(t *testing.T, code string, in Value) Value {
	t.Helper()
	out, err := NewStarlarkEngine(Config{}).Eval(context.Background(), code, []Value{in})
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestStarlarkEngine_Variants(t *testing.T) {
	heading := Markdown{Node: markdown.NewHeading("Title", 1)}

	tests := []struct {
		name  string
		code  string
		input Value
		want  Value
	}{
		{name: "self string", code: "self", input: String("v"), want: String("v")},
		{name: "self markdown", code: "self", input: heading, want: heading},
		{name: "node attribute", code: "self.kind", input: heading, want: String("heading")},
		{name: "list", code: "[self.depth, self.value]", input: heading, want: Array{Number(1), String("Title")}},
		{name: "tuple", code: "(1, 2)", input: None{}, want: Array{Number(1), Number(2)}},
		{name: "empty list", code: "[]", input: None{}, want: Array{}},
		{name: "dict", code: "{'k': self}", input: String("v"), want: Dict{"k": String("v")}},
		{name: "struct", code: "struct(a = True)", input: None{}, want: Dict{"a": Boolean(true)}},
		{name: "int", code: "3", input: None{}, want: Number(3)},
		{name: "float", code: "1.5", input: None{}, want: Number(1.5)},
		{name: "bool", code: "False", input: None{}, want: Boolean(false)},
		{name: "none", code: "None", input: String("x"), want: None{}},
		{name: "symbol", code: "symbol('ok')", input: None{}, want: Symbol("ok")},
		{name: "symbol with colon", code: "symbol(':ok')", input: None{}, want: Symbol("ok")},
		{name: "quote", code: "quote(' 1 + 2 ')", input: None{}, want: Ast{Source: "1 + 2"}},
		{name: "builtin", code: "len", input: None{}, want: NativeFunction{Name: "len"}},
		{name: "module", code: "md", input: None{}, want: Module{Name: "md"}},
		{name: "lambda", code: "lambda x: x", input: None{}, want: Function{Name: "lambda"}},
		{name: "symbol input", code: "self", input: Symbol("a"), want: Symbol("a")},
		{name: "array input", code: "self[1:]", input: Array{String("a"), String("b")}, want: Array{String("b")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evalOne(t, tt.code, tt.input))
		})
	}
}

func TestStarlarkEngine_Builtins(t *testing.T) {
	heading := Markdown{Node: markdown.NewHeading("Title", 2)}
	code := Markdown{Node: &markdown.Node{Kind: markdown.KindCode, Lang: "go", Value: "x := 1"}}

	t.Run("heading constructor", func(t *testing.T) {
		got := evalOne(t, "heading(self, depth = 3)", String("New"))
		md, ok := got.(Markdown)
		require.True(t, ok)
		assert.Equal(t, "### New", md.Node.String())
	})

	t.Run("text renders nodes", func(t *testing.T) {
		assert.Equal(t, String("## Title"), evalOne(t, "text(self)", heading))
	})

	t.Run("md predicates", func(t *testing.T) {
		assert.Equal(t, Boolean(true), evalOne(t, "md.is_heading(self)", heading))
		assert.Equal(t, Boolean(false), evalOne(t, "md.is_heading(self, depth = 1)", heading))
		assert.Equal(t, Boolean(true), evalOne(t, "md.is_code(self, lang = 'go')", code))
		assert.Equal(t, Boolean(false), evalOne(t, "md.is_list(self)", code))
		assert.Equal(t, String("code"), evalOne(t, "md.kind(self)", code))
		assert.Equal(t, None{}, evalOne(t, "md.kind(self)", String("x")))
	})

	t.Run("filter idiom", func(t *testing.T) {
		assert.Equal(t, None{}, evalOne(t, "self if md.is_code(self) else None", heading))
	})

	t.Run("front matter attributes", func(t *testing.T) {
		fm := Markdown{Node: &markdown.Node{Kind: markdown.KindYAML, Attrs: map[string]any{"title": "Doc", "tags": []any{"a"}}}}
		assert.Equal(t, Array{String("Doc"), String("a")}, evalOne(t, "[self.attrs['title'], self.attrs['tags'][0]]", fm))
	})
}

func TestStarlarkEngine_OneResultPerInput(t *testing.T) {
	in := []Value{String("a"), String("b"), String("c")}
	out, err := NewStarlarkEngine(Config{}).Eval(context.Background(), "self.upper()", in)
	require.NoError(t, err)
	assert.Equal(t, []Value{String("A"), String("B"), String("C")}, out)
}

func TestStarlarkEngine_EmptyInput(t *testing.T) {
	out, err := NewStarlarkEngine(Config{}).Eval(context.Background(), "self", nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestStarlarkEngine_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		code    string
		input   []Value
		wantErr string
	}{
		{name: "empty query", code: "  ", input: []Value{None{}}, wantErr: "query is empty"},
		{name: "syntax error without input", code: "1 +", input: nil, wantErr: "query:1"},
		{name: "runtime error", code: "1 / 0", input: []Value{None{}}, wantErr: "division by zero"},
		{name: "undefined name", code: "nope", input: []Value{None{}}, wantErr: "undefined: nope"},
		{
			name:    "step budget",
			cfg:     Config{MaxExecutionSteps: 100},
			code:    "[x for x in range(1000000)]",
			input:   []Value{None{}},
			wantErr: "too many steps",
		},
		{
			name:    "self-referencing list",
			code:    "[l for l in [[]] if l.append(l) == None][0]",
			input:   []Value{None{}},
			wantErr: "value nesting exceeds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStarlarkEngine(tt.cfg).Eval(context.Background(), tt.code, tt.input)
			require.Error(t, err)

			var evalErr *EvalError
			require.ErrorAs(t, err, &evalErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStarlarkEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStarlarkEngine(Config{}).Eval(ctx, "self", []Value{None{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")
}
