package mq

import (
	"math"
	"testing"

	"github.com/sammcj/mcp-mq/internal/engine"
	"github.com/sammcj/mcp-mq/internal/markdown"
	"github.com/stretchr/testify/assert"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		in   engine.Value
		want Value
	}{
		{name: "string", in: engine.String("s"), want: Leaf("s")},
		{name: "symbol", in: engine.Symbol("ok"), want: Leaf("ok")},
		{name: "integer", in: engine.Number(1), want: Leaf("1")},
		{name: "fraction", in: engine.Number(1.5), want: Leaf("1.5")},
		{name: "negative", in: engine.Number(-0.25), want: Leaf("-0.25")},
		{name: "large", in: engine.Number(1e21), want: Leaf("1000000000000000000000")},
		{name: "nan", in: engine.Number(math.NaN()), want: Leaf("NaN")},
		{name: "inf", in: engine.Number(math.Inf(1)), want: Leaf("inf")},
		{name: "-inf", in: engine.Number(math.Inf(-1)), want: Leaf("-inf")},
		{name: "true", in: engine.Boolean(true), want: Leaf("true")},
		{name: "false", in: engine.Boolean(false), want: Leaf("false")},
		{name: "markdown", in: engine.Markdown{Node: markdown.NewHeading("T", 2)}, want: Leaf("## T")},
		{name: "function", in: engine.Function{Name: "f"}, want: Leaf("")},
		{name: "native function", in: engine.NativeFunction{Name: "len"}, want: Leaf("")},
		{name: "module", in: engine.Module{Name: "md"}, want: Leaf("")},
		{name: "ast", in: engine.Ast{Source: "1 + 2"}, want: Leaf("")},
		{name: "none", in: engine.None{}, want: Leaf("")},
		{name: "empty array", in: engine.Array{}, want: Sequence{}},
		{name: "empty dict", in: engine.Dict{}, want: Mapping{}},
		{
			name: "nested",
			in:   engine.Array{engine.String("a"), engine.Dict{"k": engine.Array{engine.None{}}}},
			want: Sequence{Leaf("a"), Mapping{"k": Sequence{Leaf("")}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Convert(tt.in))
		})
	}
}

func TestConvert_EmptyValuesAreEmpty(t *testing.T) {
	for _, in := range []engine.Value{engine.Array{}, engine.Dict{}, engine.String(""), engine.None{}} {
		assert.True(t, Convert(in).IsEmpty(), "%#v", in)
	}
	assert.False(t, Convert(engine.Array{engine.String("")}).IsEmpty())
}

func TestConvert_PanicsOnUnknownVariant(t *testing.T) {
	assert.Panics(t, func() { Convert(nil) })
}

func TestValueText(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{name: "leaf", in: Leaf("x"), want: "x"},
		{name: "nested empties are kept", in: Sequence{Leaf("a"), Leaf(""), Leaf("b")}, want: "a\n\nb"},
		{name: "mapping", in: Mapping{"k2": Leaf("v2"), "k1": Leaf("v1")}, want: "k1: v1\nk2: v2"},
		{name: "nested mapping", in: Sequence{Mapping{"k": Sequence{Leaf("a"), Leaf("b")}}}, want: "k: a\nb"},
		{name: "empty sequence", in: Sequence{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Text())
		})
	}
}
