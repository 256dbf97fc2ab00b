package mq

import (
	"encoding/json"
	"testing"

	"github.com/sammcj/mcp-mq/internal/engine"
	"github.com/sammcj/mcp-mq/internal/markdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convertAll(in ...engine.Value) []Value {
	out := make([]Value, len(in))
	for i, v := range in {
		out[i] = Convert(v)
	}
	return out
}

func TestResult_FiltersEmptyTopLevelValues(t *testing.T) {
	r := NewResult(convertAll(
		engine.Array{},
		engine.Markdown{Node: markdown.NewText("x")},
		engine.Dict{},
	))

	assert.Equal(t, []string{"x"}, r.FilteredValues())
	assert.Equal(t, "x", r.Text())
	assert.Len(t, r.FilteredValues(), 1)
}

func TestResult_OnlyTopLevelIsFiltered(t *testing.T) {
	r := NewResult([]Value{
		Sequence{Leaf("a"), Leaf(""), Leaf("b")},
		Leaf(""),
		Leaf("c"),
	})

	assert.Equal(t, []string{"a\n\nb", "c"}, r.FilteredValues())
	assert.Equal(t, "a\n\nb\nc", r.Text())
}

func TestResult_Empty(t *testing.T) {
	for _, r := range []Result{NewResult(nil), NewResult([]Value{}), {}} {
		assert.NotNil(t, r.FilteredValues())
		assert.Empty(t, r.FilteredValues())
		assert.Equal(t, "", r.Text())

		data, err := json.Marshal(r)
		require.NoError(t, err)
		assert.JSONEq(t, `{"values": [], "text": ""}`, string(data))
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	r := NewResult([]Value{Leaf("# A"), Mapping{"k1": Leaf("v1"), "k2": Leaf("v2")}})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"values": ["# A", "k1: v1\nk2: v2"], "text": "# A\nk1: v1\nk2: v2"}`, string(data))
}
