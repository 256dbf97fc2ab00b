package mq

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sammcj/mcp-mq/internal/engine"
)

// Value is a transport value: a Sequence, a Mapping or a Leaf.
type Value interface {
	// IsEmpty reports whether the value has no entries, or is the empty string.
	IsEmpty() bool
	// Text flattens the value to a string.
	Text() string
	isValue()
}

type (
	Sequence []Value
	Mapping  map[string]Value
	Leaf     string
)

func (Sequence) isValue() {}
func (Mapping) isValue()  {}
func (Leaf) isValue()     {}

func (s Sequence) IsEmpty() bool { return len(s) == 0 }
func (m Mapping) IsEmpty() bool  { return len(m) == 0 }
func (l Leaf) IsEmpty() bool     { return l == "" }

// Text joins element texts with newlines. Empty elements still produce a line.
func (s Sequence) Text() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = v.Text()
	}
	return strings.Join(parts, "\n")
}

// Text renders one "key: value" line per entry, keys sorted.
func (m Mapping) Text() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + m[k].Text()
	}
	return strings.Join(parts, "\n")
}

func (l Leaf) Text() string { return string(l) }

// Convert maps an engine value onto a transport value. Values with no textual
// form become the empty leaf.
func Convert(v engine.Value) Value {
	switch val := v.(type) {
	case engine.Array:
		out := make(Sequence, len(val))
		for i, elem := range val {
			out[i] = Convert(elem)
		}
		return out
	case engine.Dict:
		out := make(Mapping, len(val))
		for k, elem := range val {
			out[k] = Convert(elem)
		}
		return out
	case engine.Markdown:
		return Leaf(val.Node.String())
	case engine.String:
		return Leaf(val)
	case engine.Symbol:
		return Leaf(val)
	case engine.Number:
		return Leaf(formatNumber(float64(val)))
	case engine.Boolean:
		return Leaf(strconv.FormatBool(bool(val)))
	case engine.Function:
		return Leaf("")
	case engine.NativeFunction:
		return Leaf("")
	case engine.Module:
		return Leaf("")
	case engine.Ast:
		return Leaf("")
	case engine.None:
		return Leaf("")
	default:
		panic(fmt.Sprintf("mq: unhandled engine value %T", v))
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
