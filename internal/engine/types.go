package engine

import (
	"fmt"
	"sort"

	"github.com/sammcj/mcp-mq/internal/markdown"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// maxNesting bounds conversion depth so a self-referencing Starlark container cannot recurse forever.
const maxNesting = 256

// nodeValue exposes a markdown node to Starlark as a read-only object.
type nodeValue struct {
	node *markdown.Node
}

var (
	_ starlark.HasAttrs   = (*nodeValue)(nil)
	_ starlark.Comparable = (*nodeValue)(nil)
)

var nodeAttrNames = []string{"attrs", "checked", "depth", "index", "kind", "lang", "ordered", "text", "value"}

func (v *nodeValue) String() string        { return v.node.String() }
func (v *nodeValue) Type() string          { return "markdown" }
func (v *nodeValue) Freeze()               {}
func (v *nodeValue) Truth() starlark.Bool  { return starlark.True }
func (v *nodeValue) Hash() (uint32, error) { return starlark.String(v.node.String()).Hash() }
func (v *nodeValue) AttrNames() []string   { return nodeAttrNames }

func (v *nodeValue) Attr(name string) (starlark.Value, error) {
	n := v.node
	switch name {
	case "kind":
		return starlark.String(n.Kind), nil
	case "depth":
		return starlark.MakeInt(n.Depth), nil
	case "value":
		return starlark.String(n.Value), nil
	case "lang":
		return starlark.String(n.Lang), nil
	case "index":
		return starlark.MakeInt(n.Index), nil
	case "ordered":
		return starlark.Bool(n.Ordered), nil
	case "checked":
		if n.Checked == nil {
			return starlark.None, nil
		}
		return starlark.Bool(*n.Checked), nil
	case "attrs":
		return goToStarlark(n.Attrs), nil
	case "text":
		return starlark.String(n.String()), nil
	}
	return nil, nil
}

func (v *nodeValue) CompareSameType(op syntax.Token, y starlark.Value, _ int) (bool, error) {
	other := y.(*nodeValue)
	switch op {
	case syntax.EQL:
		return v.String() == other.String(), nil
	case syntax.NEQ:
		return v.String() != other.String(), nil
	}
	return false, fmt.Errorf("%s %s %s not implemented", v.Type(), op, y.Type())
}

// symbolValue is a named atom created with symbol().
type symbolValue string

func (s symbolValue) String() string        { return ":" + string(s) }
func (s symbolValue) Type() string          { return "symbol" }
func (s symbolValue) Freeze()               {}
func (s symbolValue) Truth() starlark.Bool  { return starlark.True }
func (s symbolValue) Hash() (uint32, error) { return starlark.String(s).Hash() }

func (s symbolValue) CompareSameType(op syntax.Token, y starlark.Value, _ int) (bool, error) {
	other := y.(symbolValue)
	switch op {
	case syntax.EQL:
		return s == other, nil
	case syntax.NEQ:
		return s != other, nil
	}
	return false, fmt.Errorf("%s %s %s not implemented", s.Type(), op, y.Type())
}

// astValue is an unevaluated expression created with quote().
type astValue struct {
	src string
}

func (a *astValue) String() string        { return fmt.Sprintf("quote(%q)", a.src) }
func (a *astValue) Type() string          { return "ast" }
func (a *astValue) Freeze()               {}
func (a *astValue) Truth() starlark.Bool  { return starlark.True }
func (a *astValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", a.Type()) }

// toStarlark converts an input value for binding as self.
func toStarlark(v Value) starlark.Value {
	switch val := v.(type) {
	case Markdown:
		if val.Node == nil {
			return starlark.None
		}
		return &nodeValue{node: val.Node}
	case String:
		return starlark.String(val)
	case Symbol:
		return symbolValue(val)
	case Number:
		return starlark.Float(val)
	case Boolean:
		return starlark.Bool(val)
	case Array:
		elems := make([]starlark.Value, len(val))
		for i, elem := range val {
			elems[i] = toStarlark(elem)
		}
		return starlark.NewList(elems)
	case Dict:
		dict := starlark.NewDict(len(val))
		for k, elem := range val {
			_ = dict.SetKey(starlark.String(k), toStarlark(elem))
		}
		return dict
	case Ast:
		return &astValue{src: val.Source}
	case Function, NativeFunction, Module, None:
		return starlark.None
	default:
		return starlark.None
	}
}

// toValue converts a Starlark result into a runtime value. Values with no runtime
// counterpart become None.
func toValue(v starlark.Value, depth int) (Value, error) {
	if depth > maxNesting {
		return nil, fmt.Errorf("value nesting exceeds %d levels", maxNesting)
	}

	switch val := v.(type) {
	case starlark.NoneType:
		return None{}, nil
	case starlark.Bool:
		return Boolean(val), nil
	case starlark.Int:
		return Number(val.Float()), nil
	case starlark.Float:
		return Number(val), nil
	case starlark.String:
		return String(val), nil
	case starlark.Bytes:
		return String(val), nil
	case *nodeValue:
		return Markdown{Node: val.node}, nil
	case symbolValue:
		return Symbol(val), nil
	case *astValue:
		return Ast{Source: val.src}, nil
	case *starlark.Function:
		return Function{Name: val.Name()}, nil
	case *starlark.Builtin:
		return NativeFunction{Name: val.Name()}, nil
	case *starlarkstruct.Module:
		return Module{Name: val.Name}, nil

	case *starlark.Dict:
		out := make(Dict, val.Len())
		for _, item := range val.Items() {
			elem, err := toValue(item[1], depth+1)
			if err != nil {
				return nil, err
			}
			out[dictKey(item[0])] = elem
		}
		return out, nil

	case *starlarkstruct.Struct:
		out := make(Dict)
		for _, name := range val.AttrNames() {
			attr, err := val.Attr(name)
			if err != nil {
				return nil, fmt.Errorf("struct field %q: %w", name, err)
			}
			elem, err := toValue(attr, depth+1)
			if err != nil {
				return nil, err
			}
			out[name] = elem
		}
		return out, nil

	case starlark.Iterable:
		out := Array{}
		iter := val.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			conv, err := toValue(elem, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil

	default:
		return None{}, nil
	}
}

func dictKey(k starlark.Value) string {
	if s, ok := k.(starlark.String); ok {
		return string(s)
	}
	return k.String()
}

// goToStarlark converts decoded front matter to Starlark. Unknown types become strings.
func goToStarlark(v any) starlark.Value {
	switch val := v.(type) {
	case nil:
		return starlark.None
	case string:
		return starlark.String(val)
	case bool:
		return starlark.Bool(val)
	case int:
		return starlark.MakeInt(val)
	case int64:
		return starlark.MakeInt64(val)
	case uint64:
		return starlark.MakeUint64(val)
	case float64:
		return starlark.Float(val)
	case []any:
		elems := make([]starlark.Value, len(val))
		for i, elem := range val {
			elems[i] = goToStarlark(elem)
		}
		return starlark.NewList(elems)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dict := starlark.NewDict(len(val))
		for _, k := range keys {
			_ = dict.SetKey(starlark.String(k), goToStarlark(val[k]))
		}
		return dict
	default:
		return starlark.String(fmt.Sprint(val))
	}
}
