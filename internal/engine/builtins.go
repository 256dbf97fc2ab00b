package engine

import (
	"strings"

	"github.com/sammcj/mcp-mq/internal/markdown"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Predeclared returns the globals available to every query, in addition to self.
//
//	symbol(name)            a named atom
//	quote(expr)             an unevaluated expression
//	heading(text, depth=1)  a new heading node
//	text(x)                 markdown text of a node, or str(x)
//	md.kind(x)              node kind, or None
//	md.is_heading(x, depth=0)
//	md.is_code(x, lang="")
//	md.is_list(x)
//	struct(**kwargs)
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"symbol":  starlark.NewBuiltin("symbol", symbolFn),
		"quote":   starlark.NewBuiltin("quote", quoteFn),
		"heading": starlark.NewBuiltin("heading", headingFn),
		"text":    starlark.NewBuiltin("text", textFn),
		"struct":  starlark.NewBuiltin("struct", starlarkstruct.Make),
		"md": &starlarkstruct.Module{
			Name: "md",
			Members: starlark.StringDict{
				"kind":       starlark.NewBuiltin("md.kind", kindFn),
				"is_heading": starlark.NewBuiltin("md.is_heading", isHeadingFn),
				"is_code":    starlark.NewBuiltin("md.is_code", isCodeFn),
				"is_list":    starlark.NewBuiltin("md.is_list", isListFn),
			},
		},
	}
}

func symbolFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	return symbolValue(strings.TrimPrefix(name, ":")), nil
}

func quoteFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &src); err != nil {
		return nil, err
	}
	src = strings.TrimSpace(src)
	if _, err := fileOptions.ParseExpr("quote", src, 0); err != nil {
		return nil, err
	}
	return &astValue{src: src}, nil
}

func headingFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	depth := 1
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "text", &text, "depth?", &depth); err != nil {
		return nil, err
	}
	return &nodeValue{node: markdown.NewHeading(text, depth)}, nil
}

func textFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case *nodeValue:
		return starlark.String(val.node.String()), nil
	case starlark.String:
		return val, nil
	case starlark.NoneType:
		return starlark.String(""), nil
	}
	return starlark.String(v.String()), nil
}

func asNode(v starlark.Value) *markdown.Node {
	if n, ok := v.(*nodeValue); ok {
		return n.node
	}
	return nil
}

func kindFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if n := asNode(v); n != nil {
		return starlark.String(n.Kind), nil
	}
	return starlark.None, nil
}

func isHeadingFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	depth := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "x", &v, "depth?", &depth); err != nil {
		return nil, err
	}
	n := asNode(v)
	if n == nil || n.Kind != markdown.KindHeading {
		return starlark.False, nil
	}
	return starlark.Bool(depth == 0 || n.Depth == depth), nil
}

func isCodeFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	lang := ""
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "x", &v, "lang?", &lang); err != nil {
		return nil, err
	}
	n := asNode(v)
	if n == nil || n.Kind != markdown.KindCode {
		return starlark.False, nil
	}
	return starlark.Bool(lang == "" || n.Lang == lang), nil
}

func isListFn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	n := asNode(v)
	return starlark.Bool(n != nil && n.Kind == markdown.KindList), nil
}
