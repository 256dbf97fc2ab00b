package mq

import (
	"fmt"

	"github.com/sammcj/mcp-mq/internal/engine"
	"github.com/sammcj/mcp-mq/internal/markdown"
)

// InputParser parses raw content into markdown nodes, one method per parsed format.
type InputParser interface {
	ParseMarkdown(content string) ([]*markdown.Node, error)
	ParseMDX(content string) ([]*markdown.Node, error)
	ParseText(content string) ([]*markdown.Node, error)
	ParseHTML(content string) ([]*markdown.Node, error)
}

// PrepareInput turns content into the engine's input list according to format.
// Raw and Null never fail and never consult the parsers.
func PrepareInput(format InputFormat, content string, parsers InputParser) ([]engine.Value, error) {
	var parse func(string) ([]*markdown.Node, error)
	switch format {
	case Markdown:
		parse = parsers.ParseMarkdown
	case MDX:
		parse = parsers.ParseMDX
	case Text:
		parse = parsers.ParseText
	case HTML:
		parse = parsers.ParseHTML
	case Raw:
		return []engine.Value{engine.String(content)}, nil
	case Null:
		return []engine.Value{engine.None{}}, nil
	default:
		return nil, fmt.Errorf("unknown input format: %d", int(format))
	}

	nodes, err := parse(content)
	if err != nil {
		return nil, &StageError{Stage: StageParse, Err: err}
	}

	values := make([]engine.Value, len(nodes))
	for i, node := range nodes {
		values[i] = engine.Markdown{Node: node}
	}
	return values, nil
}
