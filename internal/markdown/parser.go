package markdown

import (
	"fmt"
	"strings"

	"github.com/sammcj/mcp-mq/internal/htmlconv"
)

// Parser bundles the four input parsers behind one value.
type Parser struct {
	html *htmlconv.Converter
}

// NewParser returns a Parser that converts HTML input with conv before parsing it.
func NewParser(conv *htmlconv.Converter) *Parser {
	if conv == nil {
		conv = htmlconv.New(nil)
	}
	return &Parser{html: conv}
}

func (p *Parser) ParseMarkdown(content string) ([]*Node, error) {
	return ParseMarkdown(content)
}

func (p *Parser) ParseMDX(content string) ([]*Node, error) {
	return ParseMDX(content)
}

func (p *Parser) ParseText(content string) ([]*Node, error) {
	return ParseText(content), nil
}

// ParseHTML converts HTML to markdown with default options and parses the result.
func (p *Parser) ParseHTML(content string) ([]*Node, error) {
	md, err := p.html.Convert(content, htmlconv.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML input: %w", err)
	}
	return ParseMarkdown(md)
}

// ParseText returns one text node per line. A trailing newline does not produce an empty line.
func ParseText(content string) []*Node {
	nodes := make([]*Node, 0)
	if content == "" {
		return nodes
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for _, line := range lines {
		nodes = append(nodes, NewText(strings.TrimSuffix(line, "\r")))
	}
	return nodes
}
