// Package markdown holds the block-level markdown node model handed to the query engine,
// and the parsers that produce it from markdown, MDX, plain text and HTML input.
package markdown

import (
	"fmt"
	"strings"
)

// Kind identifies the block type of a Node.
type Kind string

const (
	KindHeading    Kind = "heading"
	KindParagraph  Kind = "paragraph"
	KindCode       Kind = "code"
	KindList       Kind = "list"
	KindBlockquote Kind = "blockquote"
	KindTable      Kind = "table"
	KindHTML       Kind = "html"
	KindBreak      Kind = "hr"
	KindYAML       Kind = "yaml"
	KindText       Kind = "text"
	KindMdxJSX     Kind = "mdx_jsx"
	KindMdxESM     Kind = "mdx_esm"
)

// Node is a single top-level block of a parsed document.
//
// Value holds the block body in markdown form: heading text, code body, list item content,
// quoted content, table rows, raw HTML or front matter source. List items are flattened,
// so a nested item is its own Node with a greater Depth.
type Node struct {
	Kind Kind `json:"kind"`
	// Depth is the heading level, or the nesting level of a list item (0 for top level).
	Depth   int    `json:"depth,omitempty"`
	// Indent is the column of a list item's marker: the summed marker widths of its parents.
	Indent  int    `json:"indent,omitempty"`
	Lang    string `json:"lang,omitempty"`
	Value   string `json:"value"`
	Index   int    `json:"index,omitempty"`
	Ordered bool   `json:"ordered,omitempty"`
	// Checked is nil unless the list item is a task item.
	Checked *bool          `json:"checked,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// NewText returns a text node.
func NewText(value string) *Node {
	return &Node{Kind: KindText, Value: value}
}

// NewHeading returns an ATX heading node, clamping depth to 1..6.
func NewHeading(text string, depth int) *Node {
	if depth < 1 {
		depth = 1
	}
	if depth > 6 {
		depth = 6
	}
	return &Node{Kind: KindHeading, Depth: depth, Value: text}
}

// String renders the node back to canonical markdown.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case KindHeading:
		return strings.Repeat("#", n.Depth) + " " + n.Value
	case KindCode:
		return fence(n.Lang, n.Value)
	case KindList:
		return n.renderListItem()
	case KindBlockquote:
		return quote(n.Value)
	case KindBreak:
		return "---"
	case KindYAML:
		if n.Value == "" {
			return "---\n---"
		}
		return "---\n" + n.Value + "\n---"
	default:
		return n.Value
	}
}

func (n *Node) renderListItem() string {
	marker := listMarker(n.Ordered, n.Index)
	box := ""
	if n.Checked != nil {
		if *n.Checked {
			box = "[x] "
		} else {
			box = "[ ] "
		}
	}
	width := n.Indent
	if width == 0 && n.Depth > 0 {
		width = 2 * n.Depth
	}
	indent := strings.Repeat(" ", width)
	return indent + marker + box + indentContinuation(n.Value, indent+strings.Repeat(" ", len(marker)))
}

func listMarker(ordered bool, index int) string {
	if ordered {
		return fmt.Sprintf("%d. ", index)
	}
	return "- "
}

// fence renders a fenced code block, lengthening the fence if the body contains one.
func fence(lang, body string) string {
	marker := "```"
	for strings.Contains(body, marker) {
		marker += "`"
	}
	if body == "" {
		return marker + lang + "\n" + marker
	}
	return marker + lang + "\n" + body + "\n" + marker
}

func quote(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// indentContinuation indents every line after the first.
func indentContinuation(body, indent string) string {
	if !strings.Contains(body, "\n") {
		return body
	}
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
