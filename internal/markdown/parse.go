package markdown

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// ErrInvalidUTF8 is returned when markdown or MDX input is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

var (
	blockParser parser.Parser = goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.TaskList, extension.Strikethrough),
	).Parser()

	taskBoxPrefix = regexp.MustCompile(`^\[[ xX]\][ \t]?`)
)

// ParseMarkdown splits a CommonMark/GFM document into top-level block nodes.
// A leading YAML front matter block becomes a yaml node with its decoded attributes.
func ParseMarkdown(content string) ([]*Node, error) {
	if !utf8.ValidString(content) {
		return nil, ErrInvalidUTF8
	}
	return parseDocument(content, true), nil
}

func parseDocument(content string, frontMatter bool) []*Node {
	nodes := make([]*Node, 0)
	body := content
	if frontMatter {
		if fm, rest, ok := splitFrontMatter(content); ok {
			nodes = append(nodes, fm)
			body = rest
		}
	}

	src := []byte(body)
	doc := blockParser.Parse(text.NewReader(src))
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		if list, ok := c.(*ast.List); ok {
			nodes = append(nodes, listNodes(list, src, 0, 0)...)
			continue
		}
		nodes = append(nodes, blockNode(c, src))
	}
	return nodes
}

// splitFrontMatter cuts a "---" fenced block off the start of content. An unclosed block
// is not front matter. Attributes that do not decode as a YAML mapping are left nil.
func splitFrontMatter(content string) (*Node, string, bool) {
	first, rest, found := strings.Cut(content, "\n")
	if !found || strings.TrimRight(first, " \t\r") != "---" {
		return nil, content, false
	}

	var body []string
	for {
		line, next, more := strings.Cut(rest, "\n")
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "---" || trimmed == "..." {
			raw := strings.Join(body, "\n")
			node := &Node{Kind: KindYAML, Value: raw}
			attrs := map[string]any{}
			if err := yaml.Unmarshal([]byte(raw), &attrs); err == nil {
				node.Attrs = attrs
			}
			if !more {
				next = ""
			}
			return node, next, true
		}
		body = append(body, strings.TrimSuffix(line, "\r"))
		if !more {
			return nil, content, false
		}
		rest = next
	}
}

func blockNode(n ast.Node, src []byte) *Node {
	switch b := n.(type) {
	case *ast.Heading:
		return &Node{Kind: KindHeading, Depth: b.Level, Value: strings.TrimSpace(lineText(b, src))}
	case *ast.FencedCodeBlock:
		return &Node{Kind: KindCode, Lang: string(b.Language(src)), Value: lineText(b, src)}
	case *ast.CodeBlock:
		return &Node{Kind: KindCode, Value: lineText(b, src)}
	case *ast.ThematicBreak:
		return &Node{Kind: KindBreak}
	case *ast.Blockquote:
		return &Node{Kind: KindBlockquote, Value: renderChildren(b, src, "\n\n")}
	case *ast.HTMLBlock:
		return &Node{Kind: KindHTML, Value: htmlText(b, src)}
	case *east.Table:
		return &Node{Kind: KindTable, Value: renderTable(b, src)}
	default:
		return &Node{Kind: KindParagraph, Value: lineText(n, src)}
	}
}

// listNodes flattens a list into one node per item. Nested lists follow their parent item
// and are indented to the parent's content column.
func listNodes(list *ast.List, src []byte, depth, indent int) []*Node {
	var nodes []*Node
	sep := "\n"
	if !list.IsTight {
		sep = "\n\n"
	}

	index := 0
	if list.IsOrdered() {
		index = list.Start
	}
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		node := &Node{Kind: KindList, Depth: depth, Indent: indent, Ordered: list.IsOrdered(), Index: index}
		content := indent + len(listMarker(node.Ordered, index))
		var parts []string
		var nested []*Node
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				nested = append(nested, listNodes(sub, src, depth+1, content)...)
				continue
			}
			if len(parts) == 0 {
				node.Checked = taskBox(c)
			}
			parts = append(parts, renderBlock(c, src))
		}
		node.Value = strings.Join(parts, sep)
		if node.Checked != nil {
			node.Value = taskBoxPrefix.ReplaceAllString(node.Value, "")
		}
		nodes = append(nodes, node)
		nodes = append(nodes, nested...)
		index++
	}
	return nodes
}

func taskBox(n ast.Node) *bool {
	if box, ok := n.FirstChild().(*east.TaskCheckBox); ok {
		checked := box.IsChecked
		return &checked
	}
	return nil
}

// renderBlock renders any block node to canonical markdown.
func renderBlock(n ast.Node, src []byte) string {
	switch b := n.(type) {
	case *ast.List:
		nodes := listNodes(b, src, 0, 0)
		lines := make([]string, len(nodes))
		for i, node := range nodes {
			lines[i] = node.String()
		}
		return strings.Join(lines, "\n")
	case *ast.Paragraph, *ast.TextBlock:
		return lineText(n, src)
	default:
		return blockNode(n, src).String()
	}
}

func renderChildren(n ast.Node, src []byte, sep string) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		parts = append(parts, renderBlock(c, src))
	}
	return strings.Join(parts, sep)
}

func renderTable(t *east.Table, src []byte) string {
	var rows []string
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, strings.TrimSpace(lineText(c, src)))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")

		if _, ok := r.(*east.TableHeader); ok {
			delims := make([]string, len(t.Alignments))
			for i, align := range t.Alignments {
				switch align {
				case east.AlignLeft:
					delims[i] = ":---"
				case east.AlignRight:
					delims[i] = "---:"
				case east.AlignCenter:
					delims[i] = ":---:"
				default:
					delims[i] = "---"
				}
			}
			rows = append(rows, "| "+strings.Join(delims, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

func lineText(n ast.Node, src []byte) string {
	return strings.TrimRight(string(n.Lines().Value(src)), "\n")
}

func htmlText(b *ast.HTMLBlock, src []byte) string {
	out := string(b.Lines().Value(src))
	if b.HasClosure() {
		out += string(b.ClosureLine.Value(src))
	}
	return strings.TrimRight(out, "\n")
}
