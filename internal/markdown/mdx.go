package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	esmStart = regexp.MustCompile(`^(import|export)\s`)
	jsxStart = regexp.MustCompile(`^<([A-Z][\w.]*|>)`)
)

// ParseMDX parses an MDX document. Top-level import/export statements become mdx_esm
// nodes and JSX flow elements become mdx_jsx nodes; everything else is parsed as markdown.
func ParseMDX(content string) ([]*Node, error) {
	if !utf8.ValidString(content) {
		return nil, ErrInvalidUTF8
	}

	nodes := make([]*Node, 0)
	body := content
	if fm, rest, ok := splitFrontMatter(content); ok {
		nodes = append(nodes, fm)
		body = rest
	}

	lines := strings.Split(body, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	var chunk []string
	flush := func() {
		if len(chunk) > 0 {
			nodes = append(nodes, parseDocument(strings.Join(chunk, "\n"), false)...)
			chunk = nil
		}
	}

	fence := ""
	boundary := true
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if fence != "" {
			chunk = append(chunk, line)
			if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, fence[:1]) == "" {
				fence = ""
			}
			continue
		}
		if f := fenceOpener(trimmed); f != "" {
			fence = f
			chunk = append(chunk, line)
			boundary = false
			continue
		}

		if boundary && esmStart.MatchString(line) {
			flush()
			end := i
			for end+1 < len(lines) && strings.TrimSpace(lines[end+1]) != "" {
				end++
			}
			nodes = append(nodes, &Node{Kind: KindMdxESM, Value: strings.Join(lines[i:end+1], "\n")})
			i = end
			continue
		}
		if boundary && jsxStart.MatchString(trimmed) {
			flush()
			end, err := jsxBlockEnd(lines, i)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Node{Kind: KindMdxJSX, Value: strings.Join(lines[i:end+1], "\n")})
			i = end
			continue
		}

		chunk = append(chunk, line)
		boundary = trimmed == ""
	}
	flush()
	return nodes, nil
}

func fenceOpener(trimmed string) string {
	for _, marker := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, marker) {
			n := len(trimmed) - len(strings.TrimLeft(trimmed, marker[:1]))
			return strings.Repeat(marker[:1], n)
		}
	}
	return ""
}

// jsxBlockEnd returns the index of the line that closes the JSX element opened on lines[start].
func jsxBlockEnd(lines []string, start int) (int, error) {
	name := jsxStart.FindStringSubmatch(strings.TrimSpace(lines[start]))[1]
	if name == ">" {
		name = ""
	}

	sc := &jsxScanner{name: name}
	for i := start; i < len(lines); i++ {
		if sc.feed(lines[i]) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated JSX element <%s> starting on line %d", name, start+1)
}

// jsxScanner counts the open and close tags of one element name across lines. Inside a tag,
// a '>' only ends it outside quotes and attribute expressions.
type jsxScanner struct {
	name   string
	depth  int
	tag    int // 1 inside an opening tag, -1 inside a closing tag
	braces int
	quote  byte
	slash  bool
}

// feed scans the next line and reports whether the element is now closed.
func (s *jsxScanner) feed(line string) bool {
	for i := 0; i < len(line); i++ {
		c := line[i]
		if s.tag == 0 {
			if c != '<' {
				continue
			}
			rest := line[i+1:]
			if s.startsWithName(rest) {
				s.tag = 1
				i += len(s.name)
			} else if strings.HasPrefix(rest, "/") && s.startsWithName(rest[1:]) {
				s.tag = -1
				i += len(s.name) + 1
			}
			continue
		}

		if s.quote != 0 {
			switch c {
			case '\\':
				i++
			case s.quote:
				s.quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			s.quote = c
		case '`':
			if s.braces > 0 {
				s.quote = c
			}
		case '{':
			s.braces++
		case '}':
			if s.braces > 0 {
				s.braces--
			}
		case '>':
			if s.braces == 0 && s.endTag() {
				return true
			}
			continue
		}
		if s.braces == 0 && c != ' ' && c != '\t' {
			s.slash = c == '/'
		}
	}
	return false
}

// startsWithName reports whether the text after '<' names the scanned element. A fragment
// name only matches "<>".
func (s *jsxScanner) startsWithName(rest string) bool {
	after, ok := strings.CutPrefix(rest, s.name)
	if !ok {
		return false
	}
	if s.name == "" {
		return strings.HasPrefix(after, ">")
	}
	return after == "" || strings.ContainsRune(" \t/>", rune(after[0]))
}

func (s *jsxScanner) endTag() bool {
	tag, selfClosing := s.tag, s.slash
	s.tag, s.slash = 0, false
	switch {
	case tag < 0:
		s.depth--
		return s.depth <= 0
	case selfClosing:
		return s.depth == 0
	default:
		s.depth++
		return false
	}
}
