package mq

import "strings"

// InputFormat selects how raw content is turned into engine input.
type InputFormat int

const (
	Markdown InputFormat = iota
	MDX
	Text
	HTML
	Raw
	Null
)

var formatTags = map[InputFormat]string{
	Markdown: "markdown",
	MDX:      "mdx",
	Text:     "text",
	HTML:     "html",
	Raw:      "raw",
	Null:     "null",
}

// InputFormatTags lists the accepted tags in declaration order.
func InputFormatTags() []string {
	return []string{"markdown", "mdx", "text", "html", "raw", "null"}
}

func (f InputFormat) String() string {
	if tag, ok := formatTags[f]; ok {
		return tag
	}
	return "unknown"
}

// ParseInputFormat resolves a format tag. A leading ':' is accepted; anything
// unrecognised resolves to Markdown.
func ParseInputFormat(tag string) InputFormat {
	tag = strings.TrimPrefix(tag, ":")
	for format, name := range formatTags {
		if name == tag {
			return format
		}
	}
	return Markdown
}
