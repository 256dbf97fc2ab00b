package mq

import "github.com/sammcj/mcp-mq/internal/htmlconv"

// Options is the decoded configuration of a query call.
type Options struct {
	InputFormat InputFormat
}

// ConversionOptions is the decoded configuration of an HTML conversion call.
type ConversionOptions struct {
	ExtractScriptsAsCodeBlocks bool
	GenerateFrontMatter        bool
	UseTitleAsH1               bool
}

// converterOptions maps to the converter's own option struct.
func (o ConversionOptions) converterOptions() htmlconv.Options {
	return htmlconv.Options{
		ExtractScriptsAsCodeBlocks: o.ExtractScriptsAsCodeBlocks,
		GenerateFrontMatter:        o.GenerateFrontMatter,
		UseTitleAsH1:               o.UseTitleAsH1,
	}
}

// DecodeOptions reads query options from a loosely typed options bag. It never fails:
// a missing, mistyped or unknown input_format yields Markdown.
func DecodeOptions(raw any) Options {
	var opts Options
	if tag, ok := lookupString(raw, "input_format"); ok {
		opts.InputFormat = ParseInputFormat(tag)
	}
	return opts
}

// DecodeConversionOptions reads conversion flags from a loosely typed options bag.
// A flag is set only when its key holds the boolean true.
func DecodeConversionOptions(raw any) ConversionOptions {
	return ConversionOptions{
		ExtractScriptsAsCodeBlocks: lookupBool(raw, "extract_scripts_as_code_blocks"),
		GenerateFrontMatter:        lookupBool(raw, "generate_front_matter"),
		UseTitleAsH1:               lookupBool(raw, "use_title_as_h1"),
	}
}

func lookupString(raw any, key string) (string, bool) {
	switch bag := raw.(type) {
	case map[string]any:
		s, ok := bag[key].(string)
		return s, ok
	case map[string]string:
		s, ok := bag[key]
		return s, ok
	}
	return "", false
}

func lookupBool(raw any, key string) bool {
	bag, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	b, ok := bag[key].(bool)
	return ok && b
}
