package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want InputFormat
	}{
		{name: "nil bag", raw: nil, want: Markdown},
		{name: "empty bag", raw: map[string]any{}, want: Markdown},
		{name: "not a bag", raw: "mdx", want: Markdown},
		{name: "unknown tag", raw: map[string]any{"input_format": "bogus"}, want: Markdown},
		{name: "non-string tag", raw: map[string]any{"input_format": 42}, want: Markdown},
		{name: "tags are case sensitive", raw: map[string]any{"input_format": "MDX"}, want: Markdown},
		{name: "unknown keys ignored", raw: map[string]any{"format": "text", "input_format": "text"}, want: Text},
		{name: "atom spelling", raw: map[string]any{"input_format": ":mdx"}, want: MDX},
		{name: "string bag", raw: map[string]string{"input_format": "html"}, want: HTML},
		{name: "markdown", raw: map[string]any{"input_format": "markdown"}, want: Markdown},
		{name: "mdx", raw: map[string]any{"input_format": "mdx"}, want: MDX},
		{name: "text", raw: map[string]any{"input_format": "text"}, want: Text},
		{name: "html", raw: map[string]any{"input_format": "html"}, want: HTML},
		{name: "raw", raw: map[string]any{"input_format": "raw"}, want: Raw},
		{name: "null", raw: map[string]any{"input_format": "null"}, want: Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeOptions(tt.raw).InputFormat)
		})
	}
}

func TestDecodeConversionOptions(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want ConversionOptions
	}{
		{name: "nil bag", raw: nil, want: ConversionOptions{}},
		{name: "empty bag", raw: map[string]any{}, want: ConversionOptions{}},
		{
			name: "all set",
			raw: map[string]any{
				"extract_scripts_as_code_blocks": true,
				"generate_front_matter":          true,
				"use_title_as_h1":                true,
			},
			want: ConversionOptions{ExtractScriptsAsCodeBlocks: true, GenerateFrontMatter: true, UseTitleAsH1: true},
		},
		{
			name: "per field",
			raw:  map[string]any{"use_title_as_h1": true, "generate_front_matter": false},
			want: ConversionOptions{UseTitleAsH1: true},
		},
		{
			name: "string true is not true",
			raw:  map[string]any{"use_title_as_h1": "true"},
			want: ConversionOptions{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeConversionOptions(tt.raw))
		})
	}
}

func TestInputFormat_Tags(t *testing.T) {
	for _, tag := range InputFormatTags() {
		assert.Equal(t, tag, ParseInputFormat(tag).String())
	}
	assert.Equal(t, "unknown", InputFormat(99).String())
}
