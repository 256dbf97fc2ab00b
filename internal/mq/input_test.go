package mq

import (
	"errors"
	"testing"

	"github.com/sammcj/mcp-mq/internal/engine"
	"github.com/sammcj/mcp-mq/internal/markdown"
	"github.com/sammcj/mcp-mq/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareInput_ParsedFormats(t *testing.T) {
	node := markdown.NewText("x")

	tests := []struct {
		format InputFormat
		method string
	}{
		{Markdown, "markdown"},
		{MDX, "mdx"},
		{Text, "text"},
		{HTML, "html"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			parser := &testutils.FakeParser{Nodes: []*markdown.Node{node}}

			values, err := PrepareInput(tt.format, "content", parser)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.method}, parser.Formats)
			assert.Equal(t, []engine.Value{engine.Markdown{Node: node}}, values)
		})
	}
}

func TestPrepareInput_RawAndNull(t *testing.T) {
	parser := &testutils.FakeParser{Err: errors.New("must not be called")}

	values, err := PrepareInput(Raw, "# not parsed", parser)
	require.NoError(t, err)
	assert.Equal(t, []engine.Value{engine.String("# not parsed")}, values)

	values, err = PrepareInput(Null, "ignored", parser)
	require.NoError(t, err)
	assert.Equal(t, []engine.Value{engine.None{}}, values)

	assert.Empty(t, parser.Formats)
}

func TestPrepareInput_ParseError(t *testing.T) {
	cause := errors.New("bad input")
	parser := &testutils.FakeParser{Err: cause}

	for _, format := range []InputFormat{Markdown, MDX, Text, HTML} {
		t.Run(format.String(), func(t *testing.T) {
			_, err := PrepareInput(format, "x", parser)
			require.Error(t, err)
			assert.Equal(t, "Error parsing input: bad input", err.Error())
			assert.ErrorIs(t, err, cause)

			var stageErr *StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, StageParse, stageErr.Stage)
		})
	}
}

func TestPrepareInput_UnknownFormat(t *testing.T) {
	_, err := PrepareInput(InputFormat(99), "x", &testutils.FakeParser{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown input format")
}

func TestPrepareInput_RealParser(t *testing.T) {
	values, err := PrepareInput(Text, "a\nb\n", markdown.NewParser(nil))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "b", values[1].(engine.Markdown).Node.String())

	_, err = PrepareInput(MDX, "<Card>\n", markdown.NewParser(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error parsing input: unterminated JSX element")
}
