package testutils

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-mq/internal/engine"
	"github.com/sammcj/mcp-mq/internal/htmlconv"
	"github.com/sammcj/mcp-mq/internal/markdown"
	"github.com/sirupsen/logrus"
)

// MockTool implements the Tool interface for testing
type MockTool struct {
	name       string
	definition mcp.Tool
	executeErr error
	result     *mcp.CallToolResult
	// LastArgs holds the arguments of the most recent Execute call
	LastArgs map[string]any
}

// NewMockTool creates a new mock tool
func NewMockTool(name string) *MockTool {
	return &MockTool{
		name: name,
		definition: mcp.NewTool(name,
			mcp.WithDescription("Mock tool for testing"),
			mcp.WithString("input",
				mcp.Required(),
				mcp.Description("Test input parameter"),
			),
		),
		result: mcp.NewToolResultText("mock result"),
	}
}

// WithError configures the mock to return an error
func (m *MockTool) WithError(err error) *MockTool {
	m.executeErr = err
	return m
}

// WithResult configures the mock to return a specific result
func (m *MockTool) WithResult(result *mcp.CallToolResult) *MockTool {
	m.result = result
	return m
}

// Definition returns the tool's definition for MCP registration
func (m *MockTool) Definition() mcp.Tool {
	return m.definition
}

// Execute executes the mock tool
func (m *MockTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	m.LastArgs = args
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return m.result, nil
}

// FakeEngine is a scripted query engine that records its last call
type FakeEngine struct {
	Output []engine.Value
	Err    error

	Calls int
	Code  string
	Input []engine.Value
}

func (f *FakeEngine) Eval(_ context.Context, code string, input []engine.Value) ([]engine.Value, error) {
	f.Calls++
	f.Code = code
	f.Input = input
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Output, nil
}

// FakeParser returns the same nodes for every format and records which formats were parsed
type FakeParser struct {
	Nodes []*markdown.Node
	Err   error

	Formats []string
}

func (f *FakeParser) parse(format string) ([]*markdown.Node, error) {
	f.Formats = append(f.Formats, format)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Nodes, nil
}

func (f *FakeParser) ParseMarkdown(string) ([]*markdown.Node, error) { return f.parse("markdown") }
func (f *FakeParser) ParseMDX(string) ([]*markdown.Node, error)      { return f.parse("mdx") }
func (f *FakeParser) ParseText(string) ([]*markdown.Node, error)     { return f.parse("text") }
func (f *FakeParser) ParseHTML(string) ([]*markdown.Node, error)     { return f.parse("html") }

// FakeConverter is a scripted HTML converter that records its last call
type FakeConverter struct {
	Output string
	Err    error

	HTML    string
	Options htmlconv.Options
}

func (f *FakeConverter) Convert(html string, opts htmlconv.Options) (string, error) {
	f.HTML = html
	f.Options = opts
	if f.Err != nil {
		return "", f.Err
	}
	return f.Output, nil
}
