package mqquery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-mq/internal/config"
	"github.com/sammcj/mcp-mq/internal/mq"
	"github.com/sammcj/mcp-mq/internal/registry"
	"github.com/sammcj/mcp-mq/internal/tools"
	"github.com/sirupsen/logrus"
)

const toolName = "mq_query"

// MQQueryTool runs a query over markdown-like content
type MQQueryTool struct {
	once   sync.Once
	runner *mq.Runner
}

// init registers the mq_query tool
func init() {
	registry.Register(&MQQueryTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *MQQueryTool) Definition() mcp.Tool {
	return mcp.NewTool(
		toolName,
		mcp.WithDescription(`Query markdown, MDX, HTML or plain text with a Starlark expression.

The content is split into nodes (one per block, list item or line) and the expression in "code" is evaluated once per node with the node bound to "self". Non-empty results are returned both as a list and joined into a single text.

Useful helpers: md.is_heading(self), md.is_code(self), md.is_list(self), md.kind(self), heading(text, depth), text(node). Nodes expose kind, depth, value, lang, index, ordered, checked, attrs and text. Return None to drop a node.`),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Starlark expression evaluated for every input node, e.g. 'self if md.is_heading(self) else None'"),
		),
		mcp.WithString("content",
			mcp.Description("The document to query. Required unless input_format is 'null'."),
		),
		mcp.WithString("input_format",
			mcp.Description("How to split content into nodes. Unknown values fall back to markdown."),
			mcp.Enum(mq.InputFormatTags()...),
			mcp.DefaultString("markdown"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute executes the query and returns {"values": [...], "text": "..."}
func (t *MQQueryTool) Execute(ctx context.Context, logger *logrus.Logger, cache *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	request, err := t.parseRequest(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	cfg := config.Get()
	if len(request.Content) > cfg.MaxContentBytes {
		return nil, fmt.Errorf("invalid parameters: content is %d bytes, exceeding the limit of %d bytes", len(request.Content), cfg.MaxContentBytes)
	}

	logger.WithFields(logrus.Fields{
		"input_format":  request.InputFormat.String(),
		"content_bytes": len(request.Content),
	}).Debug("Running mq query")

	result, err := t.getRunner(logger).Run(ctx, request.Code, request.Content, args)
	if err != nil {
		return nil, err
	}

	logger.WithField("values", len(result.FilteredValues())).Debug("mq query complete")
	return tools.NewToolResultJSON(result)
}

// getRunner returns the tool's runner, building the default one on first use
func (t *MQQueryTool) getRunner(logger *logrus.Logger) *mq.Runner {
	t.once.Do(func() {
		if t.runner == nil {
			t.runner = mq.NewDefaultRunner(config.Get().MaxExecutionSteps, logger)
		}
	})
	return t.runner
}

// parseRequest validates the tool arguments. input_format is soft-decoded and never fails.
func (t *MQQueryTool) parseRequest(args map[string]any) (*QueryRequest, error) {
	code, err := tools.RequiredString(args, "code")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("invalid parameter: code cannot be blank")
	}

	format := mq.DecodeOptions(args).InputFormat

	content := ""
	if raw, ok := args["content"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("invalid parameter: content must be a string")
		}
		content = s
	} else if format != mq.Null {
		return nil, fmt.Errorf("missing required parameter: content (required unless input_format is 'null')")
	}

	return &QueryRequest{
		Code:        code,
		Content:     content,
		InputFormat: format,
	}, nil
}

// ProvideExtendedInfo provides detailed usage information for the mq_query tool
func (t *MQQueryTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description: "List every heading in a document",
				Arguments: map[string]any{
					"code":    "self if md.is_heading(self) else None",
					"content": "# Title\n\nIntro\n\n## Usage\n",
				},
				ExpectedResult: `{"values": ["# Title", "## Usage"], "text": "# Title\n## Usage"}`,
			},
			{
				Description: "Collect the languages of fenced code blocks",
				Arguments: map[string]any{
					"code":    "self.lang if md.is_code(self) else None",
					"content": "```go\nfmt.Println()\n```\n",
				},
				ExpectedResult: `{"values": ["go"], "text": "go"}`,
			},
			{
				Description: "Find unchecked task list items",
				Arguments: map[string]any{
					"code":    "self.value if md.is_list(self) and self.checked == False else None",
					"content": "- [x] done\n- [ ] todo\n",
				},
				ExpectedResult: `{"values": ["todo"], "text": "todo"}`,
			},
			{
				Description: "Evaluate an expression without input",
				Arguments: map[string]any{
					"code":         "', '.join(['a', 'b'])",
					"input_format": "null",
				},
				ExpectedResult: `{"values": ["a, b"], "text": "a, b"}`,
			},
		},
		CommonPatterns: []string{
			"Return None (or an empty string, list or dict) to leave a node out of the result",
			"Use input_format 'html' to query a web page after it is converted to markdown",
			"Use input_format 'text' to process a file line by line with self.value",
			"Use input_format 'raw' to receive the whole content as one string",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "Error evaluating query: ... too many steps",
				Solution: "The query exceeded the execution step budget. Simplify it or raise MQ_MAX_EXECUTION_STEPS.",
			},
			{
				Problem:  "Error parsing input: unterminated JSX element",
				Solution: "An MDX component opened at the start of a block was never closed. Close it or query the content as markdown.",
			},
			{
				Problem:  "Result is empty",
				Solution: "Check the node kinds with code 'md.kind(self)' first, then filter on the kind you need.",
			},
		},
		ParameterDetails: map[string]string{
			"code":         "A single Starlark expression. Statements such as def or for loops are not allowed at the top level; use comprehensions and conditional expressions.",
			"content":      "The document text. Ignored when input_format is 'null'.",
			"input_format": "markdown (default), mdx, text, html, raw or null. Unknown values are treated as markdown.",
		},
		WhenToUse:    "Extracting or reshaping parts of a markdown document: headings, code blocks, links, task lists, tables or front matter.",
		WhenNotToUse: "Full-text search across many files, or editing documents in place.",
	}
}
