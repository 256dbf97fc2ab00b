package htmltomarkdown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-mq/internal/cache"
	"github.com/sammcj/mcp-mq/internal/config"
	"github.com/sammcj/mcp-mq/internal/mq"
	"github.com/sammcj/mcp-mq/internal/registry"
	"github.com/sammcj/mcp-mq/internal/tools"
	"github.com/sirupsen/logrus"
)

const toolName = "html_to_markdown"

// HTMLToMarkdownTool converts an HTML document to markdown
type HTMLToMarkdownTool struct {
	once    sync.Once
	runner  *mq.Runner
	results *cache.Cache
}

// init registers the html_to_markdown tool
func init() {
	registry.Register(&HTMLToMarkdownTool{})
}

// Definition returns the tool's definition for MCP registration
func (t *HTMLToMarkdownTool) Definition() mcp.Tool {
	return mcp.NewTool(
		toolName,
		mcp.WithDescription("Convert an HTML document to markdown. Head and script content is dropped unless requested; optionally adds YAML front matter from the page metadata or the page title as a top-level heading."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The HTML document to convert"),
		),
		mcp.WithBoolean("extract_scripts_as_code_blocks",
			mcp.Description("Keep inline <script> bodies as fenced code blocks"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("generate_front_matter",
			mcp.Description("Prepend YAML front matter built from <title> and <meta> tags"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("use_title_as_h1",
			mcp.Description("Prepend the page <title> as a level 1 heading unless the body already starts with one"),
			mcp.DefaultBool(false),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute converts the content and returns the markdown text
func (t *HTMLToMarkdownTool) Execute(ctx context.Context, logger *logrus.Logger, _ *sync.Map, args map[string]any) (*mcp.CallToolResult, error) {
	content, err := parseContent(args)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	cfg := config.Get()
	if len(content) > cfg.MaxContentBytes {
		return nil, fmt.Errorf("invalid parameters: content is %d bytes, exceeding the limit of %d bytes", len(content), cfg.MaxContentBytes)
	}

	t.setup(logger, cfg)

	key := cacheKey(content, mq.DecodeConversionOptions(args))
	if cached, ok := t.results.Get(key); ok {
		logger.WithField("key", key[:12]).Debug("Using cached markdown conversion")
		return mcp.NewToolResultText(cached.(string)), nil
	}

	markdown, err := t.runner.HTMLToMarkdown(content, args)
	if err != nil {
		return nil, err
	}

	t.results.Set(key, markdown)
	logger.WithFields(logrus.Fields{
		"html_bytes":     len(content),
		"markdown_bytes": len(markdown),
	}).Debug("Converted HTML to markdown")

	return mcp.NewToolResultText(markdown), nil
}

func (t *HTMLToMarkdownTool) setup(logger *logrus.Logger, cfg *config.Config) {
	t.once.Do(func() {
		if t.runner == nil {
			t.runner = mq.NewDefaultRunner(cfg.MaxExecutionSteps, logger)
		}
		if t.results == nil {
			t.results = cache.NewCache(cfg.CacheTTL)
		}
	})
}

func parseContent(args map[string]any) (string, error) {
	raw, ok := args["content"]
	if !ok || raw == nil {
		return "", fmt.Errorf("missing required parameter: content")
	}
	content, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("invalid parameter: content must be a string")
	}
	return content, nil
}

// cacheKey hashes the content together with the conversion flags
func cacheKey(content string, opts mq.ConversionOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "%t:%t:%t:", opts.ExtractScriptsAsCodeBlocks, opts.GenerateFrontMatter, opts.UseTitleAsH1)
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// ProvideExtendedInfo provides detailed usage information for the html_to_markdown tool
func (t *HTMLToMarkdownTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Convert a fragment",
				Arguments:      map[string]any{"content": "<h2>Install</h2><p>Run <code>make</code></p>"},
				ExpectedResult: "## Install\n\nRun `make`",
			},
			{
				Description: "Convert a page with its metadata as front matter",
				Arguments: map[string]any{
					"content":               "<html><head><title>Doc</title></head><body><p>Body</p></body></html>",
					"generate_front_matter": true,
				},
				ExpectedResult: "---\ntitle: Doc\n---\n\nBody",
			},
		},
		CommonPatterns: []string{
			"Convert first, then query the markdown with mq_query",
			"Or pass the HTML straight to mq_query with input_format 'html'",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "Inline JSON-LD or script content is missing",
				Solution: "Set extract_scripts_as_code_blocks to true.",
			},
		},
		ParameterDetails: map[string]string{
			"content":                        "A full HTML document or a fragment. Empty input returns an empty string.",
			"extract_scripts_as_code_blocks": "Script bodies become js code blocks, or json for application/json and application/ld+json scripts.",
			"generate_front_matter":          "Adds title, description, keywords and author when the page declares them.",
			"use_title_as_h1":                "Uses the <title> element as the heading text.",
		},
		WhenToUse:    "Reading web pages or HTML exports as markdown.",
		WhenNotToUse: "Fetching pages from the network; this tool only converts content it is given.",
	}
}
