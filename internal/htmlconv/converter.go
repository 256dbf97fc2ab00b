// Package htmlconv converts HTML documents to markdown.
package htmlconv

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// Options controls the optional parts of a conversion. The zero value is a plain conversion.
type Options struct {
	ExtractScriptsAsCodeBlocks bool
	GenerateFrontMatter        bool
	UseTitleAsH1               bool
}

// Converter handles HTML to markdown conversion
type Converter struct {
	converter *converter.Converter
	logger    *logrus.Logger
}

// New creates a converter with the commonmark and table plugins. A nil logger discards output.
func New(logger *logrus.Logger) *Converter {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	return &Converter{
		converter: conv,
		logger:    logger,
	}
}

// Convert converts HTML content to markdown
func (c *Converter) Convert(htmlContent string, opts Options) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := extractMetadata(doc)
	if opts.ExtractScriptsAsCodeBlocks {
		replaceScripts(doc)
	}

	out, err := c.converter.ConvertNode(doc.Nodes[0])
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	markdown := strings.TrimSpace(string(out))

	if opts.UseTitleAsH1 && meta.Title != "" && !startsWithH1(markdown) {
		if markdown == "" {
			markdown = "# " + meta.Title
		} else {
			markdown = "# " + meta.Title + "\n\n" + markdown
		}
	}

	if opts.GenerateFrontMatter {
		fm, err := meta.frontMatter()
		if err != nil {
			return "", err
		}
		if fm != "" {
			markdown = fm + "\n" + markdown
		}
	}

	c.logger.WithFields(logrus.Fields{
		"original_length": len(htmlContent),
		"markdown_length": len(markdown),
		"front_matter":    opts.GenerateFrontMatter,
		"title_as_h1":     opts.UseTitleAsH1,
	}).Debug("HTML to markdown conversion completed")

	return markdown, nil
}

// replaceScripts swaps inline script elements for code blocks the converter keeps.
// Scripts in the head are moved to the start of the body since the head is dropped.
func replaceScripts(doc *goquery.Document) {
	var headBlocks []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := strings.TrimSpace(s.Text())
		if body == "" {
			s.Remove()
			return
		}
		block := fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`,
			scriptLanguage(s.AttrOr("type", "")), html.EscapeString(body))
		if s.ParentsFiltered("head").Length() > 0 {
			headBlocks = append(headBlocks, block)
			s.Remove()
			return
		}
		s.ReplaceWithHtml(block)
	})

	if len(headBlocks) > 0 {
		body := doc.Find("body")
		if body.Length() == 0 {
			body = doc.Selection
		}
		body.PrependHtml(strings.Join(headBlocks, ""))
	}
}

func scriptLanguage(scriptType string) string {
	switch strings.ToLower(strings.TrimSpace(scriptType)) {
	case "application/json", "application/ld+json", "importmap", "speculationrules":
		return "json"
	default:
		return "js"
	}
}

func startsWithH1(markdown string) bool {
	first, _, _ := strings.Cut(markdown, "\n")
	return strings.HasPrefix(first, "# ")
}
