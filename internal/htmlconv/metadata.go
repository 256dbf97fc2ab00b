package htmlconv

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// Metadata is the document information found in <title> and <meta> tags.
type Metadata struct {
	Title       string   `yaml:"title,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Author      string   `yaml:"author,omitempty"`
}

func extractMetadata(doc *goquery.Document) Metadata {
	meta := Metadata{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if meta.Title == "" {
		meta.Title = metaContent(doc, "og:title")
	}

	meta.Description = metaContent(doc, "description")
	if meta.Description == "" {
		meta.Description = metaContent(doc, "og:description")
	}
	meta.Author = metaContent(doc, "author")

	for _, keyword := range strings.Split(metaContent(doc, "keywords"), ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			meta.Keywords = append(meta.Keywords, keyword)
		}
	}
	return meta
}

// metaContent looks a meta tag up by name, falling back to property for Open Graph tags.
func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(fmt.Sprintf(`meta[name=%q]`, name))
	if sel.Length() == 0 {
		sel = doc.Find(fmt.Sprintf(`meta[property=%q]`, name))
	}
	return strings.TrimSpace(sel.First().AttrOr("content", ""))
}

func (m Metadata) isZero() bool {
	return m.Title == "" && m.Description == "" && m.Author == "" && len(m.Keywords) == 0
}

// frontMatter renders the metadata as a YAML front matter block, or "" when there is none.
func (m Metadata) frontMatter() (string, error) {
	if m.isZero() {
		return "", nil
	}
	out, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	return "---\n" + string(out) + "---\n", nil
}
