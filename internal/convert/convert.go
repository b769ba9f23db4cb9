// Package convert turns uploaded documents into plain text or markdown.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

// ErrUnsupportedFormat is returned for media types the converter cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{4,}`)
)

// Converter handles text/plain, text/markdown, text/html and application/json.
type Converter struct {
	html *md.Converter
}

func New() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{html: converter}
}

// Convert decodes data according to mimeType. Parameters such as charset are
// ignored; input is expected to be UTF-8.
func (c *Converter) Convert(_ context.Context, data []byte, mimeType string) (string, error) {
	mediaType := normalize(mimeType)
	switch mediaType {
	case "text/plain", "text/markdown", "text/x-markdown", "":
		return strings.TrimSpace(string(data)), nil
	case "text/html", "application/xhtml+xml":
		return c.convertHTML(data)
	case "application/json":
		return convertJSON(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}
}

func normalize(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mt
}

func (c *Converter) convertHTML(data []byte) (string, error) {
	title := extractTitle(data)
	cleaned := scriptRe.ReplaceAll(data, nil)
	cleaned = styleRe.ReplaceAll(cleaned, nil)

	markdown, err := c.html.ConvertString(string(cleaned))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	markdown = cleanMarkdown(markdown)

	if title != "" && !strings.HasPrefix(markdown, "# ") {
		markdown = "# " + title + "\n\n" + markdown
	}
	return strings.TrimSpace(markdown), nil
}

func extractTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// convertJSON uses a top-level "text" string when present and otherwise the
// compacted document.
func convertJSON(data []byte) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err == nil {
		if text, ok := doc["text"].(string); ok {
			return strings.TrimSpace(text), nil
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return "", fmt.Errorf("%w: invalid json: %v", ErrUnsupportedFormat, err)
	}
	return buf.String(), nil
}
