package fs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"scour/internal/domain"
)

// Loader reads one corpus file into a Document. HTML files are parsed with
// markup stripped; .txt and .md files are taken verbatim. The document id is
// the file name without its extension.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(path string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	doc := domain.Document{
		ID:      DocID(path),
		Path:    path,
		URL:     "file://" + abs,
		ModTime: info.ModTime(),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		doc.Title, doc.Text = extractHTML(raw)
	default:
		doc.Text = string(raw)
		doc.Title = firstLine(doc.Text)
	}
	if doc.Title == "" {
		doc.Title = doc.ID
	}

	return doc, nil
}

// DocID is the file name without its extension.
func DocID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// extractHTML returns the <title> text and the visible text of the page.
// Text under script, style and noscript elements is skipped.
func extractHTML(raw []byte) (title, text string) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", ""
	}

	var textParts, titleParts []string

	// Depth counters so nested occurrences unwind correctly.
	var skipDepth, titleDepth int

	skipped := func(n *html.Node) bool {
		return n.Type == html.ElementNode &&
			(strings.EqualFold(n.Data, "script") ||
				strings.EqualFold(n.Data, "style") ||
				strings.EqualFold(n.Data, "noscript"))
	}
	isTitle := func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.EqualFold(n.Data, "title")
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipped(n) {
			skipDepth++
		}
		if isTitle(n) {
			titleDepth++
		}

		if n.Type == html.TextNode {
			switch {
			case titleDepth > 0:
				titleParts = append(titleParts, n.Data)
			case skipDepth == 0:
				if t := strings.TrimSpace(n.Data); t != "" {
					textParts = append(textParts, t)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if skipped(n) {
			skipDepth--
		}
		if isTitle(n) {
			titleDepth--
		}
	}
	walk(root)

	return collapseSpace(strings.Join(titleParts, " ")), strings.Join(textParts, " ")
}

// firstLine returns the first non-empty line with markdown heading marks
// removed, for use as a plain-text title.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if line != "" {
			return line
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
