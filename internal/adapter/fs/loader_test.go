package fs

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadHTML(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head>
<title>Go Concurrency Patterns</title>
<style>body { color: red; }</style>
<script>var tracked = true;</script>
</head>
<body>
<h1>Pipelines</h1>
<p>Channels carry values between goroutines.</p>
<noscript>Enable JavaScript.</noscript>
</body>
</html>`
	path := filepath.Join(t.TempDir(), "concurrency-patterns.html")
	writeFile(t, path, page)

	doc, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if doc.ID != "concurrency-patterns" {
		t.Errorf("ID = %q", doc.ID)
	}
	if doc.Title != "Go Concurrency Patterns" {
		t.Errorf("Title = %q", doc.Title)
	}
	if !strings.HasPrefix(doc.URL, "file://") {
		t.Errorf("URL = %q", doc.URL)
	}
	if !strings.Contains(doc.Text, "Channels carry values between goroutines.") {
		t.Errorf("body text missing from %q", doc.Text)
	}
	for _, hidden := range []string{"color: red", "tracked", "Enable JavaScript", "Go Concurrency Patterns"} {
		if strings.Contains(doc.Text, hidden) {
			t.Errorf("text should not contain %q: %q", hidden, doc.Text)
		}
	}
	if doc.ModTime.IsZero() {
		t.Error("ModTime not set")
	}
}

func TestLoadHTMLWithoutTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.htm")
	writeFile(t, path, "<p>no head here</p>")

	doc, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("Title = %q, want document id fallback", doc.Title)
	}
	if doc.Text != "no head here" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestLoadMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error-handling.md")
	writeFile(t, path, "# Error Handling\n\nWrap errors with context.\n")

	doc, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Title != "Error Handling" {
		t.Errorf("Title = %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Wrap errors with context.") {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestLoadPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.txt")
	writeFile(t, path, "\n\nPractical Go Tips\nPrefer small interfaces.\n")

	doc, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Title != "Practical Go Tips" {
		t.Errorf("Title = %q", doc.Title)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
