package extract

import (
	"strings"
	"testing"
)

func TestExtract_PlainTextVerbatim(t *testing.T) {
	e := New()

	in := "line one\nline two"
	out, err := e.Extract([]byte(in), "notes.txt", "text/plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("expected verbatim text, got %q", out)
	}
}

func TestExtract_UnknownTypeReadAsText(t *testing.T) {
	e := New()

	out, err := e.Extract([]byte("raw bytes"), "dump.log", "application/octet-stream")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "raw bytes" {
		t.Errorf("expected verbatim fallback, got %q", out)
	}
}

func TestExtract_MarkdownStripsSyntax(t *testing.T) {
	e := New()

	md := "# Photosynthesis\n\nPlants use **light** to make sugar.\n\n- chloroplasts\n- stomata\n"
	out, err := e.Extract([]byte(md), "bio.md", "text/markdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "#") || strings.Contains(out, "**") {
		t.Errorf("markdown syntax leaked into output: %q", out)
	}
	for _, want := range []string{"Photosynthesis", "light", "chloroplasts", "stomata"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %q", want, out)
		}
	}
}

func TestExtract_MIMEFallbackWithoutExtension(t *testing.T) {
	if got := resolveFormat("upload", "application/pdf"); got != "pdf" {
		t.Errorf("expected pdf via MIME fallback, got %q", got)
	}
	if got := resolveFormat("deck.pptx", "application/octet-stream"); got != "pptx" {
		t.Errorf("expected extension to win, got %q", got)
	}
}

func TestExtract_CorruptPDFPropagatesError(t *testing.T) {
	e := New()

	if _, err := e.Extract([]byte("not a pdf"), "broken.pdf", "application/pdf"); err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
}

func TestExtractXMLText(t *testing.T) {
	xml := `<p><a:t>Hello</a:t><a:t xml:space="preserve"> world &amp; moon</a:t></p>`
	got := extractXMLText(xml, "<a:t", "</a:t>")
	if got != "Hello world & moon" {
		t.Errorf("unexpected text: %q", got)
	}
}
