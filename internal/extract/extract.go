// Package extract converts uploaded study files into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Extractor dispatches on extension/MIME type to a format-specific text
// extraction. Unknown formats are read verbatim as UTF-8. Errors propagate to
// the caller; there are no retries.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract produces plain text from file bytes. The filename's extension takes
// priority; the declared MIME type is the fallback for extensionless uploads.
func (e *Extractor) Extract(data []byte, filename, mimeType string) (string, error) {
	switch resolveFormat(filename, mimeType) {
	case "pdf":
		return extractPDF(data)
	case "docx":
		return extractDOCX(data)
	case "pptx":
		return extractPPTX(data)
	case "xlsx":
		return extractXLSX(data)
	case "md":
		return extractMarkdown(data)
	default:
		return string(data), nil
	}
}

func resolveFormat(filename, mimeType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".docx":
		return "docx"
	case ".pptx":
		return "pptx"
	case ".xlsx":
		return "xlsx"
	case ".md", ".markdown":
		return "md"
	}

	switch mimeType {
	case "application/pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return "pptx"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "text/markdown":
		return "md"
	}
	return "text"
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return extractXMLText(content, "<w:t", "</w:t>"), nil
}

// extractPPTX pulls text runs out of the slide XML inside the pptx archive.
func extractPPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}

	var slides []string
	for _, file := range zr.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		text := extractXMLText(string(raw), "<a:t", "</a:t>")
		if strings.TrimSpace(text) != "" {
			slides = append(slides, file.Name+"\n"+text)
		}
	}
	sort.Strings(slides)

	var sb strings.Builder
	for _, s := range slides {
		// Drop the sort key line, keep slide order.
		if idx := strings.Index(s, "\n"); idx >= 0 {
			sb.WriteString(s[idx+1:])
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		sb.WriteString("Sheet: " + sheetName + "\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// extractMarkdown renders markdown to HTML via goldmark and strips the tags,
// so headings and list markers do not leak into chunks as syntax.
func extractMarkdown(data []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return stripHTMLTags(buf.String()), nil
}

// extractXMLText collects the character data of every element whose opening
// tag starts with openPrefix (e.g. "<w:t" matches both <w:t> and
// <w:t xml:space="preserve">).
func extractXMLText(xmlContent, openPrefix, closeTag string) string {
	var sb strings.Builder
	rest := xmlContent
	for {
		start := strings.Index(rest, openPrefix)
		if start < 0 {
			break
		}
		rest = rest[start+len(openPrefix):]
		gt := strings.Index(rest, ">")
		if gt < 0 {
			break
		}
		rest = rest[gt+1:]
		end := strings.Index(rest, closeTag)
		if end < 0 {
			break
		}
		sb.WriteString(unescapeXML(rest[:end]))
		sb.WriteString(" ")
		rest = rest[end+len(closeTag):]
	}
	return strings.TrimSpace(collapseSpaces(sb.String()))
}

func stripHTMLTags(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			sb.WriteRune(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(unescapeXML(collapseSpaces(sb.String())))
}

func collapseSpaces(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !prevSpace {
				sb.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func unescapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
	)
	return replacer.Replace(s)
}
