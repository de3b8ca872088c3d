package notes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseFragment sanitizes raw model output and strictly parses it into a
// Document. The result is parse-or-reject: malformed JSON or wrong field
// types return an error, never a partially guessed document.
func ParseFragment(raw string) (Document, error) {
	cleaned := Sanitize(raw)
	if cleaned == "" {
		return Document{}, fmt.Errorf("no JSON object found in model output")
	}

	var d Document
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return Document{}, fmt.Errorf("parse fragment: %w", err)
	}
	if d.IsEmpty() {
		return Document{}, fmt.Errorf("fragment parsed to an empty document")
	}
	return d, nil
}

// Sanitize strips Markdown code fences and stray backticks, then cuts the
// text down to the substring between the first '{' and the last '}' so that
// surrounding prose does not break the JSON parser.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)

	// Fenced block: ```json ... ``` or plain ```
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	s = strings.Trim(s, "` \t\n\r")

	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first < 0 || last < first {
		return ""
	}
	return s[first : last+1]
}
