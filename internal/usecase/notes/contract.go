package notes

import "context"

// Extractor converts uploaded file bytes into plain text.
type Extractor interface {
	Extract(data []byte, filename, mimeType string) (string, error)
}

// Generator produces a completion from a system and user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
