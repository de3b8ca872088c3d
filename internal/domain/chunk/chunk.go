// Package chunk defines stored document chunks and the sliding-window splitter.
package chunk

import (
	"fmt"
	"strings"
)

// SourceType classifies where a study resource came from.
type SourceType string

const (
	SourceBook   SourceType = "book"
	SourceSlides SourceType = "slides"
	SourceNotes  SourceType = "notes"
	SourcePYQs   SourceType = "pyqs"
)

// ParseSourceType validates a source type string.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceBook, SourceSlides, SourceNotes, SourcePYQs:
		return SourceType(s), nil
	default:
		return "", fmt.Errorf("unknown source type %q", s)
	}
}

// Chunk is a bounded, possibly overlapping slice of a resource, stored with
// its embedding. Chunks are immutable and live exactly as long as the
// resource that owns them.
type Chunk struct {
	ResourceID  string
	TopicID     string
	Content     string
	Index       int
	SourceTitle string
	SourceType  SourceType
	Embedding   []float32
}

// SearchResult is a chunk together with its similarity to the query vector.
type SearchResult struct {
	Chunk      Chunk
	Similarity float64
}

// Splitter slices text into windows of at most maxChars characters, each
// window starting maxChars-overlapChars after the previous one.
type Splitter struct {
	maxChars     int
	overlapChars int
}

// NewSplitter validates the window parameters. An overlap >= maxChars would
// make the advance step non-positive, so it is rejected up front instead of
// being floored at runtime.
func NewSplitter(maxChars, overlapChars int) (*Splitter, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("maxChars must be positive, got %d", maxChars)
	}
	if overlapChars < 0 {
		return nil, fmt.Errorf("overlapChars must not be negative, got %d", overlapChars)
	}
	if overlapChars >= maxChars {
		return nil, fmt.Errorf("overlapChars (%d) must be less than maxChars (%d)", overlapChars, maxChars)
	}
	return &Splitter{maxChars: maxChars, overlapChars: overlapChars}, nil
}

// Split slices text into trimmed windows. Consecutive windows share
// overlapChars characters; the union of all windows covers the input.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	step := s.maxChars - s.overlapChars

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.maxChars
		if end > len(text) {
			end = len(text)
		}
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, piece)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}
