package chunk

import (
	"strings"
	"testing"
)

func TestNewSplitter_RejectsOverlapAtOrAboveMax(t *testing.T) {
	if _, err := NewSplitter(100, 100); err == nil {
		t.Fatal("expected error for overlap == maxChars")
	}
	if _, err := NewSplitter(100, 150); err == nil {
		t.Fatal("expected error for overlap > maxChars")
	}
	if _, err := NewSplitter(0, 0); err == nil {
		t.Fatal("expected error for zero maxChars")
	}
	if _, err := NewSplitter(100, -1); err == nil {
		t.Fatal("expected error for negative overlap")
	}
}

func TestSplit_WindowLengthsAndOverlap(t *testing.T) {
	// 1000 non-space characters so trimming does not shorten windows.
	text := strings.Repeat("abcde", 200)

	s, err := NewSplitter(300, 50)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}
	chunks := s.Split(text)

	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	wantLens := []int{300, 300, 300, 250}
	for i, c := range chunks {
		if len(c) != wantLens[i] {
			t.Errorf("chunk %d: expected length %d, got %d", i, wantLens[i], len(c))
		}
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if prev[len(prev)-50:] != cur[:50] {
			t.Errorf("chunks %d and %d do not overlap by 50 characters", i-1, i)
		}
	}
}

func TestSplit_UnionCoversInput(t *testing.T) {
	text := strings.Repeat("x", 777)

	s, err := NewSplitter(100, 20)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}
	chunks := s.Split(text)

	covered := 0
	step := 100 - 20
	for i, c := range chunks {
		start := i * step
		end := start + len(c)
		if end > covered {
			covered = end
		}
		if start > covered {
			t.Fatalf("gap before chunk %d", i)
		}
	}
	if covered != len(text) {
		t.Errorf("chunks cover %d of %d characters", covered, len(text))
	}
}

func TestSplit_ShortAndEmptyInput(t *testing.T) {
	s, err := NewSplitter(100, 10)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	if got := s.Split("   "); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}

	chunks := s.Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Errorf("expected single chunk, got %v", chunks)
	}
}

func TestParseSourceType(t *testing.T) {
	for _, valid := range []string{"book", "slides", "notes", "pyqs"} {
		if _, err := ParseSourceType(valid); err != nil {
			t.Errorf("expected %q to parse: %v", valid, err)
		}
	}
	if _, err := ParseSourceType("podcast"); err == nil {
		t.Error("expected error for unknown source type")
	}
}
