package notes

import (
	"fmt"
	"testing"
)

func TestMerge_SameHeadingCaseInsensitive(t *testing.T) {
	a := Document{
		Title: "Thermodynamics",
		Sections: []Section{{
			Heading: "Heat Engines",
			Summary: "Engines convert heat to work.",
			Bullets: []string{"Carnot cycle", "Efficiency limits"},
		}},
	}
	b := Document{
		Sections: []Section{{
			Heading: "  heat engines ",
			Bullets: []string{"Efficiency limits", "Working fluids"},
		}},
	}

	merged := Merge([]Document{a, b})

	if len(merged.Sections) != 1 {
		t.Fatalf("expected 1 merged section, got %d", len(merged.Sections))
	}
	sec := merged.Sections[0]
	if sec.Heading != "Heat Engines" {
		t.Errorf("expected first heading kept, got %q", sec.Heading)
	}
	want := []string{"Carnot cycle", "Efficiency limits", "Working fluids"}
	if len(sec.Bullets) != len(want) {
		t.Fatalf("expected %d bullets, got %d: %v", len(want), len(sec.Bullets), sec.Bullets)
	}
	for i, bullet := range want {
		if sec.Bullets[i] != bullet {
			t.Errorf("bullet %d: expected %q, got %q", i, bullet, sec.Bullets[i])
		}
	}
}

func TestMerge_BulletCap(t *testing.T) {
	var frags []Document
	for f := 0; f < 3; f++ {
		sec := Section{Heading: "Big Section"}
		for i := 0; i < 150; i++ {
			sec.Bullets = append(sec.Bullets, fmt.Sprintf("fragment %d bullet %d", f, i))
		}
		frags = append(frags, Document{Sections: []Section{sec}})
	}

	merged := Merge(frags)

	if len(merged.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(merged.Sections))
	}
	if got := len(merged.Sections[0].Bullets); got != MaxBulletsPerSection {
		t.Errorf("expected bullets capped at %d, got %d", MaxBulletsPerSection, got)
	}
}

func TestMerge_FlashcardsDedupedByQuestion(t *testing.T) {
	a := Document{Flashcards: []Flashcard{
		{Question: "What is entropy?", Answer: "A measure of disorder."},
	}}
	b := Document{Flashcards: []Flashcard{
		{Question: "What is entropy?", Answer: "A different answer."},
		{Question: "What is enthalpy?", Answer: "Heat content."},
	}}

	merged := Merge([]Document{a, b})

	if len(merged.Flashcards) != 2 {
		t.Fatalf("expected 2 flashcards, got %d", len(merged.Flashcards))
	}
	if merged.Flashcards[0].Answer != "A measure of disorder." {
		t.Errorf("expected first answer kept, got %q", merged.Flashcards[0].Answer)
	}
}

func TestMerge_FirstNonEmptyTitleWins(t *testing.T) {
	frags := []Document{
		{Summary: "only a summary"},
		{Title: "Real Title", TLDR: "short version"},
		{Title: "Later Title"},
	}

	merged := Merge(frags)

	if merged.Title != "Real Title" {
		t.Errorf("expected %q, got %q", "Real Title", merged.Title)
	}
	if merged.TLDR != "short version" {
		t.Errorf("expected tl_dr kept, got %q", merged.TLDR)
	}
	if merged.Summary != "only a summary" {
		t.Errorf("expected summary kept, got %q", merged.Summary)
	}
}
