package notes

import "strings"

// Merge combines per-chunk fragments into one document. Section headings are
// deduplicated case-insensitively after trimming; bullets, quotes and
// questions by exact string; flashcards by question. All arrays are capped.
// The first non-empty title/tl_dr/summary wins; later fragments only extend
// lists.
func Merge(fragments []Document) Document {
	var merged Document

	sectionIdx := make(map[string]int)
	seenActions := make(map[string]struct{})
	seenQuestions := make(map[string]struct{})
	seenFlashcards := make(map[string]struct{})
	bulletSets := make(map[int]map[string]struct{})
	quoteSets := make(map[int]map[string]struct{})

	for _, f := range fragments {
		if merged.Title == "" {
			merged.Title = strings.TrimSpace(f.Title)
		}
		if merged.TLDR == "" {
			merged.TLDR = strings.TrimSpace(f.TLDR)
		}
		if merged.Summary == "" {
			merged.Summary = strings.TrimSpace(f.Summary)
		}

		for _, sec := range f.Sections {
			heading := strings.TrimSpace(sec.Heading)
			if heading == "" {
				continue
			}
			key := strings.ToLower(heading)

			i, ok := sectionIdx[key]
			if !ok {
				i = len(merged.Sections)
				sectionIdx[key] = i
				merged.Sections = append(merged.Sections, Section{
					Heading: heading,
					Summary: strings.TrimSpace(sec.Summary),
				})
				bulletSets[i] = make(map[string]struct{})
				quoteSets[i] = make(map[string]struct{})
			} else if merged.Sections[i].Summary == "" {
				merged.Sections[i].Summary = strings.TrimSpace(sec.Summary)
			}

			dst := &merged.Sections[i]
			dst.Bullets = appendDeduped(dst.Bullets, sec.Bullets, bulletSets[i], MaxBulletsPerSection)
			dst.ImportantQuotes = appendDeduped(dst.ImportantQuotes, sec.ImportantQuotes, quoteSets[i], MaxQuotesPerSection)
		}

		merged.ActionItems = appendDeduped(merged.ActionItems, f.ActionItems, seenActions, MaxActionItems)
		merged.Questions = appendDeduped(merged.Questions, f.Questions, seenQuestions, MaxQuestions)

		for _, fc := range f.Flashcards {
			q := strings.TrimSpace(fc.Question)
			if q == "" {
				continue
			}
			if _, dup := seenFlashcards[q]; dup {
				continue
			}
			if len(merged.Flashcards) >= MaxFlashcards {
				break
			}
			seenFlashcards[q] = struct{}{}
			merged.Flashcards = append(merged.Flashcards, Flashcard{Question: q, Answer: fc.Answer})
		}
	}

	return merged
}

func appendDeduped(dst, src []string, seen map[string]struct{}, limit int) []string {
	for _, item := range src {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		if len(dst) >= limit {
			break
		}
		seen[item] = struct{}{}
		dst = append(dst, item)
	}
	return dst
}
