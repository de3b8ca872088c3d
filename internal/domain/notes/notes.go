// Package notes defines the structured study-notes document produced by the
// notes pipeline and the merge rules for per-chunk fragments.
package notes

// Caps on merged arrays. The generative model is chatty; without hard limits
// a long document would produce unbounded lists.
const (
	MaxBulletsPerSection = 200
	MaxQuotesPerSection  = 20
	MaxActionItems       = 50
	MaxQuestions         = 200
	MaxFlashcards        = 200
)

// Flashcard is a question/answer pair for revision.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Section is one thematic part of the notes.
type Section struct {
	Heading         string   `json:"heading"`
	Summary         string   `json:"summary"`
	Bullets         []string `json:"bullets"`
	ImportantQuotes []string `json:"important_quotes"`
}

// Document is the merged notes output. The same shape is produced by the
// model for each chunk (a fragment) and by merging all fragments.
type Document struct {
	Title       string      `json:"title"`
	TLDR        string      `json:"tl_dr"`
	Summary     string      `json:"summary"`
	Sections    []Section   `json:"sections"`
	ActionItems []string    `json:"action_items"`
	Questions   []string    `json:"questions"`
	Flashcards  []Flashcard `json:"flashcards"`
}

// IsEmpty reports whether the document carries no content at all.
func (d Document) IsEmpty() bool {
	return d.Title == "" && d.TLDR == "" && d.Summary == "" &&
		len(d.Sections) == 0 && len(d.ActionItems) == 0 &&
		len(d.Questions) == 0 && len(d.Flashcards) == 0
}
