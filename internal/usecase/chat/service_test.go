package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/repository/studystore"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: f.vec}, nil
}

type fakeSearcher struct {
	results   []chunk.SearchResult
	gotTopic  string
	gotTopK   int
	gotThresh float64
}

func (f *fakeSearcher) Search(_ context.Context, topicID string, _ []float32, topK int, threshold float64) ([]chunk.SearchResult, error) {
	f.gotTopic = topicID
	f.gotTopK = topK
	f.gotThresh = threshold
	return f.results, nil
}

type fakeGenerator struct {
	gotSystem string
	gotUser   string
	response  string
	err       error
}

func (f *fakeGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.gotSystem = systemPrompt
	f.gotUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeHistory struct {
	saved   []*studystore.ChatMessage
	saveErr error
}

func (f *fakeHistory) SaveChatMessage(_ context.Context, msg *studystore.ChatMessage) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, msg)
	return nil
}

func (f *fakeHistory) ListChatMessages(_ context.Context, topicID string, _ int) ([]studystore.ChatMessage, error) {
	var out []studystore.ChatMessage
	for _, m := range f.saved {
		if m.TopicID == topicID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func TestAsk_BuildsContextAndPersists(t *testing.T) {
	searcher := &fakeSearcher{results: []chunk.SearchResult{
		{Chunk: chunk.Chunk{ResourceID: "r1", SourceTitle: "OS book", SourceType: chunk.SourceBook, Content: "Paging maps virtual pages to frames."}, Similarity: 0.93},
	}}
	gen := &fakeGenerator{response: "Paging divides memory into fixed pages."}
	hist := &fakeHistory{}
	svc := New(&fakeEmbedder{vec: []float32{1, 0}}, searcher, gen, hist, 5, 0.7)

	answer, err := svc.Ask(context.Background(), AskInput{
		UserID:    "u1",
		TopicID:   "t1",
		TopicName: "Memory Management",
		Message:   "What is paging?",
		ChatType:  TypeDoubt,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if searcher.gotTopic != "t1" || searcher.gotTopK != 5 || searcher.gotThresh != 0.7 {
		t.Errorf("search called with wrong params: %s %d %f", searcher.gotTopic, searcher.gotTopK, searcher.gotThresh)
	}
	if !strings.Contains(gen.gotUser, "Paging maps virtual pages to frames.") {
		t.Error("retrieved chunk missing from prompt context")
	}
	if !strings.Contains(gen.gotUser, "What is paging?") {
		t.Error("question missing from prompt")
	}
	if !strings.Contains(gen.gotSystem, "Memory Management") {
		t.Error("topic name missing from system prompt")
	}
	if answer.Response != "Paging divides memory into fixed pages." {
		t.Errorf("unexpected response: %q", answer.Response)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].ResourceID != "r1" {
		t.Errorf("unexpected sources: %+v", answer.Sources)
	}
	if len(hist.saved) != 2 {
		t.Fatalf("expected user and assistant rows, got %+v", hist.saved)
	}
	userRow, asstRow := hist.saved[0], hist.saved[1]
	if userRow.Role != studystore.RoleUser || userRow.Message != "What is paging?" {
		t.Errorf("unexpected user row: %+v", userRow)
	}
	if asstRow.Role != studystore.RoleAssistant || asstRow.Response != answer.Response {
		t.Errorf("unexpected assistant row: %+v", asstRow)
	}
	if userRow.ChatType != "doubt" || asstRow.ChatType != "doubt" {
		t.Errorf("chat type not carried on both rows: %+v", hist.saved)
	}
}

func TestAsk_ChatTypeSelectsPrompt(t *testing.T) {
	gen := &fakeGenerator{response: "ok"}
	svc := New(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{}, gen, &fakeHistory{}, 5, 0.7)

	_, err := svc.Ask(context.Background(), AskInput{TopicName: "Trees", Message: "Explain AVL trees", ChatType: TypeConceptExplainer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.gotSystem, "tutor explaining a concept") {
		t.Errorf("expected concept explainer prompt, got %q", gen.gotSystem)
	}
}

func TestAsk_NoMatchesStillAnswers(t *testing.T) {
	gen := &fakeGenerator{response: "The material does not cover this."}
	svc := New(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{}, gen, &fakeHistory{}, 5, 0.7)

	answer, err := svc.Ask(context.Background(), AskInput{Message: "What is quantum foam?", ChatType: TypeDoubt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.gotUser, "No study material excerpts matched") {
		t.Error("expected explicit no-context note in prompt")
	}
	if len(answer.Sources) != 0 {
		t.Errorf("expected no sources, got %+v", answer.Sources)
	}
}

func TestAsk_EmptyMessageRejected(t *testing.T) {
	svc := New(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{}, &fakeGenerator{}, &fakeHistory{}, 5, 0.7)

	if _, err := svc.Ask(context.Background(), AskInput{Message: "  "}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestAsk_GeneratorFailurePropagates(t *testing.T) {
	gen := &fakeGenerator{err: domain.ErrLLMProviderError}
	hist := &fakeHistory{}
	svc := New(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{}, gen, hist, 5, 0.7)

	_, err := svc.Ask(context.Background(), AskInput{Message: "hi", ChatType: TypeDoubt})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(hist.saved) != 0 {
		t.Error("failed exchange must not be persisted")
	}
}

func TestAsk_HistoryFailureIsNotFatal(t *testing.T) {
	hist := &fakeHistory{saveErr: errors.New("db down")}
	svc := New(&fakeEmbedder{vec: []float32{1}}, &fakeSearcher{}, &fakeGenerator{response: "ok"}, hist, 5, 0.7)

	answer, err := svc.Ask(context.Background(), AskInput{Message: "hi", ChatType: TypeDoubt})
	if err != nil {
		t.Fatalf("history failure should not fail the request: %v", err)
	}
	if answer.Response != "ok" {
		t.Errorf("unexpected response: %q", answer.Response)
	}
}

func TestParseType(t *testing.T) {
	if _, err := ParseType("doubt"); err != nil {
		t.Errorf("doubt should parse: %v", err)
	}
	if _, err := ParseType("concept_explainer"); err != nil {
		t.Errorf("concept_explainer should parse: %v", err)
	}
	if _, err := ParseType("essay"); err == nil {
		t.Error("expected error for unknown chat type")
	}
}
