// Package chat answers student questions with retrieval-augmented generation.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/logger"
	"github.com/studyvault-app/studyvault/internal/repository/studystore"
)

// Service embeds the query, retrieves topic-scoped context and generates an
// answer with the chat-type prompt.
type Service struct {
	embedder  Embedder
	searcher  Searcher
	generator Generator
	history   History
	topK      int
	threshold float64
}

// New creates a chat service.
func New(embedder Embedder, searcher Searcher, generator Generator, history History, topK int, threshold float64) *Service {
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		history:   history,
		topK:      topK,
		threshold: threshold,
	}
}

// AskInput is one chat request.
type AskInput struct {
	UserID    string
	TopicID   string
	TopicName string
	Message   string
	ChatType  Type
}

// Answer is the generated reply with its supporting sources.
type Answer struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}

// Source identifies one study material excerpt used for the answer.
type Source struct {
	ResourceID  string  `json:"resource_id"`
	SourceTitle string  `json:"source_title"`
	SourceType  string  `json:"source_type"`
	Similarity  float64 `json:"similarity"`
}

// Ask runs the full RAG round trip and persists the exchange. A query with no
// matching chunks still gets an answer; the model is told the material is
// missing rather than being fed nothing silently.
func (s *Service) Ask(ctx context.Context, in AskInput) (Answer, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(in.Message) == "" {
		return Answer{}, fmt.Errorf("message is empty")
	}

	emb, err := s.embedder.Embed(ctx, in.Message)
	if err != nil {
		return Answer{}, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.searcher.Search(ctx, in.TopicID, emb.Embedding, s.topK, s.threshold)
	if err != nil {
		return Answer{}, fmt.Errorf("search chunks: %w", err)
	}

	response, err := s.generator.Generate(ctx, systemPrompt(in.ChatType, in.TopicName), userPrompt(in.Message, results))
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	// Both sides of the exchange are persisted: a user row carrying the
	// question and an assistant row carrying the reply.
	now := time.Now().UTC()
	exchange := []*studystore.ChatMessage{
		{
			UserID:    in.UserID,
			TopicID:   in.TopicID,
			Message:   in.Message,
			Role:      studystore.RoleUser,
			ChatType:  string(in.ChatType),
			CreatedAt: now,
		},
		{
			UserID:    in.UserID,
			TopicID:   in.TopicID,
			Response:  response,
			Role:      studystore.RoleAssistant,
			ChatType:  string(in.ChatType),
			CreatedAt: now,
		},
	}
	for _, msg := range exchange {
		if err := s.history.SaveChatMessage(ctx, msg); err != nil {
			// The student already has the answer; losing history is not worth a 500.
			log.Warn("chat history not persisted", zap.String("topic_id", in.TopicID), zap.Error(err))
			break
		}
	}

	answer := Answer{Response: response, Sources: make([]Source, 0, len(results))}
	for _, r := range results {
		answer.Sources = append(answer.Sources, Source{
			ResourceID:  r.Chunk.ResourceID,
			SourceTitle: r.Chunk.SourceTitle,
			SourceType:  string(r.Chunk.SourceType),
			Similarity:  r.Similarity,
		})
	}
	return answer, nil
}

// History returns a topic's persisted exchanges, oldest first.
func (s *Service) History(ctx context.Context, topicID string, limit int) ([]studystore.ChatMessage, error) {
	msgs, err := s.history.ListChatMessages(ctx, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return msgs, nil
}

func userPrompt(message string, results []chunk.SearchResult) string {
	var sb strings.Builder
	if len(results) == 0 {
		sb.WriteString("No study material excerpts matched this question.\n\n")
	} else {
		sb.WriteString("Study material excerpts:\n\n")
		for i, r := range results {
			fmt.Fprintf(&sb, "[%d] %s (%s)\n%s\n\n", i+1, r.Chunk.SourceTitle, r.Chunk.SourceType, r.Chunk.Content)
		}
	}
	sb.WriteString("Question: ")
	sb.WriteString(message)
	return sb.String()
}
