package chat

import (
	"context"

	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/repository/studystore"
)

// Embedder vectorizes the user query. Wire the query-instruction embedder
// here, never the document one.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher answers similarity queries over stored chunks.
type Searcher interface {
	Search(ctx context.Context, topicID string, query []float32, topK int, threshold float64) ([]chunk.SearchResult, error)
}

// Generator produces a completion from a system and user prompt pair.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// History persists and lists chat exchanges.
type History interface {
	SaveChatMessage(ctx context.Context, msg *studystore.ChatMessage) error
	ListChatMessages(ctx context.Context, topicID string, limit int) ([]studystore.ChatMessage, error)
}
