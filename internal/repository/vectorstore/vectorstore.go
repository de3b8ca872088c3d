// Package vectorstore persists chunk embeddings and answers similarity queries.
package vectorstore

import (
	"context"

	"github.com/studyvault-app/studyvault/internal/domain/chunk"
)

// Store is the chunk persistence and retrieval contract. Search returns
// results above threshold, sorted by similarity descending, at most topK.
// An empty topicID searches across all topics.
type Store interface {
	Add(ctx context.Context, chunks []chunk.Chunk) error
	Search(ctx context.Context, topicID string, query []float32, topK int, threshold float64) ([]chunk.SearchResult, error)
	DeleteResource(ctx context.Context, resourceID string) error
}
