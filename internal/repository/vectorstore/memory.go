package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/domain/vector"
)

// Compile-time check: MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore holds chunks in a mutex-guarded slice and answers queries with
// a linear cosine scan. Fine for single-instance deployments with corpora in
// the tens of thousands of chunks.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []chunk.Chunk
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add appends chunks to the store.
func (s *MemoryStore) Add(_ context.Context, chunks []chunk.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Search scans all chunks in the topic scope and returns those whose cosine
// similarity to the query meets the threshold.
func (s *MemoryStore) Search(_ context.Context, topicID string, query []float32, topK int, threshold float64) ([]chunk.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []chunk.SearchResult
	for _, c := range s.chunks {
		if topicID != "" && c.TopicID != topicID {
			continue
		}
		sim, err := vector.CosineSimilarity(query, c.Embedding)
		if err != nil {
			return nil, fmt.Errorf("chunk %s[%d]: %w", c.ResourceID, c.Index, err)
		}
		if sim >= threshold {
			results = append(results, chunk.SearchResult{Chunk: c, Similarity: sim})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteResource removes every chunk owned by the resource.
func (s *MemoryStore) DeleteResource(_ context.Context, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.ResourceID != resourceID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}
