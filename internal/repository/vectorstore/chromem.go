package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/studyvault-app/studyvault/internal/domain/chunk"
)

// Compile-time check: ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)

const chromemCollection = "study_chunks"

// ChromemStore persists chunk embeddings in an embedded chromem-go database.
// Survives restarts without an external service.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore opens (or creates) a persistent chromem database at dir.
func NewChromemStore(dir string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}

	// nil embedding func: vectors always arrive precomputed.
	collection, err := db.GetOrCreateCollection(chromemCollection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	return &ChromemStore{db: db, collection: collection}, nil
}

// Add stores chunks as chromem documents keyed resourceID:index.
func (s *ChromemStore) Add(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        c.ResourceID + ":" + strconv.Itoa(c.Index),
			Content:   c.Content,
			Embedding: c.Embedding,
			Metadata: map[string]string{
				"resource_id":  c.ResourceID,
				"topic_id":     c.TopicID,
				"index":        strconv.Itoa(c.Index),
				"source_title": c.SourceTitle,
				"source_type":  string(c.SourceType),
			},
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search queries the collection with a precomputed embedding and maps chromem
// results back to chunks, applying the similarity threshold.
func (s *ChromemStore) Search(ctx context.Context, topicID string, query []float32, topK int, threshold float64) ([]chunk.SearchResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	n := topK
	if n <= 0 || n > count {
		n = count
	}

	var where map[string]string
	if topicID != "" {
		where = map[string]string{"topic_id": topicID}
	}

	found, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: query,
		NResults:       n,
		Where:          where,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	var results []chunk.SearchResult
	for _, r := range found {
		sim := float64(r.Similarity)
		if sim < threshold {
			continue
		}
		idx, _ := strconv.Atoi(r.Metadata["index"])
		results = append(results, chunk.SearchResult{
			Chunk: chunk.Chunk{
				ResourceID:  r.Metadata["resource_id"],
				TopicID:     r.Metadata["topic_id"],
				Content:     r.Content,
				Index:       idx,
				SourceTitle: r.Metadata["source_title"],
				SourceType:  chunk.SourceType(r.Metadata["source_type"]),
				Embedding:   r.Embedding,
			},
			Similarity: sim,
		})
	}
	return results, nil
}

// DeleteResource removes all documents whose metadata names the resource.
func (s *ChromemStore) DeleteResource(ctx context.Context, resourceID string) error {
	if err := s.collection.Delete(ctx, map[string]string{"resource_id": resourceID}, nil); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}
