package vectorstore

import (
	"context"
	"testing"

	"github.com/studyvault-app/studyvault/internal/domain/chunk"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	err := s.Add(context.Background(), []chunk.Chunk{
		{ResourceID: "r1", TopicID: "t1", Index: 0, Content: "close match", Embedding: []float32{0.99, 0.141}},
		{ResourceID: "r1", TopicID: "t1", Index: 1, Content: "weak match", Embedding: []float32{0.6, 0.8}},
		{ResourceID: "r2", TopicID: "t1", Index: 0, Content: "good match", Embedding: []float32{0.95, 0.312}},
		{ResourceID: "r3", TopicID: "t2", Index: 0, Content: "other topic", Embedding: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestMemoryStore_SearchThresholdAndOrder(t *testing.T) {
	s := seedStore(t)

	// Query along the x axis; similarities are ~0.990, ~0.6, ~0.95 for topic t1.
	results, err := s.Search(context.Background(), "t1", []float32{1, 0}, 5, 0.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results above threshold, got %d", len(results))
	}
	if results[0].Chunk.Content != "close match" || results[1].Chunk.Content != "good match" {
		t.Errorf("wrong order: %q, %q", results[0].Chunk.Content, results[1].Chunk.Content)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not sorted descending by similarity")
	}
}

func TestMemoryStore_SearchTopicScope(t *testing.T) {
	s := seedStore(t)

	results, err := s.Search(context.Background(), "t2", []float32{1, 0}, 5, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.TopicID != "t2" {
		t.Errorf("expected only t2 chunks, got %+v", results)
	}
}

func TestMemoryStore_SearchTopKTruncation(t *testing.T) {
	s := seedStore(t)

	results, err := s.Search(context.Background(), "t1", []float32{1, 0}, 1, 0.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected topK=1 to truncate, got %d", len(results))
	}
	if results[0].Chunk.Content != "close match" {
		t.Errorf("truncation kept the wrong result: %q", results[0].Chunk.Content)
	}
}

func TestMemoryStore_SearchEmptyTopicSearchesAll(t *testing.T) {
	s := seedStore(t)

	results, err := s.Search(context.Background(), "", []float32{1, 0}, 10, 0.99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "other topic" is exactly parallel to the query.
	found := false
	for _, r := range results {
		if r.Chunk.TopicID == "t2" {
			found = true
		}
	}
	if !found {
		t.Error("expected cross-topic search to include t2 chunks")
	}
}

func TestMemoryStore_SearchDimensionMismatch(t *testing.T) {
	s := seedStore(t)

	if _, err := s.Search(context.Background(), "t1", []float32{1, 0, 0}, 5, 0.5); err == nil {
		t.Fatal("expected error on dimension mismatch")
	}
}

func TestMemoryStore_DeleteResource(t *testing.T) {
	s := seedStore(t)

	if err := s.DeleteResource(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := s.Search(context.Background(), "t1", []float32{1, 0}, 10, 0.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Chunk.ResourceID == "r1" {
			t.Errorf("deleted resource still searchable: %+v", r.Chunk)
		}
	}
	if len(results) != 1 {
		t.Errorf("expected 1 remaining t1 chunk, got %d", len(results))
	}
}
