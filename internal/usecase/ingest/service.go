// Package ingest turns uploaded study materials into searchable chunks.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/logger"
	"github.com/studyvault-app/studyvault/internal/repository/studystore"
)

// Service runs the extract -> chunk -> embed -> store pipeline synchronously.
type Service struct {
	extractor Extractor
	splitter  *chunk.Splitter
	embedder  Embedder
	vectors   VectorStore
	catalog   Catalog
}

// New creates an ingest service.
func New(extractor Extractor, splitter *chunk.Splitter, embedder Embedder, vectors VectorStore, catalog Catalog) *Service {
	return &Service{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		vectors:   vectors,
		catalog:   catalog,
	}
}

// UploadInput describes one incoming study material.
type UploadInput struct {
	TopicID    string
	Title      string
	SourceType chunk.SourceType
	Filename   string
	MIMEType   string
	Data       []byte
}

// Upload ingests a resource and returns the catalog record.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*studystore.Resource, error) {
	log := logger.FromContext(ctx)

	text, err := s.extractor.Extract(in.Data, in.Filename, in.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	pieces := s.splitter.Split(text)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("resource %q has no extractable text", in.Title)
	}

	embedded, err := s.embedder.BatchEmbed(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embedded.Embeddings) != len(pieces) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embedded.Embeddings), len(pieces))
	}

	resourceID := uuid.NewString()
	chunks := make([]chunk.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = chunk.Chunk{
			ResourceID:  resourceID,
			TopicID:     in.TopicID,
			Content:     content,
			Index:       i,
			SourceTitle: in.Title,
			SourceType:  in.SourceType,
			Embedding:   embedded.Embeddings[i],
		}
	}

	if err := s.vectors.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("store vectors: %w", err)
	}

	res := &studystore.Resource{
		ID:         resourceID,
		TopicID:    in.TopicID,
		Title:      in.Title,
		SourceType: string(in.SourceType),
		Filename:   in.Filename,
		ChunkCount: len(chunks),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.catalog.CreateResource(ctx, res); err != nil {
		// Vectors without a catalog record are unreachable garbage; roll back.
		if delErr := s.vectors.DeleteResource(ctx, resourceID); delErr != nil {
			log.Warn("orphaned vectors after catalog failure",
				zap.String("resource_id", resourceID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("create resource: %w", err)
	}

	log.Info("resource ingested",
		zap.String("resource_id", resourceID),
		zap.String("topic_id", in.TopicID),
		zap.Int("chunks", len(chunks)),
		zap.Int("tokens", embedded.TotalTokens))

	return res, nil
}

// Delete removes a resource and all of its vectors.
func (s *Service) Delete(ctx context.Context, resourceID string) error {
	if _, err := s.catalog.GetResource(ctx, resourceID); err != nil {
		return fmt.Errorf("get resource: %w", err)
	}
	if err := s.vectors.DeleteResource(ctx, resourceID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.catalog.DeleteResource(ctx, resourceID); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
