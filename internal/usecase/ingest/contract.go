package ingest

import (
	"context"

	"github.com/studyvault-app/studyvault/internal/domain"
	"github.com/studyvault-app/studyvault/internal/domain/chunk"
	"github.com/studyvault-app/studyvault/internal/repository/studystore"
)

// Extractor converts uploaded file bytes into plain text.
type Extractor interface {
	Extract(data []byte, filename, mimeType string) (string, error)
}

// Embedder vectorizes chunk texts in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// VectorStore persists and deletes chunk embeddings.
type VectorStore interface {
	Add(ctx context.Context, chunks []chunk.Chunk) error
	DeleteResource(ctx context.Context, resourceID string) error
}

// Catalog records resources in the study catalog.
type Catalog interface {
	CreateResource(ctx context.Context, res *studystore.Resource) error
	GetResource(ctx context.Context, id string) (*studystore.Resource, error)
	DeleteResource(ctx context.Context, id string) error
}
