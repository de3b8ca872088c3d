package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"github.com/studyvault-app/studyvault/internal/domain/chunk"
)

// Compile-time check: PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// chunkRow is the pgvector-backed storage model for chunks.
type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID          int64  `bun:"id,pk,autoincrement"`
	ResourceID  string `bun:"resource_id,notnull"`
	TopicID     string `bun:"topic_id,notnull"`
	Idx         int    `bun:"idx,notnull"`
	Content     string `bun:"content,notnull"`
	SourceTitle string `bun:"source_title"`
	SourceType  string `bun:"source_type"`
	Embedding   string `bun:"embedding,notnull,type:vector(1536)"`

	Similarity float64 `bun:"similarity,scanonly"`
}

// PostgresStore persists chunks in Postgres with pgvector and answers queries
// with the cosine distance operator.
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore wraps an existing bun connection.
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Init creates the chunks table if missing. Requires the pgvector extension.
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create extension: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Add inserts chunks in one statement.
func (s *PostgresStore) Add(ctx context.Context, chunks []chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]chunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = chunkRow{
			ResourceID:  c.ResourceID,
			TopicID:     c.TopicID,
			Idx:         c.Index,
			Content:     c.Content,
			SourceTitle: c.SourceTitle,
			SourceType:  string(c.SourceType),
			Embedding:   vectorLiteral(c.Embedding),
		}
	}

	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// Search orders by cosine distance and filters by the similarity threshold
// in SQL, so only qualifying rows cross the wire.
func (s *PostgresStore) Search(ctx context.Context, topicID string, query []float32, topK int, threshold float64) ([]chunk.SearchResult, error) {
	lit := vectorLiteral(query)

	q := s.db.NewSelect().
		Model((*chunkRow)(nil)).
		ColumnExpr("c.*").
		ColumnExpr("1 - (embedding <=> ?::vector) AS similarity", lit).
		Where("1 - (embedding <=> ?::vector) >= ?", lit, threshold).
		OrderExpr("embedding <=> ?::vector", lit)
	if topicID != "" {
		q = q.Where("topic_id = ?", topicID)
	}
	if topK > 0 {
		q = q.Limit(topK)
	}

	var rows []chunkRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	results := make([]chunk.SearchResult, len(rows))
	for i, r := range rows {
		results[i] = chunk.SearchResult{
			Chunk: chunk.Chunk{
				ResourceID:  r.ResourceID,
				TopicID:     r.TopicID,
				Content:     r.Content,
				Index:       r.Idx,
				SourceTitle: r.SourceTitle,
				SourceType:  chunk.SourceType(r.SourceType),
			},
			Similarity: r.Similarity,
		}
	}
	return results, nil
}

// DeleteResource removes all chunks owned by the resource.
func (s *PostgresStore) DeleteResource(ctx context.Context, resourceID string) error {
	if _, err := s.db.NewDelete().
		Model((*chunkRow)(nil)).
		Where("resource_id = ?", resourceID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// vectorLiteral renders a float32 slice in pgvector's text format.
func vectorLiteral(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
