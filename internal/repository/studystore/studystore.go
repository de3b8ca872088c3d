package studystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/studyvault-app/studyvault/internal/domain"
)

// Repository is the bun-backed study catalog.
type Repository struct {
	db *bun.DB
}

// Connect opens a Postgres connection through bun's pgdriver. When verbose is
// set, bundebug logs every query.
func Connect(dsn string, verbose bool) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if verbose {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// New wraps an existing bun connection.
func New(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying connection for stores that share it.
func (r *Repository) DB() *bun.DB {
	return r.db
}

// Init creates catalog tables if missing.
func (r *Repository) Init(ctx context.Context) error {
	models := []any{
		(*Subject)(nil),
		(*Topic)(nil),
		(*Resource)(nil),
		(*ChatMessage)(nil),
		(*ProgressSnapshot)(nil),
	}
	for _, m := range models {
		if _, err := r.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}

// Ping checks connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// CreateSubject records a new subject.
func (r *Repository) CreateSubject(ctx context.Context, s *Subject) error {
	if _, err := r.db.NewInsert().Model(s).Exec(ctx); err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

// ListSubjects returns a user's subjects, oldest first.
func (r *Repository) ListSubjects(ctx context.Context, userID string) ([]Subject, error) {
	var subjects []Subject
	q := r.db.NewSelect().Model(&subjects).Order("created_at ASC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select subjects: %w", err)
	}
	return subjects, nil
}

// CreateTopic records a new topic under a subject.
func (r *Repository) CreateTopic(ctx context.Context, t *Topic) error {
	if _, err := r.db.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}
	return nil
}

// ListTopics returns a subject's topics, oldest first.
func (r *Repository) ListTopics(ctx context.Context, subjectID string) ([]Topic, error) {
	var topics []Topic
	err := r.db.NewSelect().Model(&topics).
		Where("subject_id = ?", subjectID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select topics: %w", err)
	}
	return topics, nil
}

// CreateResource records an uploaded study material.
func (r *Repository) CreateResource(ctx context.Context, res *Resource) error {
	if _, err := r.db.NewInsert().Model(res).Exec(ctx); err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

// GetResource returns a resource by id or domain.ErrNotFound.
func (r *Repository) GetResource(ctx context.Context, id string) (*Resource, error) {
	res := new(Resource)
	err := r.db.NewSelect().Model(res).Where("r.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select resource: %w", err)
	}
	return res, nil
}

// DeleteResource removes the catalog record. Vector cleanup is the caller's job.
func (r *Repository) DeleteResource(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*Resource)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveChatMessage persists one question/answer exchange.
func (r *Repository) SaveChatMessage(ctx context.Context, msg *ChatMessage) error {
	if _, err := r.db.NewInsert().Model(msg).Exec(ctx); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns a topic's chat history, oldest first.
func (r *Repository) ListChatMessages(ctx context.Context, topicID string, limit int) ([]ChatMessage, error) {
	var msgs []ChatMessage
	q := r.db.NewSelect().Model(&msgs).
		Where("topic_id = ?", topicID).
		Order("created_at ASC", "id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select chat messages: %w", err)
	}
	return msgs, nil
}

// CountResources returns how many resources a topic has.
func (r *Repository) CountResources(ctx context.Context, topicID string) (int, error) {
	n, err := r.db.NewSelect().Model((*Resource)(nil)).
		Where("topic_id = ?", topicID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count resources: %w", err)
	}
	return n, nil
}

// CountChatMessages returns how many questions were asked in a topic.
// Only user rows count; assistant rows mirror them one to one.
func (r *Repository) CountChatMessages(ctx context.Context, topicID string) (int, error) {
	n, err := r.db.NewSelect().Model((*ChatMessage)(nil)).
		Where("topic_id = ?", topicID).
		Where("role = ?", RoleUser).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chat messages: %w", err)
	}
	return n, nil
}

// SaveProgress records a progress snapshot.
func (r *Repository) SaveProgress(ctx context.Context, snap *ProgressSnapshot) error {
	if _, err := r.db.NewInsert().Model(snap).Exec(ctx); err != nil {
		return fmt.Errorf("insert progress snapshot: %w", err)
	}
	return nil
}

// LatestProgress returns a topic's newest snapshot or domain.ErrNotFound.
func (r *Repository) LatestProgress(ctx context.Context, topicID string) (*ProgressSnapshot, error) {
	snap := new(ProgressSnapshot)
	err := r.db.NewSelect().Model(snap).
		Where("topic_id = ?", topicID).
		Order("created_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select progress snapshot: %w", err)
	}
	return snap, nil
}
