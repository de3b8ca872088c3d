// Package catalog manages the study catalog: subjects, their topics, and
// per-topic progress snapshots.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studyvault-app/studyvault/internal/repository/studystore"
)

// Service exposes subject/topic management and progress tracking.
type Service struct {
	store Store
}

// New creates a catalog service.
func New(store Store) *Service {
	return &Service{store: store}
}

// CreateSubject records a new subject for a user.
func (s *Service) CreateSubject(ctx context.Context, userID, name string) (*studystore.Subject, error) {
	subject := &studystore.Subject{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateSubject(ctx, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

// ListSubjects returns a user's subjects, oldest first. An empty userID
// lists all subjects.
func (s *Service) ListSubjects(ctx context.Context, userID string) ([]studystore.Subject, error) {
	subjects, err := s.store.ListSubjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// CreateTopic records a new topic under a subject.
func (s *Service) CreateTopic(ctx context.Context, subjectID, name string) (*studystore.Topic, error) {
	topic := &studystore.Topic{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTopic(ctx, topic); err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}
	return topic, nil
}

// ListTopics returns a subject's topics, oldest first.
func (s *Service) ListTopics(ctx context.Context, subjectID string) ([]studystore.Topic, error) {
	topics, err := s.store.ListTopics(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// RecordProgress takes a snapshot of a topic's current activity: how many
// resources it holds and how many questions were asked against it.
func (s *Service) RecordProgress(ctx context.Context, userID, topicID string) (*studystore.ProgressSnapshot, error) {
	resources, err := s.store.CountResources(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("count resources: %w", err)
	}
	chats, err := s.store.CountChatMessages(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("count chat messages: %w", err)
	}

	snap := &studystore.ProgressSnapshot{
		UserID:        userID,
		TopicID:       topicID,
		ResourcesRead: resources,
		ChatsAsked:    chats,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.SaveProgress(ctx, snap); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return snap, nil
}

// Progress returns a topic's most recent snapshot or domain.ErrNotFound when
// none has been recorded.
func (s *Service) Progress(ctx context.Context, topicID string) (*studystore.ProgressSnapshot, error) {
	snap, err := s.store.LatestProgress(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("latest progress: %w", err)
	}
	return snap, nil
}
