package catalog

import (
	"context"

	"github.com/studyvault-app/studyvault/internal/repository/studystore"
)

// Store is the catalog persistence the service needs: subjects, topics and
// per-topic progress snapshots derived from resource and chat counts.
type Store interface {
	CreateSubject(ctx context.Context, s *studystore.Subject) error
	ListSubjects(ctx context.Context, userID string) ([]studystore.Subject, error)
	CreateTopic(ctx context.Context, t *studystore.Topic) error
	ListTopics(ctx context.Context, subjectID string) ([]studystore.Topic, error)
	CountResources(ctx context.Context, topicID string) (int, error)
	CountChatMessages(ctx context.Context, topicID string) (int, error)
	SaveProgress(ctx context.Context, snap *studystore.ProgressSnapshot) error
	LatestProgress(ctx context.Context, topicID string) (*studystore.ProgressSnapshot, error)
}
