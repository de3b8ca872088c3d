package studystore

import (
	"context"
	"sync"

	"github.com/studyvault-app/studyvault/internal/domain"
)

// Memory is a map-backed catalog for single-instance deployments that run
// without Postgres. Mirrors the Repository surface the usecases touch.
type Memory struct {
	mu        sync.RWMutex
	subjects  []Subject
	topics    []Topic
	resources map[string]Resource
	messages  []ChatMessage
	progress  []ProgressSnapshot
	nextID    int64
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{resources: make(map[string]Resource)}
}

// CreateSubject records a new subject.
func (m *Memory) CreateSubject(_ context.Context, s *Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subjects = append(m.subjects, *s)
	return nil
}

// ListSubjects returns a user's subjects in insertion order.
func (m *Memory) ListSubjects(_ context.Context, userID string) ([]Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Subject
	for _, s := range m.subjects {
		if userID == "" || s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// CreateTopic records a new topic under a subject.
func (m *Memory) CreateTopic(_ context.Context, t *Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.topics = append(m.topics, *t)
	return nil
}

// ListTopics returns a subject's topics in insertion order.
func (m *Memory) ListTopics(_ context.Context, subjectID string) ([]Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Topic
	for _, t := range m.topics {
		if t.SubjectID == subjectID {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateResource records an uploaded study material.
func (m *Memory) CreateResource(_ context.Context, res *Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resources[res.ID] = *res
	return nil
}

// GetResource returns a resource by id or domain.ErrNotFound.
func (m *Memory) GetResource(_ context.Context, id string) (*Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res, ok := m.resources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &res, nil
}

// DeleteResource removes the catalog record.
func (m *Memory) DeleteResource(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.resources[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.resources, id)
	return nil
}

// SaveChatMessage persists one side of an exchange.
func (m *Memory) SaveChatMessage(_ context.Context, msg *ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	msg.ID = m.nextID
	m.messages = append(m.messages, *msg)
	return nil
}

// ListChatMessages returns a topic's chat history, oldest first.
func (m *Memory) ListChatMessages(_ context.Context, topicID string, limit int) ([]ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ChatMessage
	for _, msg := range m.messages {
		if msg.TopicID == topicID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountResources returns how many resources a topic has.
func (m *Memory) CountResources(_ context.Context, topicID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, res := range m.resources {
		if res.TopicID == topicID {
			n++
		}
	}
	return n, nil
}

// CountChatMessages returns how many questions were asked in a topic.
func (m *Memory) CountChatMessages(_ context.Context, topicID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, msg := range m.messages {
		if msg.TopicID == topicID && msg.Role == RoleUser {
			n++
		}
	}
	return n, nil
}

// SaveProgress records a progress snapshot.
func (m *Memory) SaveProgress(_ context.Context, snap *ProgressSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	snap.ID = m.nextID
	m.progress = append(m.progress, *snap)
	return nil
}

// LatestProgress returns a topic's newest snapshot or domain.ErrNotFound.
func (m *Memory) LatestProgress(_ context.Context, topicID string) (*ProgressSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.progress) - 1; i >= 0; i-- {
		if m.progress[i].TopicID == topicID {
			snap := m.progress[i]
			return &snap, nil
		}
	}
	return nil, domain.ErrNotFound
}
