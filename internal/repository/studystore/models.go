// Package studystore persists the study catalog: subjects, topics, resources,
// chat history and progress snapshots.
package studystore

import (
	"time"

	"github.com/uptrace/bun"
)

// Subject groups topics, e.g. "Operating Systems".
type Subject struct {
	bun.BaseModel `bun:"table:subjects,alias:s"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Topic is a unit of study inside a subject. Resources and chats hang off it.
type Topic struct {
	bun.BaseModel `bun:"table:topics,alias:t"`

	ID        string    `bun:"id,pk" json:"id"`
	SubjectID string    `bun:"subject_id,notnull" json:"subject_id"`
	Name      string    `bun:"name,notnull" json:"name"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Resource is an uploaded study material. Its chunks live in the vector
// store; deleting a resource deletes them too.
type Resource struct {
	bun.BaseModel `bun:"table:resources,alias:r"`

	ID         string    `bun:"id,pk" json:"id"`
	TopicID    string    `bun:"topic_id,notnull" json:"topic_id"`
	Title      string    `bun:"title,notnull" json:"title"`
	SourceType string    `bun:"source_type,notnull" json:"source_type"`
	Filename   string    `bun:"filename" json:"filename"`
	ChunkCount int       `bun:"chunk_count" json:"chunk_count"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Chat message roles. Each exchange is stored as two rows: the student's
// question and the generated reply.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one side of a persisted exchange. Role selects which of
// Message (user) or Response (assistant) carries the content.
type ChatMessage struct {
	bun.BaseModel `bun:"table:chat_messages,alias:cm"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	TopicID   string    `bun:"topic_id,notnull" json:"topic_id"`
	Message   string    `bun:"message" json:"message,omitempty"`
	Response  string    `bun:"response" json:"response,omitempty"`
	Role      string    `bun:"role,notnull" json:"role"`
	ChatType  string    `bun:"chat_type,notnull" json:"chat_type"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ProgressSnapshot records per-topic study progress at a point in time.
type ProgressSnapshot struct {
	bun.BaseModel `bun:"table:progress_snapshots,alias:ps"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        string    `bun:"user_id,notnull" json:"user_id"`
	TopicID       string    `bun:"topic_id,notnull" json:"topic_id"`
	ResourcesRead int       `bun:"resources_read" json:"resources_read"`
	ChatsAsked    int       `bun:"chats_asked" json:"chats_asked"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
