// Package storage provides interfaces and types for memory storage backends.
//
// It defines the Store interface that all storage implementations must satisfy,
// along with the persisted record types. Backends live in subpackages
// (sqlite, postgres, oceanbase), each with its own Config and NewClient.
package storage

import (
	"context"
	"time"
)

// Memory represents a persisted fact about a user.
//
// This type is defined in the storage package so backend subpackages do not
// depend on the orchestration layer. It mirrors the memory.Memory structure.
type Memory struct {
	// ID is the unique identifier of the memory, assigned by the store.
	ID int64

	// UserID identifies the user who owns this memory. All queries are
	// scoped by it; there is no cross-user visibility.
	UserID string

	// Content is the extracted text of the memory.
	Content string

	// Context is a free-text provenance note (e.g. "From conversation: ...").
	Context string

	// CreatedAt is when the memory was created. Set once at insertion.
	CreatedAt time.Time

	// LastAccessed is updated every time the memory is returned by a
	// retrieval query with access tracking. Always >= CreatedAt.
	LastAccessed time.Time

	// AccessCount is incremented on each tracked retrieval. Never decreases.
	AccessCount int64

	// Tags is an ordered list of labels. Empty by default.
	Tags []string

	// ImportanceScore is a relevance score in [0.0, 1.0], fixed at creation.
	ImportanceScore float64
}

// Conversation is an opaque snapshot of a conversation, captured for
// audit/replay. The storage layer does not interpret its Data payload.
type Conversation struct {
	// ID is the unique identifier of the snapshot.
	ID string

	// UserID identifies the user the conversation belongs to.
	UserID string

	// Data is the opaque JSON payload.
	Data map[string]interface{}

	// CreatedAt is when the snapshot was first saved.
	CreatedAt time.Time

	// UpdatedAt is when the snapshot was last written.
	UpdatedAt time.Time
}

// Store defines the interface for memory storage backends.
//
// All storage implementations (SQLite, PostgreSQL, OceanBase) must implement
// this interface. Every operation is a single attempt against the database;
// an unavailable store surfaces as a wrapped error with no retry layer.
type Store interface {
	// CreateMemory inserts a new memory record.
	//
	// The store assigns the ID and sets CreatedAt and LastAccessed to the
	// current time and AccessCount to zero, mutating the passed record.
	//
	// Returns the assigned ID and any error.
	CreateMemory(ctx context.Context, memory *Memory) (int64, error)

	// GetMemories returns up to limit memories for the user, ordered by
	// importance score descending, then last access time descending.
	// It does not touch access statistics.
	GetMemories(ctx context.Context, userID string, limit int) ([]*Memory, error)

	// SearchMemories returns memories whose content or context contains
	// query as a case-sensitive substring, with the same ordering and
	// limit semantics as GetMemories. An empty query matches nothing.
	SearchMemories(ctx context.Context, userID, query string, limit int) ([]*Memory, error)

	// UpdateMemoryAccess sets the memory's last access time to now and
	// increments its access count. Silently does nothing when the id
	// does not exist.
	UpdateMemoryAccess(ctx context.Context, id int64) error

	// DeleteMemory deletes one memory scoped to the user. The bool reports
	// whether a row was actually removed.
	DeleteMemory(ctx context.Context, userID string, id int64) (bool, error)

	// DeleteUserMemories deletes all memories for the user. A non-empty
	// keyword restricts deletion to records whose content or context
	// contains it as a substring. Returns the number of rows removed.
	DeleteUserMemories(ctx context.Context, userID, keyword string) (int64, error)

	// SaveConversation stores an opaque conversation payload and returns
	// the assigned snapshot ID.
	SaveConversation(ctx context.Context, userID string, data map[string]interface{}) (string, error)

	// GetConversation retrieves a conversation payload by ID, scoped to the
	// user. Returns (nil, nil) when the snapshot does not exist.
	GetConversation(ctx context.Context, userID, conversationID string) (map[string]interface{}, error)

	// CleanupOldMemories deletes memories created more than retentionDays
	// ago whose importance score is below 0.7. High-importance memories
	// are never swept regardless of age. Returns the number removed.
	CleanupOldMemories(ctx context.Context, retentionDays int) (int64, error)

	// Close closes the store and releases resources.
	Close() error
}
