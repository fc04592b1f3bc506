package memory

import "time"

// Memory represents a single stored memory record.
//
// A memory is a short fact extracted from conversation (or created
// directly), scored for importance and tracked for access recency.
type Memory struct {
	// ID is the unique identifier of the memory.
	ID int64 `json:"id"`

	// UserID identifies the user who owns the memory.
	UserID string `json:"user_id"`

	// Content is the memory text itself.
	Content string `json:"content"`

	// Context describes where the memory came from.
	Context string `json:"context,omitempty"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessed is the timestamp of the most recent retrieval.
	LastAccessed time.Time `json:"last_accessed"`

	// AccessCount is the number of times the memory has been retrieved.
	AccessCount int64 `json:"access_count"`

	// Tags are free-form labels attached to the memory.
	Tags []string `json:"tags"`

	// ImportanceScore is the importance of the memory in [0.0, 1.0].
	ImportanceScore float64 `json:"importance_score"`
}

// MemoryStats summarizes a user's stored memories.
type MemoryStats struct {
	// TotalMemories is the number of memories examined.
	TotalMemories int `json:"total_memories"`

	// AvgImportance is the average importance score, rounded to two decimals.
	AvgImportance float64 `json:"avg_importance"`

	// MostAccessed is the memory with the highest access count, if any.
	MostAccessed *Memory `json:"most_accessed,omitempty"`

	// RecentMemories is the number of memories created in the last 7 days.
	RecentMemories int `json:"recent_memories"`
}

// ChatResult is the outcome of a memory-aware chat turn.
type ChatResult struct {
	// Response is the assistant's reply (or a fallback message when no
	// LLM provider is configured).
	Response string `json:"response"`

	// MemoryIDs lists the memories created while processing the turn,
	// from both the user message and the assistant reply.
	MemoryIDs []int64 `json:"memory_ids"`
}
