package memory

import "github.com/veerkamdar007/Shram-Assignment/pkg/storage"

// fromStorageMemory converts a storage record to the public Memory type.
func fromStorageMemory(m *storage.Memory) *Memory {
	if m == nil {
		return nil
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Memory{
		ID:              m.ID,
		UserID:          m.UserID,
		Content:         m.Content,
		Context:         m.Context,
		CreatedAt:       m.CreatedAt,
		LastAccessed:    m.LastAccessed,
		AccessCount:     m.AccessCount,
		Tags:            tags,
		ImportanceScore: m.ImportanceScore,
	}
}

// fromStorageMemories converts a slice of storage records.
// Always returns a non-nil slice.
func fromStorageMemories(records []*storage.Memory) []*Memory {
	memories := make([]*Memory, 0, len(records))
	for _, m := range records {
		memories = append(memories, fromStorageMemory(m))
	}
	return memories
}
