package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/veerkamdar007/Shram-Assignment/pkg/storage"
)

// encodeTags serializes tags as a JSON array. Nil tags encode as "[]".
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// collectMemories scans all rows into memory records.
func collectMemories(rows *sql.Rows) ([]*storage.Memory, error) {
	var memories []*storage.Memory
	for rows.Next() {
		memory, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, memory)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return memories, nil
}

// scanMemory scans a memory from a database row.
func scanMemory(rows *sql.Rows) (*storage.Memory, error) {
	var memory storage.Memory
	var contextStr sql.NullString
	var tagsStr sql.NullString

	err := rows.Scan(
		&memory.ID,
		&memory.UserID,
		&memory.Content,
		&contextStr,
		&memory.CreatedAt,
		&memory.LastAccessed,
		&memory.AccessCount,
		&tagsStr,
		&memory.ImportanceScore,
	)
	if err != nil {
		return nil, fmt.Errorf("scan memory: %w", err)
	}

	if contextStr.Valid {
		memory.Context = contextStr.String
	}

	memory.Tags = []string{}
	if tagsStr.Valid && tagsStr.String != "" {
		if err := json.Unmarshal([]byte(tagsStr.String), &memory.Tags); err != nil {
			return nil, fmt.Errorf("parse tags: %w", err)
		}
	}

	return &memory, nil
}
