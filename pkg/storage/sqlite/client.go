// Package sqlite provides the SQLite implementation of the memory store.
//
// SQLite is a lightweight, file-based database suitable for local development
// and single-process use. Tags are stored as JSON strings in TEXT fields, and
// substring search uses instr() so matching stays case-sensitive regardless
// of the default LIKE collation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/veerkamdar007/Shram-Assignment/pkg/storage"
)

// Client implements storage.Store using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// memoriesTable is the name of the table storing memories.
	memoriesTable string

	// conversationsTable is the name of the table storing conversation snapshots.
	conversationsTable string

	// node generates unique memory IDs.
	node *snowflake.Node
}

// Config contains configuration for creating a SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// MemoriesTable is the memories table name (default: "memories").
	MemoriesTable string

	// ConversationsTable is the conversations table name (default: "conversations").
	ConversationsTable string
}

// NewClient creates a new SQLite store.
//
// Parameters:
//   - cfg: Configuration containing database path and table names
//
// Returns:
//   - *Client: The SQLite store instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	if cfg.MemoriesTable == "" {
		cfg.MemoriesTable = "memories"
	}
	if cfg.ConversationsTable == "" {
		cfg.ConversationsTable = "conversations"
	}

	// Create parent directory if it doesn't exist
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:                 db,
		memoriesTable:      cfg.MemoriesTable,
		conversationsTable: cfg.ConversationsTable,
		node:               node,
	}

	if err := client.initTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			memory_content TEXT NOT NULL,
			context TEXT,
			created_at DATETIME NOT NULL,
			last_accessed DATETIME NOT NULL,
			access_count INTEGER NOT NULL DEFAULT 0,
			tags TEXT,
			importance_score REAL NOT NULL DEFAULT 0.5
		)
	`, c.memoriesTable)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			conversation_data TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`, c.conversationsTable)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_user_id ON %s(user_id)", c.memoriesTable, c.memoriesTable),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_created ON %s(created_at)", c.memoriesTable, c.memoriesTable),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_user_id ON %s(user_id)", c.conversationsTable, c.conversationsTable),
	}
	for _, idx := range indexes {
		if _, err := c.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}

	return nil
}

// CreateMemory inserts a memory, assigning its ID and timestamps.
func (c *Client) CreateMemory(ctx context.Context, memory *storage.Memory) (int64, error) {
	now := time.Now()
	memory.ID = c.node.Generate().Int64()
	memory.CreatedAt = now
	memory.LastAccessed = now
	memory.AccessCount = 0

	tagsJSON, err := encodeTags(memory.Tags)
	if err != nil {
		return 0, fmt.Errorf("CreateMemory: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s
		(id, user_id, memory_content, context, created_at, last_accessed, access_count, tags, importance_score)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, c.memoriesTable)

	_, err = c.db.ExecContext(ctx, query,
		memory.ID,
		memory.UserID,
		memory.Content,
		memory.Context,
		memory.CreatedAt,
		memory.LastAccessed,
		tagsJSON,
		memory.ImportanceScore,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateMemory: %w", err)
	}

	return memory.ID, nil
}

// GetMemories returns up to limit memories for the user, ordered by
// importance score descending, then last access time descending.
func (c *Client) GetMemories(ctx context.Context, userID string, limit int) ([]*storage.Memory, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, memory_content, context, created_at, last_accessed,
		       access_count, tags, importance_score
		FROM %s
		WHERE user_id = ?
		ORDER BY importance_score DESC, last_accessed DESC
		LIMIT ?
	`, c.memoriesTable)

	rows, err := c.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("GetMemories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectMemories(rows)
}

// SearchMemories returns memories whose content or context contains query as
// a case-sensitive substring. An empty query matches nothing.
func (c *Client) SearchMemories(ctx context.Context, userID, query string, limit int) ([]*storage.Memory, error) {
	if query == "" {
		return nil, nil
	}

	// instr() keeps the match case-sensitive; the default LIKE collation
	// folds ASCII case.
	stmt := fmt.Sprintf(`
		SELECT id, user_id, memory_content, context, created_at, last_accessed,
		       access_count, tags, importance_score
		FROM %s
		WHERE user_id = ? AND (instr(memory_content, ?) > 0 OR instr(context, ?) > 0)
		ORDER BY importance_score DESC, last_accessed DESC
		LIMIT ?
	`, c.memoriesTable)

	rows, err := c.db.QueryContext(ctx, stmt, userID, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("SearchMemories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectMemories(rows)
}

// UpdateMemoryAccess bumps the access statistics of a memory.
// Missing ids are ignored.
func (c *Client) UpdateMemoryAccess(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET last_accessed = ?, access_count = access_count + 1
		WHERE id = ?
	`, c.memoriesTable)

	if _, err := c.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("UpdateMemoryAccess: %w", err)
	}
	return nil
}

// DeleteMemory deletes one memory scoped to the user.
func (c *Client) DeleteMemory(ctx context.Context, userID string, id int64) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", c.memoriesTable)

	result, err := c.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("DeleteMemory: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("DeleteMemory: %w", err)
	}
	return affected > 0, nil
}

// DeleteUserMemories deletes the user's memories, optionally filtered by a
// keyword substring on content or context.
func (c *Client) DeleteUserMemories(ctx context.Context, userID, keyword string) (int64, error) {
	var (
		result sql.Result
		err    error
	)

	if keyword != "" {
		query := fmt.Sprintf(`
			DELETE FROM %s
			WHERE user_id = ? AND (instr(memory_content, ?) > 0 OR instr(context, ?) > 0)
		`, c.memoriesTable)
		result, err = c.db.ExecContext(ctx, query, userID, keyword, keyword)
	} else {
		query := fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", c.memoriesTable)
		result, err = c.db.ExecContext(ctx, query, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("DeleteUserMemories: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteUserMemories: %w", err)
	}
	return affected, nil
}

// SaveConversation stores an opaque conversation payload.
func (c *Client) SaveConversation(ctx context.Context, userID string, data map[string]interface{}) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("SaveConversation: %w", err)
	}

	id := uuid.New().String()
	now := time.Now()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, conversation_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, c.conversationsTable)

	if _, err := c.db.ExecContext(ctx, query, id, userID, string(payload), now, now); err != nil {
		return "", fmt.Errorf("SaveConversation: %w", err)
	}
	return id, nil
}

// GetConversation retrieves a conversation payload. Returns (nil, nil) when
// the snapshot does not exist.
func (c *Client) GetConversation(ctx context.Context, userID, conversationID string) (map[string]interface{}, error) {
	query := fmt.Sprintf(`
		SELECT conversation_data FROM %s WHERE id = ? AND user_id = ?
	`, c.conversationsTable)

	var payload string
	err := c.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetConversation: %w", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("GetConversation: %w", err)
	}
	return data, nil
}

// CleanupOldMemories removes low-importance memories older than the
// retention window.
func (c *Client) CleanupOldMemories(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	query := fmt.Sprintf(`
		DELETE FROM %s WHERE created_at < ? AND importance_score < 0.7
	`, c.memoriesTable)

	result, err := c.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("CleanupOldMemories: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("CleanupOldMemories: %w", err)
	}
	return affected, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
