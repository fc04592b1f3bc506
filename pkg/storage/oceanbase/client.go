// Package oceanbase provides the OceanBase implementation of the memory store.
//
// OceanBase speaks the MySQL protocol, so the implementation uses the MySQL
// driver and works against stock MySQL as well.
package oceanbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/veerkamdar007/Shram-Assignment/pkg/storage"
)

// Client implements storage.Store using OceanBase as the backend.
type Client struct {
	db                 *sql.DB
	memoriesTable      string
	conversationsTable string
	node               *snowflake.Node
}

// Config contains OceanBase configuration.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	MemoriesTable      string
	ConversationsTable string
}

// NewClient creates a new OceanBase store.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.MemoriesTable == "" {
		cfg.MemoriesTable = "memories"
	}
	if cfg.ConversationsTable == "" {
		cfg.ConversationsTable = "conversations"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("NewOceanBaseClient: %w", err)
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
			id BIGINT PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			memory_content TEXT NOT NULL,
			context TEXT,
			created_at DATETIME(6) NOT NULL,
			last_accessed DATETIME(6) NOT NULL,
			access_count BIGINT NOT NULL DEFAULT 0,
			tags TEXT,
			importance_score DOUBLE NOT NULL DEFAULT 0.5,
			INDEX idx_user_id (user_id),
			INDEX idx_created (created_at)
		)
	`, c.memoriesTable)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			conversation_data LONGTEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			INDEX idx_user_id (user_id)
		)
	`, c.conversationsTable)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
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

	// LOCATE with a BINARY operand keeps the match case-sensitive and
	// treats % and _ as ordinary characters.
	stmt := fmt.Sprintf(`
		SELECT id, user_id, memory_content, context, created_at, last_accessed,
		       access_count, tags, importance_score
		FROM %s
		WHERE user_id = ?
		  AND (LOCATE(BINARY ?, memory_content) > 0 OR LOCATE(BINARY ?, context) > 0)
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
			WHERE user_id = ?
			  AND (LOCATE(BINARY ?, memory_content) > 0 OR LOCATE(BINARY ?, context) > 0)
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
