package memory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/veerkamdar007/Shram-Assignment/pkg/intelligence"
	"github.com/veerkamdar007/Shram-Assignment/pkg/llm"
	anthropicLLM "github.com/veerkamdar007/Shram-Assignment/pkg/llm/anthropic"
	ollamaLLM "github.com/veerkamdar007/Shram-Assignment/pkg/llm/ollama"
	openaiLLM "github.com/veerkamdar007/Shram-Assignment/pkg/llm/openai"
	"github.com/veerkamdar007/Shram-Assignment/pkg/storage"
	oceanbaseStore "github.com/veerkamdar007/Shram-Assignment/pkg/storage/oceanbase"
	postgresStore "github.com/veerkamdar007/Shram-Assignment/pkg/storage/postgres"
	sqliteStore "github.com/veerkamdar007/Shram-Assignment/pkg/storage/sqlite"
)

// chatSystemPrompt is the base system message for memory-aware chat.
const chatSystemPrompt = "You are a helpful assistant with access to user memories."

// statsScanLimit bounds how many memories GetUserMemoryStats examines.
const statsScanLimit = 1000

// Manager is the main entry point for conversational memory.
//
// It ties together fact extraction, importance scoring, persistence and
// memory-aware chat. A Manager without an LLM provider still supports all
// memory operations; only chat generation degrades to a fallback message.
//
// Example:
//
//	config, _ := memory.LoadConfigFromEnv()
//	manager, err := memory.NewManager(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Close()
//
//	result, err := manager.ChatWithMemory(ctx, "alice", "I use Go for backend work")
type Manager struct {
	config    *Config
	store     storage.Store
	llm       llm.Provider
	extractor *intelligence.Extractor
	scorer    *intelligence.ImportanceScorer
}

// NewManager creates a new memory Manager from the given configuration.
//
// The storage backend is selected by cfg.Database.Provider. An LLM provider
// is constructed only when cfg.LLM.APIKey is set; otherwise the Manager runs
// in memory-only mode. WithStore and WithProvider override the corresponding
// configuration sections.
//
// Returns the Manager, or an error if the configuration is invalid or the
// storage backend cannot be initialized.
func NewManager(cfg *Config, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, NewMemoryError("NewManager", ErrInvalidConfig)
	}

	m := &Manager{
		config:    cfg,
		extractor: intelligence.NewExtractor(),
		scorer:    intelligence.NewImportanceScorer(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		store, err := initStore(cfg.Database)
		if err != nil {
			return nil, err
		}
		m.store = store
	}

	// No API key means no provider; chat degrades gracefully
	if m.llm == nil && cfg.LLM.APIKey != "" {
		provider, err := initProvider(cfg.LLM)
		if err != nil {
			_ = m.store.Close()
			return nil, err
		}
		m.llm = provider
	}

	return m, nil
}

// CreateMemory stores a new memory with automatic importance scoring.
//
// Parameters:
//   - ctx: Context for controlling the request lifecycle
//   - userID: Owner of the memory
//   - content: The memory text
//   - opts: Optional context and tags (WithContext, WithTags)
//
// Returns the new memory's ID, or an error if the input is invalid or the
// storage operation fails.
func (m *Manager) CreateMemory(ctx context.Context, userID, content string, opts ...CreateOption) (int64, error) {
	if userID == "" || strings.TrimSpace(content) == "" {
		return 0, NewMemoryError("CreateMemory", ErrInvalidInput)
	}

	options := applyCreateOptions(opts)

	record := &storage.Memory{
		UserID:          userID,
		Content:         content,
		Context:         options.context,
		Tags:            options.tags,
		ImportanceScore: m.scorer.Score(content, options.context),
	}

	id, err := m.store.CreateMemory(ctx, record)
	if err != nil {
		return 0, NewMemoryError("CreateMemory", err)
	}

	return id, nil
}

// ProcessUserInput extracts candidate memories from text and stores each one.
//
// Extracted facts are stored with the context "From conversation: <context>"
// and scored individually. Returns the IDs of the created memories in
// extraction order; the slice is empty when nothing matched.
func (m *Manager) ProcessUserInput(ctx context.Context, userID, text, context string) ([]int64, error) {
	facts := m.extractor.Extract(text)

	ids := make([]int64, 0, len(facts))
	for _, fact := range facts {
		id, err := m.CreateMemory(ctx, userID, fact,
			WithContext(fmt.Sprintf("From conversation: %s", context)))
		if err != nil {
			return ids, NewMemoryError("ProcessUserInput", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// GetRelevantMemories retrieves memories for use as conversation context.
//
// With WithQuery it searches content and context for the query as a
// case-sensitive substring; without it, the user's top memories are listed.
// Results are ordered by importance, then recency of access.
//
// Retrieval is a read with a side effect: every returned memory has its
// access count incremented and last-accessed timestamp refreshed.
func (m *Manager) GetRelevantMemories(ctx context.Context, userID string, opts ...RetrieveOption) ([]*Memory, error) {
	options := applyRetrieveOptions(opts)

	var (
		records []*storage.Memory
		err     error
	)
	if options.query != "" {
		records, err = m.store.SearchMemories(ctx, userID, options.query, options.limit)
	} else {
		records, err = m.store.GetMemories(ctx, userID, options.limit)
	}
	if err != nil {
		return nil, NewMemoryError("GetRelevantMemories", err)
	}

	memories := fromStorageMemories(records)
	now := time.Now()
	for _, mem := range memories {
		if err := m.store.UpdateMemoryAccess(ctx, mem.ID); err != nil {
			return nil, NewMemoryError("GetRelevantMemories", err)
		}
		// Keep the returned copies consistent with the recorded access
		mem.AccessCount++
		mem.LastAccessed = now
	}

	return memories, nil
}

// FormatMemoriesForContext renders memories as a prompt block.
//
// Returns an empty string for an empty slice; otherwise a header line
// followed by one bullet per memory and an indented tag line when the
// memory carries tags.
func (m *Manager) FormatMemoriesForContext(memories []*Memory) string {
	if len(memories) == 0 {
		return ""
	}

	parts := []string{"Here's what I remember about you:"}
	for _, mem := range memories {
		parts = append(parts, fmt.Sprintf("- %s", mem.Content))
		if len(mem.Tags) > 0 {
			parts = append(parts, fmt.Sprintf("  (Tags: %s)", strings.Join(mem.Tags, ", ")))
		}
	}

	return strings.Join(parts, "\n")
}

// ChatWithMemory runs one memory-aware chat turn.
//
// The user message is first mined for new memories, then up to five relevant
// memories are retrieved (bumping their access counts) and folded into the
// system prompt. WithHistory supplies prior turns.
//
// Provider states:
//   - no provider configured: a fallback message reporting the memories
//     created from the user message is returned, with a nil error
//   - provider call fails: the result carries a descriptive error message
//     and the user-side memory IDs, with a nil error
//   - success: the reply is also mined for memories ("Assistant response"
//     context) and both ID sets are returned
//
// Storage failures return a real error.
func (m *Manager) ChatWithMemory(ctx context.Context, userID, message string, opts ...ChatOption) (*ChatResult, error) {
	options := applyChatOptions(opts)

	newMemoryIDs, err := m.ProcessUserInput(ctx, userID, message, message)
	if err != nil {
		return nil, NewMemoryError("ChatWithMemory", err)
	}

	relevant, err := m.GetRelevantMemories(ctx, userID, WithQuery(message), WithLimit(5))
	if err != nil {
		return nil, NewMemoryError("ChatWithMemory", err)
	}
	memoryContext := m.FormatMemoriesForContext(relevant)

	if m.llm == nil {
		return &ChatResult{
			Response: fmt.Sprintf("LLM API key not configured. Please add your API key to the .env file. "+
				"However, I created %d memories from your message: '%s'", len(newMemoryIDs), message),
			MemoryIDs: newMemoryIDs,
		}, nil
	}

	systemMessage := chatSystemPrompt
	if memoryContext != "" {
		systemMessage += "\n\n" + memoryContext
	}

	messages := make([]llm.Message, 0, len(options.history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemMessage})
	messages = append(messages, options.history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	response, err := m.llm.GenerateWithMessages(ctx, messages,
		llm.WithMaxTokens(500),
		llm.WithTemperature(0.7),
	)
	if err != nil {
		return &ChatResult{
			Response: fmt.Sprintf("Error communicating with LLM provider: %v. "+
				"Please check your API key and internet connection.", err),
			MemoryIDs: newMemoryIDs,
		}, nil
	}

	assistantMemoryIDs, err := m.ProcessUserInput(ctx, userID, response, "Assistant response")
	if err != nil {
		return nil, NewMemoryError("ChatWithMemory", err)
	}

	return &ChatResult{
		Response:  response,
		MemoryIDs: append(newMemoryIDs, assistantMemoryIDs...),
	}, nil
}

// DeleteMemory deletes a single memory owned by the user.
//
// Returns true if a memory was deleted, false if no matching memory exists.
func (m *Manager) DeleteMemory(ctx context.Context, userID string, id int64) (bool, error) {
	deleted, err := m.store.DeleteMemory(ctx, userID, id)
	if err != nil {
		return false, NewMemoryError("DeleteMemory", err)
	}
	return deleted, nil
}

// DeleteMemoriesByKeyword deletes the user's memories whose content or
// context contains the keyword. Returns the number of memories deleted.
func (m *Manager) DeleteMemoriesByKeyword(ctx context.Context, userID, keyword string) (int64, error) {
	if keyword == "" {
		return 0, NewMemoryError("DeleteMemoriesByKeyword", ErrInvalidInput)
	}
	count, err := m.store.DeleteUserMemories(ctx, userID, keyword)
	if err != nil {
		return 0, NewMemoryError("DeleteMemoriesByKeyword", err)
	}
	return count, nil
}

// ClearUserMemories deletes all memories for the user.
// Returns the number of memories deleted.
func (m *Manager) ClearUserMemories(ctx context.Context, userID string) (int64, error) {
	count, err := m.store.DeleteUserMemories(ctx, userID, "")
	if err != nil {
		return 0, NewMemoryError("ClearUserMemories", err)
	}
	return count, nil
}

// GetUserMemoryStats summarizes the user's memories.
//
// Up to 1000 memories are examined in storage order. The average importance
// is rounded to two decimals; MostAccessed is the first memory holding the
// maximum access count in that order. Returns zero-value stats when the user
// has no memories.
func (m *Manager) GetUserMemoryStats(ctx context.Context, userID string) (*MemoryStats, error) {
	records, err := m.store.GetMemories(ctx, userID, statsScanLimit)
	if err != nil {
		return nil, NewMemoryError("GetUserMemoryStats", err)
	}

	if len(records) == 0 {
		return &MemoryStats{}, nil
	}

	memories := fromStorageMemories(records)

	var totalImportance float64
	mostAccessed := memories[0]
	weekAgo := time.Now().AddDate(0, 0, -7)
	recent := 0

	for _, mem := range memories {
		totalImportance += mem.ImportanceScore
		if mem.AccessCount > mostAccessed.AccessCount {
			mostAccessed = mem
		}
		if mem.CreatedAt.After(weekAgo) {
			recent++
		}
	}

	avg := totalImportance / float64(len(memories))

	return &MemoryStats{
		TotalMemories:  len(memories),
		AvgImportance:  math.Round(avg*100) / 100,
		MostAccessed:   mostAccessed,
		RecentMemories: recent,
	}, nil
}

// SaveConversation persists a conversation snapshot for the user.
// Returns the generated conversation ID.
func (m *Manager) SaveConversation(ctx context.Context, userID string, data map[string]interface{}) (string, error) {
	id, err := m.store.SaveConversation(ctx, userID, data)
	if err != nil {
		return "", NewMemoryError("SaveConversation", err)
	}
	return id, nil
}

// GetConversation loads a conversation snapshot.
// Returns (nil, nil) when no snapshot matches.
func (m *Manager) GetConversation(ctx context.Context, userID, conversationID string) (map[string]interface{}, error) {
	data, err := m.store.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, NewMemoryError("GetConversation", err)
	}
	return data, nil
}

// CleanupOldMemories removes memories older than the retention window whose
// importance score is below 0.7. When days is zero or negative, the
// configured retention (default 365 days) applies. Returns the number of
// memories removed.
func (m *Manager) CleanupOldMemories(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = m.config.RetentionDays
	}
	if days <= 0 {
		days = 365
	}

	count, err := m.store.CleanupOldMemories(ctx, days)
	if err != nil {
		return 0, NewMemoryError("CleanupOldMemories", err)
	}
	return count, nil
}

// Close releases the storage backend and LLM provider.
func (m *Manager) Close() error {
	var errs []error

	if m.store != nil {
		if err := m.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.llm != nil {
		if err := m.llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0] // Return the first error
	}

	return nil
}

// initStore initializes the storage backend.
func initStore(cfg DatabaseConfig) (storage.Store, error) {
	switch cfg.Provider {
	case "sqlite":
		dbPath, _ := cfg.Config["db_path"].(string)
		if dbPath == "" {
			dbPath = "./memory.db"
		}
		return sqliteStore.NewClient(&sqliteStore.Config{
			DBPath: dbPath,
		})
	case "postgres":
		sslMode := "disable"
		if s, ok := cfg.Config["ssl_mode"].(string); ok && s != "" {
			sslMode = s
		}
		return postgresStore.NewClient(&postgresStore.Config{
			Host:     configString(cfg.Config, "host"),
			Port:     configInt(cfg.Config, "port"),
			User:     configString(cfg.Config, "user"),
			Password: configString(cfg.Config, "password"),
			DBName:   configString(cfg.Config, "db_name"),
			SSLMode:  sslMode,
		})
	case "oceanbase":
		return oceanbaseStore.NewClient(&oceanbaseStore.Config{
			Host:     configString(cfg.Config, "host"),
			Port:     configInt(cfg.Config, "port"),
			User:     configString(cfg.Config, "user"),
			Password: configString(cfg.Config, "password"),
			DBName:   configString(cfg.Config, "db_name"),
		})
	default:
		return nil, NewMemoryError("initStore", ErrInvalidConfig)
	}
}

// initProvider initializes the LLM provider.
func initProvider(cfg LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai", "":
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "anthropic":
		return anthropicLLM.NewClient(&anthropicLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		return ollamaLLM.NewClient(&ollamaLLM.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewMemoryError("initProvider", ErrInvalidConfig)
	}
}

// configString reads a string value from a provider config map.
func configString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// configInt reads an int value from a provider config map.
// JSON-decoded configs carry numbers as float64.
func configInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
