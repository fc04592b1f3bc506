package sqlite_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veerkamdar007/Shram-Assignment/pkg/storage"
	sqliteStore "github.com/veerkamdar007/Shram-Assignment/pkg/storage/sqlite"
)

func setupSQLiteTest(t *testing.T) (storage.Store, string, func()) {
	testDBPath := filepath.Join(t.TempDir(), "test_memory.db")

	store, err := sqliteStore.NewClient(&sqliteStore.Config{
		DBPath: testDBPath,
	})
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		_ = store.Close()
		_ = os.Remove(testDBPath)
	}

	return store, testDBPath, cleanup
}

func TestSQLiteClient_CreateMemory(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	memory := &storage.Memory{
		UserID:          "test_user",
		Content:         "Prefers dark roast coffee",
		Context:         "From conversation: morning chat",
		Tags:            []string{"preference", "coffee"},
		ImportanceScore: 0.7,
	}

	id, err := store.CreateMemory(ctx, memory)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, memory.ID)
	assert.Equal(t, int64(0), memory.AccessCount)
	assert.Equal(t, memory.CreatedAt, memory.LastAccessed)
}

func TestSQLiteClient_CreateMemory_UniqueIDs(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 10; i++ {
		id, err := store.CreateMemory(ctx, &storage.Memory{
			UserID:  "test_user",
			Content: "Some memory content",
		})
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestSQLiteClient_GetMemories(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "low importance", ImportanceScore: 0.3,
	})
	require.NoError(t, err)
	_, err = store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "high importance", ImportanceScore: 0.9,
	})
	require.NoError(t, err)
	_, err = store.CreateMemory(ctx, &storage.Memory{
		UserID: "other_user", Content: "someone else", ImportanceScore: 1.0,
	})
	require.NoError(t, err)

	memories, err := store.GetMemories(ctx, "test_user", 10)
	require.NoError(t, err)
	require.Len(t, memories, 2)

	// Ordered by importance descending
	assert.Equal(t, "high importance", memories[0].Content)
	assert.Equal(t, "low importance", memories[1].Content)
}

func TestSQLiteClient_GetMemories_RecencyTieBreak(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	first, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "created first", ImportanceScore: 0.5,
	})
	require.NoError(t, err)
	second, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "created second", ImportanceScore: 0.5,
	})
	require.NoError(t, err)

	// Within equal importance, the more recently touched memory wins
	require.NoError(t, store.UpdateMemoryAccess(ctx, first))

	memories, err := store.GetMemories(ctx, "test_user", 10)
	require.NoError(t, err)
	require.Len(t, memories, 2)
	assert.Equal(t, first, memories[0].ID)
	assert.Equal(t, second, memories[1].ID)

	// Reading again without intervening writes keeps the same order
	again, err := store.GetMemories(ctx, "test_user", 10)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, memories[0].ID, again[0].ID)
	assert.Equal(t, memories[1].ID, again[1].ID)
}

func TestSQLiteClient_GetMemories_RoundTrip(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	original := &storage.Memory{
		UserID:          "test_user",
		Content:         "Works at a tech startup",
		Context:         "From conversation: intro",
		Tags:            []string{"job"},
		ImportanceScore: 0.8,
	}
	id, err := store.CreateMemory(ctx, original)
	require.NoError(t, err)

	memories, err := store.GetMemories(ctx, "test_user", 1)
	require.NoError(t, err)
	require.Len(t, memories, 1)

	got := memories[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "test_user", got.UserID)
	assert.Equal(t, "Works at a tech startup", got.Content)
	assert.Equal(t, "From conversation: intro", got.Context)
	assert.Equal(t, []string{"job"}, got.Tags)
	assert.Equal(t, int64(0), got.AccessCount)
	assert.InDelta(t, 0.8, got.ImportanceScore, 1e-9)
}

func TestSQLiteClient_GetMemories_EmptyTags(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "no tags here",
	})
	require.NoError(t, err)

	memories, err := store.GetMemories(ctx, "test_user", 1)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.NotNil(t, memories[0].Tags)
	assert.Empty(t, memories[0].Tags)
}

func TestSQLiteClient_SearchMemories(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "Python for data analysis", ImportanceScore: 0.6,
	})
	require.NoError(t, err)
	_, err = store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "Go for backend services", ImportanceScore: 0.9,
	})
	require.NoError(t, err)

	results, err := store.SearchMemories(ctx, "test_user", "Python", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Python for data analysis", results[0].Content)
}

func TestSQLiteClient_SearchMemories_CaseSensitive(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "Python for data analysis",
	})
	require.NoError(t, err)

	results, err := store.SearchMemories(ctx, "test_user", "python", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteClient_SearchMemories_MatchesContext(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID:  "test_user",
		Content: "VS Code as my editor",
		Context: "Assistant response",
	})
	require.NoError(t, err)

	results, err := store.SearchMemories(ctx, "test_user", "Assistant", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSQLiteClient_SearchMemories_MetacharactersLiteral(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "delivery is 100% guaranteed", ImportanceScore: 0.5,
	})
	require.NoError(t, err)
	_, err = store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "plain content", ImportanceScore: 0.5,
	})
	require.NoError(t, err)

	// % and _ are ordinary characters, not pattern wildcards
	memories, err := store.SearchMemories(ctx, "test_user", "100% guaranteed", 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "delivery is 100% guaranteed", memories[0].Content)

	memories, err = store.SearchMemories(ctx, "test_user", "100_ guaranteed", 10)
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestSQLiteClient_SearchMemories_EmptyQuery(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "anything at all",
	})
	require.NoError(t, err)

	results, err := store.SearchMemories(ctx, "test_user", "", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteClient_UpdateMemoryAccess(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	id, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "accessed memory",
	})
	require.NoError(t, err)

	require.NoError(t, store.UpdateMemoryAccess(ctx, id))
	require.NoError(t, store.UpdateMemoryAccess(ctx, id))

	memories, err := store.GetMemories(ctx, "test_user", 1)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, int64(2), memories[0].AccessCount)
	assert.True(t, memories[0].LastAccessed.After(memories[0].CreatedAt) ||
		memories[0].LastAccessed.Equal(memories[0].CreatedAt))
}

func TestSQLiteClient_UpdateMemoryAccess_MissingID(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	// Missing ids are a no-op, not an error
	assert.NoError(t, store.UpdateMemoryAccess(context.Background(), 424242))
}

func TestSQLiteClient_DeleteMemory(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	id, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "to be deleted",
	})
	require.NoError(t, err)

	deleted, err := store.DeleteMemory(ctx, "test_user", id)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Second delete finds nothing
	deleted, err = store.DeleteMemory(ctx, "test_user", id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSQLiteClient_DeleteMemory_WrongUser(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	id, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "owned by test_user",
	})
	require.NoError(t, err)

	deleted, err := store.DeleteMemory(ctx, "other_user", id)
	require.NoError(t, err)
	assert.False(t, deleted)

	memories, err := store.GetMemories(ctx, "test_user", 10)
	require.NoError(t, err)
	assert.Len(t, memories, 1)
}

func TestSQLiteClient_DeleteUserMemories_Keyword(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "Python for scripts",
	})
	require.NoError(t, err)
	_, err = store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "Go for services",
	})
	require.NoError(t, err)

	count, err := store.DeleteUserMemories(ctx, "test_user", "Python")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	memories, err := store.GetMemories(ctx, "test_user", 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "Go for services", memories[0].Content)
}

func TestSQLiteClient_DeleteUserMemories_All(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.CreateMemory(ctx, &storage.Memory{
			UserID: "test_user", Content: "wipe me",
		})
		require.NoError(t, err)
	}
	_, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "other_user", Content: "keep me",
	})
	require.NoError(t, err)

	count, err := store.DeleteUserMemories(ctx, "test_user", "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	remaining, err := store.GetMemories(ctx, "other_user", 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestSQLiteClient_Conversations(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	data := map[string]interface{}{
		"topic": "productivity tools",
		"turns": float64(4),
	}

	id, err := store.SaveConversation(ctx, "test_user", data)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := store.GetConversation(ctx, "test_user", id)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestSQLiteClient_GetConversation_Missing(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	loaded, err := store.GetConversation(context.Background(), "test_user", "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLiteClient_GetConversation_WrongUser(t *testing.T) {
	store, _, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	id, err := store.SaveConversation(ctx, "test_user", map[string]interface{}{"k": "v"})
	require.NoError(t, err)

	loaded, err := store.GetConversation(ctx, "other_user", id)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLiteClient_CleanupOldMemories(t *testing.T) {
	store, dbPath, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	oldLow, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "old and unimportant", ImportanceScore: 0.3,
	})
	require.NoError(t, err)
	oldHigh, err := store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "old but important", ImportanceScore: 0.9,
	})
	require.NoError(t, err)
	_, err = store.CreateMemory(ctx, &storage.Memory{
		UserID: "test_user", Content: "fresh and unimportant", ImportanceScore: 0.3,
	})
	require.NoError(t, err)

	backdate(t, dbPath, oldLow, time.Now().AddDate(0, 0, -1000))
	backdate(t, dbPath, oldHigh, time.Now().AddDate(0, 0, -1000))

	removed, err := store.CleanupOldMemories(ctx, 365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	memories, err := store.GetMemories(ctx, "test_user", 10)
	require.NoError(t, err)
	require.Len(t, memories, 2)
	for _, mem := range memories {
		assert.NotEqual(t, oldLow, mem.ID)
	}
}

// backdate rewrites a memory's creation time directly in the database file.
func backdate(t *testing.T, dbPath string, id int64, createdAt time.Time) {
	t.Helper()

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec("UPDATE memories SET created_at = ? WHERE id = ?", createdAt, id)
	require.NoError(t, err)
}
