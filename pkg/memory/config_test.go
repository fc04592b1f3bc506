package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veerkamdar007/Shram-Assignment/pkg/memory"
)

func TestConfig_Validate(t *testing.T) {
	valid := &memory.Config{
		Database: memory.DatabaseConfig{Provider: "sqlite"},
	}
	assert.NoError(t, valid.Validate())

	invalid := &memory.Config{}
	assert.ErrorIs(t, invalid.Validate(), memory.ErrInvalidConfig)
}

func TestLoadConfigFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"database": {
			"provider": "postgres",
			"config": {"host": "db.internal", "port": 5432, "db_name": "memory"}
		},
		"llm": {
			"provider": "anthropic",
			"api_key": "test-key",
			"model": "claude-3-5-sonnet-latest"
		},
		"retention_days": 30
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := memory.LoadConfigFromJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", config.Database.Provider)
	assert.Equal(t, "db.internal", config.Database.Config["host"])
	assert.Equal(t, "anthropic", config.LLM.Provider)
	assert.Equal(t, "test-key", config.LLM.APIKey)
	assert.Equal(t, 30, config.RetentionDays)
}

func TestLoadConfigFromJSON_Missing(t *testing.T) {
	_, err := memory.LoadConfigFromJSON("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_PROVIDER", "sqlite")
	t.Setenv("SQLITE_PATH", "./test.db")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("MEMORY_RETENTION_DAYS", "")

	config, err := memory.LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", config.Database.Provider)
	assert.Equal(t, "./test.db", config.Database.Config["db_path"])
	assert.Equal(t, "gpt-3.5-turbo", config.LLM.Model)
	assert.Equal(t, 365, config.RetentionDays)
}
