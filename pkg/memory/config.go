package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config contains the complete configuration for a memory Manager.
//
// It includes settings for:
//   - Database backend (for memory persistence)
//   - LLM provider (for memory-aware chat, optional)
//   - Retention policy for cleanup
//
// Example:
//
//	config := &memory.Config{
//	    Database: memory.DatabaseConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./memories.db",
//	        },
//	    },
//	    LLM: memory.LLMConfig{
//	        Provider: "openai",
//	        APIKey:   "sk-...",
//	        Model:    "gpt-3.5-turbo",
//	    },
//	}
type Config struct {
	// Database contains storage backend configuration.
	Database DatabaseConfig `json:"database"`

	// LLM contains LLM provider configuration.
	// An empty APIKey means chat runs in memory-only mode.
	LLM LLMConfig `json:"llm"`

	// RetentionDays is the default retention window for CleanupOldMemories.
	// Defaults to 365 when zero.
	RetentionDays int `json:"retention_days,omitempty"`
}

// DatabaseConfig contains configuration for the storage backend.
//
// Supported providers: sqlite, postgres, oceanbase
//
// Example:
//
//	dbConfig := memory.DatabaseConfig{
//	    Provider: "sqlite",
//	    Config: map[string]interface{}{
//	        "db_path": "./memories.db",
//	    },
//	}
type DatabaseConfig struct {
	// Provider is the storage backend name (sqlite, postgres, oceanbase).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path
	// For PostgreSQL: host, port, user, password, db_name, ssl_mode
	// For OceanBase: host, port, user, password, db_name
	Config map[string]interface{} `json:"config"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, anthropic, ollama
type LLMConfig struct {
	// Provider is the LLM provider name (openai, anthropic, ollama).
	Provider string `json:"provider"`

	// APIKey is the API key for the LLM provider.
	// Leave empty to run without an LLM (memory-only mode).
	APIKey string `json:"api_key"`

	// Model is the model name to use (e.g., "gpt-3.5-turbo").
	Model string `json:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, oceanbase)
//   - SQLITE_PATH
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, etc.
//   - OCEANBASE_HOST, OCEANBASE_PORT, OCEANBASE_USER, OCEANBASE_PASSWORD, etc.
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL
//   - MEMORY_RETENTION_DAYS
//
// Returns a Config instance, or an error if loading fails.
//
// Example:
//
//	config, err := memory.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")

	databaseConfig := make(map[string]interface{})

	switch provider {
	case "sqlite":
		databaseConfig = map[string]interface{}{
			"db_path": getEnvOrDefault("SQLITE_PATH", "./memory.db"),
		}
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))

		databaseConfig = map[string]interface{}{
			"host":     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":     port,
			"user":     getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password": os.Getenv("POSTGRES_PASSWORD"),
			"db_name":  getEnvOrDefault("POSTGRES_DATABASE", "memory"),
			"ssl_mode": getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "oceanbase":
		port, _ := strconv.Atoi(getEnvOrDefault("OCEANBASE_PORT", "2881"))

		databaseConfig = map[string]interface{}{
			"host":     getEnvOrDefault("OCEANBASE_HOST", "127.0.0.1"),
			"port":     port,
			"user":     getEnvOrDefault("OCEANBASE_USER", "root@sys"),
			"password": os.Getenv("OCEANBASE_PASSWORD"),
			"db_name":  getEnvOrDefault("OCEANBASE_DATABASE", "memory"),
		}
	}

	// The LLM provider determines which default model and base URL apply
	llmProvider := getEnvOrDefault("LLM_PROVIDER", "openai")
	var llmBaseURL string
	var defaultModel string

	switch llmProvider {
	case "anthropic":
		llmBaseURL = os.Getenv("ANTHROPIC_BASE_URL")
		defaultModel = "claude-3-5-sonnet-latest"
	case "ollama":
		llmBaseURL = os.Getenv("OLLAMA_BASE_URL")
		if llmBaseURL == "" {
			llmBaseURL = "http://localhost:11434"
		}
		defaultModel = "llama3.1:8b"
	default:
		llmBaseURL = os.Getenv("LLM_BASE_URL")
		defaultModel = "gpt-3.5-turbo"
	}

	retentionDays, _ := strconv.Atoi(getEnvOrDefault("MEMORY_RETENTION_DAYS", "365"))

	config := &Config{
		Database: DatabaseConfig{
			Provider: provider,
			Config:   databaseConfig,
		},
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", defaultModel),
			BaseURL:  llmBaseURL,
		},
		RetentionDays: retentionDays,
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// The database provider must be specified; the LLM section is optional
// and an empty API key simply disables chat generation.
//
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.Database.Provider == "" {
		return NewMemoryError("Validate", ErrInvalidConfig)
	}
	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
