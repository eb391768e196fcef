package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ragchat service.
type Config struct {
	Documents  DocumentsConfig  `yaml:"documents"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	History    HistoryConfig    `yaml:"history"`
	Session    SessionConfig    `yaml:"session"`
	Server     ServerConfig     `yaml:"server"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DocumentsConfig selects the files retrieval runs over.
type DocumentsConfig struct {
	Root     string   `yaml:"root"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

type ChunkingConfig struct {
	Size      int           `yaml:"size"`    // runes per chunk
	Overlap   int           `yaml:"overlap"` // runes shared by neighbours
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type RetrieveConfig struct {
	TopK        int           `yaml:"top_k"`
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama", "jina", "deepseek", "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	CachePath string `yaml:"cache_path"` // bbolt file; empty keeps vectors in memory
}

type CompletionConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "bedrock"
	Model       string  `yaml:"model"`
	ToolModel   string  `yaml:"tool_model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Region      string  `yaml:"region"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type HistoryConfig struct {
	Estimator   string `yaml:"estimator"` // "chars", "words"
	TokenBudget int    `yaml:"token_budget"`
}

type SessionConfig struct {
	Store            string        `yaml:"store"` // "memory", "redis"
	TTL              time.Duration `yaml:"ttl"`
	RedisAddr        string        `yaml:"redis_addr"`
	RedisPasswordEnv string        `yaml:"redis_password_env"`
	KeyPrefix        string        `yaml:"key_prefix"`
	MaxRetries       int           `yaml:"max_retries"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type PromptConfig struct {
	Language string `yaml:"language"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console", "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{
			Root:     "data",
			Includes: []string{"**/*.txt", "**/*.md", "**/*.pdf"},
			Excludes: []string{"**/.git/**", "**/node_modules/**"},
		},
		Chunking: ChunkingConfig{
			Size:      1000,
			Overlap:   100,
			CacheSize: 128,
			CacheTTL:  time.Hour,
		},
		Retrieve: RetrieveConfig{
			TopK:        2,
			BatchSize:   32,
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			CachePath: ".ragchat/embeddings.db",
		},
		Completion: CompletionConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			ToolModel:   "gpt-4",
			APIKeyEnv:   "OPENAI_API_KEY",
			Region:      "us-east-1",
			Temperature: 0.7,
			MaxTokens:   1000,
		},
		History: HistoryConfig{
			Estimator:   "chars",
			TokenBudget: 4000,
		},
		Session: SessionConfig{
			Store:            "memory",
			TTL:              30 * time.Minute,
			RedisAddr:        "localhost:6379",
			RedisPasswordEnv: "REDIS_PASSWORD",
			KeyPrefix:        "ragchat:session:",
			MaxRetries:       3,
		},
		Server: ServerConfig{
			Addr:         ":3000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Prompt: PromptConfig{
			Language: "English",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir looks for ragchat.yaml, then .ragchat/config.yaml.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragchat.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragchat", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides deployment-specific fields from the environment.
func (c *Config) ApplyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("RAGCHAT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Session.RedisAddr = addr
	}
	if level := os.Getenv("RAGCHAT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Chunking.Size <= 0 {
		errs = append(errs, fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size))
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		errs = append(errs, fmt.Errorf("chunking.overlap must be in [0, size), got %d", c.Chunking.Overlap))
	}
	if c.Retrieve.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK))
	}
	if c.Retrieve.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("retrieve.batch_size must be positive, got %d", c.Retrieve.BatchSize))
	}
	if c.Retrieve.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("retrieve.concurrency must be positive, got %d", c.Retrieve.Concurrency))
	}
	if c.History.TokenBudget <= 0 {
		errs = append(errs, fmt.Errorf("history.token_budget must be positive, got %d", c.History.TokenBudget))
	}

	switch c.Embedding.Provider {
	case "openai", "ollama", "jina", "deepseek", "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}
	switch c.Completion.Provider {
	case "openai", "bedrock":
	default:
		errs = append(errs, fmt.Errorf("unknown completion provider %q", c.Completion.Provider))
	}
	switch c.History.Estimator {
	case "", "chars", "words":
	default:
		errs = append(errs, fmt.Errorf("unknown token estimator %q", c.History.Estimator))
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.Session.Store))
	}

	return errors.Join(errs...)
}

// ResolvePath makes a configured path absolute relative to dir.
func ResolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// EnsureParentDir creates the directory holding path.
func EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
