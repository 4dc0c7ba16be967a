package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the fact-checking system.
// Every component receives its section at construction; there is no
// package-level mutable state.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Lexical   LexicalConfig   `mapstructure:"lexical"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig describes the OpenAI-compatible provider used for both
// generation and embeddings.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// IngestConfig controls normalization and segmentation.
type IngestConfig struct {
	ChunkSize     int           `mapstructure:"chunk_size"`
	ChunkOverlap  int           `mapstructure:"chunk_overlap"`
	Separators    []string      `mapstructure:"separators"`
	MinLineLength int           `mapstructure:"min_line_length"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxFetchChars int           `mapstructure:"max_fetch_chars"`
	UserAgent     string        `mapstructure:"user_agent"`
}

// Validate checks segmentation parameters.
func (c IngestConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be > 0")
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("ingest.chunk_overlap cannot be negative")
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	return nil
}

// EmbeddingConfig pins the embedding model for a collection.
type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	BatchSize  int    `mapstructure:"batch_size"`
}

func (c EmbeddingConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be > 0")
	}
	return nil
}

// RetrievalConfig controls query-time grounding.
type RetrievalConfig struct {
	TopK            int     `mapstructure:"top_k"`
	MaxContextChars int     `mapstructure:"max_context_chars"`
	MaxAnswerTokens int     `mapstructure:"max_answer_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
}

// StorageConfig contains Postgres and Redis settings.
type StorageConfig struct {
	Postgres   PostgresConfig `mapstructure:"postgres"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Collection string         `mapstructure:"collection"`
}

// PostgresConfig contains the pgvector-enabled database settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles the connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (storage.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains the ingestion-lock settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// LexicalConfig controls the bleve keyword index used as a fallback
// when the embedding service is unreachable.
type LexicalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

// LoadConfig reads configuration from the given path (or the default
// search locations) with CLIMAFACT_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "60s")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.max_tokens", 300)
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("ingest.chunk_size", 1000)
	viper.SetDefault("ingest.chunk_overlap", 150)
	viper.SetDefault("ingest.separators", []string{"\n\n", "\n", ". ", ", ", " ", ""})
	viper.SetDefault("ingest.min_line_length", 25)
	viper.SetDefault("ingest.fetch_timeout", "30s")
	viper.SetDefault("ingest.max_fetch_chars", 200000)
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dimensions", 1536)
	viper.SetDefault("embedding.batch_size", 32)
	viper.SetDefault("retrieval.top_k", 3)
	viper.SetDefault("retrieval.max_context_chars", 6000)
	viper.SetDefault("retrieval.max_answer_tokens", 300)
	viper.SetDefault("retrieval.temperature", 0.0)
	viper.SetDefault("storage.collection", "climate_facts_chunks")
	viper.SetDefault("storage.redis.lock_ttl", "30m")
	viper.SetDefault("lexical.enabled", false)
	viper.SetDefault("lexical.path", "lexical.bleve")
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.metrics_port", 0)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("CLIMAFACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus env must be enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Ingest.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Embedding.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
