package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the studyvault API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Redis       RedisConfig       `yaml:"redis"`
	LLM         LLMConfig         `yaml:"llm"`
	Ingest      ChunkingConfig    `yaml:"ingest"`
	Notes       NotesConfig       `yaml:"notes"`
	Search      SearchConfig      `yaml:"search"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	JobStore    JobStoreConfig    `yaml:"job_store"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// PostgresConfig holds the study store connection settings.
type PostgresConfig struct {
	DSN              string `yaml:"dsn"`
	Debug            bool   `yaml:"debug"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// RedisConfig holds connection settings for the redis-backed job store.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// LLMConfig holds settings for the hosted embedding/generation provider.
type LLMConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	ChatModel           string `yaml:"chat_model"`
	EmbeddingModel      string `yaml:"embedding_model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	RequestTimeoutSec   int    `yaml:"request_timeout_sec"`
}

// ChunkingConfig holds chunker parameters. Ingest and notes chunking are
// configured independently; they feed different consumers.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// NotesConfig holds notes pipeline settings.
type NotesConfig struct {
	Chunking  ChunkingConfig `yaml:"chunking"`
	Workers   int            `yaml:"workers"`
	QueueSize int            `yaml:"queue_size"`
	ResultDir string         `yaml:"result_dir"`
}

// SearchConfig holds similarity search defaults.
type SearchConfig struct {
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
}

// VectorStoreConfig selects the vector store backend.
type VectorStoreConfig struct {
	Driver     string `yaml:"driver"` // memory, chromem, postgres (default: memory)
	ChromemDir string `yaml:"chromem_dir"`
}

// JobStoreConfig selects the job store backend.
type JobStoreConfig struct {
	Driver string `yaml:"driver"` // memory, redis (default: memory)
	TTLSec int    `yaml:"ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Postgres.ReadinessTimeout <= 0 {
		c.Postgres.ReadinessTimeout = 10
	}
	if c.LLM.RequestTimeoutSec <= 0 {
		c.LLM.RequestTimeoutSec = 60
	}
	if c.Ingest.ChunkSize <= 0 {
		c.Ingest.ChunkSize = 2000
		if c.Ingest.ChunkOverlap <= 0 {
			c.Ingest.ChunkOverlap = 200
		}
	}
	if c.Notes.Chunking.ChunkSize <= 0 {
		c.Notes.Chunking.ChunkSize = 30000
	}
	if c.Notes.Workers <= 0 {
		c.Notes.Workers = 4
	}
	if c.Notes.QueueSize <= 0 {
		c.Notes.QueueSize = 64
	}
	if c.Notes.ResultDir == "" {
		c.Notes.ResultDir = "data/notes"
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 5
	}
	if c.Search.Threshold <= 0 {
		c.Search.Threshold = 0.7
	}
	if c.VectorStore.Driver == "" {
		c.VectorStore.Driver = "memory"
	}
	if c.VectorStore.ChromemDir == "" {
		c.VectorStore.ChromemDir = "data/chromem"
	}
	if c.JobStore.Driver == "" {
		c.JobStore.Driver = "memory"
	}
	if c.JobStore.TTLSec <= 0 {
		c.JobStore.TTLSec = 86400
	}
}

// Validate checks the configuration for correctness. Chunk overlap must be
// strictly less than chunk size: an overlap >= size would stall the window
// advance, so it is rejected here instead of being papered over at runtime.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := validateChunking("ingest", c.Ingest); err != nil {
		return err
	}
	if err := validateChunking("notes.chunking", c.Notes.Chunking); err != nil {
		return err
	}
	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be within [0, 1], got %g", c.Search.Threshold)
	}
	switch c.VectorStore.Driver {
	case "memory", "chromem", "postgres":
	default:
		return fmt.Errorf("vector_store.driver must be \"memory\", \"chromem\" or \"postgres\", got %q",
			c.VectorStore.Driver)
	}
	switch c.JobStore.Driver {
	case "memory":
	case "redis":
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("redis.addrs is required when job_store.driver is \"redis\"")
		}
	default:
		return fmt.Errorf("job_store.driver must be \"memory\" or \"redis\", got %q", c.JobStore.Driver)
	}
	if c.VectorStore.Driver == "postgres" && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required when vector_store.driver is \"postgres\"")
	}
	return nil
}

func validateChunking(section string, cc ChunkingConfig) error {
	if cc.ChunkOverlap < 0 {
		return fmt.Errorf("%s.chunk_overlap must not be negative, got %d", section, cc.ChunkOverlap)
	}
	if cc.ChunkOverlap >= cc.ChunkSize {
		return fmt.Errorf("%s.chunk_overlap (%d) must be less than %s.chunk_size (%d)",
			section, cc.ChunkOverlap, section, cc.ChunkSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
