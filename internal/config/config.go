package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Memory   MemoryConfig
	Cache    CacheConfig
	Executor ExecutorConfig
	Ai       AIConfig
	Otel     OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	// JWTSecret enables bearer authentication on the query and history routes.
	JWTSecret string
}

// DatabaseConfig points at the PostgreSQL instance queries run against.
type DatabaseConfig struct {
	Connection string
	MaxConns   int
}

// MemoryConfig is the embedded store for conversation history and cache.
type MemoryConfig struct {
	Path string
}

type CacheConfig struct {
	Backend     string // "sqlite", "redis" or "memory"
	RedisPrefix string
}

type ExecutorConfig struct {
	MaxRows          int
	BatchSize        int
	StatementTimeout time.Duration
}

type AIConfig struct {
	LLMProvider          string // "ollama", "openai" or "huggingface"
	LLMModel             string
	LLMBaseURL           string
	LLMAPIKey            string
	EmbeddingProvider    string // "ollama" or "none"
	OllamaBaseURL        string
	OllamaEmbeddingModel string
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			MaxConns:   getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Memory: MemoryConfig{
			Path: getEnv("MEMORY_DB_PATH", "data/agent_memory.db"),
		},
		Cache: CacheConfig{
			Backend:     strings.ToLower(getEnv("CACHE_BACKEND", "sqlite")),
			RedisPrefix: getEnv("CACHE_REDIS_PREFIX", "semcache"),
		},
		Executor: ExecutorConfig{
			MaxRows:          getEnvAsInt("EXECUTOR_MAX_ROWS", 1000),
			BatchSize:        getEnvAsInt("EXECUTOR_BATCH_SIZE", 100),
			StatementTimeout: getEnvAsDuration("EXECUTOR_STATEMENT_TIMEOUT", 30*time.Second),
		},
		Ai: AIConfig{
			LLMProvider:          getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:             getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:           getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:            getEnv("LLM_API_KEY", ""),
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Otel: OtelConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "sql-agent-be"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
