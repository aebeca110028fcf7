package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOllama = "ollama"
	ProviderGoogle = "google"

	StoreChromem  = "chromem"
	StorePGVector = "pgvector"

	ChunkStrategyFixed     = "fixed"
	ChunkStrategyRecursive = "recursive"
)

type Config struct {
	LLMProvider     string
	OllamaBaseURL   string
	OllamaModel     string
	GoogleApiKey    string
	GoogleModel     string
	Temperature     float64
	TopP            float64
	GenerateTimeout time.Duration

	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingDimension int
	EmbeddingCacheSize int

	VectorStore    string
	ChromaPath     string
	DatabaseURL    string
	CollectionName string

	ChunkSize     int
	ChunkOverlap  int
	ChunkStrategy string

	RetrievalTopK     int
	MaxRecursionDepth int

	Port     string
	LogLevel slog.Level
}

func Load() *Config {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama))

	return &Config{
		LLMProvider:     provider,
		OllamaBaseURL:   strings.TrimSuffix(getEnv("OLLAMA_BASE_URL", "http://localhost:11434"), "/"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "gemma3"),
		GoogleApiKey:    getEnv("GOOGLE_API_KEY", ""),
		GoogleModel:     getEnv("GOOGLE_MODEL", "gemini-2.0-flash"),
		Temperature:     getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		TopP:            getEnvAsFloat("LLM_TOP_P", 0.9),
		GenerateTimeout: getEnvAsDuration("GENERATE_TIMEOUT", 120*time.Second),

		EmbeddingProvider:  strings.ToLower(getEnv("EMBEDDING_PROVIDER", provider)),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", defaultEmbeddingModel(provider)),
		EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 768),
		EmbeddingCacheSize: getEnvAsInt("EMBEDDING_CACHE_SIZE", 10000),

		VectorStore:    strings.ToLower(getEnv("VECTOR_STORE", StoreChromem)),
		ChromaPath:     getEnv("CHROMA_PATH", "./chroma_db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CollectionName: getEnv("COLLECTION_NAME", "pdf_documents"),

		ChunkSize:     getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:  getEnvAsInt("CHUNK_OVERLAP", 200),
		ChunkStrategy: strings.ToLower(getEnv("CHUNK_STRATEGY", ChunkStrategyFixed)),

		RetrievalTopK:     getEnvAsInt("RETRIEVAL_TOP_K", 5),
		MaxRecursionDepth: getEnvAsInt("MAX_RECURSION_DEPTH", 3),

		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// UsesOllama reports whether generation or embedding talks to Ollama.
func (c *Config) UsesOllama() bool {
	return c.LLMProvider == ProviderOllama || c.EmbeddingProvider == ProviderOllama
}

// Validate reports the first setting that would make the service unusable.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOllama:
	case ProviderGoogle:
		if c.GoogleApiKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required when LLM_PROVIDER=%s", ProviderGoogle)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.EmbeddingProvider {
	case ProviderOllama:
	case ProviderGoogle:
		if c.GoogleApiKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required when EMBEDDING_PROVIDER=%s", ProviderGoogle)
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}

	switch c.VectorStore {
	case StoreChromem:
	case StorePGVector:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when VECTOR_STORE=%s", StorePGVector)
		}
	default:
		return fmt.Errorf("unknown VECTOR_STORE %q", c.VectorStore)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.ChunkStrategy != ChunkStrategyFixed && c.ChunkStrategy != ChunkStrategyRecursive {
		return fmt.Errorf("unknown CHUNK_STRATEGY %q", c.ChunkStrategy)
	}
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.RetrievalTopK)
	}
	if c.MaxRecursionDepth < 0 {
		return fmt.Errorf("MAX_RECURSION_DEPTH must not be negative, got %d", c.MaxRecursionDepth)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("GENERATE_TIMEOUT must be positive, got %s", c.GenerateTimeout)
	}
	return nil
}

func defaultEmbeddingModel(provider string) string {
	if provider == ProviderGoogle {
		return "gemini-embedding-001"
	}
	return "nomic-embed-text"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(valueStr)); err != nil {
		return defaultValue
	}
	return level
}
