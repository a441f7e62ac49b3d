package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Pipeline PipelineConfig
	Cache    CacheConfig
	Vector   VectorConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	CorpusTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "ollama"
	LLMModel          string
	BaseTimeoutSecs   int
	MaxRetries        int
}

type PipelineConfig struct {
	TopKRetrieval   int
	TopKRerank      int
	MaxCorrections  int
	NumVariations   int
	FusionAlpha     float64
	RerankThreshold float64
	ChunkSize       int
	ChunkOverlap    int
}

type CacheConfig struct {
	TTLSeconds int
}

type VectorConfig struct {
	Backend string // "chromem" or "pgvector"
	Path    string // chromem persistence dir; empty keeps it in memory
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			CorpusTopic:        getEnv("CORPUS_UPDATED_TOPIC_NAME", "CORPUS_UPDATED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3.2"),
			BaseTimeoutSecs:   getEnvAsInt("LLM_BASE_TIMEOUT_SECONDS", 30),
			MaxRetries:        getEnvAsInt("LLM_MAX_RETRIES", 3),
		},
		Pipeline: PipelineConfig{
			TopKRetrieval:   getEnvAsInt("TOP_K_RETRIEVAL", 20),
			TopKRerank:      getEnvAsInt("TOP_K_RERANK", 5),
			MaxCorrections:  getEnvAsInt("MAX_CORRECTION_ATTEMPTS", 2),
			NumVariations:   getEnvAsInt("NUM_QUERY_VARIATIONS", 3),
			FusionAlpha:     getEnvAsFloat("FUSION_ALPHA", 0.5),
			RerankThreshold: getEnvAsFloat("RERANK_SCORE_THRESHOLD", 0.3),
			ChunkSize:       getEnvAsInt("CHUNK_SIZE", 512),
			ChunkOverlap:    getEnvAsInt("CHUNK_OVERLAP", 50),
		},
		Cache: CacheConfig{
			TTLSeconds: getEnvAsInt("REDIS_TTL", 3600),
		},
		Vector: VectorConfig{
			Backend: getEnv("VECTOR_BACKEND", "chromem"),
			Path:    getEnv("VECTOR_STORE_PATH", ""),
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
