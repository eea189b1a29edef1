package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once at process start and passed explicitly to every
// component. Business logic never reads the environment.
type Config struct {
	DatabaseURL string
	Port        int

	// embedding service
	EmbeddingAPIKey string
	EmbeddingAPIURL string
	EmbeddingModel  string
	EmbeddingDim    int

	// generation service
	LLMAPIKey string
	LLMAPIURL string
	LLMModel  string

	// ingestion
	TesseractCmd      string
	PdftoppmCmd       string
	ChunkTokenSize    int
	ChunkOverlapRatio float64
	DownloadDir       string

	// retrieval
	TopKResults int

	// sync
	ELibraryBaseURL string
	SyncConcurrency int
	RequestDelay    time.Duration
}

func Load() *Config {
	godotenv.Load()

	delay, err := time.ParseDuration(getEnv("REQUEST_DELAY", "500ms"))
	if err != nil {
		delay = 500 * time.Millisecond
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnvInt("PORT", 8080),

		EmbeddingAPIKey: getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingAPIURL: getEnv("EMBEDDING_API_URL", ""),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-large"),
		EmbeddingDim:    getEnvInt("EMBEDDING_DIM", 1536),

		LLMAPIKey: getEnv("LLM_API_KEY", ""),
		LLMAPIURL: getEnv("LLM_API_URL", ""),
		LLMModel:  getEnv("LLM_MODEL", "gpt-4o-mini"),

		TesseractCmd:      getEnv("TESSERACT_CMD", ""),
		PdftoppmCmd:       getEnv("PDFTOPPM_CMD", "pdftoppm"),
		ChunkTokenSize:    getEnvInt("CHUNK_TOKEN_SIZE", 800),
		ChunkOverlapRatio: getEnvFloat("CHUNK_OVERLAP_RATIO", 0.15),
		DownloadDir:       getEnv("DOWNLOAD_DIR", "data/decisions"),

		TopKResults: getEnvInt("TOP_K_RESULTS", 10),

		ELibraryBaseURL: getEnv("ELIBRARY_BASE_URL", "https://elibrary.judiciary.gov.ph"),
		SyncConcurrency: getEnvInt("SYNC_CONCURRENCY", 4),
		RequestDelay:    delay,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
