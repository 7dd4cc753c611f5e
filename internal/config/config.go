package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GeminiAPIKey string
	DatabaseURL  string
	HTTPPort     string
	LogLevel     string

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	EmbeddingDim     int

	DataDir       string
	CorpusFile    string
	LedgerBackend string // "sqlite" or "file"
	LedgerFile    string

	RetrievalTopK int

	EnableCollectors bool
	FetchIntervalHrs int
	FetchTimeoutSecs int
	OTXAPIKey        string
	AbuseIPDBAPIKey  string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:  getEnv("DATABASE_URL", "ragshield.db"),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "threat-intel"),
		EmbeddingDim:     getEnvAsInt("EMBEDDING_DIMENSION", 768), // text-embedding-004

		DataDir:       getEnv("DATA_DIR", "data"),
		CorpusFile:    getEnv("CORPUS_FILE", "data.json"),
		LedgerBackend: getEnv("LEDGER_BACKEND", "sqlite"),
		LedgerFile:    getEnv("LEDGER_FILE", "processed_ids.json"),

		RetrievalTopK: getEnvAsInt("RETRIEVAL_TOP_K", 5),

		EnableCollectors: getEnvAsBool("ENABLE_COLLECTORS", true),
		FetchIntervalHrs: getEnvAsInt("FETCH_INTERVAL_HOURS", 5),
		FetchTimeoutSecs: getEnvAsInt("FETCH_TIMEOUT_SECONDS", 60),
		OTXAPIKey:        getEnv("OTX_API_KEY", ""),
		AbuseIPDBAPIKey:  getEnv("ABUSEIPDB_API_KEY", ""),
	}

	if AppConfig.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable is required")
	}

	if AppConfig.EmbeddingDim <= 0 {
		log.Fatal("EMBEDDING_DIMENSION must be a positive integer")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
