package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	GeminiAPIKey          string
	EmbeddingsProvider    string // "google" (default)
	GoogleEmbeddingsModel string // e.g. "text-embedding-004"
	CompletionModel       string // e.g. "gemini-2.0-flash"

	MaxFileSize    int64
	FileStorageDir string
	SnippetLength  int

	// Video segmentation
	FFmpegPath              string
	TranscodeTimeout        time.Duration
	FrameFPS                float64
	ChunkWindowSeconds      int
	MaxConcurrentEmbeddings int
	MinOCRChars             int
	MinOCRConfidence        float64
	MaxFrames               int

	// Session store
	SessionTTL time.Duration

	// OCR service
	OCRServiceURL string
	OCRTimeout    int // seconds

	// Speech recognition service
	SpeechServiceURL string
	SpeechTimeout    int // seconds

	// Redis (asynq queue + job status)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Videos larger than this are queued instead of processed inline
	SyncProcessingLimit int64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/media_search"),
		DBName:      getEnv("DB_NAME", "media_search"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "google"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		CompletionModel:       getEnv("COMPLETION_MODEL", "gemini-2.0-flash"),

		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),
		SnippetLength:  getEnvInt("SNIPPET_LENGTH", 200),

		FFmpegPath:              getEnv("FFMPEG_PATH", "ffmpeg"),
		TranscodeTimeout:        time.Duration(getEnvInt("TRANSCODE_TIMEOUT", 120)) * time.Second,
		FrameFPS:                getEnvFloat64("FRAME_FPS", 0.5), // one frame every 2s
		ChunkWindowSeconds:      getEnvInt("CHUNK_WINDOW_SECONDS", 15),
		MaxConcurrentEmbeddings: getEnvInt("MAX_CONCURRENT_EMBEDDINGS", 4),
		MinOCRChars:             getEnvInt("MIN_OCR_CHARS", 10),
		MinOCRConfidence:        getEnvFloat64("MIN_OCR_CONFIDENCE", 0.40),
		MaxFrames:               getEnvInt("MAX_FRAMES", 120),

		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_MINUTES", 360)) * time.Minute,

		OCRServiceURL: getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRTimeout:    getEnvInt("OCR_TIMEOUT", 300), // 5 minutes

		SpeechServiceURL: getEnv("SPEECH_SERVICE_URL", "http://localhost:8002"),
		SpeechTimeout:    getEnvInt("SPEECH_TIMEOUT", 300),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SyncProcessingLimit: getEnvInt64("SYNC_PROCESSING_LIMIT", 20971520), // 20MB
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
