package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Users and sessions
	UsersFile  string
	SessionTTL time.Duration

	// Upload and worker pool
	MaxUploadBytes int64
	WorkerCount    int
	MaxQueueSize   int
	JobTTL         time.Duration
	ProcessTimeout time.Duration

	// Extraction cascade
	QualityThreshold int
	OCRDPI           int
	OCRLanguages     []string
	OCRWorkers       int
	LocalOCREnabled  bool
	CloudOCRURL      string
	CloudOCRAPIKey   string
	CloudOCRTimeout  time.Duration

	// Context assembly
	ChunkPageGroup   int
	MaxContextChunks int
	HistoryWindow    int

	// Groq completion
	GroqAPIKey        string
	GroqModel         string
	GroqBaseURL       string
	Temperature       float64
	MaxAnswerTokens   int
	CompletionTimeout time.Duration

	// Metadata sink (optional)
	MetadataSinkURL    string
	MetadataSinkAPIKey string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		UsersFile:  envOr("USERS_FILE", "users.json"),
		SessionTTL: envDuration("SESSION_TTL", 12*time.Hour),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		WorkerCount:    envInt("WORKER_COUNT", 2),
		MaxQueueSize:   envInt("MAX_QUEUE_SIZE", 32),
		JobTTL:         envDuration("JOB_TTL", 1*time.Hour),
		ProcessTimeout: envDuration("PROCESS_TIMEOUT", 10*time.Minute),

		QualityThreshold: envInt("QUALITY_THRESHOLD", 500),
		OCRDPI:           envInt("OCR_DPI", 200),
		OCRLanguages:     splitList(envOr("OCR_LANGUAGES", "eng")),
		OCRWorkers:       envInt("OCR_WORKERS", 4),
		LocalOCREnabled:  envBool("LOCAL_OCR_ENABLED", true),
		CloudOCRURL:      os.Getenv("CLOUD_OCR_URL"),
		CloudOCRAPIKey:   os.Getenv("CLOUD_OCR_API_KEY"),
		CloudOCRTimeout:  envDuration("CLOUD_OCR_TIMEOUT", 45*time.Second),

		ChunkPageGroup:   envInt("CHUNK_PAGE_GROUP", 2),
		MaxContextChunks: envInt("MAX_CONTEXT_CHUNKS", 10),
		HistoryWindow:    envInt("HISTORY_WINDOW", 12),

		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         envOr("GROQ_MODEL", "llama-3.1-70b-versatile"),
		GroqBaseURL:       envOr("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		Temperature:       envFloat("TEMPERATURE", 0.3),
		MaxAnswerTokens:   envInt("MAX_ANSWER_TOKENS", 2000),
		CompletionTimeout: envDuration("COMPLETION_TIMEOUT", 90*time.Second),

		MetadataSinkURL:    os.Getenv("METADATA_SINK_URL"),
		MetadataSinkAPIKey: os.Getenv("METADATA_SINK_API_KEY"),
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 32
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 10 * time.Minute
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = 500
	}
	if cfg.OCRDPI <= 0 {
		cfg.OCRDPI = 200
	}
	if cfg.OCRWorkers <= 0 {
		cfg.OCRWorkers = 4
	}
	if cfg.CloudOCRTimeout <= 0 {
		cfg.CloudOCRTimeout = 45 * time.Second
	}
	if cfg.ChunkPageGroup <= 0 {
		cfg.ChunkPageGroup = 2
	}
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = 10
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 12
	}
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = 2000
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 90 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.UsersFile == "" {
		return fmt.Errorf("USERS_FILE is required")
	}
	if c.CloudOCRURL != "" && c.CloudOCRAPIKey == "" {
		return fmt.Errorf("CLOUD_OCR_API_KEY is required when CLOUD_OCR_URL is set")
	}
	if c.OCRDPI < 72 || c.OCRDPI > 600 {
		return fmt.Errorf("OCR_DPI must be within 72-600, got %d", c.OCRDPI)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("TEMPERATURE must be within [0,1], got %v", c.Temperature)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
