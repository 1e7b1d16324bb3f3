package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	LLM      LLMConfig
	Delivery DeliveryConfig
	Pipeline PipelineConfig
	Approval ApprovalConfig
	Store    StoreConfig
	Archive  ArchiveConfig
	Server   ServerConfig
	Watch    WatchConfig
}

// LLMConfig holds vision extraction and text review configuration
type LLMConfig struct {
	APIKeys          []string
	BaseURL          string
	VisionModels     []string
	ReviewModels     []string
	Referer          string
	Title            string
	Timeout          time.Duration
	RateLimitBackoff time.Duration
}

// DeliveryConfig holds the platform probe configuration
type DeliveryConfig struct {
	DdangyoURL     string
	YogiyoURL      string
	CoupangEatsURL string
	Timeout        time.Duration
	MinInterval    time.Duration
}

// PipelineConfig holds batch orchestration configuration
type PipelineConfig struct {
	MaxRetries         int
	MaxAutoRetryRounds int
	ItemDelay          time.Duration
	DiscardSaturated   bool
	ReviewEnabled      bool
	EnrichContacts     bool
	CompressThreshold  int
}

// ApprovalConfig holds the human approval gate configuration
type ApprovalConfig struct {
	Enabled       bool
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	WebhookURL    string
	PublicBaseURL string
}

// StoreConfig holds snapshot persistence configuration
type StoreConfig struct {
	DSN          string
	MaxConns     int32
	DialTimeout  time.Duration
	QueryTimeout time.Duration
}

// ArchiveConfig holds workbook upload configuration
type ArchiveConfig struct {
	Bucket string
	Region string
	Prefix string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// WatchConfig holds the drop-folder configuration. An empty Dir disables it.
type WatchConfig struct {
	Dir   string
	Quiet time.Duration
}

// Default model priorities.
var (
	DefaultVisionModels = []string{
		"google/gemini-2.0-flash-lite-001",
		"google/gemini-2.0-flash-001",
	}
	DefaultReviewModels = []string{
		"deepseek/deepseek-chat-v3-0324:free",
		"deepseek/deepseek-r1-0528:free",
		"deepseek/deepseek-r1:free",
	}
)

// LoadDotEnv loads .env.local then .env when present. Existing environment
// variables always win.
func LoadDotEnv(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			logger.Warn("config.dotenv.load_error", "file", name, "error", err)
			continue
		}
		logger.Debug("config.dotenv.loaded", "file", name)
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			APIKeys:          getEnvAsList("OPENROUTER_API_KEYS", getEnvAsList("OPENROUTER_API_KEY", nil)),
			BaseURL:          getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			VisionModels:     getEnvAsList("VISION_MODELS", DefaultVisionModels),
			ReviewModels:     getEnvAsList("REVIEW_MODELS", DefaultReviewModels),
			Referer:          getEnv("OPENROUTER_REFERER", "http://localhost:3000"),
			Title:            getEnv("OPENROUTER_TITLE", "BizScan"),
			Timeout:          getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			RateLimitBackoff: getEnvAsDuration("LLM_RATE_LIMIT_BACKOFF", 500*time.Millisecond),
		},
		Delivery: DeliveryConfig{
			DdangyoURL:     getEnv("DDANGYO_URL", "https://boss.ddangyo.com"),
			YogiyoURL:      getEnv("YOGIYO_URL", "https://ceo-api.yogiyo.co.kr"),
			CoupangEatsURL: getEnv("COUPANGEATS_URL", "https://store.coupangeats.com"),
			Timeout:        getEnvAsDuration("DELIVERY_TIMEOUT", 5*time.Second),
			MinInterval:    getEnvAsDuration("DELIVERY_MIN_INTERVAL", 200*time.Millisecond),
		},
		Pipeline: PipelineConfig{
			MaxRetries:         getEnvAsInt("PIPELINE_MAX_RETRIES", 3),
			MaxAutoRetryRounds: getEnvAsInt("PIPELINE_AUTO_RETRY_ROUNDS", 3),
			ItemDelay:          getEnvAsDuration("PIPELINE_ITEM_DELAY", 2*time.Second),
			DiscardSaturated:   getEnvAsBool("PIPELINE_DISCARD_SATURATED", false),
			ReviewEnabled:      getEnvAsBool("PIPELINE_REVIEW", false),
			EnrichContacts:     getEnvAsBool("PIPELINE_ENRICH_CONTACTS", true),
			CompressThreshold:  getEnvAsInt("PIPELINE_COMPRESS_THRESHOLD", 1<<20),
		},
		Approval: ApprovalConfig{
			Enabled:       getEnvAsBool("APPROVAL_ENABLED", false),
			TTL:           getEnvAsDuration("APPROVAL_TTL", 5*time.Minute),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			WebhookURL:    getEnv("DISCORD_WEBHOOK_URL", ""),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		Store: StoreConfig{
			DSN:          getEnv("STORE_DSN", "file:bizscan.db"),
			MaxConns:     getEnvAsInt32("STORE_MAX_CONNS", 5),
			DialTimeout:  getEnvAsDuration("STORE_DIAL_TIMEOUT", 3*time.Second),
			QueryTimeout: getEnvAsDuration("STORE_QUERY_TIMEOUT", 5*time.Second),
		},
		Archive: ArchiveConfig{
			Bucket: getEnv("ARCHIVE_BUCKET", ""),
			Region: getEnv("AWS_REGION", "ap-northeast-2"),
			Prefix: getEnv("ARCHIVE_PREFIX", "workbooks/"),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr: getEnv("GRPC_ADDR", ":9090"),
		},
		Watch: WatchConfig{
			Dir:   getEnv("WATCH_DIR", ""),
			Quiet: getEnvAsDuration("WATCH_QUIET", 3*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if len(c.LLM.APIKeys) == 0 {
		return NewAppError("CONFIG_ERROR", "OPENROUTER_API_KEYS is required", ErrNoCredentials)
	}
	if len(c.LLM.VisionModels) == 0 {
		return NewAppError("CONFIG_ERROR", "VISION_MODELS must not be empty", ErrInvalidInput)
	}
	if c.Pipeline.MaxRetries < 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_MAX_RETRIES must not be negative", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" && c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR or GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
