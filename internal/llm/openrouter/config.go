package openrouter

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the OpenRouter client.
type Config struct {
	BaseURL string        // default https://openrouter.ai/api/v1
	Referer string        // HTTP-Referer header
	Title   string        // X-Title header
	Timeout time.Duration // per request
}

// Client talks to an OpenAI-compatible chat/completions endpoint.
// The API key is supplied per call so callers can rotate keys.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Title == "" {
		cfg.Title = "BizScan"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
