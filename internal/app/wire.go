// Package app wires configuration into the pipeline components shared by the
// binaries.
package app

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/bizscan/internal/approval"
	"github.com/joseph-ayodele/bizscan/internal/archive"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/delivery"
	"github.com/joseph-ayodele/bizscan/internal/extract"
	"github.com/joseph-ayodele/bizscan/internal/llm/openrouter"
	"github.com/joseph-ayodele/bizscan/internal/pipeline"
	"github.com/joseph-ayodele/bizscan/internal/review"
)

// Components are the collaborators of one pipeline.Processor.
type Components struct {
	Chat      *openrouter.Client
	Extractor *extract.Extractor
	Checker   *delivery.Aggregator
	Reviewer  *review.Reviewer
	Contacts  *review.ContactLookup
	Processor *pipeline.Processor
}

// NewLogger returns a JSON slog logger at level (debug, info, warn, error).
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// NewChecker builds the three platform probes from configuration.
func NewChecker(cfg *common.Config, logger *slog.Logger) *delivery.Aggregator {
	return delivery.NewDefaultAggregator(delivery.ProbeConfig{
		Timeout:     cfg.Delivery.Timeout,
		MinInterval: cfg.Delivery.MinInterval,
	}, cfg.Delivery.DdangyoURL, cfg.Delivery.YogiyoURL, cfg.Delivery.CoupangEatsURL, logger)
}

// Build wires extraction, checking and the optional review steps.
func Build(cfg *common.Config, logger *slog.Logger) Components {
	chat := openrouter.NewClient(openrouter.Config{
		BaseURL: cfg.LLM.BaseURL,
		Referer: cfg.LLM.Referer,
		Title:   cfg.LLM.Title,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	ex := extract.NewExtractor(extract.Config{
		APIKeys:           cfg.LLM.APIKeys,
		Models:            cfg.LLM.VisionModels,
		RateLimitBackoff:  cfg.LLM.RateLimitBackoff,
		CompressThreshold: cfg.Pipeline.CompressThreshold,
	}, chat, logger)

	reviewCfg := review.Config{APIKeys: cfg.LLM.APIKeys, Models: cfg.LLM.ReviewModels}
	c := Components{
		Chat:      chat,
		Extractor: ex,
		Checker:   NewChecker(cfg, logger),
		Reviewer:  review.NewReviewer(reviewCfg, chat, logger),
		Contacts:  review.NewContactLookup(reviewCfg, chat, logger),
	}

	// nil interfaces switch the optional steps off
	var itemReviewer review.TextReviewer
	if cfg.Pipeline.ReviewEnabled {
		itemReviewer = c.Reviewer
	}
	var contacts review.ContactFinder
	if cfg.Pipeline.EnrichContacts {
		contacts = c.Contacts
	}
	c.Processor = pipeline.NewProcessor(ex, c.Checker, itemReviewer, contacts, logger)
	return c
}

// BatchOptions maps the pipeline section onto orchestrator options.
func BatchOptions(cfg *common.Config) []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithMaxRetries(cfg.Pipeline.MaxRetries),
		pipeline.WithMaxAutoRetryRounds(cfg.Pipeline.MaxAutoRetryRounds),
		pipeline.WithItemDelay(cfg.Pipeline.ItemDelay),
		pipeline.WithDiscardSaturated(cfg.Pipeline.DiscardSaturated),
	}
}

// NewGateway returns nil when approval is disabled. Sessions live in Redis
// when an address is configured and in memory otherwise; the returned func
// releases whichever was opened.
func NewGateway(cfg *common.Config, logger *slog.Logger) (*approval.Gateway, func(), error) {
	if !cfg.Approval.Enabled {
		return nil, func() {}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	var store approval.Store
	closeFn := func() {}
	if cfg.Approval.RedisAddr != "" {
		client, err := approval.NewRedisClient(approval.RedisConfig{
			Address:  cfg.Approval.RedisAddr,
			Password: cfg.Approval.RedisPassword,
			DB:       cfg.Approval.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		store = approval.NewRedisStore(client)
		closeFn = func() { _ = client.Close() }
		logger.Info("approval store ready", "backend", "redis")
	} else {
		mem := approval.NewMemoryStore(cfg.Approval.TTL, logger)
		store = mem
		closeFn = mem.Close
		logger.Info("approval store ready", "backend", "memory")
	}

	var notifier approval.Notifier = approval.NewLogNotifier(logger)
	if cfg.Approval.WebhookURL != "" {
		notifier = approval.NewDiscordNotifier(cfg.Approval.WebhookURL, nil, logger)
	}
	return approval.NewGateway(store, notifier, cfg.Approval.TTL, cfg.Approval.PublicBaseURL, logger), closeFn, nil
}

// NewArchiver returns an S3 uploader when a bucket is configured.
func NewArchiver(ctx context.Context, cfg *common.Config, logger *slog.Logger) (pipeline.Archiver, error) {
	if cfg.Archive.Bucket == "" {
		return archive.NopUploader{}, nil
	}
	return archive.NewS3Uploader(ctx, archive.Config{
		Bucket: cfg.Archive.Bucket,
		Region: cfg.Archive.Region,
		Prefix: cfg.Archive.Prefix,
	}, logger)
}
