package review

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/llm"
)

// Contact is the looked-up phone number and opening hours.
type Contact struct {
	PhoneNumber string `json:"phoneNumber"`
	OpenHours   string `json:"openHours"`
}

// UnconfirmedContact is used whenever a lookup cannot verify anything.
func UnconfirmedContact() Contact {
	return Contact{PhoneNumber: entity.Unconfirmed, OpenHours: entity.Unconfirmed}
}

// ContactFinder is what the pipeline depends on.
type ContactFinder interface {
	Lookup(ctx context.Context, companyName, address string) Contact
}

// ContactLookup asks a text model for a business's phone number and opening hours.
type ContactLookup struct {
	cfg    Config
	chat   llm.ChatCompleter
	schema map[string]any
	logger *slog.Logger
}

func NewContactLookup(cfg Config, chat llm.ChatCompleter, logger *slog.Logger) *ContactLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactLookup{cfg: cfg, chat: chat, schema: llm.BuildContactJSONSchema(), logger: logger}
}

// Lookup never fails; unknown values come back as entity.Unconfirmed.
func (c *ContactLookup) Lookup(ctx context.Context, companyName, address string) Contact {
	out := UnconfirmedContact()
	if companyName == "" {
		return out
	}
	start := time.Now()

	content, model, err := complete(ctx, c.chat, c.cfg.APIKeys, c.cfg.Models, llm.ChatRequest{
		Messages: []llm.Message{llm.TextMessage(llm.BuildContactPrompt(companyName, address))},
	}, c.logger)
	if err != nil {
		c.logger.Warn("review.contact.fallback", "company", companyName, "error", err)
		return out
	}
	obj, raw, err := llm.DecodeObject(content)
	if err != nil {
		c.logger.Warn("review.contact.decode_error", "model", model, "error", err)
		return out
	}
	if err := llm.ValidateJSONAgainstSchema(c.schema, raw); err != nil {
		c.logger.Warn("review.contact.schema_error", "model", model, "error", err)
		return out
	}

	if v := llm.StringField(obj, llm.KeyPhoneNumber); v != "" {
		out.PhoneNumber = v
	}
	if v := llm.StringField(obj, llm.KeyOpenTime, "openHours"); v != "" {
		out.OpenHours = v
	}
	c.logger.Info("review.contact.ok",
		"company", companyName,
		"model", model,
		"phone_found", out.PhoneNumber != entity.Unconfirmed,
		"hours_found", out.OpenHours != entity.Unconfirmed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}
