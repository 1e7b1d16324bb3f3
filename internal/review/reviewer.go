// Package review runs a second text-only model pass over extracted records
// and looks up contact details.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/bizscan/internal/bizno"
	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/extract"
	"github.com/joseph-ayodele/bizscan/internal/llm"
)

const (
	singleMaxTokens = 1000
	batchMaxTokens  = 4000
	temperature     = 0.1
)

var errCountMismatch = errors.New("corrected record count does not match input")

// Correction is one field change proposed by the reviewer.
type Correction struct {
	Index     int    `json:"index"`
	Field     string `json:"field"`
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Reason    string `json:"reason"`
}

// Result of reviewing one record. Reviewed is false when the originals were kept.
type Result struct {
	Record          entity.Record `json:"record"`
	NeedsCorrection bool          `json:"needsCorrection"`
	Corrections     []Correction  `json:"corrections"`
	Model           string        `json:"model,omitempty"`
	Reviewed        bool          `json:"reviewed"`
}

// BatchResult of reviewing several records in one call.
type BatchResult struct {
	Records     []entity.Record `json:"records"`
	Corrections []Correction    `json:"corrections"`
	Model       string          `json:"model,omitempty"`
	Reviewed    bool            `json:"reviewed"`
}

// TextReviewer is what the pipeline depends on.
type TextReviewer interface {
	ReviewOne(ctx context.Context, rec entity.Record) Result
	ReviewBatch(ctx context.Context, recs []entity.Record) BatchResult
}

// Config for the reviewer.
type Config struct {
	APIKeys []string
	Models  []string
}

// Reviewer never fails: on any error it returns the input unchanged.
type Reviewer struct {
	cfg    Config
	chat   llm.ChatCompleter
	logger *slog.Logger
}

func NewReviewer(cfg Config, chat llm.ChatCompleter, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{cfg: cfg, chat: chat, logger: logger}
}

type correctionsReply struct {
	Corrections []struct {
		Index     int             `json:"index"`
		Field     json.RawMessage `json:"field"`
		Original  json.RawMessage `json:"original"`
		Corrected json.RawMessage `json:"corrected"`
		Reason    json.RawMessage `json:"reason"`
	} `json:"corrections"`
}

// ReviewOne checks a single record.
func (r *Reviewer) ReviewOne(ctx context.Context, rec entity.Record) Result {
	fallback := Result{Record: rec, Corrections: []Correction{}}
	start := time.Now()

	raw, model, err := r.ask(ctx, llm.BuildReviewPrompt(toInput(rec)), singleMaxTokens, llm.BuildReviewJSONSchema())
	if err != nil {
		r.logger.Warn("review.one.fallback", "company", rec.CompanyName, "error", err)
		return fallback
	}

	var reply struct {
		NeedsCorrection bool           `json:"needsCorrection"`
		CorrectedData   map[string]any `json:"correctedData"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		r.logger.Warn("review.one.decode_error", "model", model, "error", err)
		return fallback
	}

	out := Result{
		Record:          applyCorrected(rec, reply.CorrectedData),
		NeedsCorrection: reply.NeedsCorrection,
		Corrections:     decodeCorrections(raw),
		Model:           model,
		Reviewed:        true,
	}
	r.logger.Info("review.one.ok",
		"model", model,
		"needs_correction", out.NeedsCorrection,
		"corrections", len(out.Corrections),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// ReviewBatch checks several records in one call. A reply whose record count
// differs from the input is discarded.
func (r *Reviewer) ReviewBatch(ctx context.Context, recs []entity.Record) BatchResult {
	fallback := BatchResult{Records: append([]entity.Record(nil), recs...), Corrections: []Correction{}}
	if len(recs) == 0 {
		return fallback
	}
	start := time.Now()

	inputs := make([]llm.ReviewInput, len(recs))
	for i, rec := range recs {
		inputs[i] = toInput(rec)
	}

	raw, model, err := r.ask(ctx, llm.BuildBatchReviewPrompt(inputs), batchMaxTokens, llm.BuildBatchReviewJSONSchema())
	if err != nil {
		r.logger.Warn("review.batch.fallback", "records", len(recs), "error", err)
		return fallback
	}

	var reply struct {
		CorrectedData []map[string]any `json:"correctedData"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		r.logger.Warn("review.batch.decode_error", "model", model, "error", err)
		return fallback
	}
	if len(reply.CorrectedData) != len(recs) {
		r.logger.Warn("review.batch.fallback", "model", model, "error", errCountMismatch,
			"want", len(recs), "got", len(reply.CorrectedData))
		return fallback
	}

	out := BatchResult{Records: make([]entity.Record, len(recs)), Model: model, Reviewed: true}
	for i, rec := range recs {
		out.Records[i] = applyCorrected(rec, reply.CorrectedData[i])
	}
	for _, c := range decodeCorrections(raw) {
		if c.Index >= 0 && c.Index < len(recs) {
			out.Corrections = append(out.Corrections, c)
		}
	}
	if out.Corrections == nil {
		out.Corrections = []Correction{}
	}
	r.logger.Info("review.batch.ok",
		"model", model,
		"records", len(recs),
		"corrections", len(out.Corrections),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// ask tries candidates until one answers. A reply that does not parse or does
// not match schema ends the attempt without trying further models.
func (r *Reviewer) ask(ctx context.Context, prompt string, maxTokens int, schema map[string]any) ([]byte, string, error) {
	content, model, err := complete(ctx, r.chat, r.cfg.APIKeys, r.cfg.Models, llm.ChatRequest{
		Messages:    []llm.Message{llm.TextMessage(prompt)},
		Temperature: llm.Float(temperature),
		MaxTokens:   maxTokens,
	}, r.logger)
	if err != nil {
		return nil, "", err
	}
	_, raw, err := llm.DecodeObject(content)
	if err != nil {
		return nil, model, err
	}
	if err := llm.ValidateJSONAgainstSchema(schema, raw); err != nil {
		return nil, model, err
	}
	return raw, model, nil
}

// complete walks the (key, model) candidates until one call succeeds.
func complete(ctx context.Context, chat llm.ChatCompleter, keys, models []string, req llm.ChatRequest, logger *slog.Logger) (string, string, error) {
	candidates := extract.Candidates(keys, models)
	if len(candidates) == 0 {
		return "", "", errors.New("no review candidates configured")
	}
	var last error
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		req.Model = c.Model
		content, err := chat.Complete(ctx, c.APIKey, req)
		if err == nil {
			return content, c.Model, nil
		}
		logger.Debug("review.attempt_failed", "model", c.Model, "key_index", c.KeyIndex, "error", err)
		last = err
	}
	return "", "", fmt.Errorf("all %d review candidates failed: %w", len(candidates), last)
}

func toInput(rec entity.Record) llm.ReviewInput {
	return llm.ReviewInput{
		CompanyName:        rec.CompanyName,
		RepresentativeName: rec.RepresentativeName,
		Address:            rec.Address,
		RegistrationNumber: rec.RegistrationNumber,
	}
}

// applyCorrected copies non-empty corrected text fields onto rec. A corrected
// registration number that is not canonical is ignored.
func applyCorrected(rec entity.Record, obj map[string]any) entity.Record {
	if obj == nil {
		return rec
	}
	if v := llm.StringField(obj, llm.KeyCompanyName, "companyName"); v != "" {
		rec.CompanyName = v
	}
	if v := llm.StringField(obj, llm.KeyRepresentativeName, "representativeName"); v != "" {
		rec.RepresentativeName = v
	}
	if v := llm.StringField(obj, llm.KeyAddress, "address"); v != "" {
		rec.Address = v
	}
	if v := bizno.Canonical(llm.StringField(obj, llm.KeyRegistrationNumber, "businessRegistrationNumber", "registrationNumber")); v != "" {
		rec.RegistrationNumber = v
	}
	return rec
}

func decodeCorrections(raw []byte) []Correction {
	var reply correctionsReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return []Correction{}
	}
	out := make([]Correction, 0, len(reply.Corrections))
	for _, c := range reply.Corrections {
		out = append(out, Correction{
			Index:     c.Index,
			Field:     rawText(c.Field),
			Original:  rawText(c.Original),
			Corrected: rawText(c.Corrected),
			Reason:    rawText(c.Reason),
		})
	}
	return out
}

// rawText renders a JSON scalar as text; strings lose their quotes.
func rawText(m json.RawMessage) string {
	if len(m) == 0 || string(m) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return string(m)
}
