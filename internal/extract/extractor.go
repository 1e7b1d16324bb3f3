package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/bizno"
	"github.com/joseph-ayodele/bizscan/internal/common"
	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/imaging"
	"github.com/joseph-ayodele/bizscan/internal/llm"
)

// Config for the vision extractor.
type Config struct {
	APIKeys           []string
	Models            []string
	RateLimitBackoff  time.Duration // wait after a 429 before the next candidate
	CompressThreshold int
}

// Extractor reads certificates through a vision model, falling through the
// (key, model) candidates until one yields a JSON object.
type Extractor struct {
	cfg    Config
	chat   llm.ChatCompleter
	schema map[string]any
	logger *slog.Logger
}

func NewExtractor(cfg Config, chat llm.ChatCompleter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RateLimitBackoff < 0 {
		cfg.RateLimitBackoff = 0
	}
	return &Extractor{
		cfg:    cfg,
		chat:   chat,
		schema: llm.BuildExtractionJSONSchema(),
		logger: logger,
	}
}

// Prepare compresses large images; small or undecodable ones pass through.
func (e *Extractor) Prepare(fileName string, data []byte) Image {
	res := imaging.Compress(data, constants.MIMEForExt(filepath.Ext(fileName)), imaging.Options{
		Threshold: e.cfg.CompressThreshold,
	})
	if res.Compressed {
		e.logger.Info("extract.compress.ok",
			"file", fileName, "in_bytes", len(data), "out_bytes", len(res.Data))
	}
	return Image{FileName: fileName, Data: res.Data, MIME: res.MIME, Compressed: res.Compressed}
}

// Extract implements RecordExtractor.
func (e *Extractor) Extract(ctx context.Context, img Image) (entity.Record, error) {
	if len(e.cfg.APIKeys) == 0 {
		return entity.Record{}, common.ErrNoCredentials
	}
	start := time.Now()
	candidates := Candidates(e.cfg.APIKeys, e.cfg.Models)
	msg := llm.ImageMessage(llm.ExtractionPrompt, llm.DataURL(img.MIME, img.Data))

	var last error
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return entity.Record{}, err
		}
		e.logger.Debug("extract.attempt",
			"file", img.FileName, "attempt", i+1, "key_index", c.KeyIndex, "model", c.Model)

		rec, err := e.try(ctx, c, msg)
		if err == nil {
			rec.SourceFile = img.FileName
			e.logger.Info("extract.ok",
				"file", img.FileName,
				"model", c.Model,
				"attempt", i+1,
				"company", rec.CompanyName,
				"registration_number", rec.RegistrationNumber,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return rec, nil
		}
		last = err

		if llm.IsRateLimited(err) {
			e.logger.Warn("extract.rate_limited", "file", img.FileName, "key_index", c.KeyIndex, "model", c.Model)
			if err := common.Sleep(ctx, e.cfg.RateLimitBackoff); err != nil {
				return entity.Record{}, err
			}
			continue
		}
		e.logger.Warn("extract.attempt_failed",
			"file", img.FileName, "key_index", c.KeyIndex, "model", c.Model, "error", err)
	}

	if last == nil {
		last = errors.New("no model configured")
	}
	e.logger.Error("extract.exhausted",
		"file", img.FileName, "attempts", len(candidates), "error", last,
		"elapsed_ms", time.Since(start).Milliseconds())
	return entity.Record{}, &ExtractionError{FileName: img.FileName, Attempts: len(candidates), Last: last}
}

func (e *Extractor) try(ctx context.Context, c Candidate, msg llm.Message) (entity.Record, error) {
	content, err := e.chat.Complete(ctx, c.APIKey, llm.ChatRequest{
		Model:    c.Model,
		Messages: []llm.Message{msg},
	})
	if err != nil {
		return entity.Record{}, err
	}
	obj, raw, err := llm.DecodeObject(content)
	if err != nil {
		return entity.Record{}, fmt.Errorf("parse reply: %w", err)
	}
	// a parsed reply is kept; fields of the wrong shape are left empty
	if err := llm.ValidateJSONAgainstSchema(e.schema, raw); err != nil {
		e.logger.Warn("extract.schema_mismatch", "model", c.Model, "error", err)
	}
	return RecordFromObject(obj), nil
}

// RecordFromObject maps a decoded reply onto a record. Missing fields stay empty;
// the registration number is stored only in canonical form.
func RecordFromObject(obj map[string]any) entity.Record {
	return entity.Record{
		CompanyName:        llm.StringField(obj, llm.KeyCompanyName, "companyName"),
		Address:            llm.StringField(obj, llm.KeyAddress, "address"),
		RegistrationNumber: bizno.Canonical(llm.StringField(obj, llm.KeyRegistrationNumber, "registrationNumber")),
		RepresentativeName: llm.StringField(obj, llm.KeyRepresentativeName, "representativeName"),
	}
}
