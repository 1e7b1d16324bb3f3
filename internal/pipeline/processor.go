package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/delivery"
	"github.com/joseph-ayodele/bizscan/internal/entity"
	"github.com/joseph-ayodele/bizscan/internal/extract"
	"github.com/joseph-ayodele/bizscan/internal/review"
)

// Processor drives a single item through compress, extract, check and review.
// It never touches item state; phase changes are reported through onPhase.
type Processor struct {
	extractor extract.RecordExtractor
	checker   delivery.Checker
	reviewer  review.TextReviewer  // optional
	contacts  review.ContactFinder // optional
	logger    *slog.Logger
}

func NewProcessor(ex extract.RecordExtractor, checker delivery.Checker, reviewer review.TextReviewer, contacts review.ContactFinder, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		extractor: ex,
		checker:   checker,
		reviewer:  reviewer,
		contacts:  contacts,
		logger:    logger,
	}
}

// Process returns the finished record for one file. Only extraction can fail;
// checking and reviewing degrade to unknown/unconfirmed values instead.
func (p *Processor) Process(ctx context.Context, fileName string, data []byte, onPhase func(constants.Phase)) (entity.Record, error) {
	if onPhase == nil {
		onPhase = func(constants.Phase) {}
	}
	start := time.Now()

	onPhase(constants.PhaseCompressing)
	img := p.extractor.Prepare(fileName, data)

	onPhase(constants.PhaseExtracting)
	rec, err := p.extractor.Extract(ctx, img)
	if err != nil {
		return entity.Record{}, err
	}

	onPhase(constants.PhaseChecking)
	rec.Availability = p.checker.CheckAll(ctx, rec.RegistrationNumber)
	rec.AvailabilitySummary = delivery.FormatSummary(rec.Availability)

	onPhase(constants.PhaseReviewing)
	if p.reviewer != nil {
		checked := rec.RegistrationNumber
		rec = p.reviewer.ReviewOne(ctx, rec).Record
		// availability must describe the number that ends up in the record
		if rec.RegistrationNumber != checked {
			p.logger.Info("pipeline.item.recheck", "file", fileName, "from", checked, "to", rec.RegistrationNumber)
			rec.Availability = p.checker.CheckAll(ctx, rec.RegistrationNumber)
			rec.AvailabilitySummary = delivery.FormatSummary(rec.Availability)
		}
	}
	contact := review.UnconfirmedContact()
	if p.contacts != nil {
		contact = p.contacts.Lookup(ctx, rec.CompanyName, rec.Address)
	}
	if rec.PhoneNumber == "" {
		rec.PhoneNumber = contact.PhoneNumber
	}
	if rec.OpenHours == "" {
		rec.OpenHours = contact.OpenHours
	}
	rec.SourceFile = fileName

	p.logger.Info("pipeline.item.processed",
		"file", fileName,
		"company", rec.CompanyName,
		"summary", rec.AvailabilitySummary,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, nil
}
