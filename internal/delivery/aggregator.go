package delivery

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/bizno"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

const (
	labelAvailable   = "가능"
	labelUnavailable = "불가"
	summarySeparator = " / "
)

// Checker is what the pipeline and the API depend on.
type Checker interface {
	CheckAll(ctx context.Context, registrationNumber string) entity.Availability
}

// Aggregator fans a registration number out to every platform probe.
type Aggregator struct {
	probers []Prober
	logger  *slog.Logger
}

func NewAggregator(logger *slog.Logger, probers ...Prober) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{probers: probers, logger: logger}
}

// NewDefaultAggregator wires the three production probes with shared settings.
// Per-platform base URLs override cfg.BaseURL when set.
func NewDefaultAggregator(cfg ProbeConfig, ddangyoURL, yogiyoURL, coupangURL string, logger *slog.Logger) *Aggregator {
	with := func(base string) ProbeConfig {
		c := cfg
		c.BaseURL = base
		return c
	}
	return NewAggregator(logger,
		NewDdangyo(with(ddangyoURL), logger),
		NewYogiyo(with(yogiyoURL), logger),
		NewCoupangEats(with(coupangURL), logger),
	)
}

// CheckAll probes every platform concurrently and waits for all of them.
// Input without exactly ten digits yields all-unknown without any network call.
func (a *Aggregator) CheckAll(ctx context.Context, registrationNumber string) entity.Availability {
	out := entity.UnknownAvailability()
	digits := bizno.Digits(registrationNumber)
	if !bizno.IsTenDigits(digits) {
		a.logger.Debug("delivery.check.skipped", "registration_number", registrationNumber)
		return out
	}

	start := time.Now()
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, p := range a.probers {
		wg.Add(1)
		go func(p Prober) {
			defer wg.Done()
			v := p.Check(ctx, digits)
			mu.Lock()
			out.Set(p.Platform(), v)
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	a.logger.Info("delivery.check.ok",
		"registration_number", digits,
		"summary", FormatSummary(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// IsFullySaturated is true only when every platform reports registered.
func IsFullySaturated(a entity.Availability) bool {
	return a.FullySaturated()
}

// FormatSummary renders "땡겨요(가능) / 요기요(불가) / 쿠팡이츠(불가)" in the fixed
// platform order. Only available reads as 가능.
func FormatSummary(a entity.Availability) string {
	parts := make([]string, 0, len(constants.Platforms))
	for _, p := range constants.Platforms {
		label := labelUnavailable
		if a.Get(p) == entity.VerdictAvailable {
			label = labelAvailable
		}
		parts = append(parts, p.Label()+"("+label+")")
	}
	return strings.Join(parts, summarySeparator)
}

// SummaryHasAvailable reports whether a rendered summary contains at least one 가능.
func SummaryHasAvailable(summary string) bool {
	return strings.Contains(summary, "("+labelAvailable+")")
}
