// Package delivery checks whether a business registration number can still
// be onboarded on the supported delivery platforms.
package delivery

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultMinInterval = 200 * time.Millisecond

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
	maxResponseBytes = 64 << 10
)

// Prober checks one platform. Check never fails: anything that is not a
// recognized answer is VerdictUnknown.
type Prober interface {
	Platform() constants.Platform
	Check(ctx context.Context, digits string) entity.Verdict
}

// ProbeConfig is shared by all platform probes.
type ProbeConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MinInterval time.Duration
	HTTPClient  *http.Client
}

// probe holds what every platform probe needs: a pooled client, pacing and logging.
type probe struct {
	platform constants.Platform
	baseURL  string
	timeout  time.Duration
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func newProbe(platform constants.Platform, defaultBase string, cfg ProbeConfig, logger *slog.Logger) probe {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newPooledClient()
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return probe{
		platform: platform,
		baseURL:  cfg.BaseURL,
		timeout:  cfg.Timeout,
		client:   cfg.HTTPClient,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.With("platform", string(platform)),
	}
}

func newPooledClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 3 * time.Second,
	}
	return &http.Client{Transport: transport}
}

func (p *probe) Platform() constants.Platform { return p.platform }

// do waits for the limiter, sends req bounded by the probe timeout and returns
// the body of a 200 response. ok is false for every other outcome.
func (p *probe) do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) (body []byte, ok bool) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		p.logger.Warn("delivery.probe.rate_wait", "error", err)
		return nil, false
	}

	req, err := build(ctx)
	if err != nil {
		p.logger.Error("delivery.probe.build_request_error", "error", err)
		return nil, false
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("delivery.probe.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, false
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			p.logger.Warn("delivery.probe.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		p.logger.Warn("delivery.probe.read_error", "error", err)
		return nil, false
	}
	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("delivery.probe.non_200", "status", resp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, false
	}
	return raw, true
}

func (p *probe) verdict(digits string, v entity.Verdict, start time.Time) entity.Verdict {
	p.logger.Info("delivery.probe.verdict",
		"registration_number", digits,
		"verdict", string(v),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return v
}
