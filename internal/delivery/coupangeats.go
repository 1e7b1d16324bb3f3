package delivery

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

const coupangEatsBaseURL = "https://store.coupangeats.com"

// CoupangEats probes the Coupang Eats merchant registration check.
type CoupangEats struct{ probe }

func NewCoupangEats(cfg ProbeConfig, logger *slog.Logger) *CoupangEats {
	return &CoupangEats{newProbe(constants.PlatformCoupangEats, coupangEatsBaseURL, cfg, logger)}
}

func (c *CoupangEats) Check(ctx context.Context, digits string) entity.Verdict {
	start := time.Now()
	raw, ok := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		u := strings.TrimRight(c.baseURL, "/") + "/api/v1/merchant/web/businessregistration/verify?bizNo=" + url.QueryEscape(digits)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Origin", coupangEatsBaseURL)
		req.Header.Set("Referer", coupangEatsBaseURL+"/merchant/signup")
		return req, nil
	})
	if !ok {
		return c.verdict(digits, entity.VerdictUnknown, start)
	}
	return c.verdict(digits, classifyCoupangEats(raw), start)
}

func classifyCoupangEats(raw []byte) entity.Verdict {
	var resp struct {
		Code  string `json:"code"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entity.VerdictUnknown
	}
	if resp.Error != nil {
		if strings.Contains(resp.Error.Message, "이미 등록된 사업자등록번호") {
			return entity.VerdictRegistered
		}
		return entity.VerdictUnknown
	}

	// a missing data key proves nothing; only an explicit null or true counts
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return entity.VerdictUnknown
	}
	data, present := fields["data"]
	if !present {
		return entity.VerdictUnknown
	}
	switch strings.TrimSpace(string(data)) {
	case "true":
		if resp.Code == "SUCCESS" {
			return entity.VerdictAvailable
		}
	case "null":
		return entity.VerdictAvailable
	}
	return entity.VerdictUnknown
}
