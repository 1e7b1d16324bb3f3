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

const yogiyoBaseURL = "https://ceo-api.yogiyo.co.kr"

// Yogiyo probes the Yogiyo company number validation.
type Yogiyo struct{ probe }

func NewYogiyo(cfg ProbeConfig, logger *slog.Logger) *Yogiyo {
	return &Yogiyo{newProbe(constants.PlatformYogiyo, yogiyoBaseURL, cfg, logger)}
}

func (y *Yogiyo) Check(ctx context.Context, digits string) entity.Verdict {
	start := time.Now()
	raw, ok := y.do(ctx, func(ctx context.Context) (*http.Request, error) {
		u := strings.TrimRight(y.baseURL, "/") + "/join/validate-company-number/?company_number=" + url.QueryEscape(digits)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Origin", "https://ceo.yogiyo.co.kr")
		req.Header.Set("Referer", "https://ceo.yogiyo.co.kr/")
		return req, nil
	})
	if !ok {
		return y.verdict(digits, entity.VerdictUnknown, start)
	}
	return y.verdict(digits, classifyYogiyo(raw), start)
}

func classifyYogiyo(raw []byte) entity.Verdict {
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entity.VerdictUnknown
	}
	switch {
	case strings.Contains(resp.Message, "이미 등록된"):
		return entity.VerdictRegistered
	case strings.Contains(resp.Message, "입점신청 가능"):
		return entity.VerdictAvailable
	default:
		return entity.VerdictUnknown
	}
}
