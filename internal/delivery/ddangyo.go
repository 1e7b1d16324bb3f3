package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/bizscan/constants"
	"github.com/joseph-ayodele/bizscan/internal/entity"
)

const ddangyoBaseURL = "https://boss.ddangyo.com"

// Ddangyo probes the Ddangyo merchant sign-up check.
type Ddangyo struct{ probe }

func NewDdangyo(cfg ProbeConfig, logger *slog.Logger) *Ddangyo {
	return &Ddangyo{newProbe(constants.PlatformDdangyo, ddangyoBaseURL, cfg, logger)}
}

type ddangyoRequest struct {
	Apply struct {
		BizRegNo string `json:"biz_reg_no"`
		Sotid    string `json:"sotid"`
	} `json:"dma_onlineApply04"`
}

type ddangyoResponse struct {
	Result *struct {
		Result string `json:"result"`
	} `json:"dma_result"`
	Error *struct {
		ResultCode string `json:"resultCode"`
	} `json:"dma_error"`
}

func (d *Ddangyo) Check(ctx context.Context, digits string) entity.Verdict {
	start := time.Now()
	var payload ddangyoRequest
	payload.Apply.BizRegNo = digits
	payload.Apply.Sotid = "0000"
	bs, err := json.Marshal(payload)
	if err != nil {
		return d.verdict(digits, entity.VerdictUnknown, start)
	}

	raw, ok := d.do(ctx, func(ctx context.Context) (*http.Request, error) {
		url := strings.TrimRight(d.baseURL, "/") + "/o2o/shop/cm/requestIsBizRegNoTemp"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", ddangyoBaseURL)
		req.Header.Set("Referer", ddangyoBaseURL+"/join")
		return req, nil
	})
	if !ok {
		return d.verdict(digits, entity.VerdictUnknown, start)
	}
	return d.verdict(digits, classifyDdangyo(raw), start)
}

func classifyDdangyo(raw []byte) entity.Verdict {
	var resp ddangyoResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entity.VerdictUnknown
	}
	switch {
	case resp.Result != nil && resp.Result.Result == "1000":
		return entity.VerdictRegistered
	case resp.Error != nil && resp.Error.ResultCode == "000":
		return entity.VerdictAvailable
	default:
		return entity.VerdictUnknown
	}
}
