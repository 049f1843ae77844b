package live

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	appconfig "oiflow/config"
	"oiflow/logger"
)

// Client fetches the venue's current asset contexts over the public info API
// and reduces them to a single aggregate notional open-interest figure.
type Client struct {
	url    string
	client *http.Client
	log    *logger.Log
}

// NewClient configures a live snapshot client.
func NewClient(cfg *appconfig.Config) *Client {
	return &Client{
		url:    cfg.Live.URL,
		client: &http.Client{Timeout: cfg.Live.Timeout()},
		log:    logger.GetLogger(),
	}
}

// assetCtx carries the per-instrument state we need; the API returns numbers
// as strings.
type assetCtx struct {
	OpenInterest string `json:"openInterest"`
	MarkPx       string `json:"markPx"`
}

// TotalOpenInterest requests metaAndAssetCtxs and sums openInterest × markPx
// across all returned contexts. Contexts with unparseable numbers are skipped.
func (c *Client) TotalOpenInterest(ctx context.Context) (float64, int, error) {
	body := bytes.NewBufferString(`{"type":"metaAndAssetCtxs"}`)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return 0, 0, fmt.Errorf("build info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("request info api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("info api returned status %d", resp.StatusCode)
	}

	// The response is a two-element array: [meta, assetCtxs].
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, fmt.Errorf("decode info response: %w", err)
	}
	if len(payload) < 2 {
		return 0, 0, fmt.Errorf("info response has %d elements, want 2", len(payload))
	}

	var ctxs []assetCtx
	if err := json.Unmarshal(payload[1], &ctxs); err != nil {
		return 0, 0, fmt.Errorf("decode asset contexts: %w", err)
	}

	total := 0.0
	counted := 0
	for _, ac := range ctxs {
		oi, err := strconv.ParseFloat(ac.OpenInterest, 64)
		if err != nil {
			continue
		}
		px, err := strconv.ParseFloat(ac.MarkPx, 64)
		if err != nil {
			continue
		}
		total += oi * px
		counted++
	}

	c.log.WithComponent("live").WithFields(logger.Fields{
		"instruments": counted,
		"total_oi":    total,
	}).Debug("computed live open interest")

	return total, counted, nil
}
