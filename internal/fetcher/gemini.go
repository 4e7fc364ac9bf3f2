package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.sandbox.gemini.com"

// client is the shared HTTP plumbing for the Gemini v2 market data endpoints.
type client struct {
	opts       Options
	interval   time.Duration
	logger     zerolog.Logger
	httpClient *http.Client
	baseURL    string
}

func newClient(opts Options, logger zerolog.Logger, component string) (*client, error) {
	if opts.Timeframe == "" {
		opts.Timeframe = "1hr"
	}
	interval, err := TimeframeDuration(opts.Timeframe)
	if err != nil {
		return nil, err
	}
	if opts.Window <= 0 {
		opts.Window = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &client{
		opts:       opts,
		interval:   interval,
		logger:     logger.With().Str("component", component).Logger(),
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}, nil
}

func (c *client) get(ctx context.Context, path string) ([]byte, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "stddevalert/1.0")
	}

	c.logger.Debug().Str("url", endpoint).Msg("requesting price history")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	if ev := c.logger.Debug(); ev.Enabled() {
		ev.RawJSON("payload", compactJSON(payload)).Msg("received price history")
	}
	return payload, nil
}

func symbolPath(symbol string) string {
	return url.PathEscape(strings.ToLower(strings.TrimSpace(symbol)))
}

type errorResponse struct {
	Result  string `json:"result"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("gemini api error (%d): %s", status, apiErr.Message)
		}
		if apiErr.Reason != "" {
			return fmt.Errorf("gemini api error (%d): %s", status, apiErr.Reason)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("gemini api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("gemini api error (%d)", status)
}

// compactJSON keeps debug logs on one line; invalid JSON is logged as a string value.
func compactJSON(payload []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err == nil {
		return buf.Bytes()
	}
	quoted, _ := json.Marshal(string(payload))
	return quoted
}
