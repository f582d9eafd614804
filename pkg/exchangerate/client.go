package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the public exchange-rate API base URL.
	DefaultBaseURL = "https://api.exchangerate-api.com/v4"

	// maxBodySize caps the response body read from the rate source.
	maxBodySize = 1 << 20
)

// LatestResponse is the payload of GET {base}/latest/{currency}.
type LatestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Client is a minimal HTTP client for the live exchange-rate source.
type Client struct {
	httpClient *http.Client
	baseURL    string
	debug      bool
}

// NewClient constructs a client with an explicit request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		debug:      os.Getenv("ENV") == "development",
	}
}

// LatestUSD fetches the current USD-relative rate table. A non-2xx status, an
// undecodable body or an empty table is an error.
func (c *Client) LatestUSD(ctx context.Context) (map[string]float64, error) {
	var resp LatestResponse
	if err := c.doRequest(ctx, "/latest/USD", &resp); err != nil {
		return nil, err
	}
	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("exchange rate response contained no rates")
	}
	return resp.Rates, nil
}

// doRequest performs a GET against the rate source and decodes the JSON body
// into result.
func (c *Client) doRequest(ctx context.Context, endpoint string, result any) error {
	url := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("endpoint", url).
			Int("status_code", resp.StatusCode).
			Dur("latency", time.Since(start)).
			Msg("[EXCHANGE RATE] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from exchange rate source", resp.StatusCode)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
