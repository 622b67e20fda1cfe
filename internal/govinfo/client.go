package govinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/crec-harvester/internal/metrics"
)

// Retry schedule for transient upstream statuses: exponential, capped,
// deterministic. The API documents no Retry-After, so no jitter is applied.
const (
	maxAttempts     = 6
	maxBackoff      = 10 * time.Second
	defaultTimeout  = 60 * time.Second
	defaultPageSize = 100
)

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// StatusError is returned for any non-2xx API response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("govinfo: unexpected status %d for %s", e.Code, e.URL)
}

// ClientConfig holds the knobs for the API client.
type ClientConfig struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
}

// Client issues authenticated requests against the GovInfo collection API,
// retrying transient statuses with capped exponential backoff.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	logger     *zap.Logger
	sleep      func(time.Duration)
}

// NewClient builds an API client from config.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   pageSize,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Get fetches an API path with the given query parameters, appending the
// API key as a query parameter on every request. Statuses 429/502/503/504
// are retried up to maxAttempts with backoff min(2^attempt, 10)s; any
// other non-2xx status fails immediately. Timeouts are not retried.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("api_key", c.apiKey)
	target := c.baseURL + path + "?" + q.Encode()

	var lastStatus *StatusError
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := min(time.Duration(1<<(attempt-1))*time.Second, maxBackoff)
			c.logger.Debug("Retrying API request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			metrics.APIRetries.Inc()
			c.sleep(backoff)
		}

		body, err := c.do(ctx, target, path)
		if err == nil {
			return body, nil
		}
		var se *StatusError
		if errors.As(err, &se) && retryableStatus(se.Code) {
			if se.Code == http.StatusTooManyRequests {
				metrics.RateLimitHits.Inc()
			}
			lastStatus = se
			continue
		}
		return nil, err
	}
	return nil, lastStatus
}

// GetJSON fetches an API path and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, target, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	metrics.APIRequests.Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, URL: c.baseURL + path}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	return body, nil
}

// GranuleSummary fetches the metadata summary for one granule.
func (c *Client) GranuleSummary(ctx context.Context, packageID, granuleID string) (GranuleSummary, error) {
	var summary GranuleSummary
	path := fmt.Sprintf("/packages/%s/granules/%s/summary", packageID, granuleID)
	if err := c.GetJSON(ctx, path, nil, &summary); err != nil {
		return GranuleSummary{}, err
	}
	return summary, nil
}
