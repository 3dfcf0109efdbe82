package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/reorder-forecast/internal/config"
)

const (
	defaultBaseURL       = "https://connect.squareup.com"
	defaultAPIVersion    = "2024-07-17"
	defaultRetryAttempts = 3
	defaultBatchSize     = 100
	defaultCatalogLimit  = 100

	catalogSearchPath   = "/v2/catalog/search"
	inventoryCountsPath = "/v2/inventory/counts/batch-retrieve"
	ordersSearchPath    = "/v2/orders/search"
)

var (
	ErrMissingCredentials = errors.New("square: access token is required")
	ErrMissingLocation    = errors.New("square: location id is required")
)

// Client talks to the Square Connect API. Every request is retried with
// exponential backoff on network errors and non-2xx responses.
type Client struct {
	http       *retryablehttp.Client
	baseURL    string
	token      string
	locationID string
	apiVersion string
	batchSize  int
	limit      int
}

// NewClient validates cfg and builds a client. Zero values fall back to the
// platform defaults.
func NewClient(cfg config.SquareConfig) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, ErrMissingCredentials
	}
	if strings.TrimSpace(cfg.LocationID) == "" {
		return nil, ErrMissingLocation
	}

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = defaultRetryAttempts
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = attempts - 1
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	if rc.RetryWaitMax < rc.RetryWaitMin {
		rc.RetryWaitMax = rc.RetryWaitMin
	}
	rc.Backoff = retryablehttp.DefaultBackoff
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{}
	rc.RequestLogHook = logAttempt
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}

	c := &Client{
		http:       rc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      strings.TrimSpace(cfg.AccessToken),
		locationID: strings.TrimSpace(cfg.LocationID),
		apiVersion: cfg.APIVersion,
		batchSize:  cfg.InventoryBatchSize,
		limit:      cfg.CatalogLimit,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.apiVersion == "" {
		c.apiVersion = defaultAPIVersion
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultBatchSize
	}
	if c.limit <= 0 {
		c.limit = defaultCatalogLimit
	}

	return c, nil
}

// LocationID returns the location every inventory and order query is scoped to.
func (c *Client) LocationID() string { return c.locationID }

// retryPolicy retries transport errors and any non-2xx status. A cancelled
// context stops retrying immediately.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return true, nil
	}
	return false, nil
}

func logAttempt(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}
	log.Warn().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("attempt", attempt+1).
		Msg("square: retrying request")
}

// post sends body as JSON to path and decodes a 2xx response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request %s: %w", path, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Square-Version", c.apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("square: request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(path, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}
