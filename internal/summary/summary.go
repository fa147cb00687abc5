// Package summary fetches plain-text page summaries from a content
// extraction service.
package summary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nikbrunner/shelf/internal/api"
)

// Client calls the extraction service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// ClientParams holds parameters for creating a new Client.
type ClientParams struct {
	BaseURL    string
	Timeout    time.Duration
	Rate       float64 // requests per second, 0 = unlimited
	Burst      int
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// NewClient creates a new summary client.
func NewClient(params ClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: params.Timeout}
	}

	limit := rate.Inf
	if params.Rate > 0 {
		limit = rate.Limit(params.Rate)
	}
	burst := params.Burst
	if burst < 1 {
		burst = 1
	}

	logger := zerolog.Nop()
	if params.Logger != nil {
		logger = params.Logger.With().Str("component", "summary").Logger()
	}

	return &Client{
		baseURL:    params.BaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

// EncodeTarget turns a bookmark URL into the path segment the extraction
// service expects: a leading http:// or https:// is stripped and the rest is
// percent-encoded, slashes included.
func EncodeTarget(rawURL string) string {
	target := rawURL
	for _, scheme := range []string{"https://", "http://"} {
		if len(target) >= len(scheme) && strings.EqualFold(target[:len(scheme)], scheme) {
			target = target[len(scheme):]
			break
		}
	}
	return strings.ReplaceAll(url.QueryEscape(target), "+", "%20")
}

// targetURL appends target to the base URL. A base ending in "/" is used as
// a plain prefix, e.g. "https://r.jina.ai/http://".
func (c *Client) targetURL(target string) string {
	if strings.HasSuffix(c.baseURL, "/") {
		return c.baseURL + target
	}
	return c.baseURL + "/" + target
}

// Fetch returns the summary text for rawURL, used verbatim.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for rate limit: %w", err)
	}

	target := EncodeTarget(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.targetURL(target), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("fetch summary: %w", ctxErr)
		}
		c.logger.Warn().Err(err).Str("request_id", requestID).Str("target", target).Msg("summary request failed")
		return "", fmt.Errorf("%w: %v", api.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read summary: %v", api.ErrNetwork, err)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("target", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(body)).
		Msg("summary fetched")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", api.NewStatusError(resp.StatusCode, body)
	}
	return string(body), nil
}
