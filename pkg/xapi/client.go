package xapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"xscraper/pkg/errors"
	"xscraper/pkg/logger"
	"xscraper/pkg/ratelimit"
)

// TokenSource resolves the bearer token. It is consulted at every operation
// entry so a token rotated mid-run is picked up without restarting.
type TokenSource interface {
	Token() (string, error)
}

// Client issues requests against the X API v2
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests to point at a
// local server.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithRequestsPerMinute caps the client-side request rate. This is a
// courtesy cap independent of the server-reported quota; 0 disables it.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		if rpm > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new API client
func NewClient(tokens TokenSource, timeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    BaseURL,
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchRecent performs one recent-search request. Missing data or meta in
// the payload degrade to an empty page rather than failing; endpoints with
// no matches legitimately return neither.
func (c *Client) SearchRecent(ctx context.Context, p SearchParams) (*SearchResult, error) {
	url := SearchRecentURL(c.baseURL, p)

	c.logger.DebugWithFields("searching recent posts", map[string]interface{}{
		"query":       p.Query,
		"max_results": ClampMaxResults(p.MaxResults),
		"next_token":  p.NextToken,
		"since_id":    p.SinceID,
	})

	body, headers, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(errors.KindParse, err, "failed to parse search response")
	}

	result := &SearchResult{
		Posts:     resp.Data,
		RateLimit: parseRateLimit(headers),
	}
	if resp.Meta != nil {
		result.Pagination = *resp.Meta
	}

	c.logger.DebugWithFields("search page fetched", map[string]interface{}{
		"result_count": result.Pagination.ResultCount,
		"newest_id":    result.Pagination.NewestID,
		"remaining":    result.RateLimit.Remaining,
	})

	return result, nil
}

// GetUsersBatch looks up a batch of users by id in one request. The caller
// partitions ids into batches of at most MaxUsersPerBatch; this method does
// not chunk, and the platform rejects oversized batches with an api error.
func (c *Client) GetUsersBatch(ctx context.Context, ids []string) ([]User, ratelimit.Status, error) {
	url := UsersBatchURL(c.baseURL, ids)

	c.logger.DebugWithFields("looking up users batch", map[string]interface{}{
		"batch_size": len(ids),
	})

	body, headers, err := c.get(ctx, url)
	if err != nil {
		return nil, ratelimit.Status{}, err
	}

	var resp usersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ratelimit.Status{}, errors.Wrap(errors.KindParse, err, "failed to parse users response")
	}

	return resp.Data, parseRateLimit(headers), nil
}

// GetUser looks up a single user by id, or by handle when byUsername is
// set. Zero matching users is a not_found error.
func (c *Client) GetUser(ctx context.Context, identifier string, byUsername bool) (User, ratelimit.Status, error) {
	url := UserURL(c.baseURL, identifier, byUsername)

	body, headers, err := c.get(ctx, url)
	if err != nil {
		var apiErr *errors.Error
		if stderrors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, ratelimit.Status{}, errors.Newf(errors.KindNotFound, "user %q not found", identifier)
		}
		return nil, ratelimit.Status{}, err
	}

	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ratelimit.Status{}, errors.Wrap(errors.KindParse, err, "failed to parse user response")
	}

	// The platform reports unknown users inside an errors array with a 200.
	if len(resp.Data) == 0 {
		return nil, parseRateLimit(headers), errors.Newf(errors.KindNotFound, "user %q not found", identifier)
	}

	return resp.Data, parseRateLimit(headers), nil
}

// get performs an authenticated GET and returns the body and headers.
// The bearer token is resolved on every call; its absence is a config
// error. Non-2xx statuses become api errors carrying status and body.
func (c *Client) get(ctx context.Context, url string) ([]byte, http.Header, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, errors.Wrap(errors.KindNetwork, err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, nil, errors.Wrap(errors.KindNetwork, err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Wrap(errors.KindNetwork, err, "failed to read response body")
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, errors.NewAPI(resp.StatusCode, string(body))
	}

	return body, resp.Header, nil
}

// parseRateLimit extracts the quota signal from the response headers. This
// is the single parsing policy for every operation: a missing or malformed
// header counts as 0.
func parseRateLimit(h http.Header) ratelimit.Status {
	return ratelimit.Status{
		Limit:     headerInt(h, "x-rate-limit-limit"),
		Remaining: headerInt(h, "x-rate-limit-remaining"),
		Reset:     int64(headerInt(h, "x-rate-limit-reset")),
	}
}

func headerInt(h http.Header, key string) int {
	v := h.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
