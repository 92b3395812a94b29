package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Orbit/backend/go/internal/config"
	"Orbit/backend/go/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const triggerPath = "/datasets/v3/trigger"

// ScrapeResult is the outcome of a single target scrape.
type ScrapeResult struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Platform string          `json:"platform"`
}

// Client triggers BrightData dataset collections. Transient failures are retried by
// resty with exponential backoff.
type Client struct {
	apiKey   string
	datasets map[string]string

	baseDelay           time.Duration
	postSuccessDelay    time.Duration
	instagramPostsLimit int
	tiktokCountry       string

	http *resty.Client
	log  *logger.Logger

	// onRetry runs before each backoff wait with the upcoming attempt number.
	onRetry func(attempt int, delay time.Duration)
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client from cfg. transport is usually the circuit-breaking
// RoundTripper from pkg/http; nil keeps resty's default transport.
// Zero-valued settings fall back to the defaults applied by config.LoadConfig.
func NewClient(cfg config.ScraperConfig, transport http.RoundTripper, log *logger.Logger) *Client {
	datasets := make(map[string]string, len(config.DefaultDatasets))
	for k, v := range config.DefaultDatasets {
		datasets[k] = v
	}
	for k, v := range cfg.Datasets {
		if v != "" {
			datasets[k] = v
		}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	postsLimit := cfg.InstagramPostsLimit
	if postsLimit <= 0 {
		postsLimit = 10
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.brightdata.com"
	}

	c := &Client{
		apiKey:              cfg.APIKey,
		datasets:            datasets,
		baseDelay:           config.Duration(cfg.BaseDelay, time.Second),
		postSuccessDelay:    config.Duration(cfg.PostSuccessDelay, 500*time.Millisecond),
		instagramPostsLimit: postsLimit,
		tiktokCountry:       cfg.TikTokCountry,
		log:                 log,
		sleep:               sleepContext,
	}
	c.onRetry = func(attempt int, delay time.Duration) {
		log.WithField("attempt", attempt).WithField("delay", delay.String()).Warn("Retrying BrightData request")
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(config.Duration(cfg.RequestTimeout, 30*time.Second)).
		SetHeader("Content-Type", "application/json").
		SetLogger(log).
		SetRetryCount(maxRetries - 1).
		SetRetryWaitTime(c.baseDelay).
		SetRetryMaxWaitTime(c.baseDelay << maxRetries).
		SetRetryAfter(c.retryAfter).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return isRetryable(err)
			}
			return isRetryable(statusError(resp))
		})
	if transport != nil {
		c.http.SetTransport(transport)
	}
	return c
}

// retryAfter doubles the wait after every failed attempt: baseDelay*2 before the
// second attempt, baseDelay*4 before the third.
func (c *Client) retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	attempt := 1
	if resp != nil && resp.Request != nil {
		attempt = resp.Request.Attempt
	}
	delay := c.baseDelay << attempt
	c.onRetry(attempt+1, delay)
	return delay, nil
}

// Scrape runs ScrapePlatform and folds the outcome into a ScrapeResult.
func (c *Client) Scrape(ctx context.Context, target Target, profileURL string) ScrapeResult {
	data, err := c.ScrapePlatform(ctx, profileURL, target)
	if err != nil {
		return ScrapeResult{Success: false, Error: err.Error(), Platform: target.ResultPlatform()}
	}
	return ScrapeResult{Success: true, Data: data, Platform: target.ResultPlatform()}
}

// ScrapePlatform triggers the dataset for target with profileURL.
// Profile targets return the first element of the response array; posts targets
// return the whole array, which may be empty.
//
// Transient failures are retried up to cfg.MaxRetries attempts. When every attempt fails the
// error is a *RetryExhaustedError wrapping the last failure.
func (c *Client) ScrapePlatform(ctx context.Context, profileURL string, target Target) (json.RawMessage, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("unknown scrape target %q", target)
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	datasetID := c.datasets[string(target)]
	if datasetID == "" {
		return nil, fmt.Errorf("no dataset configured for %s", target)
	}

	log := c.log.WithPayload(map[string]interface{}{"target": string(target), "dataset_id": datasetID})

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetQueryParams(c.queryParams(datasetID, target)).
		SetBody([]map[string]interface{}{c.requestItem(profileURL, target)})
	resp, err := req.Post(triggerPath)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil {
		err = statusError(resp)
	}
	if err != nil {
		log.WithField("attempts", req.Attempt).WithErr(err, "scrape_error").Error(fmt.Sprintf("%s scrape failed", target.Label()))
		if isRetryable(err) {
			return nil, &RetryExhaustedError{Attempts: req.Attempt, Err: err}
		}
		return nil, err
	}

	data, err := decode(resp.Body(), target)
	if err != nil {
		log.WithErr(err, "scrape_error").Error(fmt.Sprintf("%s scrape returned no data", target.Label()))
		return nil, err
	}
	log.WithField("attempt", req.Attempt).Info(fmt.Sprintf("%s scrape succeeded", target.Label()))
	// 成功后稍作停顿，避免连续触发数据集被限流。
	if err := c.sleep(ctx, c.postSuccessDelay); err != nil {
		log.WithErr(err, "scrape_error").Debug("post-success delay interrupted")
	}
	return data, nil
}

// statusError converts a non-2xx response into a *StatusError.
func statusError(resp *resty.Response) error {
	if resp == nil || resp.IsSuccess() {
		return nil
	}
	return &StatusError{StatusCode: resp.StatusCode(), Body: truncate(string(bytes.TrimSpace(resp.Body())), 256)}
}

// decode extracts the payload from a successful trigger response. The body must be
// a JSON array; null counts as no data for every target.
func decode(raw []byte, target Target) (json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, &NoDataError{Target: target}
	}
	if target.IsPosts() {
		return json.RawMessage(bytes.TrimSpace(raw)), nil
	}
	if len(items) == 0 {
		return nil, &NoDataError{Target: target}
	}
	return items[0], nil
}

func (c *Client) queryParams(datasetID string, target Target) map[string]string {
	q := map[string]string{"dataset_id": datasetID, "include_errors": "true"}
	for _, kv := range targets[target].extra {
		q[kv[0]] = kv[1]
	}
	return q
}

func (c *Client) requestItem(profileURL string, target Target) map[string]interface{} {
	item := map[string]interface{}{"url": profileURL}
	switch target {
	case InstagramPosts:
		item["num_of_posts"] = c.instagramPostsLimit
	case TikTokProfile:
		if c.tiktokCountry != "" {
			item["country"] = c.tiktokCountry
		}
	}
	return item
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(" + strconv.Itoa(len(s)-n) + " more bytes)"
}

