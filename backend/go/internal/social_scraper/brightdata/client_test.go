package brightdata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"Orbit/backend/go/internal/config"
	"Orbit/backend/go/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	query  map[string]string
	auth   string
	body   []map[string]interface{}
	method string
	path   string
}

type waits struct {
	sleeps  []time.Duration // post-success pauses
	retries []time.Duration // backoff before each retry
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *waits) {
	t.Helper()
	return newTestClientWithConfig(t, config.ScraperConfig{BaseDelay: "1ms"}, handler)
}

func newTestClientWithConfig(t *testing.T, cfg config.ScraperConfig, handler http.HandlerFunc) (*Client, *waits) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	cfg.APIKey = "secret"
	cfg.InstagramPostsLimit = 10
	cfg.TikTokCountry = "US"
	c := NewClient(cfg, srv.Client().Transport, logger.Discard())

	w := &waits{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		w.sleeps = append(w.sleeps, d)
		return ctx.Err()
	}
	c.onRetry = func(_ int, d time.Duration) {
		w.retries = append(w.retries, d)
	}
	return c, w
}

func record(r *http.Request) recorded {
	rec := recorded{query: map[string]string{}, auth: r.Header.Get("Authorization"), method: r.Method, path: r.URL.Path}
	for k := range r.URL.Query() {
		rec.query[k] = r.URL.Query().Get(k)
	}
	raw, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(raw, &rec.body)
	return rec
}

func TestScrapeProfileTakesFirstElement(t *testing.T) {
	var got recorded
	c, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = record(r)
		_, _ = w.Write([]byte(`[{"name":"Ada","url":"https://linkedin.com/in/ada"},{"name":"other"}]`))
	})

	data, err := c.ScrapePlatform(context.Background(), "https://linkedin.com/in/ada", LinkedInProfile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada","url":"https://linkedin.com/in/ada"}`, string(data))

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/datasets/v3/trigger", got.path)
	assert.Equal(t, "Bearer secret", got.auth)
	assert.Equal(t, map[string]string{"dataset_id": "gd_l1viktl72bvl7bjuj0", "include_errors": "true"}, got.query)
	assert.Equal(t, []map[string]interface{}{{"url": "https://linkedin.com/in/ada"}}, got.body)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, sleeps.sleeps)
	assert.Empty(t, sleeps.retries)
}

func TestScrapeTargetSpecificParameters(t *testing.T) {
	var got recorded
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = record(r)
		_, _ = w.Write([]byte(`[{"username":"ada"}]`))
	})
	ctx := context.Background()

	_, err := c.ScrapePlatform(ctx, "https://www.linkedin.com/in/ada", LinkedInPosts)
	require.NoError(t, err)
	assert.Equal(t, "discover_new", got.query["type"])
	assert.Equal(t, "profile_url", got.query["discover_by"])
	assert.Equal(t, "gd_lyy3tktm25m4avu764", got.query["dataset_id"])

	_, err = c.ScrapePlatform(ctx, "https://instagram.com/ada", InstagramPosts)
	require.NoError(t, err)
	assert.Equal(t, "url", got.query["discover_by"])
	assert.EqualValues(t, 10, got.body[0]["num_of_posts"])

	_, err = c.ScrapePlatform(ctx, "https://tiktok.com/@ada", TikTokProfile)
	require.NoError(t, err)
	assert.Equal(t, "US", got.body[0]["country"])
	assert.NotContains(t, got.query, "type")
}

func TestPostsAcceptEmptyArray(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	data, err := c.ScrapePlatform(context.Background(), "https://instagram.com/ada", InstagramPosts)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestPostsNullBodyIsNoData(t *testing.T) {
	c, w := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	data, err := c.ScrapePlatform(context.Background(), "https://linkedin.com/in/ada", LinkedInPosts)

	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	assert.EqualError(t, err, "No data returned from LinkedIn posts scraping")
	assert.Nil(t, data)
	assert.Empty(t, w.sleeps)

	res := c.Scrape(context.Background(), InstagramPosts, "https://instagram.com/ada")
	assert.False(t, res.Success)
}

func TestProfileEmptyArrayIsNoData(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[]`))
	})
	_, err := c.ScrapePlatform(context.Background(), "https://tiktok.com/@ada", TikTokProfile)

	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	assert.EqualError(t, err, "No data returned from TikTok scraping")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestNonArrayResponseIsNoData(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"snapshot_id":"s_123"}`))
	})
	_, err := c.ScrapePlatform(context.Background(), "https://linkedin.com/in/ada", LinkedInPosts)
	assert.EqualError(t, err, "No data returned from LinkedIn posts scraping")
}

func TestRateLimitedIsRetriedThenExhausted(t *testing.T) {
	var hits int32
	c, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.ScrapePlatform(context.Background(), "https://linkedin.com/in/ada", LinkedInProfile)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{2 * time.Millisecond, 4 * time.Millisecond}, sleeps.retries)
	assert.Empty(t, sleeps.sleeps)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	c, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, `{"error":"bad url"}`, http.StatusBadRequest)
	})

	_, err := c.ScrapePlatform(context.Background(), "not-a-url", LinkedInProfile)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.False(t, errors.As(err, new(*RetryExhaustedError)))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, sleeps.retries)
}

func TestServerErrorRecovers(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"username":"ada"}]`))
	})

	data, err := c.ScrapePlatform(context.Background(), "https://instagram.com/ada", InstagramProfile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"ada"}`, string(data))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	var hits int32
	c, _ := newTestClientWithConfig(t, config.ScraperConfig{BaseDelay: "1m"}, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	ctx, cancel := context.WithCancel(context.Background())
	c.onRetry = func(int, time.Duration) { cancel() }

	_, err := c.ScrapePlatform(ctx, "https://instagram.com/ada", InstagramProfile)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient(config.ScraperConfig{}, nil, logger.Discard())
	res := c.Scrape(context.Background(), LinkedInProfile, "https://linkedin.com/in/ada")
	assert.False(t, res.Success)
	assert.Equal(t, "linkedin", res.Platform)
	assert.Equal(t, ErrMissingAPIKey.Error(), res.Error)
}

func TestScrapeResultPlatformTags(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1}]`))
	})
	res := c.Scrape(context.Background(), InstagramPosts, "https://instagram.com/ada")
	assert.True(t, res.Success)
	assert.Equal(t, "instagram_posts", res.Platform)
	assert.Empty(t, res.Error)
}

func TestConnectionRefusedIsNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewClient(config.ScraperConfig{BaseURL: addr, APIKey: "secret", BaseDelay: "1ms"}, nil, logger.Discard())
	var retries []time.Duration
	c.onRetry = func(_ int, d time.Duration) { retries = append(retries, d) }

	_, err := c.ScrapePlatform(context.Background(), "https://linkedin.com/in/ada", LinkedInProfile)
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*RetryExhaustedError)))
	assert.Empty(t, retries)
}

func TestBreakerTransportIsUsed(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[{"name":"Ada"}]`))
	}))
	t.Cleanup(srv.Close)

	rt := &countingTransport{base: http.DefaultTransport}
	c := NewClient(config.ScraperConfig{BaseURL: srv.URL, APIKey: "secret", PostSuccessDelay: "1ms"}, rt, logger.Discard())
	_, err := c.ScrapePlatform(context.Background(), "https://linkedin.com/in/ada", LinkedInProfile)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&rt.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

type countingTransport struct {
	base  http.RoundTripper
	calls int32
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&t.calls, 1)
	return t.base.RoundTrip(req)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&StatusError{StatusCode: 503}))
	assert.True(t, isRetryable(&StatusError{StatusCode: 429}))
	assert.False(t, isRetryable(&StatusError{StatusCode: 404}))
	assert.True(t, isRetryable(context.DeadlineExceeded))
	assert.False(t, isRetryable(context.Canceled))
	assert.False(t, isRetryable(&NoDataError{Target: LinkedInProfile}))
	assert.False(t, isRetryable(errors.New("boom")))
}

func TestTargetHelpers(t *testing.T) {
	assert.Equal(t, "YouTube Profile", YouTubeProfile.Label())
	assert.Equal(t, LinkedInProfile, ProfileTarget("linkedin"))
	assert.True(t, ProfileTarget("youtube").Valid())
	pt, ok := PostsTarget("instagram")
	assert.True(t, ok)
	assert.Equal(t, InstagramPosts, pt)
	_, ok = PostsTarget("tiktok")
	assert.False(t, ok)
}
