package httputil

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/cratetree/pkg/buildinfo"
	"github.com/matzehuels/cratetree/pkg/cache"
	"github.com/matzehuels/cratetree/pkg/errors"
	"github.com/matzehuels/cratetree/pkg/observability"
)

const (
	httpTimeout = 10 * time.Second

	// MaxDocumentSize bounds the size of a fetched document.
	MaxDocumentSize = 64 << 20

	// cacheNamespace scopes fetched documents in the cache.
	cacheNamespace = "document"
)

// Client fetches remote JSON-LD documents. It handles caching, retry logic,
// and common request headers.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	headers map[string]string
	backoff Backoff
}

// NewClient creates a Client backed by c. A nil cache disables caching and a
// nil keyer uses [cache.NewDefaultKeyer]. Headers are applied to all requests.
func NewClient(c cache.Cache, keyer cache.Keyer, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   c,
		keyer:   keyer,
		ttl:     ttl,
		headers: headers,
		backoff: DefaultBackoff,
	}
}

// Fetch returns the body at rawURL and whether it came from cache. The
// cache is bypassed when refresh is set. Documents are requested as JSON-LD.
// Transient failures (network errors, 429 and 5xx responses) are retried
// with backoff.
func (c *Client) Fetch(ctx context.Context, rawURL string, refresh bool) ([]byte, bool, error) {
	key := c.keyer.HTTPKey(cacheNamespace, rawURL)
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, cacheNamespace)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, cacheNamespace)
	}

	var body []byte
	err := c.backoff.Do(ctx, func() error {
		var err error
		body, err = c.get(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, cacheNamespace, len(body))
	}
	return body, false, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse url %q", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/ld+json, application/json;q=0.9, */*;q=0.1")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, rawURL); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read %s", rawURL)}
	}
	if len(data) > MaxDocumentSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s exceeds %d bytes", rawURL, MaxDocumentSize)
	}
	return data, nil
}

func checkStatus(resp *http.Response, rawURL string) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeFileNotFound, "%s: status %d", rawURL, code)
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{
			Err:   errors.New(errors.ErrCodeNetwork, "%s: status %d", rawURL, code),
			After: retryAfter(resp.Header),
		}
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: status %d %s", rawURL, code, http.StatusText(code))
	}
}

// IsURL reports whether s names an http or https resource.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
