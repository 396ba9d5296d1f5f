package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/corpix/uarand"
	"github.com/ppiankov/cohortscan/internal/cache"
	"github.com/ppiankov/cohortscan/internal/model"
	"github.com/ppiankov/cohortscan/internal/util"
	"github.com/ppiankov/cohortscan/internal/worker"
)

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, e.Status)
}

// Fetcher fetches detail and profile pages over plain HTTP
type Fetcher struct {
	httpClient *http.Client
	userAgent  func() string
	maxBytes   int64
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithCache serves repeated URLs from c
func WithCache(c cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLimiter paces requests per host
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithRobots refuses URLs disallowed by robots.txt
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) {
		f.robots = r
	}
}

// WithUserAgent overrides how the User-Agent header is chosen
func WithUserAgent(fn func() string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = fn
	}
}

// NewFetcher creates a Fetcher from the HTTP configuration
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		maxBytes: cfg.MaxBodyBytes,
	}

	fixed := cfg.UserAgent
	if cfg.RandomUserAgent {
		f.userAgent = uarand.GetRandom
	} else {
		f.userAgent = func() string { return fixed }
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.maxBytes <= 0 {
		f.maxBytes = 2_000_000
	}

	return f
}

// HTTPClient exposes the underlying client for collaborators sharing its settings
func (f *Fetcher) HTTPClient() *http.Client {
	return f.httpClient
}

// Fetch retrieves rawURL. Non-2xx responses are returned as *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*model.Page, error) {
	if f.cache != nil {
		if body, ok := f.cache.Get(cache.PageKey(rawURL)); ok {
			return &model.Page{
				URL:      rawURL,
				FinalURL: rawURL,
				HTML:     string(body),
				Meta:     model.FetchMeta{StatusCode: http.StatusOK, FromCache: true},
			}, nil
		}
	}

	if f.robots != nil {
		allowed, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("robots: %s disallowed", rawURL)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
		Headers:      make(map[string]string),
	}

	for _, key := range []string{"Content-Length", "Server", "Cache-Control"} {
		if val := resp.Header.Get(key); val != "" {
			meta.Headers[key] = val
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.cache != nil {
		_ = f.cache.Set(cache.PageKey(rawURL), body, f.cacheTTL)
	}

	return &model.Page{
		URL:      rawURL,
		FinalURL: resp.Request.URL.String(),
		HTML:     string(body),
		Meta:     meta,
	}, nil
}
