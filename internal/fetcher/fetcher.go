package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"bwf-news-parser/internal/config"
	"bwf-news-parser/internal/normalize"
	"bwf-news-parser/internal/observability"
)

var (
	// ErrDisallowed robots.txt запрещает URL
	ErrDisallowed = errors.New("disallowed by robots.txt")
	// ErrNoAlternate нет ни прокси-ключа, ни браузера
	ErrNoAlternate = errors.New("no alternate fetch strategy configured")
)

// StatusError ответ с кодом вне 2xx
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

type Fetcher struct {
	client      *http.Client
	cfg         *config.Config
	logger      *observability.Logger
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
	proxy       *Proxy
	browser     *Browser
}

type FetchResponse struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
}

func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	client := &http.Client{
		Timeout: cfg.GetTotalTimeout(),
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.GetConnectTimeout(),
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: cfg.GetConnectTimeout(),
			MaxIdleConns:        cfg.HTTP.MaxIdleConnections,
			MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnectionsPerHost,
			IdleConnTimeout:     cfg.GetIdleConnectionTimeout(),
		},
	}

	f := &Fetcher{
		client:      client,
		cfg:         cfg,
		logger:      logger,
		rateLimiter: NewRateLimiter(cfg.RateLimit.MaxConcurrentPerHost, cfg.RateLimit.RPM),
		proxy:       NewProxy(cfg.Proxy, client, cfg.HTTP.UserAgent),
	}
	if cfg.RespectRobots {
		f.robotsCache = NewRobotsCache(cfg.GetRobotsCacheTTL(), cfg.HTTP.UserAgent)
	}
	if cfg.Rod.Enabled {
		f.browser = NewBrowser(cfg.Rod, cfg.HTTP.UserAgent, logger)
	}
	return f
}

// FetchContent HTML/XML страницы. Прокси используется только для доверенных хостов:
// при proxy.force первым, при proxy.enabled после неудачи прямого запроса.
func (f *Fetcher) FetchContent(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.GetTotalTimeout())
	defer cancel()

	viaProxy := f.proxy != nil && normalize.IsTrustedURL(rawURL, f.cfg.Site.Domain)

	if viaProxy && f.cfg.Proxy.Force {
		if err := f.checkRobots(ctx, rawURL); err != nil {
			return "", err
		}
		body, err := f.proxy.Fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		f.logger.Warn("Proxy fetch failed, trying direct", "url", rawURL, "error", err)
	}

	resp, err := f.Fetch(ctx, rawURL)
	if err == nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		err = &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	if err == nil {
		return string(resp.Body), nil
	}
	if errors.Is(err, ErrDisallowed) {
		return "", err
	}

	if viaProxy && f.cfg.Proxy.Enabled && !f.cfg.Proxy.Force {
		f.logger.Debug("Direct fetch failed, trying proxy", "url", rawURL, "error", err)
		body, proxyErr := f.proxy.Fetch(ctx, rawURL)
		if proxyErr == nil {
			return body, nil
		}
		return "", fmt.Errorf("direct fetch: %v; proxy fetch: %w", err, proxyErr)
	}
	return "", err
}

// FetchAlternate повторная загрузка в обход заглушки: прокси, затем headless-браузер
func (f *Fetcher) FetchAlternate(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.GetTotalTimeout())
	defer cancel()

	var lastErr error
	if f.proxy != nil && normalize.IsTrustedURL(rawURL, f.cfg.Site.Domain) {
		body, err := f.proxy.Fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.logger.Warn("Alternate proxy fetch failed", "url", rawURL, "error", err)
	}

	if f.browser != nil {
		return f.browser.Render(ctx, rawURL)
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrNoAlternate
}

// Close останавливает браузер, если он запускался
func (f *Fetcher) Close() error {
	if f.browser != nil {
		return f.browser.Close()
	}
	return nil
}

// Fetch прямой HTTP-запрос: robots.txt, лимиты, повторы на 5xx/429
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	host := parsedURL.Host

	if err := f.checkRobots(ctx, urlStr); err != nil {
		return nil, err
	}

	release, err := f.rateLimiter.Acquire(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	defer release()

	var lastErr error
	for attempt := 0; attempt <= f.cfg.HTTP.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.calculateBackoff(attempt)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := f.fetchOnce(ctx, urlStr)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &StatusError{URL: urlStr, Code: resp.StatusCode}
			if attempt < f.cfg.HTTP.MaxRetries {
				continue
			}
		}

		return resp, nil
	}

	return nil, fmt.Errorf("fetch failed after %d retries: %w", f.cfg.HTTP.MaxRetries, lastErr)
}

func (f *Fetcher) checkRobots(ctx context.Context, urlStr string) error {
	if f.robotsCache == nil {
		return nil
	}
	if !f.robotsCache.IsAllowed(ctx, urlStr, f.client) {
		return fmt.Errorf("%w: %s", ErrDisallowed, urlStr)
	}
	return nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	req.Header.Set("Accept-Language", f.cfg.HTTP.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	reader := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Response received",
		"url", urlStr,
		"status", resp.StatusCode,
		"content_encoding", resp.Header.Get("Content-Encoding"),
		"content_type", resp.Header.Get("Content-Type"),
		"body_bytes", len(body),
	)

	return &FetchResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
		URL:        resp.Request.URL.String(),
		Headers:    resp.Header,
	}, nil
}

func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	minMS := f.cfg.Backoff.MinMS
	maxMS := f.cfg.Backoff.MaxMS
	jitterPct := f.cfg.Backoff.JitterPct

	// Exponential backoff: min * 2^(attempt-1)
	exponential := minMS * (1 << uint(attempt-1))
	if exponential > maxMS || exponential <= 0 {
		exponential = maxMS
	}

	// Apply jitter: ±jitterPct%
	jitterRange := float64(exponential) * float64(jitterPct) / 100
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange
	finalMS := float64(exponential) + jitter

	if finalMS < float64(minMS) {
		finalMS = float64(minMS)
	}

	return time.Duration(math.Max(finalMS, 0)) * time.Millisecond
}
