package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsCache правила robots.txt по схеме+хосту с TTL
type RobotsCache struct {
	cache     map[string]*robotsEntry
	ttl       time.Duration
	userAgent string
	mu        sync.RWMutex
}

type robotsEntry struct {
	data      *robotstxt.RobotsData // nil = всё разрешено
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, userAgent string) *RobotsCache {
	return &RobotsCache{
		cache:     make(map[string]*robotsEntry),
		ttl:       ttl,
		userAgent: userAgent,
	}
}

// IsAllowed при недоступном robots.txt считаем, что можно
func (rc *RobotsCache) IsAllowed(ctx context.Context, urlStr string, client *http.Client) bool {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return true
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	key := scheme + "://" + u.Host

	rc.mu.RLock()
	cached, exists := rc.cache[key]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		cached = rc.load(ctx, key, client)
	}
	if cached.data == nil {
		return true
	}
	return cached.data.TestAgent(u.RequestURI(), rc.userAgent)
}

func (rc *RobotsCache) load(ctx context.Context, origin string, client *http.Client) *robotsEntry {
	entry := &robotsEntry{expiresAt: time.Now().Add(rc.ttl)}
	defer func() {
		rc.mu.Lock()
		rc.cache[origin] = entry
		rc.mu.Unlock()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return entry
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		// сетевая ошибка: запоминаем ненадолго
		entry.expiresAt = time.Now().Add(time.Minute)
		return entry
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil || resp.StatusCode >= 500 {
		entry.expiresAt = time.Now().Add(time.Minute)
		return entry
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err == nil {
		entry.data = data
	}
	return entry
}
