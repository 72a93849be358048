package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"bwf-news-parser/internal/config"
)

const (
	scraperAPIEndpoint  = "https://api.scraperapi.com"
	scrapingBeeEndpoint = "https://app.scrapingbee.com/api/v1/"
)

// Proxy сервис, который загружает страницу за нас (ScraperAPI или ScrapingBee).
// ScraperAPI приоритетнее, если заданы оба ключа.
type Proxy struct {
	client         *http.Client
	userAgent      string
	scraperAPIKey  string
	scrapingBeeKey string
	country        string

	scraperAPIEndpoint  string
	scrapingBeeEndpoint string
}

// NewProxy nil, если ни одного ключа нет
func NewProxy(cfg config.ProxyConfig, client *http.Client, userAgent string) *Proxy {
	if !cfg.HasKey() {
		return nil
	}
	country := cfg.Country
	if country == "" {
		country = "de"
	}
	return &Proxy{
		client:              client,
		userAgent:           userAgent,
		scraperAPIKey:       cfg.ScraperAPIKey,
		scrapingBeeKey:      cfg.ScrapingBeeKey,
		country:             country,
		scraperAPIEndpoint:  scraperAPIEndpoint,
		scrapingBeeEndpoint: scrapingBeeEndpoint,
	}
}

// Name сервис, через который пойдёт запрос
func (p *Proxy) Name() string {
	if p.scraperAPIKey != "" {
		return "scraperapi"
	}
	return "scrapingbee"
}

// BuildURL адрес запроса к сервису с JS-рендерингом
func (p *Proxy) BuildURL(target string) string {
	if p.scraperAPIKey != "" {
		return fmt.Sprintf("%s?api_key=%s&url=%s&country=%s&render=true",
			p.scraperAPIEndpoint, url.QueryEscape(p.scraperAPIKey), url.QueryEscape(target), url.QueryEscape(p.country))
	}
	return fmt.Sprintf("%s?api_key=%s&url=%s&render_js=true",
		p.scrapingBeeEndpoint, url.QueryEscape(p.scrapingBeeKey), url.QueryEscape(target))
}

func (p *Proxy) Fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BuildURL(target), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build %s request: %w", p.Name(), stripRequestURL(err))
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed for %s: %w", p.Name(), target, stripRequestURL(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", p.Name(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: target, Code: resp.StatusCode}
	}
	return string(body), nil
}

// stripRequestURL *url.Error печатает адрес запроса вместе с api_key;
// оставляем только причину
func stripRequestURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
