package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"bwf-news-parser/internal/config"
	"bwf-news-parser/internal/normalize"
	"bwf-news-parser/internal/observability"
	"bwf-news-parser/internal/scraper"
)

const googleNewsEndpoint = "https://news.google.com/rss/search"

// Fetcher загружает тело ленты
type Fetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Discoverer ищет ссылки на статьи через RSS, когда листинги пусты
type Discoverer struct {
	fetcher Fetcher
	cfg     config.DiscoveryConfig
	domain  string
	logger  *observability.Logger
}

func NewDiscoverer(fetcher Fetcher, cfg config.DiscoveryConfig, domain string, logger *observability.Logger) *Discoverer {
	return &Discoverer{fetcher: fetcher, cfg: cfg, domain: domain, logger: logger}
}

// GoogleNewsURL RSS-поиск Google News по запросу
func GoogleNewsURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")
	return googleNewsEndpoint + "?" + params.Encode()
}

// Sources ленты в порядке опроса: сначала ленты сайта, потом Google News
func (d *Discoverer) Sources() []string {
	sources := make([]string, 0, len(d.cfg.Feeds)+1)
	sources = append(sources, d.cfg.Feeds...)
	if q := strings.TrimSpace(d.cfg.GoogleNewsQuery); q != "" {
		sources = append(sources, GoogleNewsURL(q))
	}
	return sources
}

// Discover кандидаты из всех источников, без повторов, не больше cfg.Limit.
// Ошибки отдельных лент только логируются.
func (d *Discoverer) Discover(ctx context.Context) []scraper.Candidate {
	if !d.cfg.Enabled {
		return nil
	}

	limit := d.cfg.Limit
	var out []scraper.Candidate
	seen := make(map[string]bool)

	for _, source := range d.Sources() {
		if ctx.Err() != nil || (limit > 0 && len(out) >= limit) {
			break
		}

		body, err := d.fetcher.FetchContent(ctx, source)
		if err != nil {
			d.logger.Warn("Discovery feed fetch failed", "feed", source, "error", err)
			continue
		}

		found, err := ParseFeed(body, d.domain, 0)
		if err != nil {
			d.logger.Warn("Discovery feed parse failed", "feed", source, "error", err)
			continue
		}

		added := 0
		for _, c := range found {
			if seen[c.Href] {
				continue
			}
			if limit > 0 && len(out) >= limit {
				break
			}
			seen[c.Href] = true
			c.SequenceNum = len(out)
			out = append(out, c)
			added++
		}
		d.logger.Info("Discovery feed processed", "feed", source, "items", len(found), "added", added)
	}

	return out
}

// ParseFeed разбирает RSS/Atom и оставляет ссылки на доверенные хосты.
// limit <= 0 без ограничения.
func ParseFeed(data, domain string, limit int) ([]scraper.Candidate, error) {
	feed, err := gofeed.NewParser().ParseString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	var out []scraper.Candidate
	seen := make(map[string]bool)

	for _, item := range feed.Items {
		if limit > 0 && len(out) >= limit {
			break
		}

		link := itemLink(item, feed.Link)
		if link == "" || !normalize.IsTrustedURL(link, domain) {
			continue
		}
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if seen[link] {
			continue
		}
		seen[link] = true

		out = append(out, scraper.Candidate{
			Href:            link,
			TitleFallback:   itemTitle(item),
			ImgFallback:     itemImage(item),
			PreviewFallback: itemPreview(item),
			DateFallback:    itemDate(item),
			SequenceNum:     len(out),
		})
	}

	return out, nil
}

// itemLink для ссылок news.google.com берёт адрес издателя из описания;
// относительные ссылки разрешаются от адреса ленты
func itemLink(item *gofeed.Item, feedLink string) string {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return ""
	}
	link = normalize.ResolveString(feedLink, link)
	if strings.Contains(link, "news.google.com") {
		if unwrapped := descriptionHref(item.Description); unwrapped != "" {
			link = unwrapped
		}
	}
	return normalize.CanonicalURL(link)
}

func descriptionHref(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return ""
	}

	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		raw, _ := a.Attr("href")
		raw = strings.TrimSpace(raw)
		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			return true
		}
		if unescaped, err := url.PathUnescape(raw); err == nil {
			raw = unescaped
		}
		href = raw
		return false
	})
	return href
}

// itemTitle Google News дописывает " - Издатель" в конец заголовка
func itemTitle(item *gofeed.Item) string {
	title := normalize.CleanText(item.Title)
	if strings.Contains(item.Link, "news.google.com") {
		if idx := strings.LastIndex(title, " - "); idx > 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return normalize.NormalizeImageURL(item.Image.URL)
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return normalize.NormalizeImageURL(enc.URL)
		}
	}
	return ""
}

func itemPreview(item *gofeed.Item) string {
	if strings.Contains(item.Link, "news.google.com") {
		return ""
	}
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}
	if raw == "" {
		return ""
	}

	text := raw
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		text = doc.Text()
	}
	text = normalize.CleanText(text)
	if normalize.IsBoilerplate(text) {
		return ""
	}
	return normalize.TruncatePreview(text, normalize.MaxPreviewChars)
}

func itemDate(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return strings.TrimSpace(item.Published)
}
