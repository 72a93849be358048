package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bwf-news-parser/internal/normalize"
)

const (
	// cardDepth сколько уровней предков считается карточкой ссылки
	cardDepth = 2

	maxLatestHeadingChars = 60
	maxLatestAncestorWalk = 6
	minLinksNearHeading   = 3
	minLinksInContainer   = 6
)

var (
	reNewsPath = regexp.MustCompile(`/news/([^/?#]+)`)

	// служебные разделы, а не статьи
	nonArticleSlugs = map[string]bool{
		"page":     true,
		"category": true,
		"tag":      true,
		"feed":     true,
		"author":   true,
	}
)

type Extractor struct {
	domain string
	sel    *Selectors
	rules  []ImageRule
}

// NewExtractor domain корневой домен семейства сайтов (bwfbadminton.com)
func NewExtractor(domain string, sel *Selectors) *Extractor {
	sel = sel.withDefaults()
	return &Extractor{
		domain: strings.ToLower(strings.TrimSpace(domain)),
		sel:    sel,
		rules:  ImageRules(sel.ActionKeywords, sel.PortraitKeywords),
	}
}

// ExtractListing собирает ссылки на статьи со страницы листинга
func (e *Extractor) ExtractListing(html, baseURL string, limit int) ([]Candidate, error) {
	doc, base, err := parseDocument(html, baseURL)
	if err != nil {
		return nil, err
	}
	return e.scanLinks(doc, doc.Selection, base, limit), nil
}

// ExtractLatestListing то же, но только внутри блока "Latest news", если он найден
func (e *Extractor) ExtractLatestListing(html, baseURL string, limit int) ([]Candidate, error) {
	doc, base, err := parseDocument(html, baseURL)
	if err != nil {
		return nil, err
	}

	region := e.findLatestRegion(doc, base)
	if region == nil {
		region = doc.Selection
	}
	return e.scanLinks(doc, region, base, limit), nil
}

func (e *Extractor) scanLinks(doc *goquery.Document, scope *goquery.Selection, base *url.URL, limit int) []Candidate {
	var candidates []Candidate
	seen := make(map[string]bool)
	pageImage := metaContent(doc.Selection, "meta[property='og:image']", "meta[name='og:image']")

	scope.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if limit > 0 && len(candidates) >= limit {
			return false
		}

		href, ok := e.qualifyLink(base, link)
		if !ok || seen[href] {
			return true
		}
		seen[href] = true

		card := cardContext(link)
		candidates = append(candidates, Candidate{
			Href:            href,
			TitleFallback:   cardTitle(link, card),
			ImgFallback:     cardImage(card, base, pageImage),
			PreviewFallback: e.cardPreview(card),
			DateFallback:    cardDate(card),
			SequenceNum:     len(candidates),
		})
		return true
	})

	return candidates
}

// qualifyLink абсолютный href, если ссылка ведёт на статью доверенного домена
func (e *Extractor) qualifyLink(base *url.URL, link *goquery.Selection) (string, bool) {
	raw, _ := link.Attr("href")
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}

	abs := normalize.CanonicalURL(normalize.Resolve(base, raw))
	u, err := url.Parse(abs)
	if err != nil || !normalize.IsTrusted(u.Host, e.domain) {
		return "", false
	}

	m := reNewsPath.FindStringSubmatch(u.Path)
	if m == nil || nonArticleSlugs[strings.ToLower(m[1])] {
		return "", false
	}
	return abs, true
}

// cardContext поднимается от ссылки на cardDepth уровней (или сколько есть)
func cardContext(link *goquery.Selection) *goquery.Selection {
	card := link
	for i := 0; i < cardDepth; i++ {
		parent := card.Parent()
		if parent.Length() == 0 || goquery.NodeName(parent) == "body" {
			break
		}
		card = parent
	}
	return card
}

func cardTitle(link, card *goquery.Selection) string {
	title := firstText(
		func() string { return normalize.CleanText(link.Text()) },
		func() string { v, _ := link.Attr("title"); return normalize.CleanText(v) },
		func() string { return normalize.CleanText(card.Find("h1, h2, h3, h4").First().Text()) },
	)
	if title == "" {
		return ""
	}
	return CleanTitle(title)
}

func cardImage(card *goquery.Selection, base *url.URL, pageImage string) string {
	raw := firstText(
		func() string { return usableAttr(card.Find("img[src]").First(), "src") },
		func() string { return usableAttr(card.Find("img[data-src]").First(), "data-src") },
		func() string {
			return firstSrcsetEntry(usableAttr(card.Find("img[srcset], source[srcset]").First(), "srcset"))
		},
		func() string {
			return firstSrcsetEntry(usableAttr(card.Find("[data-srcset]").First(), "data-srcset"))
		},
		func() string { return cardBackground(card) },
		func() string { return pageImage },
	)
	if raw == "" {
		return ""
	}
	return normalize.NormalizeImageURL(normalize.Resolve(base, raw))
}

// cardBackground inline background-image у самой карточки или потомков
func cardBackground(card *goquery.Selection) string {
	if style, ok := card.Attr("style"); ok {
		if img := backgroundImage(style); img != "" {
			return img
		}
	}
	var found string
	card.Find("[style]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		style, _ := s.Attr("style")
		found = backgroundImage(style)
		return found == ""
	})
	return found
}

// cardPreview первый абзац карточки, не похожий на cookie-баннер
func (e *Extractor) cardPreview(card *goquery.Selection) string {
	var preview string
	card.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if t := normalize.CleanText(p.Text()); e.acceptableText(t) {
			preview = t
			return false
		}
		return true
	})
	return normalize.TruncatePreview(preview, e.sel.MaxPreviewChars)
}

func cardDate(card *goquery.Selection) string {
	return firstText(
		func() string { v, _ := card.Find("time[datetime]").First().Attr("datetime"); return v },
		func() string { return reWeekdayDate.FindString(normalize.CleanText(visibleText(card))) },
	)
}

// findLatestRegion ищет блок последних новостей: по заголовку, затем по class/id.
// nil, если ничего подходящего нет.
func (e *Extractor) findLatestRegion(doc *goquery.Document, base *url.URL) *goquery.Selection {
	var region *goquery.Selection

	doc.Find("h1, h2, h3, h4, h5, h6, [class*='title'], [class*='heading']").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !isLatestHeading(h.Text()) {
			return true
		}
		node := h.Parent()
		for i := 0; i < maxLatestAncestorWalk && node.Length() > 0; i++ {
			if e.countLinks(node, base) >= minLinksNearHeading {
				region = node
				return false
			}
			node = node.Parent()
		}
		return true
	})
	if region != nil {
		return region
	}

	// самый узкий контейнер с "latest" в class/id
	best := -1
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		if !strings.Contains(strings.ToLower(class+" "+id), "latest") {
			return
		}
		n := e.countLinks(s, base)
		if n >= minLinksInContainer && (best < 0 || n < best) {
			best = n
			region = s
		}
	})

	return region
}

func isLatestHeading(text string) bool {
	t := strings.ToLower(normalize.CleanText(text))
	if t == "" || len([]rune(t)) > maxLatestHeadingChars {
		return false
	}
	return strings.Contains(t, "latest") && strings.Contains(t, "news")
}

// countLinks число уникальных ссылок на статьи внутри блока
func (e *Extractor) countLinks(sel *goquery.Selection, base *url.URL) int {
	seen := make(map[string]bool)
	sel.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		if href, ok := e.qualifyLink(base, link); ok {
			seen[href] = true
		}
	})
	return len(seen)
}

func parseDocument(html, baseURL string) (*goquery.Document, *url.URL, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, base, nil
}

// metaContent content первого непустого meta-тега из списка
func metaContent(doc *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if v, ok := doc.Find(selector).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
