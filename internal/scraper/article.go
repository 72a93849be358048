package scraper

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"bwf-news-parser/internal/normalize"
)

var jsonLDDateKeys = []string{"datePublished", "dateCreated", "uploadDate"}

// ExtractArticle разбирает страницу статьи. false, если не удалось найти заголовок.
func (e *Extractor) ExtractArticle(html, pageURL string) (*Article, bool) {
	doc, base, err := parseDocument(html, pageURL)
	if err != nil {
		return nil, false
	}

	title := firstText(
		func() string { return normalize.CleanText(metaContent(doc.Selection, "meta[property='og:title']", "meta[name='og:title']")) },
		func() string { return normalize.CleanText(doc.Find("title").First().Text()) },
		func() string { return normalize.CleanText(doc.Find("h1").First().Text()) },
	)
	if title == "" {
		return nil, false
	}

	article := &Article{Title: CleanTitle(title)}

	for _, c := range RankImages(e.collectImages(doc, base), e.rules) {
		article.Images = append(article.Images, c.URL)
	}
	if len(article.Images) > 0 {
		article.Image = article.Images[0]
	}

	article.Preview = e.articlePreview(doc, html, base)
	article.Date = e.articleDate(doc, pageURL, article.Preview)

	return article, true
}

// articlePreview meta description → абзацы контента → readability
func (e *Extractor) articlePreview(doc *goquery.Document, html string, base *url.URL) string {
	preview := firstText(
		func() string {
			desc := normalize.CleanText(metaContent(doc.Selection,
				"meta[name='description']", "meta[property='og:description']", "meta[name='og:description']"))
			if !e.acceptableText(desc) {
				return ""
			}
			return desc
		},
		func() string { return e.contentParagraph(doc) },
		func() string { return e.readabilityExcerpt(html, base) },
	)
	return normalize.TruncatePreview(preview, e.sel.MaxPreviewChars)
}

func (e *Extractor) acceptableText(text string) bool {
	return len([]rune(text)) >= e.sel.MinDescriptionChars && !normalize.IsBoilerplate(text)
}

// contentParagraph первый селектор с подходящими абзацами задаёт пул;
// в нём предпочитаем абзац с подписью автора или названием месяца
func (e *Extractor) contentParagraph(doc *goquery.Document) string {
	for _, selector := range e.sel.ContentParagraphs {
		var pool []string
		doc.Find(selector).Each(func(_ int, p *goquery.Selection) {
			if t := normalize.CleanText(p.Text()); e.acceptableText(t) {
				pool = append(pool, t)
			}
		})
		if len(pool) == 0 {
			continue
		}

		for _, p := range pool {
			if e.hasByline(p) || reMonthName.MatchString(p) {
				return p
			}
		}
		return pool[0]
	}
	return ""
}

func (e *Extractor) hasByline(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range e.sel.BylineMarkers {
		m := strings.ToLower(marker)
		if m != "" && (strings.HasPrefix(lower, m) || strings.Contains(lower, " "+strings.TrimSpace(m)+" ")) {
			return true
		}
	}
	return false
}

func (e *Extractor) readabilityExcerpt(html string, base *url.URL) string {
	parsed, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		return ""
	}
	for _, candidate := range []string{parsed.Excerpt, parsed.TextContent} {
		if t := normalize.CleanText(candidate); e.acceptableText(t) {
			return t
		}
	}
	return ""
}

// articleDate первый найденный источник даты, приведённый к ISO-8601
func (e *Extractor) articleDate(doc *goquery.Document, pageURL, preview string) string {
	raw := firstText(
		func() string {
			return metaContent(doc.Selection,
				"meta[property='article:published_time']", "meta[name='article:published_time']")
		},
		func() string { v, _ := doc.Find("time[datetime]").First().Attr("datetime"); return v },
		func() string { return reWeekdayDate.FindString(normalize.CleanText(visibleText(doc.Selection))) },
		func() string { return jsonLDDate(doc) },
		func() string { return dateFromURL(pageURL) },
		func() string { return reLooseWeekdayDate.FindString(e.contentText(doc)) },
		func() string { return reLooseWeekdayDate.FindString(preview) },
	)
	if raw == "" {
		return ""
	}
	return NormalizeDate(raw)
}

func (e *Extractor) contentText(doc *goquery.Document) string {
	for _, selector := range e.sel.ContentText {
		if t := normalize.CleanText(visibleText(doc.Find(selector).First())); t != "" {
			return t
		}
	}
	return ""
}

// jsonLDDate ищет дату публикации в блоках application/ld+json
func jsonLDDate(doc *goquery.Document) string {
	var found string
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		found = findDateKey(data)
		return found == ""
	})
	return found
}

func findDateKey(node any) string {
	switch v := node.(type) {
	case map[string]any:
		for _, key := range jsonLDDateKeys {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s := findDateKey(v[k]); s != "" {
				return s
			}
		}
	case []any:
		for _, child := range v {
			if s := findDateKey(child); s != "" {
				return s
			}
		}
	}
	return ""
}
