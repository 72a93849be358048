package scraper

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bwf-news-parser/internal/normalize"
)

const (
	baseContentImageScore = 100.0
	baseMetaImageScore    = 40.0
)

var (
	reImageExt        = regexp.MustCompile(`(?i)\.(jpe?g|png|webp|gif|avif)$`)
	reBackgroundImage = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;]*url\(\s*['"]?([^'")]+)['"]?\s*\)`)

	metaImageSelectors = []string{
		"meta[property='og:image']",
		"meta[name='og:image']",
		"meta[name='twitter:image']",
		"meta[property='twitter:image']",
		"meta[name='twitter:image:src']",
	}
)

// ImageCandidate картинка, найденная на странице статьи
type ImageCandidate struct {
	URL    string // нормализованный URL
	Order  int    // позиция в порядке обхода
	Width  int
	Height int
	Meta   bool // og:image / twitter:image
	Score  float64
}

// ImageRule одно правило веса; итоговый вес = база + сумма правил
type ImageRule struct {
	Name   string
	Weight func(c ImageCandidate) float64
}

// ImageRules правила ранжирования для заданных ключевых слов
func ImageRules(actionKeywords, portraitKeywords []string) []ImageRule {
	return []ImageRule{
		{
			Name:   "scan-order",
			Weight: func(c ImageCandidate) float64 { return -0.5 * float64(c.Order) },
		},
		{
			Name: "action-keyword",
			Weight: func(c ImageCandidate) float64 {
				if containsAny(imagePath(c.URL), actionKeywords) {
					return 15
				}
				return 0
			},
		},
		{
			Name: "portrait-keyword",
			Weight: func(c ImageCandidate) float64 {
				if containsAny(imagePath(c.URL), portraitKeywords) {
					return -20
				}
				return 0
			},
		},
		{
			Name: "dimensions",
			Weight: func(c ImageCandidate) float64 {
				switch {
				case c.Width >= 1600 && c.Height >= 900:
					return 20
				case c.Width >= 1200 && c.Height >= 800:
					return 10
				}
				return 0
			},
		},
	}
}

// ScoreImage считает вес кандидата по списку правил
func ScoreImage(c ImageCandidate, rules []ImageRule) float64 {
	score := baseContentImageScore
	if c.Meta {
		score = baseMetaImageScore
	}
	for _, rule := range rules {
		score += rule.Weight(c)
	}
	return score
}

// RankImages сортирует картинки контента по весу и дописывает meta-картинки в конец
func RankImages(candidates []ImageCandidate, rules []ImageRule) []ImageCandidate {
	var content, meta []ImageCandidate
	for _, c := range candidates {
		c.Score = ScoreImage(c, rules)
		if c.Meta {
			meta = append(meta, c)
		} else {
			content = append(content, c)
		}
	}

	sort.SliceStable(content, func(i, j int) bool {
		return content[i].Score > content[j].Score
	})

	return append(content, meta...)
}

// IsGenericImage логотипы, иконки, заглушки и прочие не-статейные картинки
func (e *Extractor) IsGenericImage(imageURL string) bool {
	return containsAny(imagePath(imageURL), e.sel.GenericImageMarkers)
}

// ChooseImage выбирает картинку из лучшей, полного списка и запасной из карточки.
// Сначала первая не-generic, потом первая непустая.
func ChooseImage(best string, ranked []string, fallback string, isGeneric func(string) bool) string {
	all := make([]string, 0, len(ranked)+2)
	all = append(all, best)
	all = append(all, ranked...)
	all = append(all, fallback)

	for _, img := range all {
		if img != "" && (isGeneric == nil || !isGeneric(img)) {
			return img
		}
	}
	for _, img := range all {
		if img != "" {
			return img
		}
	}
	return ""
}

// collectImages собирает кандидатов из контента статьи и meta-тегов
func (e *Extractor) collectImages(doc *goquery.Document, base *url.URL) []ImageCandidate {
	var candidates []ImageCandidate
	seen := make(map[string]bool)
	order := 0

	for _, selector := range e.sel.ContentImages {
		doc.Find(selector).Each(func(_ int, img *goquery.Selection) {
			raw := imageSource(img)
			if raw == "" {
				return
			}
			abs := normalize.Resolve(base, raw)
			norm := normalize.NormalizeImageURL(abs)
			if seen[norm] {
				return
			}
			seen[norm] = true

			if !e.isUploadImage(norm) || e.IsGenericImage(norm) {
				return
			}

			w, h, ok := normalize.ImageDimensions(abs)
			if !ok {
				w, h = attrInt(img, "width"), attrInt(img, "height")
			}

			candidates = append(candidates, ImageCandidate{
				URL:    norm,
				Order:  order,
				Width:  w,
				Height: h,
			})
			order++
		})
	}

	for _, selector := range metaImageSelectors {
		doc.Find(selector).Each(func(_ int, m *goquery.Selection) {
			raw, _ := m.Attr("content")
			raw = strings.TrimSpace(raw)
			if raw == "" {
				return
			}
			norm := normalize.NormalizeImageURL(normalize.Resolve(base, raw))
			if seen[norm] {
				return
			}
			seen[norm] = true

			if e.IsGenericImage(norm) || !reImageExt.MatchString(imagePath(norm)) {
				return
			}
			candidates = append(candidates, ImageCandidate{URL: norm, Order: order, Meta: true})
			order++
		})
	}

	return candidates
}

func (e *Extractor) isUploadImage(imageURL string) bool {
	return strings.Contains(imagePath(imageURL), strings.ToLower(e.sel.UploadPathSegment))
}

// imageSource src → data-src → data-lazy-src → первый элемент srcset
func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v := usableAttr(img, attr); v != "" {
			return v
		}
	}
	for _, attr := range []string{"srcset", "data-srcset"} {
		if v := firstSrcsetEntry(usableAttr(img, attr)); v != "" {
			return v
		}
	}
	return ""
}

// usableAttr пропускает пустые значения и data:-заглушки ленивой загрузки
func usableAttr(sel *goquery.Selection, attr string) string {
	v, ok := sel.Attr(attr)
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(strings.ToLower(v), "data:") {
		return ""
	}
	return v
}

func firstSrcsetEntry(srcset string) string {
	srcset = strings.TrimSpace(srcset)
	if srcset == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(srcset, ",")[0])
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func backgroundImage(style string) string {
	m := reBackgroundImage.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func attrInt(sel *goquery.Selection, attr string) int {
	v, _ := sel.Attr(attr)
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(v, "px")))
	if err != nil {
		return 0
	}
	return n
}

// imagePath путь URL в нижнем регистре; для мусорного ввода вся строка
func imagePath(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil || u.Path == "" {
		return strings.ToLower(imageURL)
	}
	return strings.ToLower(u.Path)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
