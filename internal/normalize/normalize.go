package normalize

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxPreviewChars лимит длины превью по умолчанию
const MaxPreviewChars = 220

var (
	reSpaces = regexp.MustCompile(`\s+`)

	// -1600x900 непосредственно перед расширением файла
	reSizeSuffix = regexp.MustCompile(`-(\d{2,5})x(\d{2,5})(\.[A-Za-z0-9]+)$`)

	boilerplateMarkers = []string{"cookie", "consent", "privacy", "gdpr"}
)

// Resolve приводит ссылку к абсолютному URL относительно origin базового адреса.
// Путь базового URL игнорируется.
func Resolve(base *url.URL, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	lower := strings.ToLower(candidate)

	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return candidate
	}
	if strings.HasPrefix(candidate, "//") {
		return "https:" + candidate
	}

	if !strings.HasPrefix(candidate, "/") {
		candidate = "/" + candidate
	}
	return origin(base) + candidate
}

// ResolveString то же, что Resolve, но с базой в виде строки
func ResolveString(base, candidate string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		u = nil
	}
	return Resolve(u, candidate)
}

func origin(base *url.URL) string {
	scheme := "https"
	host := ""
	if base != nil {
		if base.Scheme == "http" || base.Scheme == "https" {
			scheme = base.Scheme
		}
		host = base.Host
	}
	return scheme + "://" + host
}

// IsTrusted: host совпадает с доменом или является его поддоменом
func IsTrusted(host, domain string) bool {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if host == "" || domain == "" {
		return false
	}

	// Отрезаем порт
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	return host == domain || strings.HasSuffix(host, "."+domain)
}

// IsTrustedURL разбирает URL и проверяет его host
func IsTrustedURL(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return IsTrusted(u.Host, domain)
}

// CanonicalURL убирает якорь и пробелы по краям
func CanonicalURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}

// NormalizeImageURL убирает query-строку, якорь и суффикс размера -WxH,
// чтобы варианты одной картинки совпадали.
func NormalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if idx := strings.IndexAny(raw, "?#"); idx > -1 {
		raw = raw[:idx]
	}
	return reSizeSuffix.ReplaceAllString(raw, "$3")
}

// ImageDimensions достаёт размеры из суффикса -WxH имени файла.
// Query-строка перед разбором отрезается.
func ImageDimensions(raw string) (width, height int, ok bool) {
	if idx := strings.IndexAny(raw, "?#"); idx > -1 {
		raw = raw[:idx]
	}
	m := reSizeSuffix.FindStringSubmatch(raw)
	if m == nil {
		return 0, 0, false
	}
	width, _ = strconv.Atoi(m[1])
	height, _ = strconv.Atoi(m[2])
	return width, height, width > 0 && height > 0
}

// CleanText заменяет NBSP и схлопывает пробелы
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\u00A0", " ")
	text = reSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TruncatePreview обрезает текст до max символов (рун)
func TruncatePreview(text string, max int) string {
	text = CleanText(text)
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max]))
}

// IsBoilerplate: текст похож на cookie/consent/privacy баннер
func IsBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
