package scraper

import (
	"regexp"

	"bwf-news-parser/internal/normalize"
)

var (
	reTrailingDate       = regexp.MustCompile(`(?i)[\s\-–—|,:·•]*\b` + dayPattern + `\s+` + monthPattern + `\.?(?:\s+\d{4})?\s*$`)
	reTrailingSeparators = regexp.MustCompile(`[\s\-–—|,:;·•/]+$`)
)

// CleanTitle отрезает хвостовую дату ("05 Sep", "7 September 2025")
// и висящие разделители. Пустой результат не возвращается.
func CleanTitle(title string) string {
	title = normalize.CleanText(title)
	cleaned := reTrailingDate.ReplaceAllString(title, "")
	cleaned = reTrailingSeparators.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return title
	}
	return cleaned
}
