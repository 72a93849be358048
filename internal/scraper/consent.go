package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minConsentSignals сколько сигналов нужно, чтобы признать страницу заглушкой
const minConsentSignals = 2

var consentSignals = []string{
	"cookie",
	"consent",
	"privacy",
	"gdpr",
	"accept all",
	"manage preferences",
}

// IsConsentPage определяет страницу-заглушку cookie/consent вместо статьи
func IsConsentPage(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return consentSignalCount(visibleText(doc.Selection)) >= minConsentSignals
}

func consentSignalCount(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, signal := range consentSignals {
		if strings.Contains(lower, signal) {
			count++
		}
	}
	return count
}

// visibleText текст без script/style; исходный документ не меняется
func visibleText(sel *goquery.Selection) string {
	clone := sel.Clone()
	clone.Find("script, style, noscript, template").Remove()
	return clone.Text()
}
