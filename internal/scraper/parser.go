package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	monthPattern   = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	weekdayPattern = `(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*`
	dayPattern     = `\d{1,2}(?:st|nd|rd|th)?`

	minPlausibleYear = 1970
)

var (
	// "Sunday, 7 September 2025" / "Sunday, September 7, 2025"
	reWeekdayDate = regexp.MustCompile(`(?i)\b` + weekdayPattern + `\.?,?\s+(?:` + dayPattern + `\s+` + monthPattern + `\.?|` +
		monthPattern + `\.?\s+` + dayPattern + `),?\s+\d{4}\b`)

	// То же, но год необязателен
	reLooseWeekdayDate = regexp.MustCompile(`(?i)\b` + weekdayPattern + `\.?,?\s+(?:` + dayPattern + `\s+` + monthPattern + `\.?|` +
		monthPattern + `\.?\s+` + dayPattern + `)(?:,?\s+\d{4})?\b`)

	reMonthName = regexp.MustCompile(`(?i)\b` + monthPattern + `\b`)
	reYear      = regexp.MustCompile(`\b\d{4}\b`)

	reURLDate        = regexp.MustCompile(`/(\d{4})/(\d{1,2})/(\d{1,2})(?:/|$)`)
	reLeadingWeekday = regexp.MustCompile(`(?i)^\s*` + weekdayPattern + `\.?,?\s*`)
	reOrdinal        = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)\b`)

	fallbackLayouts = []string{
		"2 January 2006",
		"2 Jan 2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"January 2 2006",
		"Jan 2 2006",
		"2 January 2006 15:04",
		"02.01.2006",
		"2006-01-02",
	}
)

type DateParser struct {
	loc *time.Location
}

// NewDateParser даты без зоны считаются в UTC
func NewDateParser() *DateParser {
	return &DateParser{loc: time.UTC}
}

// Parse разбирает дату в свободном формате
func (dp *DateParser) Parse(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	// Убираем день недели и окончания 1st/2nd
	cleaned := reLeadingWeekday.ReplaceAllString(dateStr, "")
	cleaned = reOrdinal.ReplaceAllString(cleaned, "$1")
	cleaned = strings.TrimSpace(strings.Trim(cleaned, ", "))

	// "7 September" без года не угадываем
	if reMonthName.MatchString(cleaned) && !reYear.MatchString(cleaned) {
		return time.Time{}, fmt.Errorf("date without year: %s", dateStr)
	}

	if cleaned != "" {
		if t, err := dateparse.ParseIn(cleaned, dp.loc); err == nil && plausibleYear(t) {
			return t, nil
		}
		for _, layout := range fallbackLayouts {
			if t, err := time.ParseInLocation(layout, cleaned, dp.loc); err == nil && plausibleYear(t) {
				return t, nil
			}
		}
	}

	if t, err := dateparse.ParseIn(dateStr, dp.loc); err == nil && plausibleYear(t) {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

func plausibleYear(t time.Time) bool {
	return t.Year() >= minPlausibleYear
}

// Normalize возвращает RFC 3339 или исходную строку без пробелов по краям
func (dp *DateParser) Normalize(raw string) string {
	t, err := dp.Parse(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return t.Format(time.RFC3339)
}

var defaultDateParser = NewDateParser()

// NormalizeDate приводит дату к ISO-8601; при неудаче отдаёт исходник
func NormalizeDate(raw string) string {
	return defaultDateParser.Normalize(raw)
}

// dateFromURL ищет /YYYY/MM/DD/ в пути
func dateFromURL(pageURL string) string {
	m := reURLDate.FindStringSubmatch(pageURL)
	if m == nil {
		return ""
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return ""
	}
	return t.Format("2006-01-02")
}
