package news

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MaxItems сколько новостей хранится в выходном файле
const MaxItems = 20

// Item опубликованная новость; имена JSON-полей фиксированы
type Item struct {
	Title   string `json:"title"`
	Href    string `json:"href"`
	Img     string `json:"img"`
	Preview string `json:"preview"`
	Date    string `json:"date"`
}

// Document формат сохранённого файла
type Document struct {
	ScrapedAt string `json:"scraped_at"`
	Items     []Item `json:"items"`
}

// NewDocument scrapedAt пишется в UTC, RFC 3339
func NewDocument(scrapedAt time.Time, items []Item) Document {
	if items == nil {
		items = []Item{}
	}
	return Document{
		ScrapedAt: scrapedAt.UTC().Format(time.RFC3339),
		Items:     items,
	}
}

// Valid у новости есть заголовок и ссылка
func (it Item) Valid() bool {
	return strings.TrimSpace(it.Title) != "" && strings.TrimSpace(it.Href) != ""
}

// ParseDate разбирает дату новости для сортировки
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}
