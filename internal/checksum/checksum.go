package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"bwf-news-parser/internal/news"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// ItemHash SHA256 опубликованной новости
// Формула: SHA256(href|title|preview|date|img)
func (g *Generator) ItemHash(item news.Item) string {
	content := strings.Join([]string{item.Href, item.Title, item.Preview, item.Date, item.Img}, "|")
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// ListHash хеш всего списка с учётом порядка
func (g *Generator) ListHash(items []news.Item) string {
	h := sha256.New()
	for _, item := range items {
		h.Write([]byte(g.ItemHash(item)))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
