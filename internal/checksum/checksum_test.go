package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bwf-news-parser/internal/news"
)

func sampleItem() news.Item {
	return news.Item{
		Title:   "Axelsen Wins Japan Open",
		Href:    "https://bwfbadminton.com/news/axelsen-wins-japan-open/",
		Img:     "https://bwfbadminton.com/wp-content/uploads/2025/09/axelsen.jpg",
		Preview: "Viktor Axelsen claimed the title in Tokyo.",
		Date:    "2025-09-07T00:00:00Z",
	}
}

func TestItemHash(t *testing.T) {
	gen := NewGenerator()
	item := sampleItem()

	hash1 := gen.ItemHash(item)
	hash2 := gen.ItemHash(item)

	// Хеш детерминированный, 64 hex-символа
	assert.Equal(t, hash1, hash2)
	assert.Len(t, hash1, 64)

	changed := item
	changed.Img = "https://bwfbadminton.com/wp-content/uploads/2025/09/other.jpg"
	assert.NotEqual(t, hash1, gen.ItemHash(changed), "image change must change the hash")

	changed = item
	changed.Title = "Another Title"
	assert.NotEqual(t, hash1, gen.ItemHash(changed))
}

func TestListHashDependsOnOrder(t *testing.T) {
	gen := NewGenerator()
	a := sampleItem()
	b := sampleItem()
	b.Href = "https://bwfbadminton.com/news/other/"

	assert.Equal(t, gen.ListHash([]news.Item{a, b}), gen.ListHash([]news.Item{a, b}))
	assert.NotEqual(t, gen.ListHash([]news.Item{a, b}), gen.ListHash([]news.Item{b, a}))
	assert.Len(t, gen.ListHash(nil), 64)
}
