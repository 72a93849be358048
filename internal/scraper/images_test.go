package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreImage(t *testing.T) {
	rules := ImageRules([]string{"action", "final"}, []string{"portrait"})

	tests := []struct {
		name     string
		cand     ImageCandidate
		expected float64
	}{
		{"plain first", ImageCandidate{URL: "https://x/wp-content/uploads/a.jpg"}, 100},
		{"scan order", ImageCandidate{URL: "https://x/wp-content/uploads/a.jpg", Order: 4}, 98},
		{"action keyword", ImageCandidate{URL: "https://x/wp-content/uploads/final-smash.jpg"}, 115},
		{"portrait keyword", ImageCandidate{URL: "https://x/wp-content/uploads/portrait.jpg"}, 80},
		{"large", ImageCandidate{URL: "https://x/wp-content/uploads/a.jpg", Width: 1920, Height: 1080}, 120},
		{"medium", ImageCandidate{URL: "https://x/wp-content/uploads/a.jpg", Width: 1200, Height: 800}, 110},
		{"small", ImageCandidate{URL: "https://x/wp-content/uploads/a.jpg", Width: 1600, Height: 700}, 100},
		{"meta", ImageCandidate{URL: "https://x/og.jpg", Meta: true, Order: 2}, 39},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ScoreImage(tt.cand, rules), 0.001)
		})
	}
}

func TestRankImagesKeepsMetaLast(t *testing.T) {
	rules := ImageRules([]string{"action"}, []string{"portrait"})

	ranked := RankImages([]ImageCandidate{
		{URL: "https://x/og.jpg", Meta: true, Order: 0},
		{URL: "https://x/portrait.jpg", Order: 1},
		{URL: "https://x/action.jpg", Order: 2},
		{URL: "https://x/plain.jpg", Order: 3},
	}, rules)

	var urls []string
	for _, c := range ranked {
		urls = append(urls, c.URL)
	}
	assert.Equal(t, []string{
		"https://x/action.jpg",
		"https://x/plain.jpg",
		"https://x/portrait.jpg",
		"https://x/og.jpg",
	}, urls)
}

func TestChooseImage(t *testing.T) {
	e := NewExtractor("bwfbadminton.com", nil)
	logo := "https://bwfbadminton.com/wp-content/uploads/bwf-logo.png"
	photo := "https://bwfbadminton.com/wp-content/uploads/match.jpg"
	card := "https://bwfbadminton.com/wp-content/uploads/card.jpg"

	assert.Equal(t, photo, ChooseImage(logo, []string{logo, photo}, card, e.IsGenericImage))
	assert.Equal(t, card, ChooseImage("", nil, card, e.IsGenericImage))
	assert.Equal(t, card, ChooseImage(logo, []string{logo}, card, e.IsGenericImage))
	assert.Equal(t, logo, ChooseImage(logo, nil, "", e.IsGenericImage), "all generic falls back to first non-empty")
	assert.Equal(t, "", ChooseImage("", nil, "", e.IsGenericImage))
}

func TestIsGenericImage(t *testing.T) {
	e := NewExtractor("bwfbadminton.com", nil)

	for _, u := range []string{
		"https://bwfbadminton.com/wp-content/uploads/bwf-logo.png",
		"https://bwfbadminton.com/favicon.ico",
		"https://bwfbadminton.com/wp-content/uploads/placeholder.jpg",
		"https://bwfbadminton.com/wp-content/uploads/HSBC-BWF-World-Tour-logo.jpg",
	} {
		assert.True(t, e.IsGenericImage(u), u)
	}
	assert.False(t, e.IsGenericImage("https://bwfbadminton.com/wp-content/uploads/2025/09/axelsen.jpg"))
}

func TestImageSource(t *testing.T) {
	tests := []struct {
		html     string
		expected string
	}{
		{`<img src="/a.jpg" data-src="/b.jpg">`, "/a.jpg"},
		{`<img src="data:image/gif;base64,xx" data-src="/b.jpg">`, "/b.jpg"},
		{`<img data-lazy-src="/c.jpg">`, "/c.jpg"},
		{`<img srcset="/d-300x200.jpg 300w, /d-1024x683.jpg 1024w">`, "/d-300x200.jpg"},
		{`<img data-srcset="/e.jpg 1x">`, "/e.jpg"},
		{`<img alt="nothing">`, ""},
	}

	for _, tt := range tests {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
		require.NoError(t, err)
		assert.Equal(t, tt.expected, imageSource(doc.Find("img").First()), tt.html)
	}
}

func TestBackgroundImage(t *testing.T) {
	assert.Equal(t, "/a.jpg", backgroundImage(`background-image: url('/a.jpg')`))
	assert.Equal(t, "https://x/b.png", backgroundImage(`color: red; background: #000 url("https://x/b.png") no-repeat`))
	assert.Equal(t, "", backgroundImage(`color: red`))
}
