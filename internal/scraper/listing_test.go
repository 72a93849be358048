package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingBase = "https://bwfbadminton.com/news/"

const listingHTML = `<html><head>
<meta property="og:image" content="https://bwfbadminton.com/wp-content/uploads/2025/09/bwf-logo.png">
</head><body>
<div class="posts">
  <article class="post">
    <div class="thumb"><a href="/news/axelsen-wins-title/"><img src="/wp-content/uploads/2025/09/axelsen-1200x800.jpg?ver=1"></a></div>
    <h3 class="title"><a href="https://bwfbadminton.com/news/axelsen-wins-title/#comments">Axelsen Wins Title 05 Sep</a></h3>
    <p>Viktor Axelsen claimed the crown in straight games.</p>
    <time datetime="2025-09-05T10:00:00Z">5 Sep</time>
  </article>
  <article class="post">
    <div class="thumb"><a href="//worldtour.bwfbadminton.com/news/an-se-young-back/" title="An Se Young Back"><span style="background-image: url('https://worldtour.bwfbadminton.com/wp-content/uploads/2025/09/an-se-young.jpg')"></span></a></div>
    <div class="meta">Sunday, 7 September 2025</div>
  </article>
  <article class="post">
    <div><a href="https://bwfbadminton.com.evil.net/news/fake-story/">Fake</a></div>
    <div><a href="/news/">All news</a> <a href="/news/page/2/">Next</a> <a href="/tournaments/x/">Tournament</a></div>
  </article>
  <article class="post">
    <div><a href="/news/third-story/">Third Story</a></div>
  </article>
</div>
</body></html>`

func TestExtractListing(t *testing.T) {
	e := NewExtractor("bwfbadminton.com", nil)

	cands, err := e.ExtractListing(listingHTML, listingBase, 20)
	require.NoError(t, err)
	require.Len(t, cands, 3)

	first := cands[0]
	assert.Equal(t, "https://bwfbadminton.com/news/axelsen-wins-title/", first.Href)
	assert.Equal(t, "Axelsen Wins Title", first.TitleFallback)
	assert.Equal(t, "https://bwfbadminton.com/wp-content/uploads/2025/09/axelsen.jpg", first.ImgFallback)
	assert.Equal(t, "Viktor Axelsen claimed the crown in straight games.", first.PreviewFallback)
	assert.Equal(t, "2025-09-05T10:00:00Z", first.DateFallback)
	assert.Equal(t, 0, first.SequenceNum)

	second := cands[1]
	assert.Equal(t, "https://worldtour.bwfbadminton.com/news/an-se-young-back/", second.Href)
	assert.Equal(t, "An Se Young Back", second.TitleFallback)
	assert.Equal(t, "https://worldtour.bwfbadminton.com/wp-content/uploads/2025/09/an-se-young.jpg", second.ImgFallback)
	assert.Equal(t, "Sunday, 7 September 2025", second.DateFallback)
	assert.Empty(t, second.PreviewFallback)

	third := cands[2]
	assert.Equal(t, "https://bwfbadminton.com/news/third-story/", third.Href)
	assert.Equal(t, "Third Story", third.TitleFallback)
	assert.Equal(t, "https://bwfbadminton.com/wp-content/uploads/2025/09/bwf-logo.png", third.ImgFallback,
		"page-level og:image is the last card image fallback")
	assert.Equal(t, 2, third.SequenceNum)
}

func TestExtractListingLimit(t *testing.T) {
	e := NewExtractor("bwfbadminton.com", nil)

	cands, err := e.ExtractListing(listingHTML, listingBase, 2)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "https://worldtour.bwfbadminton.com/news/an-se-young-back/", cands[1].Href)
}

func TestExtractListingSkipsCookieParagraph(t *testing.T) {
	html := `<html><body>
<article class="post">
  <h3><a href="/news/cookie-card/">Cookie Card</a></h3>
  <p>We use cookies to improve your experience. See our privacy policy.</p>
  <p>Chen Yu Fei reached the final after a three-game battle.</p>
</article>
<article class="post">
  <h3><a href="/news/banner-only/">Banner Only</a></h3>
  <p>We use cookies to improve your experience. See our privacy policy.</p>
</article>
</body></html>`

	e := NewExtractor("bwfbadminton.com", nil)
	cands, err := e.ExtractListing(html, listingBase, 20)
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, "Chen Yu Fei reached the final after a three-game battle.", cands[0].PreviewFallback)
	assert.Empty(t, cands[1].PreviewFallback, "a consent banner is never a preview")
}

func TestExtractListingInvalidBase(t *testing.T) {
	e := NewExtractor("bwfbadminton.com", nil)

	_, err := e.ExtractListing(listingHTML, "http://[::1", 20)
	assert.Error(t, err)
}

func TestExtractLatestListingByHeading(t *testing.T) {
	html := `<html><body>
<div class="featured">
  <a href="/news/featured-one/">Featured One</a>
  <a href="/news/featured-two/">Featured Two</a>
</div>
<section>
  <div class="header-wrap"><h2>Latest News</h2></div>
  <ul>
    <li><a href="/news/latest-one/">Latest One</a></li>
    <li><a href="/news/latest-two/">Latest Two</a></li>
    <li><a href="/news/latest-three/">Latest Three</a></li>
  </ul>
</section>
</body></html>`

	e := NewExtractor("bwfbadminton.com", nil)
	cands, err := e.ExtractLatestListing(html, listingBase, 20)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://bwfbadminton.com/news/latest-one/",
		"https://bwfbadminton.com/news/latest-two/",
		"https://bwfbadminton.com/news/latest-three/",
	}, hrefs(cands))
}

func TestExtractLatestListingByContainer(t *testing.T) {
	var inner, extra strings.Builder
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&inner, `<a href="/news/inner-%d/">Inner %d</a>`, i, i)
	}
	for i := 1; i <= 2; i++ {
		fmt.Fprintf(&extra, `<a href="/news/extra-%d/">Extra %d</a>`, i, i)
	}

	html := `<html><body>
<div><a href="/news/outside/">Outside</a></div>
<div class="latest-wrapper">` + extra.String() + `<div id="latest-list">` + inner.String() + `</div></div>
</body></html>`

	e := NewExtractor("bwfbadminton.com", nil)
	cands, err := e.ExtractLatestListing(html, listingBase, 20)
	require.NoError(t, err)

	require.Len(t, cands, 6, "the narrowest container with enough links wins")
	assert.Equal(t, "https://bwfbadminton.com/news/inner-1/", cands[0].Href)
}

func TestExtractLatestListingFallsBackToFullPage(t *testing.T) {
	e := NewExtractor("bwfbadminton.com", nil)

	full, err := e.ExtractListing(listingHTML, listingBase, 20)
	require.NoError(t, err)
	latest, err := e.ExtractLatestListing(listingHTML, listingBase, 20)
	require.NoError(t, err)

	assert.Equal(t, hrefs(full), hrefs(latest))
}

func hrefs(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Href)
	}
	return out
}
