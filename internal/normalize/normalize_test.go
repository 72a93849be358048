package normalize

import (
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolve(t *testing.T) {
	base := mustParse(t, "https://bwfbadminton.com/news/some-article/")

	tests := []struct {
		input    string
		expected string
	}{
		{"https://corporate.bwfbadminton.com/news/a/", "https://corporate.bwfbadminton.com/news/a/"},
		{"http://example.com/x", "http://example.com/x"},
		{"//img.bwfbadminton.com/a.jpg", "https://img.bwfbadminton.com/a.jpg"},
		{"/news/b/", "https://bwfbadminton.com/news/b/"},
		// путь базы игнорируется
		{"news/c/", "https://bwfbadminton.com/news/c/"},
		{"", "https://bwfbadminton.com/"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Resolve(base, tt.input), "Resolve(%q)", tt.input)
	}
}

func TestResolveAlwaysAbsolute(t *testing.T) {
	bases := []*url.URL{
		nil,
		mustParse(t, "https://bwfbadminton.com"),
		mustParse(t, "http://127.0.0.1:8080/x/y"),
		{},
	}
	inputs := []string{"", " ", "a", "/a", "//h/p", "javascript:void(0)", "mailto:x@y", "?q=1", "#top", "%%%", "https://ok/"}

	for _, b := range bases {
		for _, in := range inputs {
			got := Resolve(b, in)
			u, err := url.Parse(got)
			if err == nil {
				assert.True(t, u.IsAbs(), "Resolve(%v, %q) = %q is not absolute", b, in, got)
			}
			assert.True(t, strings.HasPrefix(got, "http://") || strings.HasPrefix(got, "https://"),
				"Resolve(%v, %q) = %q", b, in, got)
		}
	}
}

func TestIsTrusted(t *testing.T) {
	const domain = "bwfbadminton.com"

	tests := []struct {
		host     string
		expected bool
	}{
		{"bwfbadminton.com", true},
		{"BWFBadminton.com", true},
		{"corporate.bwfbadminton.com", true},
		{"a.b.bwfbadminton.com", true},
		{"bwfbadminton.com:443", true},
		{"bwfbadminton.com.", true},
		{"notbwfbadminton.com", false},
		{"bwfbadminton.com.evil.net", false},
		{"bwfbadminton.co", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsTrusted(tt.host, domain), "IsTrusted(%q)", tt.host)
	}
}

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://x/wp-content/uploads/2025/09/photo-1600x900.jpg?ver=2", "https://x/wp-content/uploads/2025/09/photo.jpg"},
		{"https://x/wp-content/uploads/photo.jpg#frag", "https://x/wp-content/uploads/photo.jpg"},
		{"https://x/a-b-c-300x200.webp", "https://x/a-b-c.webp"},
		{"https://x/plain.png", "https://x/plain.png"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeImageURL(tt.input), "NormalizeImageURL(%q)", tt.input)
	}
}

func TestImageDimensions(t *testing.T) {
	w, h, ok := ImageDimensions("https://x/photo-1600x900.jpg?ver=2")
	require.True(t, ok)
	assert.Equal(t, 1600, w)
	assert.Equal(t, 900, h)

	_, _, ok = ImageDimensions("https://x/photo.jpg")
	assert.False(t, ok)
}

func TestTruncatePreview(t *testing.T) {
	input := strings.Repeat("Shuttle ", 60)
	result := TruncatePreview(input, MaxPreviewChars)

	assert.LessOrEqual(t, utf8.RuneCountInString(result), MaxPreviewChars)
	assert.Equal(t, "short text", TruncatePreview("  short  text ", MaxPreviewChars))
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, IsBoilerplate("We use Cookies to improve your experience"))
	assert.True(t, IsBoilerplate("Read our privacy policy"))
	assert.False(t, IsBoilerplate("Axelsen wins the final in straight games"))
}
