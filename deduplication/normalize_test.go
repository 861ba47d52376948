package deduplication

import (
	"testing"

	"compass/types"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"empty", "", ""},
		{"trailing slash", "https://example.com/article/123/", "example.com/article/123"},
		{"query and fragment", "https://Example.com/a?utm_source=feed#section", "example.com/a"},
		{"scheme ignored", "http://scmp.com/123", "scmp.com/123"},
		{"host only", "HTTPS://SCMP.COM/", "scmp.com"},
		{"no scheme", "scmp.com/news/1", "scmp.com/news/1"},
		{"port kept", "http://localhost:8080/a/", "localhost:8080/a"},
		{"non-ascii path", "https://example.com/café/", "example.com/café"},
		{"escaped path decoded", "http://example.com/caf%C3%A9", "example.com/café"},
		{"uppercase escapes", "https://example.com/News/%E6%96%B0%E9%97%BB", "example.com/news/新闻"},
		{"idn host", "https://例子.com/新闻", "例子.com/新闻"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NormalizeURL(c.url)
			assert.Equal(t, c.want, got)
			assert.Equal(t, got, NormalizeURL(got), "normalization must be idempotent")
		})
	}
}

func TestNormalizeURLEquivalences(t *testing.T) {
	assert.Equal(t, NormalizeURL("http://x.com/a/"), NormalizeURL("https://x.com/a?utm=1"))
	assert.Equal(t, NormalizeURL("https://example.com/café/"), NormalizeURL("http://example.com/caf%C3%A9"))
	assert.Equal(t, NormalizeURL("https://例子.com/新闻"), NormalizeURL("https://例子.com/%e6%96%b0%e9%97%bb?from=rss"))
}

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"punctuation", "China's new tariffs: 100%!", "chinas new tariffs 100"},
		{"whitespace", "  Hello \t  World \n", "hello world"},
		{"unicode letters kept", "Café — résumé", "café résumé"},
		{"chinese punctuation", "中国：宣布，制裁！", "中国宣布制裁"},
		{"underscore kept", "snake_case title", "snake_case title"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NormalizeText(c.text)
			assert.Equal(t, c.want, got)
			assert.Equal(t, got, NormalizeText(got))
		})
	}
}

func TestExtractPrefersEnglishAndBodyOrder(t *testing.T) {
	archived := types.Signal{
		Title:     types.Bilingual("China imposes new tariffs on canola", "中国对油菜籽加征关税"),
		Body:      types.Bilingual("The tariff took effect Monday.", "关税周一生效。"),
		SourceURL: "https://a.com/1",
		URL:       "https://b.com/2",
	}
	c := Extract(archived)
	assert.Equal(t, "China imposes new tariffs on canola", c.Title)
	assert.Equal(t, "The tariff took effect Monday.", c.Body)
	assert.Equal(t, "https://a.com/1", c.URL)

	assert.Equal(t, Comparable{}, Extract(types.Signal{}))
}

func TestContainsChinese(t *testing.T) {
	assert.True(t, ContainsChinese("中国外交部发言人"))
	assert.True(t, ContainsChinese("China 中国"))
	assert.False(t, ContainsChinese("China trade war"))
	assert.False(t, ContainsChinese(""))
}
