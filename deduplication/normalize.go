package deduplication

import (
	"net/url"
	"strings"
	"unicode"

	"compass/types"
)

// Comparable is the (title, body, url) triple every tier compares. Archived
// bilingual signals contribute their English side.
type Comparable struct {
	Title string
	Body  string
	URL   string
}

// Extract pulls the comparable text out of a signal regardless of which
// pipeline stage produced it.
func Extract(s types.Signal) Comparable {
	return Comparable{
		Title: s.Title.English(),
		Body:  s.Content().English(),
		URL:   s.Link(),
	}
}

// NormalizeText lowercases, strips everything but letters, digits, underscore
// and whitespace, and collapses whitespace runs to a single space.
func NormalizeText(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(text))
	return strings.Join(strings.Fields(stripped), " ")
}

// NormalizeURL reduces a URL to host and path: scheme, query, fragment and
// trailing slashes are dropped, so http://x/a/ and https://x/a?utm=1 compare equal.
// Percent-escapes are decoded and the result is lowercased last, so
// /caf%C3%A9 and /café match and the output normalizes to itself.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	target := raw
	if !strings.Contains(raw, "://") {
		// schemeless input, e.g. an already normalized value
		target = "//" + strings.TrimLeft(raw, "/")
	}
	u, err := url.Parse(target)
	if err != nil {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}

	path := u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	host := u.Host
	if u.User != nil {
		host = u.User.String() + "@" + host
	}
	return strings.ToLower(strings.Trim(host+strings.TrimRight(path, "/"), "/"))
}

// ContainsChinese reports whether text has any CJK Unified Ideograph.
func ContainsChinese(text string) bool {
	for _, r := range text {
		if isCJK(r) {
			return true
		}
	}
	return false
}

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// normalizeTitle is the lighter normalization used for seen-set hashing.
func normalizeTitle(t string) string {
	return strings.Join(strings.Fields(strings.ToLower(t)), " ")
}
