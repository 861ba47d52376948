package rssfeeds

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"compass/types"
)

// plainText strips markup from a feed description.
func plainText(html string) string {
	html = strings.TrimSpace(html)
	if html == "" || !strings.Contains(html, "<") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// itemDate formats the first available timestamp as a calendar date.
func itemDate(times ...*time.Time) string {
	for _, t := range times {
		if t != nil && !t.IsZero() {
			return t.UTC().Format(types.DateLayout)
		}
	}
	return ""
}
