package rssfeeds

import (
	"slices"
	"strings"
)

// DefaultCount is the per-feed item limit when none is configured.
const DefaultCount = 20

// FeedConfig represents the configuration for a single RSS feed
type FeedConfig struct {
	Name string `json:"name" mapstructure:"name"`
	URL  string `json:"url" mapstructure:"url"`
}

// FeedPresets maps friendly keys to the Canada–China feeds
var FeedPresets = map[string]FeedConfig{
	"scmp-china": {
		Name: "South China Morning Post",
		URL:  "https://www.scmp.com/rss/4/feed",
	},
	"scmp-diplomacy": {
		Name: "SCMP Diplomacy",
		URL:  "https://www.scmp.com/rss/318198/feed",
	},
	"globe-world": {
		Name: "Globe and Mail",
		URL:  "https://www.theglobeandmail.com/arc/outboundfeeds/rss/category/world/",
	},
	"cbc-world": {
		Name: "CBC",
		URL:  "https://www.cbc.ca/webfeed/rss/rss-world",
	},
	"bbc-china": {
		Name: "BBC",
		URL:  "https://feeds.bbci.co.uk/news/world/asia/china/rss.xml",
	},
	"diplomat": {
		Name: "The Diplomat",
		URL:  "https://thediplomat.com/feed/",
	},
	"xinhua": {
		Name: "Xinhua",
		URL:  "http://www.xinhuanet.com/english/rss/chinarss.xml",
	},
}

// DefaultPresets are fetched when no feeds are configured.
var DefaultPresets = []string{"scmp-china", "globe-world", "cbc-world", "bbc-china", "diplomat"}

// PresetNames returns the preset keys in alphabetical order
func PresetNames() []string {
	names := make([]string, 0, len(FeedPresets))
	for name := range FeedPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolveFeed resolves a feed identifier to a feed configuration.
// If the input is a preset name, returns the preset; otherwise the input is
// treated as a direct URL.
func ResolveFeed(input string) FeedConfig {
	if feed, ok := FeedPresets[strings.ToLower(strings.TrimSpace(input))]; ok {
		return feed
	}
	return FeedConfig{Name: input, URL: input}
}

// ResolveFeeds resolves a list of identifiers, falling back to DefaultPresets
// when the list is empty. Duplicate URLs are dropped.
func ResolveFeeds(inputs []string) []FeedConfig {
	if len(inputs) == 0 {
		inputs = DefaultPresets
	}
	seen := make(map[string]bool)
	feeds := make([]FeedConfig, 0, len(inputs))
	for _, in := range inputs {
		feed := ResolveFeed(in)
		if feed.URL == "" || seen[feed.URL] {
			continue
		}
		seen[feed.URL] = true
		feeds = append(feeds, feed)
	}
	return feeds
}
