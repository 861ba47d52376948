package classify

import (
	"net/url"
	"strings"

	"compass/types"
)

// minSubstringLen keeps short names such as "AP" to exact matches.
const minSubstringLen = 3

// SourceTier maps a signal's source to a reliability tier. English names are
// tried first, then Chinese, then the link's host. Unknown sources are media.
func (c *Classifier) SourceTier(sig types.Signal) string {
	if isTier(sig.SourceTier) {
		return sig.SourceTier
	}
	if tier := c.tierForName(sig.Source.EN); tier != "" {
		return tier
	}
	if tier := c.tierForName(sig.Source.ZH); tier != "" {
		return tier
	}
	if tier := c.tierForLink(sig.Link()); tier != "" {
		return tier
	}
	return TierMedia
}

// TierForName maps a bare source name, defaulting to media.
func (c *Classifier) TierForName(name string) string {
	if tier := c.tierForName(name); tier != "" {
		return tier
	}
	return TierMedia
}

func (c *Classifier) tierForName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	for _, tier := range Tiers {
		for _, known := range c.sourceNames(tier) {
			if strings.ToLower(known) == name {
				return tier
			}
		}
	}
	for _, tier := range Tiers {
		for _, known := range c.sourceNames(tier) {
			k := strings.ToLower(known)
			if len(k) >= minSubstringLen && strings.Contains(name, k) {
				return tier
			}
			if len(name) >= minSubstringLen && strings.Contains(k, name) {
				return tier
			}
		}
	}
	return ""
}

func (c *Classifier) tierForLink(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, tier := range Tiers {
		for _, domain := range c.kw.Sources[tier].Domains {
			d := strings.ToLower(domain)
			if host == d || strings.HasSuffix(host, "."+d) {
				return tier
			}
		}
	}
	return ""
}

func (c *Classifier) sourceNames(tier string) []string {
	names := c.kw.Sources[tier].Names
	return append(append([]string{}, names.EN...), names.ZH...)
}

func isTier(s string) bool {
	for _, t := range Tiers {
		if s == t {
			return true
		}
	}
	return false
}
