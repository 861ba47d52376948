package classify

import (
	"regexp"
	"strings"

	"compass/types"
)

const keywordWeight = 3

// specificity breaks ties between equally scored categories. Political is
// last so it only wins when nothing narrower matched as well.
var specificity = []types.Category{
	types.CategoryLegal,
	types.CategorySocial,
	types.CategoryEconomic,
	types.CategoryMilitary,
	types.CategoryTechnology,
	types.CategoryDiplomatic,
	types.CategoryTrade,
	types.CategoryPolitical,
}

var moneyPattern = regexp.MustCompile(`\$[\d,.]+[bmk]?\b|\d+\s*(?:billion|million|percent|%)`)

var (
	businessTerms = []string{"company", "firm", "corp", "inc", "group", "stock", "share", "market", "revenue",
		"profit", "loss", "earn", "sales", "price", "investor", "ipo", "fund"}
	militaryTerms = []string{"military", "army", "navy", "pla", "missile", "defense", "defence", "warfare",
		"troops", "warship", "fighter jet", "bomber"}
	technologyTerms = []string{"chip", "semiconductor", "ai ", "artificial intelligence", "cyber", "5g",
		"quantum", "robot"}
)

// Category returns the signal's category, keeping a valid one it already has.
func (c *Classifier) Category(sig types.Signal) types.Category {
	if sig.Category.Valid() {
		return sig.Category
	}
	return c.CategoryOf(signalDocument(sig).raw)
}

// CategoryOf scores free text against every category's keyword list.
func (c *Classifier) CategoryOf(text string) types.Category {
	doc := newDocument(text)
	scores := make(map[types.Category]int, len(specificity))
	best := 0
	for _, cat := range specificity {
		score := doc.count(c.kw.Categories[cat]) * keywordWeight
		scores[cat] = score
		best = max(best, score)
	}
	if best == 0 {
		return fallbackCategory(doc.lower)
	}
	for _, cat := range specificity {
		if scores[cat] == best {
			return cat
		}
	}
	return types.CategoryPolitical
}

// fallbackCategory guesses from money figures and broad topic stems when no
// keyword table matched.
func fallbackCategory(lower string) types.Category {
	if moneyPattern.MatchString(lower) && containsAny(lower, businessTerms) {
		return types.CategoryEconomic
	}
	if containsAny(lower, militaryTerms) {
		return types.CategoryMilitary
	}
	if containsAny(lower, technologyTerms) {
		return types.CategoryTechnology
	}
	return types.CategoryPolitical
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
