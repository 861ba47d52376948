package classify

import (
	"strings"
	"time"

	"compass/types"
)

var tierScores = map[string]int{
	TierOfficial:   4,
	TierWire:       3,
	TierSpecialist: 2,
	TierMedia:      1,
}

type threshold struct {
	min      int
	severity types.Severity
}

var severityThresholds = []threshold{
	{10, types.SeverityCritical},
	{7, types.SeverityHigh},
	{5, types.SeverityElevated},
	{3, types.SeverityModerate},
}

var (
	bilateralTerms = []string{"canada-china", "china-canada", "sino-canadian", "加中", "中加"}
	canadaTerms    = []string{"canada", "canadian", "canadians", "ottawa", "trudeau", "加拿大", "渥太华"}
	chinaTerms     = []string{"china", "chinese", "beijing", "prc", "中国", "北京", "中方"}
)

var signalDateLayouts = []string{
	types.DateLayout,
	time.RFC3339,
	"January 2, 2006",
	"2 January 2006",
	"2006/01/02",
}

// Severity returns the signal's severity, keeping a valid one it already has.
// ref is the briefing date used for recency.
func (c *Classifier) Severity(sig types.Signal, tier string, ref time.Time) types.Severity {
	if sig.Severity.Valid() {
		return sig.Severity
	}
	return ScoreSeverity(c.SeverityScore(signalDocument(sig).raw, tier, sig.Date, ref))
}

// SeverityScore adds up source reliability, keyword modifiers, bilateral
// relevance and recency. The result is never negative.
func (c *Classifier) SeverityScore(text, tier, date string, ref time.Time) int {
	doc := newDocument(text)
	score, ok := tierScores[tier]
	if !ok {
		score = tierScores[TierMedia]
	}
	for _, m := range c.kw.Modifiers {
		if doc.count(m.Terms) > 0 {
			score += m.Weight
		}
	}
	score += bilateralScore(doc)
	if date != "" {
		score += recencyScore(date, ref)
	}
	return max(score, 0)
}

// ScoreSeverity maps a raw score onto the five levels.
func ScoreSeverity(score int) types.Severity {
	for _, t := range severityThresholds {
		if score >= t.min {
			return t.severity
		}
	}
	return types.SeverityLow
}

func bilateralScore(doc document) int {
	canada, china := doc.any(canadaTerms...), doc.any(chinaTerms...)
	switch {
	case doc.any(bilateralTerms...), canada && china:
		return 2
	case canada, china:
		return 1
	default:
		return 0
	}
}

// recencyScore is +1 within a day of ref, -1 beyond a week, 0 otherwise or
// when the date cannot be read.
func recencyScore(date string, ref time.Time) int {
	var parsed time.Time
	var err error
	for _, layout := range signalDateLayouts {
		if parsed, err = time.Parse(layout, strings.TrimSpace(date)); err == nil {
			break
		}
	}
	if err != nil {
		return 0
	}
	day := func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC) }
	days := int(day(ref).Sub(day(parsed)).Hours() / 24)
	switch {
	case days <= 1:
		return 1
	case days <= 7:
		return 0
	default:
		return -1
	}
}
