package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Category is one of the eight topic tags assigned by the classifier.
type Category string

const (
	CategoryDiplomatic Category = "diplomatic"
	CategoryTrade      Category = "trade"
	CategoryMilitary   Category = "military"
	CategoryTechnology Category = "technology"
	CategoryPolitical  Category = "political"
	CategoryEconomic   Category = "economic"
	CategorySocial     Category = "social"
	CategoryLegal      Category = "legal"
)

// Categories lists every valid category tag.
var Categories = []Category{
	CategoryDiplomatic, CategoryTrade, CategoryMilitary, CategoryTechnology,
	CategoryPolitical, CategoryEconomic, CategorySocial, CategoryLegal,
}

// Valid reports whether c is one of the eight known tags.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts "Trade", "trade" or {"en": "Trade", "zh": "贸易"}.
func (c *Category) UnmarshalJSON(data []byte) error {
	s, err := unwrapLabel(data)
	if err != nil {
		return err
	}
	*c = Category(strings.ToLower(strings.TrimSpace(s)))
	return nil
}

// Severity is one of five ordered levels.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityElevated Severity = "elevated"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
)

var severityRank = map[Severity]int{
	SeverityCritical: 5,
	SeverityHigh:     4,
	SeverityElevated: 3,
	SeverityModerate: 2,
	SeverityLow:      1,
}

// Valid reports whether s is one of the five known levels.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank orders severities: critical 5 down to low 1, unknown 0.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Points is the tension contribution of one signal at this severity.
// An unset severity counts as low; any other unknown string counts zero.
func (s Severity) Points() int {
	if s == "" {
		return severityRank[SeverityLow]
	}
	return severityRank[s]
}

// UnmarshalJSON accepts a plain string or a bilingual label and lowercases it.
func (s *Severity) UnmarshalJSON(data []byte) error {
	v, err := unwrapLabel(data)
	if err != nil {
		return err
	}
	*s = Severity(strings.ToLower(strings.TrimSpace(v)))
	return nil
}

func unwrapLabel(data []byte) (string, error) {
	var t Text
	if err := t.UnmarshalJSON(bytes.TrimSpace(data)); err != nil {
		return "", err
	}
	return t.English(), nil
}

// Signal is a single news item as it flows through the pipeline. Raw fetcher
// output and archived briefings share this shape; title and body fields may be
// plain or bilingual depending on the stage that wrote them.
type Signal struct {
	ID          string   `json:"id,omitempty"`
	Title       Text     `json:"title,omitzero"`
	BodyText    Text     `json:"body_text,omitzero"`
	BodySnippet Text     `json:"body_snippet,omitzero"`
	Body        Text     `json:"body,omitzero"`
	SourceURL   string   `json:"source_url,omitempty"`
	URL         string   `json:"url,omitempty"`
	Date        string   `json:"date,omitempty"`
	Source      Text     `json:"source,omitzero"`
	SourceTier  string   `json:"source_tier,omitempty"`
	Category    Category `json:"category,omitempty"`
	Severity    Severity `json:"severity,omitempty"`
	EntityIDs   []string `json:"entity_ids,omitempty"`

	// Language and Region are fetcher hints: "zh", "mainland", "taiwan", "hongkong".
	Language string `json:"language,omitempty"`
	Region   string `json:"region,omitempty"`

	Implications     *Implications `json:"implications,omitempty"`
	Perspectives     *Perspectives `json:"perspectives,omitempty"`
	OriginalZHSource bool          `json:"original_zh_source,omitempty"`
	OriginalZHURL    string        `json:"original_zh_url,omitempty"`

	IsMilestone      bool   `json:"is_milestone,omitempty"`
	TimelineCategory string `json:"timeline_category,omitempty"`
}

// Implications is the rule-based "what it means for Canada" block.
type Implications struct {
	CanadaImpact Text `json:"canada_impact"`
	WhatToWatch  Text `json:"what_to_watch"`
}

// Perspectives pairs the Canadian and Chinese readings of a signal.
type Perspectives struct {
	PrimarySource Text `json:"primary_source"`
	Canada        Text `json:"canada"`
	China         Text `json:"china"`
	CanadaSource  Text `json:"canada_source,omitzero"`
	ChinaSource   Text `json:"china_source,omitzero"`
}

// Link returns the canonical URL, preferring source_url.
func (s Signal) Link() string {
	if s.SourceURL != "" {
		return s.SourceURL
	}
	return s.URL
}

// Content returns the first non-empty body field: body_text, body_snippet, body.
func (s Signal) Content() Text {
	for _, t := range []Text{s.BodyText, s.BodySnippet, s.Body} {
		if !t.IsZero() {
			return t
		}
	}
	return Text{}
}

// GenerateID creates a stable identifier from source, title and date.
func GenerateID(source, title, date string) string {
	hash := sha256.Sum256([]byte(source + "|" + title + "|" + date))
	return hex.EncodeToString(hash[:])[:16]
}

// EnsureID fills in a synthesized ID when the signal arrived without one.
func (s *Signal) EnsureID() {
	if s.ID != "" {
		return
	}
	key := s.Link()
	if key == "" {
		key = s.Title.String()
	}
	s.ID = GenerateID(s.Source.String(), key, s.Date)
}

// UnmarshalJSON accepts the raw fetcher aliases: headline for title, and
// summary/description/content for body text.
func (s *Signal) UnmarshalJSON(data []byte) error {
	type plain Signal
	var aux struct {
		plain
		Headline    Text   `json:"headline"`
		Summary     Text   `json:"summary"`
		Description Text   `json:"description"`
		Link        string `json:"link"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Signal(aux.plain)
	if s.Title.IsZero() {
		s.Title = aux.Headline
	}
	if s.Content().IsZero() {
		if !aux.Summary.IsZero() {
			s.BodySnippet = aux.Summary
		} else {
			s.BodySnippet = aux.Description
		}
	}
	if s.URL == "" {
		s.URL = aux.Link
	}
	return nil
}
