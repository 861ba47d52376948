// Package normalize turns deduplicated signals into the bilingual briefing
// shape: paired title and body, a short English summary, rule-based
// implications and perspectives, and the original Chinese source flags.
package normalize

import (
	"context"
	"strings"

	"compass/filtering"
	"compass/logging"
	"compass/types"

	"github.com/charmbracelet/log"
)

const (
	SummaryMaxChars = 500

	// Chinese text whose ASCII letter share passes this is sent back for
	// translation.
	EnglishFragmentThreshold = 0.15

	// Raw Chinese bodies are cut to this many runes before translation.
	preservedBodyChars = 2000
)

// Config bounds the summaries and the quality gate. MinBodyChars of zero
// disables the empty-body check.
type Config struct {
	SummaryMaxChars int
	MinBodyChars    int
}

// Stats counts what the quality gate dropped.
type Stats struct {
	Normalized   int `json:"normalized"`
	EmptyBody    int `json:"empty_body"`
	Untranslated int `json:"untranslated"`
}

// Normalizer fills in the bilingual fields. The translator is optional;
// without one the Chinese side mirrors the English text.
type Normalizer struct {
	cfg        Config
	templates  Templates
	translator Translator
	logger     *log.Logger
}

// New builds a normalizer. tr may be nil.
func New(cfg Config, templates Templates, tr Translator) *Normalizer {
	if cfg.SummaryMaxChars <= 0 {
		cfg.SummaryMaxChars = SummaryMaxChars
	}
	return &Normalizer{cfg: cfg, templates: templates, translator: tr, logger: logging.WithPrefix("normalize")}
}

// Default builds a normalizer over the built-in templates with no translator.
func Default() *Normalizer {
	return New(Config{}, DefaultTemplates(), nil)
}

// draft tracks one signal through normalization.
type draft struct {
	sig       types.Signal
	titleEN   string
	titleZH   string
	bodyEN    string
	bodyZH    string
	rawZHBody string
	failed    bool
}

// NormalizeAll normalizes every signal and applies the quality gate.
func (n *Normalizer) NormalizeAll(ctx context.Context, signals []types.Signal) ([]types.Signal, Stats) {
	drafts := make([]*draft, len(signals))
	for i, s := range signals {
		drafts[i] = n.prepare(ctx, s)
	}
	n.fillChinese(ctx, drafts)

	var stats Stats
	out := make([]types.Signal, 0, len(drafts))
	for _, d := range drafts {
		sig := n.finish(d)
		if n.cfg.MinBodyChars > 0 && runeLen(strings.TrimSpace(sig.Body.EN)) < n.cfg.MinBodyChars {
			stats.EmptyBody++
			n.logger.Debug("dropping signal with empty body", "title", truncateRunes(sig.Title.EN, 50))
			continue
		}
		if n.translator != nil && (d.failed || IsPrimarilyChinese(sig.Title.EN)) {
			stats.Untranslated++
			n.logger.Warn("dropping signal with untranslated title", "title", truncateRunes(sig.Title.EN, 50))
			continue
		}
		out = append(out, sig)
	}
	stats.Normalized = len(out)
	n.logger.Info("normalized signals", "kept", stats.Normalized,
		"empty_body", stats.EmptyBody, "untranslated", stats.Untranslated)
	return out, stats
}

// Normalize runs a single signal through the same steps without the quality
// gate.
func (n *Normalizer) Normalize(ctx context.Context, s types.Signal) types.Signal {
	d := n.prepare(ctx, s)
	n.fillChinese(ctx, []*draft{d})
	return n.finish(d)
}

// prepare settles the English side, translating Chinese-language originals
// when a translator is available.
func (n *Normalizer) prepare(ctx context.Context, s types.Signal) *draft {
	d := &draft{sig: s}
	if s.Title.IsBilingual() {
		d.titleEN, d.titleZH = s.Title.EN, s.Title.ZH
	} else {
		d.titleEN = s.Title.EN
	}

	body := s.Content()
	if body.IsBilingual() {
		d.bodyEN, d.bodyZH = body.EN, body.ZH
		return d
	}
	raw := body.EN

	if s.Language == "zh" && raw != "" && n.translator != nil {
		d.titleZH = d.titleEN
		d.rawZHBody = truncateRunes(raw, preservedBodyChars)
		raw = n.translator.ToEnglish(ctx, []string{raw})[0]
		if d.titleEN != "" {
			translated := n.translator.ToEnglish(ctx, []string{d.titleEN})[0]
			if IsPrimarilyChinese(translated) {
				n.logger.Warn("title translation failed, retrying", "title", truncateRunes(d.titleEN, 50))
				translated = n.translator.ToEnglish(ctx, []string{d.titleEN})[0]
			}
			if IsPrimarilyChinese(translated) {
				d.failed = true
			} else {
				d.titleEN = translated
			}
		}
	}
	if raw != "" {
		d.bodyEN = Summarize(raw, d.titleEN, n.cfg.SummaryMaxChars)
	}
	return d
}

// fillChinese completes the Chinese side in one batch: preserved originals
// are summarized, missing or English-laden text is translated, and anything
// left mirrors the English.
func (n *Normalizer) fillChinese(ctx context.Context, drafts []*draft) {
	type slot struct {
		d     *draft
		title bool
	}
	var texts []string
	var slots []slot
	queue := func(d *draft, text string, title bool) {
		texts = append(texts, text)
		slots = append(slots, slot{d, title})
	}

	for _, d := range drafts {
		if d.rawZHBody != "" {
			d.bodyZH = truncateRunes(Summarize(d.rawZHBody, d.titleZH, n.cfg.SummaryMaxChars), n.cfg.SummaryMaxChars)
			continue
		}
		if n.translator == nil {
			continue
		}
		retranslate := HasEnglishFragments(d.titleZH, EnglishFragmentThreshold) ||
			HasEnglishFragments(d.bodyZH, EnglishFragmentThreshold)
		if !retranslate && d.titleZH != "" && d.bodyZH != "" {
			continue
		}
		if d.titleEN != "" && (retranslate || d.titleZH == "") {
			queue(d, d.titleEN, true)
		}
		if d.bodyEN != "" && (retranslate || d.bodyZH == "") {
			queue(d, truncateWords(d.bodyEN, n.cfg.SummaryMaxChars), false)
		}
	}

	if len(texts) > 0 {
		translated := n.translator.ToChinese(ctx, texts)
		for i, s := range slots {
			if s.title {
				s.d.titleZH = translated[i]
			} else {
				s.d.bodyZH = translated[i]
			}
		}
	}

	for _, d := range drafts {
		if d.titleZH == "" {
			d.titleZH = d.titleEN
		}
		if d.bodyZH == "" {
			d.bodyZH = d.bodyEN
		}
	}
}

func (n *Normalizer) finish(d *draft) types.Signal {
	s := d.sig
	original := d.sig
	chinese := IsChineseSource(original)

	s.Title = types.Bilingual(d.titleEN, d.titleZH)
	s.Body = types.Bilingual(d.bodyEN, d.bodyZH)
	s.BodyText = types.Text{}
	s.BodySnippet = types.Text{}

	if !s.Source.IsBilingual() {
		s.Source = TranslateSourceName(s.Source.EN)
	}
	if s.Date != "" {
		if t, ok := filtering.ParseDate(s.Date); ok {
			s.Date = t.Format(types.DateLayout)
		}
	}

	s.Implications = n.implications(s)
	s.Perspectives = n.perspectives(original, s.Category, chinese)
	s.OriginalZHSource = chinese
	if chinese {
		s.OriginalZHURL = original.Link()
	}
	return s
}

func (n *Normalizer) implications(s types.Signal) *types.Implications {
	category := s.Category
	if category == "" {
		category = types.CategoryDiplomatic
	}
	severity := s.Severity
	if severity == "" {
		severity = types.SeverityModerate
	}
	if s.Implications == nil {
		return &types.Implications{
			CanadaImpact: n.templates.impact(category),
			WhatToWatch:  n.templates.watch(category, severity),
		}
	}
	imp := *s.Implications
	if imp.CanadaImpact.IsZero() {
		imp.CanadaImpact = n.templates.impact(category)
	} else {
		imp.CanadaImpact = imp.CanadaImpact.Pair()
	}
	if imp.WhatToWatch.IsZero() {
		imp.WhatToWatch = n.templates.watch(category, severity)
	} else {
		imp.WhatToWatch = imp.WhatToWatch.Pair()
	}
	return &imp
}

var (
	chineseMedia = types.Bilingual("Chinese media", "中方媒体")
	westernMedia = types.Bilingual("Western media", "西方媒体")
)

// perspectives quotes the source itself when its text offers an attributable
// sentence and falls back to the category templates otherwise.
func (n *Normalizer) perspectives(original types.Signal, category types.Category, chinese bool) *types.Perspectives {
	if category == "" {
		category = types.CategoryDiplomatic
	}
	p := &types.Perspectives{
		PrimarySource: westernMedia,
		Canada:        lookup(n.templates.Canada, category),
		China:         lookup(n.templates.China, category),
	}
	indicators := enQuoteIndicators
	if chinese {
		p.PrimarySource = chineseMedia
		indicators = zhQuoteIndicators
	}

	body := original.BodyText
	if body.IsZero() {
		body = original.BodySnippet
	}
	quote := ExtractQuote(body.String(), indicators)
	if quote == "" {
		return p
	}
	source := original.Source.EN
	if source == "" {
		source = original.Source.ZH
	}
	if chinese {
		p.China = types.Bilingual(quote, quote)
		p.ChinaSource = types.Bilingual(source, source)
	} else {
		p.Canada = types.Bilingual(quote, quote)
		p.CanadaSource = types.Bilingual(source, source)
	}
	return p
}
