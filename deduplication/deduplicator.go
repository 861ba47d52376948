package deduplication

import (
	"context"

	"compass/logging"
	"compass/types"

	"github.com/charmbracelet/log"
)

// Default thresholds.
const (
	TitleThreshold       = 0.80
	TitleThresholdZH     = 0.70
	FuzzyTitleMin        = 0.50
	BodyJaccardThreshold = 0.60
	DefaultLookbackDays  = 3
)

// DefaultEnglishStopWords are the function words dropped before body Jaccard.
var DefaultEnglishStopWords = []string{
	"a", "an", "the", "and", "or", "but", "in", "on", "at", "to",
	"for", "of", "with", "by", "from", "is", "are", "was", "were", "be",
	"been", "has", "have", "had", "do", "does", "did", "will", "would", "could",
	"should", "may", "might", "that", "this", "it", "its", "not", "no", "he",
	"she", "they", "we", "you", "his", "her", "their", "our", "my", "said",
	"says", "also", "as", "if", "so", "than", "can", "about", "more", "up",
	"out", "into", "over", "after", "new", "two", "one",
}

// DefaultChineseStopWords are the Chinese function characters dropped before body Jaccard.
var DefaultChineseStopWords = []string{
	"的", "了", "是", "在", "和", "与", "对", "为", "将", "被",
	"这", "那", "有", "也", "就", "都", "而", "及", "等", "到",
	"从", "向", "于", "以", "把", "给", "让", "用", "并", "或",
	"但", "却", "又", "所", "其", "之", "此", "某", "该", "各",
	"着", "过", "来", "去", "上", "下", "中", "内", "外", "间",
	"后", "前", "时", "日", "月", "年", "说", "称",
}

// Config holds the tier thresholds and stop words.
type Config struct {
	TitleThreshold       float64
	TitleThresholdZH     float64
	FuzzyTitleMin        float64
	BodyJaccardThreshold float64
	StopWords            StopWords
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		TitleThreshold:       TitleThreshold,
		TitleThresholdZH:     TitleThresholdZH,
		FuzzyTitleMin:        FuzzyTitleMin,
		BodyJaccardThreshold: BodyJaccardThreshold,
		StopWords:            NewStopWords(DefaultEnglishStopWords, DefaultChineseStopWords),
	}
}

// Reason names the tier that matched.
type Reason string

const (
	ReasonURL       Reason = "url"
	ReasonTitle     Reason = "title"
	ReasonTitleBody Reason = "title+body"
	ReasonNone      Reason = "none"
)

// Verdict is the outcome of comparing two signals.
type Verdict struct {
	Duplicate bool   `json:"duplicate"`
	Reason    Reason `json:"reason"`
}

// Comparison is a Verdict together with both similarity scores, for diagnostics.
type Comparison struct {
	Verdict
	TitleSimilarity float64 `json:"title_similarity"`
	BodyJaccard     float64 `json:"body_jaccard"`
	URLMatch        bool    `json:"url_match"`
}

// Deduplicator removes repeated signals within a day and against recent history.
type Deduplicator struct {
	cfg    Config
	logger *log.Logger
	bloom  SeenSet
}

// NewDeduplicator creates a deduplicator with the given thresholds.
func NewDeduplicator(cfg Config) *Deduplicator {
	return &Deduplicator{cfg: applyConfigDefaults(cfg), logger: logging.WithPrefix("dedup")}
}

// NewDeduplicatorWithBloom creates a deduplicator that also records every kept
// URL in a seen-set and reports how many incoming signals it already holds.
func NewDeduplicatorWithBloom(cfg Config, bloom SeenSet) *Deduplicator {
	d := NewDeduplicator(cfg)
	d.bloom = bloom
	return d
}

// Config returns the effective configuration.
func (d *Deduplicator) Config() Config { return d.cfg }

// IsDuplicate decides whether a repeats b. Tiers are evaluated in order
// url, title, title+body and the first hit wins.
func (d *Deduplicator) IsDuplicate(a, b types.Signal) Verdict {
	ca, cb := Extract(a), Extract(b)

	if ca.URL != "" && cb.URL != "" && NormalizeURL(ca.URL) == NormalizeURL(cb.URL) {
		return Verdict{Duplicate: true, Reason: ReasonURL}
	}

	threshold := d.titleThreshold(ca, cb)
	tSim := TitleSimilarity(NormalizeText(ca.Title), NormalizeText(cb.Title))
	if tSim >= threshold {
		return Verdict{Duplicate: true, Reason: ReasonTitle}
	}

	if tSim >= d.cfg.FuzzyTitleMin {
		if BodyJaccard(ca.Body, cb.Body, d.cfg.StopWords) >= d.cfg.BodyJaccardThreshold {
			return Verdict{Duplicate: true, Reason: ReasonTitleBody}
		}
	}

	return Verdict{Reason: ReasonNone}
}

// Compare evaluates every metric without short-circuiting and attaches the verdict.
func (d *Deduplicator) Compare(a, b types.Signal) Comparison {
	ca, cb := Extract(a), Extract(b)
	return Comparison{
		Verdict:         d.IsDuplicate(a, b),
		TitleSimilarity: TitleSimilarity(NormalizeText(ca.Title), NormalizeText(cb.Title)),
		BodyJaccard:     BodyJaccard(ca.Body, cb.Body, d.cfg.StopWords),
		URLMatch:        ca.URL != "" && cb.URL != "" && NormalizeURL(ca.URL) == NormalizeURL(cb.URL),
	}
}

// titleThreshold uses the lower Chinese threshold when either side's title or
// body contains Chinese characters.
func (d *Deduplicator) titleThreshold(a, b Comparable) float64 {
	if ContainsChinese(a.Title+a.Body) || ContainsChinese(b.Title+b.Body) {
		return d.cfg.TitleThresholdZH
	}
	return d.cfg.TitleThreshold
}

// Deduplicate runs the within-day pass over signals and then, when previous is
// non-empty, the cross-day pass over the survivors. Survivors keep their input
// order. The returned stats satisfy TotalBefore == TotalAfter + TotalDropped().
func (d *Deduplicator) Deduplicate(signals, previous []types.Signal) ([]types.Signal, types.DedupStats) {
	stats := types.DedupStats{TotalBefore: len(signals)}

	kept := make([]types.Signal, 0, len(signals))
	for _, s := range signals {
		if match, v, ok := d.firstMatch(s, kept); ok {
			d.record(&stats, v.Reason)
			d.logger.Debug("dropped same-day duplicate", "reason", v.Reason,
				"title", clip(Extract(s).Title), "matches", clip(Extract(match).Title))
			continue
		}
		kept = append(kept, s)
	}

	if len(previous) > 0 {
		final := make([]types.Signal, 0, len(kept))
		for _, s := range kept {
			if match, v, ok := d.firstMatch(s, previous); ok {
				d.record(&stats, v.Reason)
				d.logger.Debug("dropped cross-day duplicate", "reason", v.Reason,
					"title", clip(Extract(s).Title), "matches", clip(Extract(match).Title))
				continue
			}
			final = append(final, s)
		}
		kept = final
	}

	stats.TotalAfter = len(kept)
	d.logger.Info("deduplication complete",
		"before", stats.TotalBefore, "after", stats.TotalAfter,
		"url", stats.DroppedURL, "title", stats.DroppedTitle, "title_body", stats.DroppedTitleBody)
	return kept, stats
}

// SeenBefore counts signals whose URL is already in the seen-set. Without a
// seen-set it returns 0. Lookup failures are logged and skipped.
func (d *Deduplicator) SeenBefore(ctx context.Context, signals []types.Signal) int {
	if d.bloom == nil {
		return 0
	}
	hits := 0
	for _, s := range signals {
		key := SeenKey(s)
		if key == "" {
			continue
		}
		ok, err := d.bloom.Exists(ctx, key)
		if err != nil {
			d.logger.Warn("seen-set lookup failed", "err", err)
			return hits
		}
		if ok {
			hits++
		}
	}
	return hits
}

// Remember adds the signals' URLs to the seen-set, if one is configured.
func (d *Deduplicator) Remember(ctx context.Context, signals []types.Signal) {
	if d.bloom == nil {
		return
	}
	for _, s := range signals {
		key := SeenKey(s)
		if key == "" {
			continue
		}
		if err := d.bloom.Add(ctx, key); err != nil {
			d.logger.Warn("seen-set add failed", "err", err)
			return
		}
	}
}

func (d *Deduplicator) firstMatch(s types.Signal, against []types.Signal) (types.Signal, Verdict, bool) {
	for _, other := range against {
		if v := d.IsDuplicate(s, other); v.Duplicate {
			return other, v, true
		}
	}
	return types.Signal{}, Verdict{}, false
}

func (d *Deduplicator) record(stats *types.DedupStats, reason Reason) {
	switch reason {
	case ReasonURL:
		stats.DroppedURL++
	case ReasonTitle:
		stats.DroppedTitle++
	case ReasonTitleBody:
		stats.DroppedTitleBody++
	}
}

func clip(s string) string {
	r := []rune(s)
	if len(r) > 80 {
		return string(r[:80])
	}
	return s
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.TitleThreshold == 0 {
		cfg.TitleThreshold = TitleThreshold
	}
	if cfg.TitleThresholdZH == 0 {
		cfg.TitleThresholdZH = TitleThresholdZH
	}
	if cfg.FuzzyTitleMin == 0 {
		cfg.FuzzyTitleMin = FuzzyTitleMin
	}
	if cfg.BodyJaccardThreshold == 0 {
		cfg.BodyJaccardThreshold = BodyJaccardThreshold
	}
	if cfg.StopWords.English == nil && cfg.StopWords.Chinese == nil {
		cfg.StopWords = NewStopWords(DefaultEnglishStopWords, DefaultChineseStopWords)
	}
	return cfg
}
