// Package filtering narrows a day's raw signals to recent, China-relevant,
// worthwhile items before they are classified and deduplicated.
package filtering

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"compass/logging"
	"compass/types"

	"github.com/charmbracelet/log"
)

// Defaults for the recency and diversity pass.
const (
	MinSignals   = 10
	MaxSignals   = 75
	MaxPerSource = 3
	MinValue     = 0
)

// DefaultWindowsHours are tried in order until MinSignals dated items fit.
var DefaultWindowsHours = []int{72, 168}

// Config bounds the filter.
type Config struct {
	MinSignals   int
	MaxSignals   int
	WindowsHours []int
	MaxPerSource int
	MinValue     int
}

// DefaultConfig returns the production limits.
func DefaultConfig() Config {
	return Config{
		MinSignals:   MinSignals,
		MaxSignals:   MaxSignals,
		WindowsHours: slices.Clone(DefaultWindowsHours),
		MaxPerSource: MaxPerSource,
		MinValue:     MinValue,
	}
}

// Stats counts what each stage kept.
type Stats struct {
	Loaded      int `json:"loaded"`
	Recent      int `json:"recent"`
	Relevant    int `json:"relevant"`
	Kept        int `json:"kept"`
	WindowHours int `json:"window_hours"`
}

// Filter applies the recency window, relevance gate and value score.
type Filter struct {
	cfg    Config
	logger *log.Logger
}

// New builds a filter. Zero fields of cfg take their defaults; a negative
// MinValue is kept.
func New(cfg Config) *Filter {
	def := DefaultConfig()
	if cfg.MinSignals <= 0 {
		cfg.MinSignals = def.MinSignals
	}
	if cfg.MaxSignals <= 0 {
		cfg.MaxSignals = def.MaxSignals
	}
	if len(cfg.WindowsHours) == 0 {
		cfg.WindowsHours = def.WindowsHours
	}
	if cfg.MaxPerSource <= 0 {
		cfg.MaxPerSource = def.MaxPerSource
	}
	return &Filter{cfg: cfg, logger: logging.WithPrefix("filter")}
}

// Apply runs the three stages in order and returns the survivors.
func (f *Filter) Apply(signals []types.Signal, date string) ([]types.Signal, Stats) {
	stats := Stats{Loaded: len(signals)}

	recent, window := f.Prioritize(signals, date)
	stats.Recent = len(recent)
	stats.WindowHours = window

	relevant := make([]types.Signal, 0, len(recent))
	for _, s := range recent {
		if IsChinaRelevant(s) {
			relevant = append(relevant, s)
		}
	}
	stats.Relevant = len(relevant)
	if dropped := len(recent) - len(relevant); dropped > 0 {
		f.logger.Info("relevance filter dropped signals", "dropped", dropped, "of", len(recent))
	}

	kept := make([]types.Signal, 0, len(relevant))
	dropped := 0
	for _, s := range relevant {
		score, reasons := Value(s)
		if score >= f.cfg.MinValue {
			kept = append(kept, s)
			continue
		}
		dropped++
		if dropped <= 5 {
			f.logger.Debug("dropped low-value signal", "title", truncate(s.Title.English(), 60), "score", score, "reasons", strings.Join(reasons, "; "))
		}
	}
	if dropped > 0 {
		f.logger.Info("value filter dropped signals", "dropped", dropped, "min_score", f.cfg.MinValue)
	}
	stats.Kept = len(kept)
	f.logDiversity(kept)
	return kept, stats
}

// Prioritize keeps signals dated within the first window holding at least
// MinSignals of them, plus every undated signal. Bilateral items come first;
// each group is interleaved across sources with at most MaxPerSource per
// source. The result is cut at MaxSignals. It also returns the window used.
func (f *Filter) Prioritize(signals []types.Signal, date string) ([]types.Signal, int) {
	target, err := time.Parse(types.DateLayout, date)
	if err != nil {
		f.logger.Warn("unparseable target date, recency filter skipped", "date", date)
		return diversify(signals, f.cfg.MaxPerSource, f.cfg.MaxSignals), 0
	}
	target = target.Add(23*time.Hour + 59*time.Minute)

	type dated struct {
		sig types.Signal
		at  time.Time
	}
	var withDate []dated
	var undated []types.Signal
	for _, s := range signals {
		if at, ok := ParseDate(s.Date); ok {
			withDate = append(withDate, dated{s, at})
		} else {
			undated = append(undated, s)
		}
	}

	var recent []types.Signal
	window := f.cfg.WindowsHours[len(f.cfg.WindowsHours)-1]
	for _, w := range f.cfg.WindowsHours {
		cutoff := target.Add(-time.Duration(w) * time.Hour)
		recent = recent[:0]
		for _, d := range withDate {
			if !d.at.Before(cutoff) {
				recent = append(recent, d.sig)
			}
		}
		window = w
		if len(recent) >= f.cfg.MinSignals {
			break
		}
	}
	f.logger.Info("recency filter", "dated", len(recent), "window_hours", window,
		"undated", len(undated), "total", len(signals))

	return diversify(append(recent, undated...), f.cfg.MaxPerSource, f.cfg.MaxSignals), window
}

func diversify(signals []types.Signal, perSource, limit int) []types.Signal {
	var bilateral, general []types.Signal
	for _, s := range signals {
		if IsBilateral(s) {
			bilateral = append(bilateral, s)
		} else {
			general = append(general, s)
		}
	}
	out := append(roundRobin(bilateral, perSource), roundRobin(general, perSource)...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// roundRobin deals one signal per source per pass, smallest sources first.
func roundRobin(signals []types.Signal, limit int) []types.Signal {
	buckets := map[string][]types.Signal{}
	var keys []string
	for _, s := range signals {
		k := sourceKey(s)
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		if len(buckets[k]) < limit {
			buckets[k] = append(buckets[k], s)
		}
	}
	slices.SortStableFunc(keys, func(a, b string) int { return len(buckets[a]) - len(buckets[b]) })

	out := make([]types.Signal, 0, len(signals))
	for i := 0; ; i++ {
		added := false
		for _, k := range keys {
			if i < len(buckets[k]) {
				out = append(out, buckets[k][i])
				added = true
			}
		}
		if !added {
			return out
		}
	}
}

func sourceKey(s types.Signal) string {
	src := s.Source.English()
	if src == "" {
		src = s.Source.String()
	}
	switch {
	case strings.HasPrefix(src, "SCMP"):
		return "SCMP"
	case src == "":
		return "unknown"
	}
	return src
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

var dateLayouts = []string{
	types.DateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate reads a signal date in the common feed formats and returns its
// wall-clock time with the zone dropped.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return wallClock(t), true
		}
	}
	if m := datePrefix.FindString(raw); m != "" {
		if t, err := time.Parse(types.DateLayout, m); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// signalText returns the lowercased title and title+body text in both
// languages.
func signalText(s types.Signal) (full, title string) {
	title = strings.ToLower(joinText(s.Title))
	body := s.BodySnippet
	if body.IsZero() {
		body = s.Body
	}
	full = title + " " + strings.ToLower(joinText(body))
	return full, title
}

func joinText(t types.Text) string {
	if t.ZH == "" || t.ZH == t.EN {
		return t.EN
	}
	return t.EN + " " + t.ZH
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// IsChinaRelevant reports whether the title or snippet mentions China.
func IsChinaRelevant(s types.Signal) bool {
	full, _ := signalText(s)
	return containsAny(full, relevanceKeywords)
}

// IsBilateral reports whether a signal mentions both Canada and China.
func IsBilateral(s types.Signal) bool {
	full, _ := signalText(s)
	return containsAny(full, canadaKeywords) && containsAny(full, chinaKeywords)
}

// Value scores a signal: low-value topics cost 2, high-value keywords,
// a bilateral title and official, Canadian or Chinese sources add.
func Value(s types.Signal) (int, []string) {
	full, title := signalText(s)
	score := 0
	var reasons []string

	for _, p := range lowValuePatterns {
		if p.found(full) {
			score -= 2
			reasons = append(reasons, "low-value pattern: "+truncate(p.match.String(), 30))
			break
		}
	}

	hits := 0
	for _, kw := range highValueKeywords {
		if strings.Contains(full, kw) {
			hits++
		}
	}
	switch {
	case hits >= 3:
		score += 2
		reasons = append(reasons, "multiple high-value keywords")
	case hits >= 1:
		score++
		reasons = append(reasons, "high-value keyword")
	}

	if containsAny(title, titleCanadaTerms) && containsAny(title, titleChinaTerms) {
		score += 3
		reasons = append(reasons, "bilateral in title")
	}

	source := strings.ToLower(s.Source.English())
	if containsAny(source, officialSources) {
		score++
		reasons = append(reasons, "official source")
	}
	if containsAny(source, canadianSources) {
		score += 2
		reasons = append(reasons, "Canadian source")
	}
	if containsAny(source, chineseSources) {
		score += 2
		reasons = append(reasons, "Chinese source")
	}
	return score, reasons
}

func (f *Filter) logDiversity(signals []types.Signal) {
	counts := map[string]int{}
	canadian := 0
	for _, s := range signals {
		src := s.Source.English()
		counts[src]++
		if containsAny(strings.ToLower(src), canadianSources) {
			canadian++
		}
	}
	f.logger.Info("source diversity", "signals", len(signals), "sources", len(counts))
	if canadian == 0 && len(signals) > 0 {
		f.logger.Warn("no Canadian sources in briefing; review feed presets or keyword filters")
		return
	}
	f.logger.Info("canadian sources", "signals", canadian)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
