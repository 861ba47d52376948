package supplementary

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"compass/types"
)

// MaxMarketSignals caps each signal list in the markets panel.
const MaxMarketSignals = 5

var monthsZH = [...]string{"", "1月", "2月", "3月", "4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月"}

// TodaysNumber headlines the bilateral trade total when the trade totals are
// present and falls back to the number of signals tracked.
func TodaysNumber(data Data, signals []types.Signal) *types.TodaysNumber {
	if data.Trade != nil {
		imports := data.Trade.Totals["total_imports_cad"]
		exports := data.Trade.Totals["total_exports_cad"]
		if imports != 0 && exports != 0 {
			period := data.Trade.ReferencePeriod
			periodEN, periodZH := period, period
			if len(period) >= 7 {
				if t, err := time.Parse("2006-01", period[:7]); err == nil {
					periodEN = t.Format("January 2006")
					periodZH = fmt.Sprintf("%d年%s", t.Year(), monthsZH[t.Month()])
				}
			}
			return &types.TodaysNumber{
				Value: amount(imports + exports),
				Description: types.Bilingual(
					fmt.Sprintf("Canada-China bilateral trade (%s)", periodEN),
					fmt.Sprintf("加中双边贸易总额（%s）", periodZH),
				),
				Imports:         amount(imports),
				Exports:         amount(exports),
				ReferencePeriod: period,
			}
		}
	}
	count := strconv.Itoa(len(signals))
	return &types.TodaysNumber{
		Value:       same(count),
		Description: types.Bilingual("Canada-China signals tracked today", "今日追踪的加中信号数"),
	}
}

// amount is CAD without the currency suffix on the English side.
func amount(millions float64) types.Text {
	t := CAD(millions)
	return types.Bilingual(strings.TrimSuffix(t.EN, " CAD"), t.ZH)
}

var quoteSourceRank = map[string]int{
	"Global Affairs Canada": 0,
	"Parliament of Canada":  1,
	"Xinhua":                2,
}

var (
	chinaTitleTerms  = []string{"china", "chinese", "beijing", "xi ", "xi's"}
	canadaTitleTerms = []string{"canada", "canadian", "ottawa"}
)

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// quoteScore ranks candidates; lower is better, compared field by field.
func quoteScore(s types.Signal) [4]int {
	title := strings.ToLower(s.Title.English())
	relevance := 2
	if containsAny(title, chinaTitleTerms) {
		relevance = 1
		if containsAny(title, canadaTitleTerms) {
			relevance = 0
		}
	}
	undated := 1
	if s.Date != "" {
		undated = 0
	}
	source, ok := quoteSourceRank[s.Source.English()]
	if !ok {
		source = 3
	}
	severity := types.SeverityLow.Rank()
	if s.Severity.Valid() {
		severity = s.Severity.Rank()
	}
	return [4]int{relevance, types.SeverityCritical.Rank() - severity, undated, source}
}

// Quote turns the most relevant, most severe headline into the quote of the
// day. It returns nil without signals.
func Quote(signals []types.Signal) *types.Quote {
	if len(signals) == 0 {
		return nil
	}
	best := signals[0]
	bestScore := quoteScore(best)
	for _, s := range signals[1:] {
		if sc := quoteScore(s); slices.Compare(sc[:], bestScore[:]) < 0 {
			best, bestScore = s, sc
		}
	}

	title := best.Title.Pair()
	source := best.Source.Pair()
	attrEN, attrZH := "— "+source.EN, "— "+source.ZH
	if best.Date != "" {
		attrEN += ", " + best.Date
		attrZH += "，" + best.Date
	}
	return &types.Quote{
		Text:        types.Bilingual("“"+title.EN+"”", "“"+title.ZH+"”"),
		Attribution: types.Bilingual(attrEN, attrZH),
	}
}

var marketCategories = map[types.Category]bool{
	types.CategoryTrade:      true,
	types.CategoryEconomic:   true,
	types.CategoryTechnology: true,
}

var regulatoryPattern = regexp.MustCompile(`\b(?:regulat\w*|compliance|antitrust|samr|cac|crackdown|enforcement|fine[sd]?|penalt(?:y|ies)|investigat\w*|licen[cs]\w*|approv\w*)\b`)

// IsRegulatory reports whether a signal's English title or body talks about
// regulation or enforcement.
func IsRegulatory(s types.Signal) bool {
	text := strings.ToLower(s.Title.English() + " " + s.Content().English())
	return regulatoryPattern.MatchString(text)
}

// MarketSignals picks the trade, economic and technology signals and the
// regulatory ones, each ordered by severity and capped at limit.
func MarketSignals(signals []types.Signal, limit int) (market, regulatory []types.SignalRef) {
	var m, r []types.Signal
	for _, s := range signals {
		if marketCategories[s.Category] {
			m = append(m, s)
		}
		if IsRegulatory(s) {
			r = append(r, s)
		}
	}
	return refs(m, limit), refs(r, limit)
}

func refs(signals []types.Signal, limit int) []types.SignalRef {
	slices.SortStableFunc(signals, func(a, b types.Signal) int {
		return cmp.Compare(b.Severity.Rank(), a.Severity.Rank())
	})
	out := make([]types.SignalRef, 0, min(len(signals), limit))
	for _, s := range signals[:min(len(signals), limit)] {
		out = append(out, types.SignalRef{ID: s.ID, Title: s.Title, Category: s.Category, Severity: s.Severity})
	}
	return out
}

// Market attaches the picked signals to the day's market data. It is never
// nil so the markets panel always renders.
func Market(data Data, signals []types.Signal) *types.MarketData {
	md := data.Market
	if md == nil {
		md = &types.MarketData{
			Indices:       []types.MarketIndex{},
			Sectors:       []types.MarketSector{},
			Movers:        types.Movers{Gainers: []types.Mover{}, Losers: []types.Mover{}},
			CurrencyPairs: []types.CurrencyPair{},
		}
	}
	md.MarketSignals, md.RegulatorySignals = MarketSignals(signals, MaxMarketSignals)
	return md
}
