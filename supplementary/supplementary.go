// Package supplementary loads the trade, market and parliament side files
// that sit next to a day's raw signals and turns them into briefing sections.
package supplementary

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"compass/logging"
	"compass/types"
)

type kind int

const (
	kindTrade kind = iota
	kindMarket
	kindParliament
)

// sources lists the side files in lookup order. The first readable file of
// each kind wins.
var sources = []struct {
	name string
	kind kind
}{
	{"statcan.json", kindTrade},
	{"trade.json", kindTrade},
	{"yahoo_finance.json", kindMarket},
	{"market.json", kindMarket},
	{"parliament.json", kindParliament},
}

// FileNames returns the side file names so raw signal loading can skip them.
func FileNames() []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.name
	}
	return names
}

// Data is what one day's side files provide. Missing sections are nil.
type Data struct {
	Trade      *types.TradeData
	Market     *types.MarketData
	Parliament *types.Parliament
}

var errPayload = errors.New("payload reports an error")

// Load reads the side files in dir. A missing directory, unreadable file or
// error payload leaves that section nil.
func Load(dir string) Data {
	logger := logging.WithPrefix("supplementary")
	var data Data
	for _, src := range sources {
		if data.has(src.kind) {
			continue
		}
		path := filepath.Join(dir, src.name)
		raw, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Warn("failed to read supplementary file", "path", path, "err", err)
			}
			continue
		}
		if err := data.decode(src.kind, raw); err != nil {
			logger.Warn("skipping supplementary file", "path", path, "err", err)
			continue
		}
		logger.Info("loaded supplementary file", "path", path)
	}
	return data
}

func (d *Data) has(k kind) bool {
	switch k {
	case kindTrade:
		return d.Trade != nil
	case kindMarket:
		return d.Market != nil
	default:
		return d.Parliament != nil
	}
}

func (d *Data) decode(k kind, raw []byte) error {
	payload, err := unwrap(raw)
	if err != nil {
		return err
	}
	switch k {
	case kindTrade:
		var in TradeInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return fmt.Errorf("failed to decode trade data: %w", err)
		}
		d.Trade = TransformTrade(in)
	case kindMarket:
		var in MarketInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return fmt.Errorf("failed to decode market data: %w", err)
		}
		d.Market = TransformMarket(in)
	default:
		var in ParliamentInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return fmt.Errorf("failed to decode parliament data: %w", err)
		}
		d.Parliament = TransformParliament(in)
	}
	return nil
}

// unwrap strips a {"data": ...} envelope and rejects payloads that are not
// objects or that carry an "error" key.
func unwrap(raw []byte) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if inner, ok := obj["data"]; ok {
		obj = nil
		if err := json.Unmarshal(inner, &obj); err != nil || obj == nil {
			return nil, errors.New("data envelope is not an object")
		}
		raw = inner
	}
	if msg, ok := obj["error"]; ok {
		return nil, fmt.Errorf("%w: %s", errPayload, strings.Trim(string(msg), `"`))
	}
	return raw, nil
}

var printer = message.NewPrinter(language.English)

func direction(change float64) string {
	if change < 0 {
		return types.DirectionDown
	}
	return types.DirectionUp
}

func same(s string) types.Text { return types.Bilingual(s, s) }

// MarketInput is the market fetcher's output.
type MarketInput struct {
	Indices []IndexInput  `json:"indices"`
	Sectors []SectorInput `json:"sectors"`
	Movers  struct {
		Gainers []MoverInput `json:"gainers"`
		Losers  []MoverInput `json:"losers"`
	} `json:"movers"`
	CurrencyPairs []PairInput `json:"currency_pairs"`
}

type IndexInput struct {
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	ChangePct float64   `json:"change_pct"`
	Sparkline []float64 `json:"sparkline"`
}

type SectorInput struct {
	Name      string  `json:"name"`
	IndexName string  `json:"index_name"`
	Value     float64 `json:"value"`
	ChangePct float64 `json:"change_pct"`
}

type PairInput struct {
	Name      string  `json:"name"`
	Rate      float64 `json:"rate"`
	ChangePct float64 `json:"change_pct"`
}

// MoverInput is one gainer or loser. Close is preferred over Value.
type MoverInput struct {
	Name      string  `json:"name"`
	Close     float64 `json:"close"`
	Value     float64 `json:"value"`
	ChangePct float64 `json:"change_pct"`
}

// TransformMarket formats the market feed for display.
func TransformMarket(in MarketInput) *types.MarketData {
	out := &types.MarketData{
		Indices:       []types.MarketIndex{},
		Sectors:       []types.MarketSector{},
		Movers:        types.Movers{Gainers: movers(in.Movers.Gainers), Losers: movers(in.Movers.Losers)},
		CurrencyPairs: []types.CurrencyPair{},
	}
	for _, idx := range in.Indices {
		out.Indices = append(out.Indices, types.MarketIndex{
			Name:            same(idx.Name),
			Value:           printer.Sprintf("%.2f", idx.Value),
			Change:          fmt.Sprintf("%+.2f%%", idx.ChangePct),
			Direction:       direction(idx.ChangePct),
			SparklinePoints: SparklinePoints(idx.Sparkline),
		})
	}
	for _, sec := range in.Sectors {
		indexName := sec.IndexName
		if indexName == "" {
			indexName = sec.Name
		}
		value := ""
		if sec.Value != 0 {
			value = printer.Sprintf("%.2f", sec.Value)
		}
		out.Sectors = append(out.Sectors, types.MarketSector{
			Name:      same(sec.Name),
			IndexName: same(indexName),
			Value:     value,
			Change:    fmt.Sprintf("%+.2f%%", sec.ChangePct),
			Direction: direction(sec.ChangePct),
		})
	}
	for _, p := range in.CurrencyPairs {
		rate := ""
		if p.Rate != 0 {
			rate = fmt.Sprintf("%.4f", p.Rate)
		}
		out.CurrencyPairs = append(out.CurrencyPairs, types.CurrencyPair{
			Name:      same(p.Name),
			Rate:      rate,
			Change:    fmt.Sprintf("%+.4f%%", p.ChangePct),
			Direction: direction(p.ChangePct),
		})
	}
	return out
}

func movers(in []MoverInput) []types.Mover {
	out := make([]types.Mover, 0, len(in))
	for _, m := range in {
		price := m.Close
		if price == 0 {
			price = m.Value
		}
		var priceText string
		if price != 0 {
			priceText = printer.Sprintf("HK$%.2f", price)
		}
		out = append(out, types.Mover{
			Name:   same(m.Name),
			Price:  priceText,
			Change: fmt.Sprintf("%+.2f%%", m.ChangePct),
		})
	}
	return out
}

// SparklinePoints scales values into a 100x32 SVG polyline, highest value
// at the top. Fewer than two values give an empty string.
func SparklinePoints(values []float64) string {
	if len(values) < 2 {
		return ""
	}
	lo, hi := slices.Min(values), slices.Max(values)
	span := hi - lo
	if span == 0 {
		span = 1
	}
	pts := make([]string, len(values))
	for i, v := range values {
		x := float64(i) / float64(len(values)-1) * 100
		y := 32 - (v-lo)/span*30
		pts[i] = fmt.Sprintf("%.0f,%.1f", x, y)
	}
	return strings.Join(pts, " ")
}

// TradeInput is the Statistics Canada fetcher's output, in millions of CAD.
type TradeInput struct {
	Imports     float64 `json:"imports_cad_millions"`
	Exports     float64 `json:"exports_cad_millions"`
	Balance     float64 `json:"balance_cad_millions"`
	Commodities     []CommodityInput   `json:"commodities"`
	Totals          map[string]float64 `json:"totals"`
	ReferencePeriod string             `json:"reference_period"`
}

// CommodityInput is one commodity line. A missing balance is export minus
// import.
type CommodityInput struct {
	Name    string   `json:"name"`
	NameEN  string   `json:"name_en"`
	NameZH  string   `json:"name_zh"`
	Export  float64  `json:"export_cad_millions"`
	Import  float64  `json:"import_cad_millions"`
	Balance *float64 `json:"balance_cad_millions"`
	Trend   string   `json:"trend"`
}

var trendLabels = map[string]types.Text{
	"up":        types.Bilingual("Increasing", "增长"),
	"down":      types.Bilingual("Decreasing", "下降"),
	"stable":    types.Bilingual("Stable", "稳定"),
	"disrupted": types.Bilingual("Disrupted", "中断"),
}

// CAD formats an amount in millions of Canadian dollars, switching to
// billions from 1,000. The Chinese side counts in 亿 (100 million).
func CAD(millions float64) types.Text {
	sign := ""
	if millions < 0 {
		sign = "-"
	}
	abs := math.Abs(millions)
	if abs >= 1000 {
		return types.Bilingual(
			fmt.Sprintf("%s$%.1fB CAD", sign, abs/1000),
			fmt.Sprintf("%s%.1f亿加元", sign, abs/100),
		)
	}
	return types.Bilingual(
		printer.Sprintf("%s$%.0fM CAD", sign, abs),
		printer.Sprintf("%s%.0f百万加元", sign, abs),
	)
}

// TransformTrade builds the summary row and commodity table.
func TransformTrade(in TradeInput) *types.TradeData {
	out := &types.TradeData{
		SummaryStats: []types.Stat{
			{Label: types.Bilingual("Total Imports from China", "从中国进口总额"), Value: CAD(in.Imports)},
			{Label: types.Bilingual("Total Exports to China", "对中国出口总额"), Value: CAD(in.Exports)},
			{Label: types.Bilingual("Trade Balance", "贸易差额"), Value: CAD(in.Balance), Direction: direction(in.Balance)},
		},
		CommodityTable:  []types.CommodityRow{},
		Totals:          in.Totals,
		ReferencePeriod: in.ReferencePeriod,
	}
	for _, c := range in.Commodities {
		balance := c.Export - c.Import
		if c.Balance != nil {
			balance = *c.Balance
		}
		name := c.Name
		if name == "" {
			name = c.NameEN
		}
		nameZH := c.NameZH
		if nameZH == "" {
			nameZH = name
		}
		trend := strings.ToLower(strings.TrimSpace(c.Trend))
		if trend == "" {
			trend = "stable"
		}
		label, ok := trendLabels[trend]
		if !ok {
			label = same(c.Trend)
		}
		out.CommodityTable = append(out.CommodityTable, types.CommodityRow{
			Commodity:        types.Bilingual(name, nameZH),
			Export:           CAD(c.Export),
			Import:           CAD(c.Import),
			Balance:          CAD(balance),
			BalanceDirection: direction(balance),
			Trend:            label,
			Disrupted:        trend == "disrupted",
		})
	}
	return out
}

// ParliamentInput is the parliament fetcher's output.
type ParliamentInput struct {
	Bills        []BillInput `json:"bills"`
	HansardStats struct {
		TotalMentions int            `json:"total_mentions"`
		ByKeyword     map[string]int `json:"by_keyword"`
	} `json:"hansard_stats"`
}

type BillInput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	TitleZH string `json:"title_zh"`
	Status  string `json:"status"`
}

var billStatus = map[string]types.Text{
	"RoyalAssentGiven":  types.Bilingual("Royal Assent", "御准"),
	"HouseInCommittee":  types.Bilingual("In Committee", "委员会审议中"),
	"HouseAt2ndReading": types.Bilingual("2nd Reading", "二读"),
	"SenateInCommittee": types.Bilingual("Senate Committee", "参议院委员会"),
}

// TransformParliament lists the tracked bills and the top Hansard keyword.
// Keyword ties go to the alphabetically first keyword.
func TransformParliament(in ParliamentInput) *types.Parliament {
	out := &types.Parliament{Bills: []types.Bill{}}
	for _, b := range in.Bills {
		titleZH := b.TitleZH
		if titleZH == "" {
			titleZH = b.Title
		}
		status, ok := billStatus[b.Status]
		if !ok {
			status = same(b.Status)
		}
		out.Bills = append(out.Bills, types.Bill{
			ID:         b.ID,
			Title:      types.Bilingual(b.Title, titleZH),
			Status:     status,
			Relevance:  same(""),
			LastAction: same(""),
		})
	}

	total := in.HansardStats.TotalMentions
	keywords := make([]string, 0, len(in.HansardStats.ByKeyword))
	for kw := range in.HansardStats.ByKeyword {
		keywords = append(keywords, kw)
	}
	slices.Sort(keywords)
	top, topCount := "", 0
	for _, kw := range keywords {
		if n := in.HansardStats.ByKeyword[kw]; n > topCount {
			top, topCount = kw, n
		}
	}

	out.Hansard = types.Hansard{
		SessionMentions: total,
		MonthMentions:   total,
		TopTopic:        same("N/A"),
		TopTopicPct:     "0%",
	}
	if top != "" {
		out.Hansard.TopTopic = same(top)
	}
	if total > 0 {
		out.Hansard.TopTopicPct = fmt.Sprintf("%.0f%%", float64(topCount)/float64(total)*100)
	}
	return out
}
