package types

// Direction tags used by the market and trade tables.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Stat is one labelled figure in a summary row.
type Stat struct {
	Label     Text   `json:"label"`
	Value     Text   `json:"value"`
	Direction string `json:"direction,omitempty"`
}

// CommodityRow is one line of the bilateral commodity table.
type CommodityRow struct {
	Commodity        Text   `json:"commodity"`
	Export           Text   `json:"export"`
	Import           Text   `json:"import"`
	Balance          Text   `json:"balance"`
	BalanceDirection string `json:"balance_direction"`
	Trend            Text   `json:"trend"`
	Disrupted        bool   `json:"disrupted"`
}

// TradeData is the Statistics Canada bilateral trade section.
type TradeData struct {
	SummaryStats    []Stat             `json:"summary_stats"`
	CommodityTable  []CommodityRow     `json:"commodity_table"`
	Totals          map[string]float64 `json:"totals,omitempty"`
	ReferencePeriod string             `json:"reference_period"`
}

// MarketIndex is a headline index with its sparkline rendered as SVG points.
type MarketIndex struct {
	Name            Text   `json:"name"`
	Value           string `json:"value"`
	Change          string `json:"change"`
	Direction       string `json:"direction"`
	SparklinePoints string `json:"sparkline_points"`
}

// MarketSector is a sector index row.
type MarketSector struct {
	Name      Text   `json:"name"`
	IndexName Text   `json:"index_name"`
	Value     string `json:"value"`
	Change    string `json:"change"`
	Direction string `json:"direction"`
}

// Mover is one of the day's top gainers or losers.
type Mover struct {
	Name   Text   `json:"name"`
	Price  string `json:"price"`
	Change string `json:"change"`
}

// Movers groups gainers and losers.
type Movers struct {
	Gainers []Mover `json:"gainers"`
	Losers  []Mover `json:"losers"`
}

// CurrencyPair is an exchange rate row.
type CurrencyPair struct {
	Name      Text   `json:"name"`
	Rate      string `json:"rate"`
	Change    string `json:"change"`
	Direction string `json:"direction"`
}

// SignalRef points back at a signal from a side panel.
type SignalRef struct {
	ID       string   `json:"id"`
	Title    Text     `json:"title"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
}

// MarketData is the markets section, including the signals picked out as
// market-moving or regulatory.
type MarketData struct {
	Indices           []MarketIndex  `json:"indices"`
	Sectors           []MarketSector `json:"sectors"`
	Movers            Movers         `json:"movers"`
	CurrencyPairs     []CurrencyPair `json:"currency_pairs"`
	MarketSignals     []SignalRef    `json:"market_signals"`
	RegulatorySignals []SignalRef    `json:"regulatory_signals"`
}

// Bill is a tracked piece of federal legislation.
type Bill struct {
	ID         string `json:"id"`
	Title      Text   `json:"title"`
	Status     Text   `json:"status"`
	Relevance  Text   `json:"relevance"`
	LastAction Text   `json:"last_action"`
}

// Hansard summarizes China mentions in House debates.
type Hansard struct {
	SessionMentions int    `json:"session_mentions"`
	MonthMentions   int    `json:"month_mentions"`
	TopTopic        Text   `json:"top_topic"`
	TopTopicPct     string `json:"top_topic_pct"`
}

// Parliament is the legislative tracker section.
type Parliament struct {
	Bills   []Bill  `json:"bills"`
	Hansard Hansard `json:"hansard"`
}

// TodaysNumber is the headline figure of the day.
type TodaysNumber struct {
	Value           Text   `json:"value"`
	Description     Text   `json:"description"`
	Imports         Text   `json:"imports,omitzero"`
	Exports         Text   `json:"exports,omitzero"`
	ReferencePeriod string `json:"reference_period,omitempty"`
}

// Quote is the quote of the day with its attribution.
type Quote struct {
	Text        Text `json:"text"`
	Attribution Text `json:"attribution"`
}
