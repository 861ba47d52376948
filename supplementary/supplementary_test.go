package supplementary

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/logging"
	"compass/types"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad(t *testing.T) {
	t.Run("envelopes and precedence", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "statcan.json", `{"data": {"imports_cad_millions": 7200, "exports_cad_millions": 2900, "balance_cad_millions": -4300, "reference_period": "2025-11"}}`)
		writeFile(t, dir, "trade.json", `{"imports_cad_millions": 1}`)
		writeFile(t, dir, "yahoo_finance.json", `{"error": "rate limited"}`)
		writeFile(t, dir, "market.json", `{"indices": [{"name": "Hang Seng", "value": 19876.5, "change_pct": -1.25}]}`)
		writeFile(t, dir, "parliament.json", `not json`)

		data := Load(dir)
		require.NotNil(t, data.Trade)
		assert.Equal(t, "2025-11", data.Trade.ReferencePeriod)
		assert.Equal(t, types.Bilingual("$7.2B CAD", "72.0亿加元"), data.Trade.SummaryStats[0].Value)
		require.NotNil(t, data.Market)
		require.Len(t, data.Market.Indices, 1)
		assert.Equal(t, "19,876.50", data.Market.Indices[0].Value)
		assert.Nil(t, data.Parliament)
	})

	t.Run("missing directory", func(t *testing.T) {
		assert.Equal(t, Data{}, Load(filepath.Join(t.TempDir(), "nope")))
	})
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, []string{"statcan.json", "trade.json", "yahoo_finance.json", "market.json", "parliament.json"}, FileNames())
}

func TestCAD(t *testing.T) {
	tests := []struct {
		millions float64
		want     types.Text
	}{
		{850, types.Bilingual("$850M CAD", "850百万加元")},
		{1250.4, types.Bilingual("$1,250M CAD", "1,250百万加元")},
		{1500, types.Bilingual("$1.5B CAD", "15.0亿加元")},
		{-4300, types.Bilingual("-$4.3B CAD", "-43.0亿加元")},
		{0, types.Bilingual("$0M CAD", "0百万加元")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CAD(tt.millions), "%v", tt.millions)
	}
}

func TestTransformTrade(t *testing.T) {
	zero := 0.0
	in := TradeInput{Imports: 500, Exports: 300, Balance: -200}
	in.Commodities = []CommodityInput{
		{NameEN: "Canola", NameZH: "油菜籽", Export: 120, Import: 10, Trend: "Disrupted"},
		{Name: "Seafood", Export: 40, Import: 60, Balance: &zero, Trend: "volatile"},
	}

	got := TransformTrade(in)
	require.Len(t, got.SummaryStats, 3)
	assert.Equal(t, types.DirectionDown, got.SummaryStats[2].Direction)
	assert.Empty(t, got.SummaryStats[0].Direction)

	require.Len(t, got.CommodityTable, 2)
	canola := got.CommodityTable[0]
	assert.Equal(t, types.Bilingual("Canola", "油菜籽"), canola.Commodity)
	assert.Equal(t, types.Bilingual("$110M CAD", "110百万加元"), canola.Balance)
	assert.Equal(t, types.DirectionUp, canola.BalanceDirection)
	assert.Equal(t, types.Bilingual("Disrupted", "中断"), canola.Trend)
	assert.True(t, canola.Disrupted)

	seafood := got.CommodityTable[1]
	assert.Equal(t, types.Bilingual("Seafood", "Seafood"), seafood.Commodity)
	assert.Equal(t, types.Bilingual("$0M CAD", "0百万加元"), seafood.Balance, "explicit balance wins over export minus import")
	assert.Equal(t, types.Bilingual("volatile", "volatile"), seafood.Trend)
	assert.False(t, seafood.Disrupted)
}

func TestTransformMarket(t *testing.T) {
	var in MarketInput
	in.Indices = []IndexInput{{Name: "TSX", Value: 25012.3, ChangePct: 0.5, Sparkline: []float64{10, 20, 15}}}
	in.Movers.Gainers = []MoverInput{{Name: "BYD", Close: 312.4, ChangePct: 4.1}}
	in.Movers.Losers = []MoverInput{{Name: "Alibaba", Value: 88, ChangePct: -2}, {Name: "Unknown"}}
	in.CurrencyPairs = []PairInput{{Name: "CAD/CNY", Rate: 5.1234, ChangePct: -0.01}}

	got := TransformMarket(in)
	require.Len(t, got.Indices, 1)
	assert.Equal(t, types.MarketIndex{
		Name:            types.Bilingual("TSX", "TSX"),
		Value:           "25,012.30",
		Change:          "+0.50%",
		Direction:       types.DirectionUp,
		SparklinePoints: "0,32.0 50,2.0 100,17.0",
	}, got.Indices[0])
	assert.Equal(t, []types.Mover{{Name: types.Bilingual("BYD", "BYD"), Price: "HK$312.40", Change: "+4.10%"}}, got.Movers.Gainers)
	assert.Equal(t, "HK$88.00", got.Movers.Losers[0].Price)
	assert.Empty(t, got.Movers.Losers[1].Price)
	assert.Equal(t, types.CurrencyPair{Name: types.Bilingual("CAD/CNY", "CAD/CNY"), Rate: "5.1234", Change: "-0.0100%", Direction: types.DirectionDown}, got.CurrencyPairs[0])
	assert.Empty(t, got.Sectors)
}

func TestSparklinePoints(t *testing.T) {
	assert.Empty(t, SparklinePoints([]float64{1}))
	assert.Equal(t, "0,32.0 100,32.0", SparklinePoints([]float64{5, 5}))
}

func TestTransformParliament(t *testing.T) {
	var in ParliamentInput
	in.Bills = []BillInput{
		{ID: "C-70", Title: "Countering Foreign Interference Act", Status: "RoyalAssentGiven"},
		{ID: "S-1", Title: "Other", Status: "Introduced"},
	}
	in.HansardStats.TotalMentions = 40
	in.HansardStats.ByKeyword = map[string]int{"tariff": 10, "foreign interference": 10, "canola": 4}

	got := TransformParliament(in)
	require.Len(t, got.Bills, 2)
	assert.Equal(t, types.Bilingual("Royal Assent", "御准"), got.Bills[0].Status)
	assert.Equal(t, types.Bilingual("Countering Foreign Interference Act", "Countering Foreign Interference Act"), got.Bills[0].Title)
	assert.Equal(t, types.Bilingual("Introduced", "Introduced"), got.Bills[1].Status)
	assert.Equal(t, types.Hansard{
		SessionMentions: 40,
		MonthMentions:   40,
		TopTopic:        types.Bilingual("foreign interference", "foreign interference"),
		TopTopicPct:     "25%",
	}, got.Hansard)

	empty := TransformParliament(ParliamentInput{})
	assert.Equal(t, types.Bilingual("N/A", "N/A"), empty.Hansard.TopTopic)
	assert.Equal(t, "0%", empty.Hansard.TopTopicPct)
}
