package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/config"
	"compass/logging"
	"compass/rssfeeds"
	"compass/store"
	"compass/types"
)

type recorder struct {
	runs []store.Run
}

func (r *recorder) Record(_ context.Context, run store.Run) error {
	r.runs = append(r.runs, run)
	return nil
}

type publisher struct {
	results []*RunResult
}

func (p *publisher) PublishRunComplete(_ context.Context, res *RunResult) error {
	p.results = append(p.results, res)
	return nil
}

const rawSignals = `[
  {"title": "Canada and China resume canola talks in Beijing", "url": "https://example.com/canola", "source": "Reuters", "date": "2026-02-01"},
  {"title": "Canola negotiations with China restart", "url": "https://example.com/canola", "source": "CBC News", "date": "2026-02-01"},
  {"title": "Ottawa expels Chinese diplomat over interference claims", "url": "https://example.com/expel", "source": "Global Affairs Canada", "date": "2026-02-01"},
  {"title": "Huawei equipment ban upheld by federal court", "url": "https://example.com/huawei", "source": "The Globe and Mail", "date": "2026-02-01"}
]`

type fixture struct {
	cfg  config.Config
	runs *recorder
	pub  *publisher
}

func newFixture(t *testing.T, raw string) *fixture {
	t.Helper()
	logging.SetOutput(io.Discard)

	root := t.TempDir()
	cfg := *config.Default()
	cfg.Paths.RawDir = filepath.Join(root, "raw")
	cfg.Paths.ProcessedDir = filepath.Join(root, "processed")
	cfg.Paths.ArchiveDir = filepath.Join(root, "archive")

	f := &fixture{cfg: cfg, runs: &recorder{}, pub: &publisher{}}
	if raw != "" {
		f.writeRaw(t, "2026-02-01", raw)
	}
	return f
}

func (f *fixture) writeRaw(t *testing.T, date, raw string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.cfg.Paths.RawDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Paths.RawDir, date+".json"), []byte(raw), 0o644))
}

func (f *fixture) pipeline(fetch FetchFunc) *Pipeline {
	return New(f.cfg, Deps{Runs: f.runs, Events: f.pub, Fetch: fetch})
}

func readBriefing(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestRunOnceWritesBriefing(t *testing.T) {
	f := newFixture(t, rawSignals)
	p := f.pipeline(nil)

	res, err := p.RunOnce(context.Background(), "2026-02-01")
	require.NoError(t, err)

	assert.Equal(t, store.StatusSuccess, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "2026-02-01", res.Date)
	assert.Equal(t, 1, res.Volume)
	assert.Equal(t, 4, res.RawSignals)
	assert.Equal(t, 4, res.Filtered)
	assert.Equal(t, 3, res.Signals)
	assert.Equal(t, types.DedupStats{TotalBefore: 4, TotalAfter: 3, DroppedURL: 1}, res.Dedup)
	assert.NotEmpty(t, res.Level)
	require.Len(t, res.Paths, 3)
	for _, path := range res.Paths {
		assert.FileExists(t, path)
	}

	doc := readBriefing(t, filepath.Join(f.cfg.Paths.ProcessedDir, "2026-02-01", "briefing.json"))
	assert.Equal(t, "2026-02-01", doc["date"])
	assert.EqualValues(t, 1, doc["volume"])
	assert.Equal(t, res.RunID, doc["run_id"])
	assert.Len(t, doc["signals"], 3)
	ti, ok := doc["tension_index"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, ti["components"], 6)
	td, ok := doc["trend"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, td["has_previous"])

	assert.FileExists(t, filepath.Join(f.cfg.Paths.ProcessedDir, "latest", "briefing.json"))
	assert.FileExists(t, filepath.Join(f.cfg.Paths.ArchiveDir, "daily", "2026-02-01", "briefing.json"))

	require.Len(t, f.runs.runs, 1)
	run := f.runs.runs[0]
	assert.Equal(t, res.RunID, run.RunID)
	assert.Equal(t, 4, run.SignalsIn)
	assert.Equal(t, 3, run.SignalsOut)
	assert.Equal(t, 1, run.DroppedURL)
	assert.Equal(t, store.StatusSuccess, run.Status)
	require.Len(t, f.pub.results, 1)
	assert.Same(t, res, f.pub.results[0])
}

func TestRunOnceNextDayUsesHistory(t *testing.T) {
	f := newFixture(t, rawSignals)
	p := f.pipeline(nil)
	ctx := context.Background()

	_, err := p.RunOnce(ctx, "2026-02-01")
	require.NoError(t, err)

	f.writeRaw(t, "2026-02-02", rawSignals)
	res, err := p.RunOnce(ctx, "2026-02-02")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Volume)
	assert.Equal(t, 0, res.Signals)
	assert.Equal(t, types.DedupStats{TotalBefore: 4, TotalAfter: 0, DroppedURL: 4}, res.Dedup)

	doc := readBriefing(t, filepath.Join(f.cfg.Paths.ProcessedDir, "2026-02-02", "briefing.json"))
	assert.EqualValues(t, 2, doc["volume"])
	td, ok := doc["trend"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, td["has_previous"])
	assert.EqualValues(t, 3, td["previous_signal_count"])
	assert.EqualValues(t, -3, td["new_signals_delta"])

	latest := readBriefing(t, filepath.Join(f.cfg.Paths.ProcessedDir, "latest", "briefing.json"))
	assert.Equal(t, "2026-02-02", latest["date"])
	assert.Len(t, f.runs.runs, 2)
}

const invalidRaw = `[
  {"title": "Canada and China resume canola talks", "url": "https://example.com/canola"},
  {"url": "https://example.com/untitled", "body": "China news without a headline"}
]`

func dayRaw(date string, titles ...string) string {
	items := make([]map[string]string, len(titles))
	for i, title := range titles {
		items[i] = map[string]string{
			"title":  title,
			"url":    fmt.Sprintf("https://example.com/%s/%d", date, i),
			"source": "Reuters",
			"date":   date,
		}
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func TestRunOnceReadsOnlyTargetDate(t *testing.T) {
	f := newFixture(t, "")
	p := f.pipeline(nil)
	ctx := context.Background()

	days := map[string][]string{
		"2026-02-01": {"Canada imposes tariffs on Chinese electric vehicles", "China tightens rare earth export quotas"},
		"2026-02-02": {"Beijing summons Canadian ambassador"},
		"2026-02-03": {"Ottawa reviews Chinese investment in lithium miner"},
		"2026-02-04": {"China resumes imports of Canadian pork"},
		"2026-02-05": {"Canada and China open consular dialogue", "Chinese students face visa delays in Canada"},
	}
	for date, titles := range days {
		f.writeRaw(t, date, dayRaw(date, titles...))
	}
	// a stale item re-collected on day five is outside every recency window
	stale := `[{"title": "Canada weighs Huawei 5G review", "url": "https://example.com/old", "source": "CBC", "date": "2026-01-10"}]`
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.Paths.RawDir, "2026-02-05"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Paths.RawDir, "2026-02-05", "extra.json"), []byte(stale), 0o644))

	for _, date := range []string{"2026-02-01", "2026-02-02", "2026-02-03", "2026-02-04"} {
		res, err := p.RunOnce(ctx, date)
		require.NoError(t, err)
		assert.Equal(t, len(days[date]), res.RawSignals, date)
	}

	res, err := p.RunOnce(ctx, "2026-02-05")
	require.NoError(t, err)
	assert.Equal(t, 3, res.RawSignals)
	assert.Equal(t, 2, res.Filtered)
	assert.Equal(t, 2, res.Signals)
	assert.Equal(t, 5, res.Volume)

	data, err := os.ReadFile(filepath.Join(f.cfg.Paths.ProcessedDir, "2026-02-05", "briefing.json"))
	require.NoError(t, err)
	body := string(data)
	assert.NotContains(t, body, "Canada imposes tariffs on Chinese electric vehicles")
	assert.NotContains(t, body, "China tightens rare earth export quotas")
	assert.NotContains(t, body, "Canada weighs Huawei 5G review")
	assert.Contains(t, body, "Canada and China open consular dialogue")
}

func TestRunOnceAddsSupplementaryAndBilingualFields(t *testing.T) {
	f := newFixture(t, rawSignals)
	dayDir := filepath.Join(f.cfg.Paths.RawDir, "2026-02-01")
	require.NoError(t, os.MkdirAll(dayDir, 0o755))
	statcan := `{"data": {"imports_cad_millions": 7200, "exports_cad_millions": 900, "balance_cad_millions": -6300,
	  "totals": {"total_imports_cad": 7200, "total_exports_cad": 900}, "reference_period": "2025-11"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dayDir, "statcan.json"), []byte(statcan), 0o644))

	res, err := f.pipeline(nil).RunOnce(context.Background(), "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, 4, res.RawSignals, "side files are not read as signals")
	assert.Equal(t, 3, res.Normalized)

	doc := readBriefing(t, filepath.Join(f.cfg.Paths.ProcessedDir, "2026-02-01", "briefing.json"))
	signals, ok := doc["signals"].([]any)
	require.True(t, ok)
	for _, s := range signals {
		sig := s.(map[string]any)
		title, ok := sig["title"].(map[string]any)
		require.True(t, ok, "title is an {en, zh} pair")
		assert.Equal(t, title["en"], title["zh"])
		assert.NotNil(t, sig["implications"])
		assert.NotNil(t, sig["perspectives"])
	}

	number, ok := doc["todays_number"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"en": "$8.1B", "zh": "81.0亿加元"}, number["value"])
	assert.Equal(t, "2025-11", number["reference_period"])

	trade, ok := doc["trade_data"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, trade["summary_stats"], 3)

	market, ok := doc["market_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{}, market["indices"])
	assert.NotNil(t, market["market_signals"])
	assert.Nil(t, doc["parliament"])

	quote, ok := doc["quote_of_the_day"].(map[string]any)
	require.True(t, ok)
	text := quote["text"].(map[string]any)
	assert.True(t, strings.HasPrefix(text["en"].(string), "“"))
}

func TestRunOnceStrictValidation(t *testing.T) {
	f := newFixture(t, invalidRaw)
	f.cfg.Validation.Strict = true
	p := f.pipeline(nil)

	res, err := p.RunOnce(context.Background(), "2026-02-01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidBriefing))
	assert.Equal(t, store.StatusFailed, res.Status)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Paths)

	assert.NoDirExists(t, f.cfg.Paths.ProcessedDir)
	assert.NoDirExists(t, f.cfg.Paths.ArchiveDir)

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, store.StatusFailed, f.runs.runs[0].Status)
	require.Len(t, f.pub.results, 1)
	assert.Equal(t, store.StatusFailed, f.pub.results[0].Status)
}

func TestRunOnceLenientValidation(t *testing.T) {
	f := newFixture(t, invalidRaw)
	f.cfg.Validation.Strict = false
	p := f.pipeline(nil)

	res, err := p.RunOnce(context.Background(), "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, store.StatusSuccess, res.Status)
	assert.Equal(t, 2, res.Signals)
	assert.FileExists(t, filepath.Join(f.cfg.Paths.ProcessedDir, "2026-02-01", "briefing.json"))
}

func TestRunOnceInvalidDate(t *testing.T) {
	f := newFixture(t, rawSignals)
	p := f.pipeline(nil)

	res, err := p.RunOnce(context.Background(), "02/01/2026")
	require.Error(t, err)
	assert.Equal(t, store.StatusFailed, res.Status)
	assert.NoDirExists(t, f.cfg.Paths.ProcessedDir)
	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, "02/01/2026", f.runs.runs[0].Date)
}

func TestRunWithoutRawDirectory(t *testing.T) {
	f := newFixture(t, "")
	p := f.pipeline(nil)

	res, err := p.RunOnce(context.Background(), "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Signals)
	assert.Equal(t, 1, res.Volume)

	doc := readBriefing(t, filepath.Join(f.cfg.Paths.ProcessedDir, "2026-02-01", "briefing.json"))
	assert.Equal(t, []any{}, doc["signals"])
	assert.Equal(t, []any{}, doc["active_situations"])
}

func TestRunFetch(t *testing.T) {
	t.Run("writes fetched signals before loading", func(t *testing.T) {
		f := newFixture(t, "")
		fetched := 0
		fetch := func(context.Context) (*rssfeeds.FeedResult, error) {
			fetched++
			sigs := []types.Signal{{
				Title: types.Plain("China lifts tariffs on Canadian canola"),
				URL:   "https://example.com/tariffs",
				Date:  "2026-02-01",
			}}
			return &rssfeeds.FeedResult{FetchedAt: time.Now(), SignalCount: len(sigs), Signals: sigs}, nil
		}
		p := f.pipeline(fetch)

		res, err := p.Run(context.Background(), Request{Date: "2026-02-01", Fetch: true})
		require.NoError(t, err)
		assert.Equal(t, 1, fetched)
		assert.Equal(t, 1, res.RawSignals)
		assert.FileExists(t, filepath.Join(f.cfg.Paths.RawDir, "2026-02-01.json"))
	})

	t.Run("fails without a fetcher", func(t *testing.T) {
		f := newFixture(t, rawSignals)
		p := f.pipeline(nil)

		res, err := p.Run(context.Background(), Request{Date: "2026-02-01", Fetch: true})
		require.Error(t, err)
		assert.Equal(t, store.StatusFailed, res.Status)
	})

	t.Run("fetch errors abort the run", func(t *testing.T) {
		f := newFixture(t, rawSignals)
		p := f.pipeline(func(context.Context) (*rssfeeds.FeedResult, error) {
			return nil, errors.New("network down")
		})

		_, err := p.Run(context.Background(), Request{Date: "2026-02-01", Fetch: true})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "network down")
		assert.NoDirExists(t, f.cfg.Paths.ProcessedDir)
	})
}

func TestRunDefaultsToToday(t *testing.T) {
	f := newFixture(t, rawSignals)
	p := f.pipeline(nil)
	p.now = func() time.Time { return time.Date(2026, 3, 4, 6, 0, 0, 0, time.UTC) }

	res, err := p.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04", res.Date)
}

func TestDedupConfig(t *testing.T) {
	cfg := *config.Default()
	cfg.Dedup.TitleThreshold = 0.9
	cfg.Dedup.BodyJaccardThreshold = 0

	dc := DedupConfig(cfg)
	assert.InDelta(t, 0.9, dc.TitleThreshold, 1e-9)
	assert.InDelta(t, 0.60, dc.BodyJaccardThreshold, 1e-9)
}
