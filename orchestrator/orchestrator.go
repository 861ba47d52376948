// Package orchestrator runs the daily briefing pipeline end to end.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"compass/archive"
	"compass/classify"
	"compass/config"
	"compass/deduplication"
	"compass/entities"
	"compass/filtering"
	"compass/logging"
	"compass/normalize"
	"compass/rssfeeds"
	"compass/situations"
	"compass/store"
	"compass/supplementary"
	"compass/tension"
	"compass/trend"
	"compass/types"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// FetchFunc collects fresh raw signals from the configured feeds.
type FetchFunc func(ctx context.Context) (*rssfeeds.FeedResult, error)

// RunRecorder persists run history.
type RunRecorder interface {
	Record(ctx context.Context, run store.Run) error
}

// Publisher announces finished runs.
type Publisher interface {
	PublishRunComplete(ctx context.Context, result *RunResult) error
}

// Request selects what one run does. An empty Date means today.
type Request struct {
	Date  string `json:"date"`
	Fetch bool   `json:"fetch"`
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID      string           `json:"run_id"`
	Date       string           `json:"date"`
	Volume     int              `json:"volume"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	RawSignals int              `json:"raw_signals"`
	Filtered   int              `json:"filtered"`
	Normalized int              `json:"normalized"`
	SeenBefore int              `json:"seen_before"`
	Signals    int              `json:"signals"`
	Dedup      types.DedupStats `json:"dedup"`
	Composite  float64          `json:"composite"`
	Level      string           `json:"level"`
	Situations int              `json:"situations"`
	Entities   int              `json:"entities"`
	Paths      []string         `json:"paths"`
	Status     string           `json:"status"`
	Error      string           `json:"error,omitempty"`
}

// Run converts the result into a run history row.
func (r *RunResult) Run() store.Run {
	return store.Run{
		RunID:            r.RunID,
		Date:             r.Date,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		SignalsIn:        r.Dedup.TotalBefore,
		SignalsOut:       r.Dedup.TotalAfter,
		DroppedURL:       r.Dedup.DroppedURL,
		DroppedTitle:     r.Dedup.DroppedTitle,
		DroppedTitleBody: r.Dedup.DroppedTitleBody,
		Composite:        r.Composite,
		Level:            r.Level,
		Status:           r.Status,
		Error:            r.Error,
	}
}

// Deps are the collaborators of a pipeline. Nil fields get defaults; Fetch,
// Runs and Events are optional.
type Deps struct {
	Classifier *classify.Classifier
	Entities   *entities.Matcher
	Situations *situations.Tracker
	Dedup      *deduplication.Deduplicator
	Filter     *filtering.Filter
	Normalizer *normalize.Normalizer
	Archive    archive.Config
	Fetch      FetchFunc
	Runs       RunRecorder
	Events     Publisher
}

// Pipeline turns a directory of raw signals into a validated briefing.
type Pipeline struct {
	cfg        config.Config
	classifier *classify.Classifier
	entities   *entities.Matcher
	situations *situations.Tracker
	dedup      *deduplication.Deduplicator
	filter     *filtering.Filter
	normalizer *normalize.Normalizer
	reader     *archive.Reader
	writer     *archive.Writer
	fetch      FetchFunc
	runs       RunRecorder
	events     Publisher
	now        func() time.Time
	logger     *log.Logger
}

// New assembles a pipeline. The archive directories default to the
// configured paths.
func New(cfg config.Config, deps Deps) *Pipeline {
	if deps.Classifier == nil {
		deps.Classifier = classify.Default()
	}
	if deps.Entities == nil {
		deps.Entities = entities.Default()
	}
	if deps.Situations == nil {
		deps.Situations = situations.NewTracker(nil)
	}
	if deps.Dedup == nil {
		deps.Dedup = deduplication.NewDeduplicator(DedupConfig(cfg))
	}
	if deps.Filter == nil {
		deps.Filter = filtering.New(FilterConfig(cfg))
	}
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.New(normalize.Config{
			SummaryMaxChars: cfg.Normalize.SummaryMaxChars,
			MinBodyChars:    cfg.Normalize.MinBodyChars,
		}, normalize.DefaultTemplates(), nil)
	}
	if deps.Archive.ProcessedDir == "" {
		deps.Archive.ProcessedDir = cfg.Paths.ProcessedDir
	}
	if deps.Archive.ArchiveDir == "" {
		deps.Archive.ArchiveDir = cfg.Paths.ArchiveDir
	}

	return &Pipeline{
		cfg:        cfg,
		classifier: deps.Classifier,
		entities:   deps.Entities,
		situations: deps.Situations,
		dedup:      deps.Dedup,
		filter:     deps.Filter,
		normalizer: deps.Normalizer,
		reader:     archive.NewReader(deps.Archive),
		writer:     archive.NewWriter(deps.Archive),
		fetch:      deps.Fetch,
		runs:       deps.Runs,
		events:     deps.Events,
		now:        time.Now,
		logger:     logging.WithPrefix("pipeline"),
	}
}

// DedupConfig maps the dedup section of cfg onto deduplicator thresholds.
func DedupConfig(cfg config.Config) deduplication.Config {
	dc := deduplication.DefaultConfig()
	if cfg.Dedup.TitleThreshold > 0 {
		dc.TitleThreshold = cfg.Dedup.TitleThreshold
	}
	if cfg.Dedup.TitleThresholdZH > 0 {
		dc.TitleThresholdZH = cfg.Dedup.TitleThresholdZH
	}
	if cfg.Dedup.FuzzyTitleMin > 0 {
		dc.FuzzyTitleMin = cfg.Dedup.FuzzyTitleMin
	}
	if cfg.Dedup.BodyJaccardThreshold > 0 {
		dc.BodyJaccardThreshold = cfg.Dedup.BodyJaccardThreshold
	}
	return dc
}

// FilterConfig maps the filtering section of cfg onto filter limits.
func FilterConfig(cfg config.Config) filtering.Config {
	return filtering.Config{
		MinSignals:   cfg.Filtering.MinSignals,
		MaxSignals:   cfg.Filtering.MaxSignals,
		WindowsHours: cfg.Filtering.RecencyWindowsHours,
		MaxPerSource: cfg.Filtering.MaxPerSource,
		MinValue:     cfg.Filtering.MinValue,
	}
}

// Reader exposes the archive reader the pipeline loads history through.
func (p *Pipeline) Reader() *archive.Reader { return p.reader }

// Deduplicator exposes the configured deduplicator.
func (p *Pipeline) Deduplicator() *deduplication.Deduplicator { return p.dedup }

// Classifier exposes the keyword classifier.
func (p *Pipeline) Classifier() *classify.Classifier { return p.classifier }

// Entities exposes the entity matcher.
func (p *Pipeline) Entities() *entities.Matcher { return p.entities }

// RunOnce builds the briefing for date from the raw directory without
// fetching.
func (p *Pipeline) RunOnce(ctx context.Context, date string) (*RunResult, error) {
	return p.Run(ctx, Request{Date: date})
}

// Run executes one pipeline cycle. Every attempt, failed or not, is recorded
// and published when a recorder and publisher are configured.
func (p *Pipeline) Run(ctx context.Context, req Request) (*RunResult, error) {
	started := p.now()
	if req.Date == "" {
		req.Date = started.Format(types.DateLayout)
	}
	res := &RunResult{
		RunID:     uuid.NewString(),
		Date:      req.Date,
		StartedAt: started.UTC(),
	}
	p.logger.Info("run started", "run_id", res.RunID, "date", req.Date, "fetch", req.Fetch)

	err := p.build(ctx, req, res)

	res.FinishedAt = p.now().UTC()
	if err != nil {
		res.Status = store.StatusFailed
		res.Error = err.Error()
		p.logger.Error("run failed", "run_id", res.RunID, "date", req.Date, "err", err)
	} else {
		res.Status = store.StatusSuccess
		p.logger.Info("run complete", "run_id", res.RunID, "date", req.Date,
			"signals", res.Signals, "composite", res.Composite, "level", res.Level,
			"elapsed", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	}
	p.finish(ctx, res)

	if err != nil {
		return res, err
	}
	return res, nil
}

func (p *Pipeline) build(ctx context.Context, req Request, res *RunResult) error {
	ref, err := time.Parse(types.DateLayout, req.Date)
	if err != nil {
		return fmt.Errorf("failed to parse run date %q: %w", req.Date, err)
	}

	if req.Fetch {
		if err := p.fetchRaw(ctx, req.Date); err != nil {
			return err
		}
	}

	raw, err := rssfeeds.LoadRawSignalsForDate(p.cfg.Paths.RawDir, req.Date, supplementary.FileNames()...)
	if err != nil {
		return fmt.Errorf("failed to load raw signals: %w", err)
	}
	res.RawSignals = len(raw)
	p.logger.Info("loaded raw signals", "count", len(raw), "dir", p.cfg.Paths.RawDir, "date", req.Date)

	raw, fstats := p.filter.Apply(raw, req.Date)
	res.Filtered = len(raw)
	p.logger.Info("filtered raw signals", "kept", fstats.Kept, "recent", fstats.Recent,
		"relevant", fstats.Relevant, "window_hours", fstats.WindowHours)

	for i := range raw {
		raw[i].EnsureID()
	}
	classified := p.classifier.ClassifyAll(raw, ref)

	res.SeenBefore = p.dedup.SeenBefore(ctx, classified)
	if res.SeenBefore > 0 {
		p.logger.Info("signals already in seen-set", "count", res.SeenBefore)
	}

	previous := p.reader.LoadRecentSignals(ctx, req.Date, p.cfg.Dedup.LookbackDays)
	signals, stats := p.dedup.Deduplicate(classified, previous)
	res.Dedup = stats

	signals, nstats := p.normalizer.NormalizeAll(ctx, signals)
	res.Normalized = nstats.Normalized

	td := trend.Compute(ctx, req.Date, signals, p.reader)
	ti := tension.Compute(signals, trend.Previous(td), tension.Config{CapDenominator: p.cfg.Tension.CapDenominator})

	signals, directory := p.entities.Annotate(signals)
	active := p.situations.Track(signals, req.Date)
	volume := archive.VolumeNumber(p.cfg.Paths.ArchiveDir, req.Date)
	supp := supplementary.Load(filepath.Join(p.cfg.Paths.RawDir, req.Date))

	briefing := &types.Briefing{
		Date:             req.Date,
		Volume:           volume,
		GeneratedAt:      p.now().UTC(),
		Signals:          signals,
		TensionIndex:     &ti,
		Trend:            &td,
		Dedup:            &stats,
		ActiveSituations: active,
		Entities:         directory,
		TradeData:        supp.Trade,
		MarketData:       supplementary.Market(supp, signals),
		Parliament:       supp.Parliament,
		TodaysNumber:     supplementary.TodaysNumber(supp, signals),
		QuoteOfTheDay:    supplementary.Quote(signals),
		RunID:            res.RunID,
	}
	if briefing.Signals == nil {
		briefing.Signals = []types.Signal{}
	}
	if briefing.ActiveSituations == nil {
		briefing.ActiveSituations = []types.Situation{}
	}

	res.Volume = volume
	res.Signals = len(signals)
	res.Composite = ti.Composite
	res.Level = ti.Level.English()
	res.Situations = len(active)
	res.Entities = len(directory)

	if err := briefing.Validate(); err != nil {
		if p.cfg.Validation.Strict {
			return err
		}
		p.logger.Warn("briefing failed validation, writing anyway", "date", req.Date, "err", err)
	}

	paths, err := p.writer.Write(ctx, briefing)
	if err != nil {
		return fmt.Errorf("failed to write briefing: %w", err)
	}
	res.Paths = paths

	p.dedup.Remember(ctx, signals)
	return nil
}

func (p *Pipeline) fetchRaw(ctx context.Context, date string) error {
	if p.fetch == nil {
		return errors.New("feed fetching is not configured")
	}
	result, err := p.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch feeds: %w", err)
	}
	path, err := rssfeeds.WriteRawSignals(p.cfg.Paths.RawDir, date, result)
	if err != nil {
		return err
	}
	p.logger.Info("fetched raw signals", "count", result.SignalCount, "feeds", len(result.Feeds), "path", path)
	return nil
}

func (p *Pipeline) finish(ctx context.Context, res *RunResult) {
	if p.runs != nil {
		if err := p.runs.Record(ctx, res.Run()); err != nil {
			p.logger.Warn("failed to record run", "run_id", res.RunID, "err", err)
		}
	}
	if p.events != nil {
		if err := p.events.PublishRunComplete(ctx, res); err != nil {
			p.logger.Warn("failed to publish run event", "run_id", res.RunID, "err", err)
		}
	}
}
