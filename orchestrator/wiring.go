package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"compass/archive"
	"compass/classify"
	"compass/common"
	"compass/config"
	"compass/deduplication"
	"compass/entities"
	"compass/logging"
	"compass/normalize"
	"compass/rssfeeds"
	"compass/situations"
	"compass/store"

	"github.com/redis/go-redis/v9"
)

const (
	fetchTimeout      = 30 * time.Second
	extractsPerSecond = 2
)

// Resources are the external connections a configured pipeline uses. Each
// is nil when its section is disabled.
type Resources struct {
	Redis *redis.Client
	Cache *archive.Cache
	Bloom *deduplication.RedisBloom
	S3    *common.S3
	Store *store.RunStore
}

// Connect opens the connections enabled in cfg. Optional backends that fail
// to connect are logged and left nil; the run store is required.
func Connect(ctx context.Context, cfg config.Config) (*Resources, error) {
	res := &Resources{}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logging.Warn("redis unavailable, cache disabled", "addr", cfg.Redis.Addr, "err", err)
			client.Close()
		} else {
			res.Redis = client
			res.Cache = archive.NewCache(client, cfg.Redis.TTL)
			if cfg.Dedup.BloomEnabled {
				bloom, err := deduplication.NewRedisBloomWithClient(ctx, client, deduplication.BloomConfig{Addr: cfg.Redis.Addr})
				if err != nil {
					logging.Warn("seen-set disabled", "err", err)
				} else {
					res.Bloom = bloom
				}
			}
		}
	}

	if cfg.S3.Enabled && strings.TrimSpace(cfg.S3.Bucket) != "" {
		prefix := strings.TrimSpace(cfg.S3.Prefix)
		if prefix != "" {
			prefix = strings.Trim(prefix, "/") + "/"
		}
		client, err := common.NewS3(ctx, common.S3Config{
			Bucket:       cfg.S3.Bucket,
			Prefix:       prefix,
			Region:       cfg.S3.Region,
			Profile:      cfg.S3.Profile,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			logging.Warn("failed to init S3 client, mirror disabled", "err", err)
		} else {
			res.S3 = client
		}
	}

	runs, err := store.Open(cfg.Store.Path)
	if err != nil {
		res.Close()
		return nil, err
	}
	res.Store = runs
	return res, nil
}

// Archive returns the archive configuration backed by these resources.
func (r *Resources) Archive(cfg config.Config) archive.Config {
	ac := archive.Config{
		ProcessedDir: cfg.Paths.ProcessedDir,
		ArchiveDir:   cfg.Paths.ArchiveDir,
		Cache:        r.Cache,
	}
	if r.S3 != nil {
		ac.Remote = r.S3
	}
	return ac
}

// Close releases every open connection.
func (r *Resources) Close() error {
	var errs []error
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	return errors.Join(errs...)
}

// Build creates a pipeline from cfg over the given resources. Keyword and
// entity overrides are read from the configured files.
func Build(cfg config.Config, res *Resources, events Publisher) (*Pipeline, error) {
	classifier, err := classify.FromFile(cfg.Keywords.ClassifierFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier keywords: %w", err)
	}
	matcher, err := entities.FromFile(cfg.Keywords.EntitiesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}
	normalizer, err := Normalizer(cfg.Normalize)
	if err != nil {
		return nil, err
	}

	dedup := deduplication.NewDeduplicator(DedupConfig(cfg))
	deps := Deps{
		Classifier: classifier,
		Entities:   matcher,
		Situations: situations.NewTracker(nil),
		Normalizer: normalizer,
		Fetch:      FeedFetcher(cfg.Feeds),
		Events:     events,
	}
	if res != nil {
		if res.Bloom != nil {
			dedup = deduplication.NewDeduplicatorWithBloom(DedupConfig(cfg), res.Bloom)
		}
		deps.Archive = res.Archive(cfg)
		if res.Store != nil {
			deps.Runs = res.Store
		}
	}
	deps.Dedup = dedup
	return New(cfg, deps), nil
}

// Normalizer builds the bilingual normalizer from the normalize section,
// with the MyMemory translator when translation is enabled.
func Normalizer(nc config.NormalizeConfig) (*normalize.Normalizer, error) {
	templates, err := normalize.LoadTemplates(nc.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load normalize templates: %w", err)
	}
	var tr normalize.Translator
	if nc.Translate {
		tr = normalize.NewMyMemory(nil, nc.TranslateURL, nc.TranslateEmail, nc.TranslatePerSecond)
	}
	return normalize.New(normalize.Config{
		SummaryMaxChars: nc.SummaryMaxChars,
		MinBodyChars:    nc.MinBodyChars,
	}, templates, tr), nil
}

// FeedFetcher returns a FetchFunc that collects the configured presets.
func FeedFetcher(fc config.FeedsConfig) FetchFunc {
	client := &http.Client{Timeout: fetchTimeout}
	fetcher := rssfeeds.NewFetcher(client)
	extractor := rssfeeds.NewExtractor(client, fc.Workers, extractsPerSecond)
	return func(ctx context.Context) (*rssfeeds.FeedResult, error) {
		return rssfeeds.Collect(ctx, fetcher, extractor, rssfeeds.Options{
			Feeds:          fc.Presets,
			MaxPerFeed:     fc.MaxPerFeed,
			ExtractContent: fc.ExtractContent,
			Workers:        fc.Workers,
		})
	}
}
