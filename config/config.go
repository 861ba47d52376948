// Package config provides Viper-based configuration management for compass
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete compass configuration
type Config struct {
	Paths      PathsConfig      `mapstructure:"paths"`
	Dedup      DedupConfig      `mapstructure:"dedup"`
	Tension    TensionConfig    `mapstructure:"tension"`
	Validation ValidationConfig `mapstructure:"validation"`
	Filtering  FilteringConfig  `mapstructure:"filtering"`
	Normalize  NormalizeConfig  `mapstructure:"normalize"`
	Feeds      FeedsConfig      `mapstructure:"feeds"`
	Keywords   KeywordsConfig   `mapstructure:"keywords"`
	Redis      RedisConfig      `mapstructure:"redis"`
	S3         S3Config         `mapstructure:"s3"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Store      StoreConfig      `mapstructure:"store"`
	Server     ServerConfig     `mapstructure:"server"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Log        LogConfig        `mapstructure:"log"`
}

// PathsConfig locates the on-disk data
type PathsConfig struct {
	RawDir       string `mapstructure:"raw_dir"`
	ProcessedDir string `mapstructure:"processed_dir"`
	ArchiveDir   string `mapstructure:"archive_dir"`
	TimelinesDir string `mapstructure:"timelines_dir"`
}

// DedupConfig tunes the three dedup tiers and the history window
type DedupConfig struct {
	TitleThreshold       float64 `mapstructure:"title_threshold"`
	TitleThresholdZH     float64 `mapstructure:"title_threshold_zh"`
	FuzzyTitleMin        float64 `mapstructure:"fuzzy_title_min"`
	BodyJaccardThreshold float64 `mapstructure:"body_jaccard_threshold"`
	LookbackDays         int     `mapstructure:"lookback_days"`
	BloomEnabled         bool    `mapstructure:"bloom_enabled"`
}

// TensionConfig tunes the tension index
type TensionConfig struct {
	CapDenominator float64 `mapstructure:"cap_denominator"`
}

// ValidationConfig controls what happens when a briefing fails validation
type ValidationConfig struct {
	Strict bool `mapstructure:"strict"`
}

// FilteringConfig bounds the recency, relevance and value filter
type FilteringConfig struct {
	MinSignals          int   `mapstructure:"min_signals"`
	MaxSignals          int   `mapstructure:"max_signals"`
	RecencyWindowsHours []int `mapstructure:"recency_windows_hours"`
	MaxPerSource        int   `mapstructure:"max_per_source"`
	MinValue            int   `mapstructure:"min_value"`
}

// NormalizeConfig controls bilingual normalization and the quality gate
type NormalizeConfig struct {
	TemplatesFile   string `mapstructure:"templates_file"`
	SummaryMaxChars int    `mapstructure:"summary_max_chars"`
	MinBodyChars    int    `mapstructure:"min_body_chars"`
	// Translate enables the MyMemory translator. Without it the Chinese
	// side mirrors the English text and the title gate is off.
	Translate          bool    `mapstructure:"translate"`
	TranslateURL       string  `mapstructure:"translate_url"`
	TranslateEmail     string  `mapstructure:"translate_email"`
	TranslatePerSecond float64 `mapstructure:"translate_per_second"`
}

// FeedsConfig contains RSS fetch settings
type FeedsConfig struct {
	Presets        []string `mapstructure:"presets"`
	MaxPerFeed     int      `mapstructure:"max_per_feed"`
	ExtractContent bool     `mapstructure:"extract_content"`
	Workers        int      `mapstructure:"workers"`
}

// KeywordsConfig points at optional YAML overrides for the classifier and
// entity dictionaries
type KeywordsConfig struct {
	ClassifierFile string `mapstructure:"classifier_file"`
	EntitiesFile   string `mapstructure:"entities_file"`
}

// RedisConfig contains the briefing cache and seen-set connection
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// S3Config contains the briefing mirror settings
type S3Config struct {
	Enabled      bool   `mapstructure:"enabled"`
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Profile      string `mapstructure:"profile"`
	Prefix       string `mapstructure:"prefix"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// KafkaConfig contains the run request and event topics
type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	RequestTopic string   `mapstructure:"request_topic"`
	EventsTopic  string   `mapstructure:"events_topic"`
	GroupID      string   `mapstructure:"group_id"`
}

// StoreConfig locates the run history database
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScheduleConfig contains the daily run schedule
type ScheduleConfig struct {
	Cron    string `mapstructure:"cron"`
	Enabled bool   `mapstructure:"enabled"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a .env file, an optional YAML file and
// COMPASS_ environment variables, in increasing priority.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set config file if specified
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("compass")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.compass")
	}

	// Environment variables
	v.SetEnvPrefix("COMPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.raw_dir", RawDir)
	v.SetDefault("paths.processed_dir", ProcessedDir)
	v.SetDefault("paths.archive_dir", ArchiveDir)
	v.SetDefault("paths.timelines_dir", TimelinesDir)

	v.SetDefault("dedup.title_threshold", DefaultTitleThreshold)
	v.SetDefault("dedup.title_threshold_zh", DefaultTitleThresholdZH)
	v.SetDefault("dedup.fuzzy_title_min", DefaultFuzzyTitleMin)
	v.SetDefault("dedup.body_jaccard_threshold", DefaultBodyJaccardThreshold)
	v.SetDefault("dedup.lookback_days", DefaultLookbackDays)
	v.SetDefault("dedup.bloom_enabled", false)

	v.SetDefault("tension.cap_denominator", DefaultCapDenominator)
	v.SetDefault("validation.strict", true)

	v.SetDefault("filtering.min_signals", DefaultMinSignals)
	v.SetDefault("filtering.max_signals", DefaultMaxSignals)
	v.SetDefault("filtering.recency_windows_hours", []int{72, 168})
	v.SetDefault("filtering.max_per_source", DefaultMaxPerSource)
	v.SetDefault("filtering.min_value", 0)

	v.SetDefault("normalize.templates_file", "")
	v.SetDefault("normalize.summary_max_chars", DefaultSummaryMaxChars)
	v.SetDefault("normalize.min_body_chars", 0)
	v.SetDefault("normalize.translate", false)
	v.SetDefault("normalize.translate_url", "")
	v.SetDefault("normalize.translate_email", "")
	v.SetDefault("normalize.translate_per_second", DefaultTranslatePerSecond)

	v.SetDefault("feeds.presets", []string{})
	v.SetDefault("feeds.max_per_feed", DefaultMaxPerFeed)
	v.SetDefault("feeds.extract_content", true)
	v.SetDefault("feeds.workers", DefaultFeedWorkers)

	v.SetDefault("keywords.classifier_file", "")
	v.SetDefault("keywords.entities_file", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", DefaultCacheTTL)

	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.profile", "")
	v.SetDefault("s3.prefix", "briefings/")
	v.SetDefault("s3.use_path_style", false)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.request_topic", DefaultRequestTopic)
	v.SetDefault("kafka.events_topic", DefaultEventsTopic)
	v.SetDefault("kafka.group_id", DefaultGroupID)

	v.SetDefault("store.path", DefaultStorePath)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("schedule.cron", DefaultCronSchedule)
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("log.level", "info")
}

// Validate checks the configuration for errors. Every problem is reported,
// wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	unit := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, v))
		}
	}
	unit("dedup.title_threshold", c.Dedup.TitleThreshold)
	unit("dedup.title_threshold_zh", c.Dedup.TitleThresholdZH)
	unit("dedup.fuzzy_title_min", c.Dedup.FuzzyTitleMin)
	unit("dedup.body_jaccard_threshold", c.Dedup.BodyJaccardThreshold)

	if c.Dedup.FuzzyTitleMin > c.Dedup.TitleThreshold || c.Dedup.FuzzyTitleMin > c.Dedup.TitleThresholdZH {
		errs = append(errs, fmt.Errorf("dedup.fuzzy_title_min %v exceeds a title threshold", c.Dedup.FuzzyTitleMin))
	}
	if c.Dedup.LookbackDays < 0 {
		errs = append(errs, fmt.Errorf("dedup.lookback_days must be >= 0, got %d", c.Dedup.LookbackDays))
	}
	if c.Tension.CapDenominator <= 0 {
		errs = append(errs, fmt.Errorf("tension.cap_denominator must be positive, got %v", c.Tension.CapDenominator))
	}
	if c.Filtering.MinSignals < 0 || c.Filtering.MaxSignals <= 0 || c.Filtering.MaxPerSource <= 0 {
		errs = append(errs, errors.New("filtering.min_signals must be >= 0, max_signals and max_per_source positive"))
	}
	for _, h := range c.Filtering.RecencyWindowsHours {
		if h <= 0 {
			errs = append(errs, fmt.Errorf("filtering.recency_windows_hours must be positive, got %d", h))
		}
	}
	if c.Normalize.TranslatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("normalize.translate_per_second must be >= 0, got %v", c.Normalize.TranslatePerSecond))
	}
	if c.Normalize.SummaryMaxChars <= 0 || c.Normalize.MinBodyChars < 0 {
		errs = append(errs, errors.New("normalize.summary_max_chars must be positive and min_body_chars >= 0"))
	}
	if c.Feeds.MaxPerFeed < 0 || c.Feeds.Workers < 0 {
		errs = append(errs, errors.New("feeds.max_per_feed and feeds.workers must be >= 0"))
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, errors.New("s3.bucket is required when s3 is enabled"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
