package config

import "time"

// Directory Constants
const (
	// RawDir holds fetched and hand-collected raw signal files
	RawDir = "data/raw"

	// ProcessedDir holds the latest briefing and one directory per date
	ProcessedDir = "data/processed"

	// ArchiveDir holds the long-term daily archive
	ArchiveDir = "data/archive"

	// TimelinesDir holds the compiled long-running timelines
	TimelinesDir = "data/timelines"
)

// Deduplication Constants
const (
	DefaultTitleThreshold       = 0.80
	DefaultTitleThresholdZH     = 0.70
	DefaultFuzzyTitleMin        = 0.50
	DefaultBodyJaccardThreshold = 0.60

	// DefaultLookbackDays is how many earlier days feed the cross-day pass
	DefaultLookbackDays = 3
)

// Tension Constants
const (
	// DefaultCapDenominator is the raw point total that maps to a score of 10
	DefaultCapDenominator = 20.0
)

// Filtering Constants
const (
	DefaultMinSignals   = 10
	DefaultMaxSignals   = 75
	DefaultMaxPerSource = 3
)

// Normalization Constants
const (
	// DefaultSummaryMaxChars caps the English summary kept in body
	DefaultSummaryMaxChars = 500

	// DefaultTranslatePerSecond paces requests to the translation API
	DefaultTranslatePerSecond = 2.0
)

// Feed Constants
const (
	DefaultMaxPerFeed  = 20
	DefaultFeedWorkers = 5
)

// Service Constants
const (
	DefaultPort         = 8080
	DefaultCronSchedule = "0 6 * * *"
	DefaultCacheTTL     = 48 * time.Hour
	DefaultStorePath    = "compass.db"

	DefaultRequestTopic = "compass-run-requests"
	DefaultEventsTopic  = "compass-run-events"
	DefaultGroupID      = "compass-consumer-group"
)
