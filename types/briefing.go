package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBriefing is returned by Validate when a briefing is structurally unsound.
var ErrInvalidBriefing = errors.New("invalid briefing")

// DateLayout is the calendar date format used for briefing dates and paths.
const DateLayout = "2006-01-02"

// Trend is a day-over-day direction tag.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Compare returns up when current exceeds previous, down when it is lower.
func Compare(current, previous int) Trend {
	switch {
	case current > previous:
		return TrendUp
	case current < previous:
		return TrendDown
	default:
		return TrendStable
	}
}

// ComponentScore is one of the six weighted tension components.
type ComponentScore struct {
	Name      Text    `json:"name"`
	Score     int     `json:"score"`
	Weight    float64 `json:"weight"`
	Trend     Trend   `json:"trend"`
	KeyDriver Text    `json:"key_driver"`
}

// TensionIndex is the composite bilateral tension score persisted in each
// briefing and read back as the previous day's baseline.
type TensionIndex struct {
	Composite        float64          `json:"composite"`
	Level            Text             `json:"level"`
	Delta            float64          `json:"delta"`
	DeltaDescription Text             `json:"delta_description"`
	Components       []ComponentScore `json:"components"`
}

// TrendData summarizes how today compares with the previous briefing.
type TrendData struct {
	HasPrevious         bool               `json:"has_previous"`
	PreviousComposite   *float64           `json:"previous_composite"`
	PreviousComponents  map[string]int     `json:"previous_components"`
	PreviousSignalCount int                `json:"previous_signal_count"`
	NewSignalsDelta     int                `json:"new_signals_delta"`
	CategoryShifts      map[Category]Trend `json:"category_shifts"`
}

// DedupStats counts what a deduplication run dropped and why.
type DedupStats struct {
	TotalBefore      int `json:"total_before"`
	TotalAfter       int `json:"total_after"`
	DroppedURL       int `json:"dropped_url"`
	DroppedTitle     int `json:"dropped_title"`
	DroppedTitleBody int `json:"dropped_title_body"`
}

// TotalDropped is the sum of the per-tier counters.
func (s DedupStats) TotalDropped() int {
	return s.DroppedURL + s.DroppedTitle + s.DroppedTitleBody
}

// MarshalJSON adds the derived total_dropped field.
func (s DedupStats) MarshalJSON() ([]byte, error) {
	type plain DedupStats
	return json.Marshal(struct {
		plain
		TotalDropped int `json:"total_dropped"`
	}{plain(s), s.TotalDropped()})
}

// Situation is an ongoing storyline that today's signals touched.
type Situation struct {
	ID        string   `json:"id"`
	Name      Text     `json:"name"`
	Detail    Text     `json:"detail,omitzero"`
	Severity  Severity `json:"severity"`
	StartDate string   `json:"start_date"`
	DayCount  int      `json:"day_count"`
	SignalIDs []string `json:"signal_ids"`
}

// EntityMention is one row of the briefing's entity directory.
type EntityMention struct {
	ID          string   `json:"id"`
	Name        Text     `json:"name"`
	Type        string   `json:"type"`
	Description Text     `json:"description,omitzero"`
	Mentions    int      `json:"mentions"`
	SignalIDs   []string `json:"signal_ids"`
}

// Briefing is the daily output document.
type Briefing struct {
	Date             string          `json:"date"`
	Volume           int             `json:"volume"`
	GeneratedAt      time.Time       `json:"generated_at"`
	Signals          []Signal        `json:"signals"`
	TensionIndex     *TensionIndex   `json:"tension_index,omitempty"`
	Trend            *TrendData      `json:"trend,omitempty"`
	Dedup            *DedupStats     `json:"dedup,omitempty"`
	ActiveSituations []Situation     `json:"active_situations"`
	Entities         []EntityMention `json:"entities"`
	TradeData        *TradeData      `json:"trade_data,omitempty"`
	MarketData       *MarketData     `json:"market_data,omitempty"`
	Parliament       *Parliament     `json:"parliament,omitempty"`
	TodaysNumber     *TodaysNumber   `json:"todays_number,omitempty"`
	QuoteOfTheDay    *Quote          `json:"quote_of_the_day,omitempty"`
	RunID            string          `json:"run_id,omitempty"`
}

// Validate checks the structural rules every persisted briefing must satisfy.
// All violations are reported together, wrapped in ErrInvalidBriefing.
func (b *Briefing) Validate() error {
	var errs []error
	if _, err := time.Parse(DateLayout, b.Date); err != nil {
		errs = append(errs, fmt.Errorf("date %q is not YYYY-MM-DD", b.Date))
	}
	if b.Volume < 1 {
		errs = append(errs, fmt.Errorf("volume must be >= 1, got %d", b.Volume))
	}
	for i, s := range b.Signals {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("signals[%d]: missing id", i))
		}
		if s.Title.IsZero() {
			errs = append(errs, fmt.Errorf("signals[%d]: missing title", i))
		}
		if !s.Category.Valid() {
			errs = append(errs, fmt.Errorf("signals[%d]: invalid category %q", i, s.Category))
		}
		if !s.Severity.Valid() {
			errs = append(errs, fmt.Errorf("signals[%d]: invalid severity %q", i, s.Severity))
		}
	}
	if ti := b.TensionIndex; ti == nil {
		errs = append(errs, errors.New("missing tension_index"))
	} else {
		if ti.Composite < 0 || ti.Composite > 10 {
			errs = append(errs, fmt.Errorf("tension composite %.1f out of range", ti.Composite))
		}
		if len(ti.Components) != 6 {
			errs = append(errs, fmt.Errorf("tension index has %d components, want 6", len(ti.Components)))
		}
		for _, c := range ti.Components {
			if c.Score < 0 || c.Score > 10 {
				errs = append(errs, fmt.Errorf("component %s score %d out of range", c.Name.English(), c.Score))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidBriefing, errors.Join(errs...))
}
