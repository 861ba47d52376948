// Package situations tracks the long-running storylines that today's signals
// touch.
package situations

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"compass/logging"
	"compass/types"
)

// Definition is one known situation and the keywords that activate it.
type Definition struct {
	ID              string
	Name            types.Text
	Triggers        []string
	DefaultSeverity types.Severity
	StartDate       string
}

// Known is the fixed table of tracked situations.
var Known = []Definition{
	{
		ID:              "canola_trade_dispute",
		Name:            types.Bilingual("Canola Trade Dispute", "油菜籽贸易争端"),
		Triggers:        []string{"canola", "oilseed", "油菜籽", "菜籽"},
		DefaultSeverity: types.SeverityElevated,
		StartDate:       "2019-03-01",
	},
	{
		ID:              "tech_decoupling",
		Name:            types.Bilingual("Tech Decoupling", "科技脱钩"),
		Triggers:        []string{"Huawei", "5G ban", "semiconductor", "tech ban", "华为", "5G禁令", "半导体"},
		DefaultSeverity: types.SeverityHigh,
		StartDate:       "2018-12-01",
	},
	{
		ID:              "foreign_interference",
		Name:            types.Bilingual("Foreign Interference Investigation", "外国干预调查"),
		Triggers:        []string{"foreign interference", "CSIS", "interference inquiry", "外国干预", "干预调查"},
		DefaultSeverity: types.SeverityHigh,
		StartDate:       "2023-02-01",
	},
	{
		ID:              "taiwan_strait_tensions",
		Name:            types.Bilingual("Taiwan Strait Tensions", "台海紧张局势"),
		Triggers:        []string{"Taiwan Strait", "Taiwan", "cross-strait", "PLA", "台湾海峡", "台湾", "两岸"},
		DefaultSeverity: types.SeverityElevated,
		StartDate:       "2022-08-01",
	},
	{
		ID:              "rare_earth_controls",
		Name:            types.Bilingual("Rare Earth Export Controls", "稀土出口管制"),
		Triggers:        []string{"rare earth", "gallium", "germanium", "critical minerals", "稀土", "镓", "锗", "关键矿产"},
		DefaultSeverity: types.SeverityElevated,
		StartDate:       "2023-07-01",
	},
	{
		ID:              "diplomatic_tensions",
		Name:            types.Bilingual("Diplomatic Tensions", "外交紧张"),
		Triggers:        []string{"ambassador", "expelled", "diplomatic", "persona non grata", "大使", "驱逐", "外交"},
		DefaultSeverity: types.SeverityModerate,
		StartDate:       "2018-12-01",
	},
}

// Tracker matches signals against a situation table.
type Tracker struct {
	defs []Definition
	now  func() time.Time
}

// NewTracker builds a tracker over defs, or over Known when defs is nil.
func NewTracker(defs []Definition) *Tracker {
	if defs == nil {
		defs = Known
	}
	return &Tracker{defs: defs, now: time.Now}
}

// Track returns the situations at least one signal matched, most severe
// first and then longest running. date is the briefing date; when it cannot
// be parsed today's date is used.
func (t *Tracker) Track(signals []types.Signal, date string) []types.Situation {
	current, err := time.Parse(types.DateLayout, date)
	if err != nil {
		logging.Warn("invalid situation date, using today", "date", date, "err", err)
		current = t.now().UTC()
	}

	active := make([]types.Situation, 0)
	for _, def := range t.defs {
		var ids []string
		matched := 0
		severity := def.DefaultSeverity
		for _, sig := range signals {
			if !matchesAny(sig, def.Triggers) {
				continue
			}
			matched++
			if sig.ID != "" {
				ids = append(ids, sig.ID)
			}
			if sig.Severity.Rank() > severity.Rank() {
				severity = sig.Severity
			}
		}
		if matched == 0 {
			continue
		}
		if ids == nil {
			ids = []string{}
		}
		active = append(active, types.Situation{
			ID:   def.ID,
			Name: def.Name,
			Detail: types.Bilingual(
				fmt.Sprintf("%d related signal(s) detected today.", matched),
				fmt.Sprintf("今日检测到%d条相关信号。", matched),
			),
			Severity:  severity,
			StartDate: def.StartDate,
			DayCount:  dayCount(def.StartDate, current),
			SignalIDs: ids,
		})
	}

	slices.SortStableFunc(active, func(a, b types.Situation) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.DayCount, a.DayCount)
	})

	logging.Info("tracked situations", "active", len(active))
	return active
}

// dayCount is the number of whole days from start to current, never negative.
func dayCount(start string, current time.Time) int {
	s, err := time.Parse(types.DateLayout, start)
	if err != nil {
		return 0
	}
	c := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)
	return max(int(c.Sub(s).Hours()/24), 0)
}

func matchesAny(sig types.Signal, triggers []string) bool {
	var parts []string
	for _, t := range []types.Text{sig.Title, sig.Body, sig.BodyText, sig.BodySnippet} {
		parts = append(parts, t.EN, t.ZH)
	}
	text := strings.Join(parts, " ")
	lower := strings.ToLower(text)
	for _, kw := range triggers {
		if strings.Contains(lower, strings.ToLower(kw)) || strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
