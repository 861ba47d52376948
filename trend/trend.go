// Package trend compares today's signal set with the previous day's briefing.
package trend

import (
	"context"
	"errors"
	"strings"

	"compass/archive"
	"compass/logging"
	"compass/tension"
	"compass/types"
)

// Loader finds the briefing persisted for the day before date, passing each
// stored copy to accept until one is taken.
type Loader interface {
	FindPreviousBriefing(ctx context.Context, date string, accept archive.Accept) (*archive.Document, error)
}

// previousBriefing is the part of a persisted briefing the comparison reads.
type previousBriefing struct {
	TensionIndex *struct {
		Composite  *float64 `json:"composite"`
		Components []struct {
			Name  types.Text `json:"name"`
			Score int        `json:"score"`
		} `json:"components"`
	} `json:"tension_index"`
	Signals []struct {
		Category types.Category `json:"category"`
	} `json:"signals"`
}

// Compute loads yesterday's briefing and compares it with today's signals.
//
// A copy that does not decode is skipped in favour of the next stored copy.
// When none is usable the result has HasPrevious false and empty fields; an
// unparseable date is treated the same way and logged.
func Compute(ctx context.Context, date string, signals []types.Signal, loader Loader) types.TrendData {
	var td types.TrendData
	_, err := loader.FindPreviousBriefing(ctx, date, func(doc *archive.Document) error {
		var err error
		td, err = FromDocument(doc, signals)
		return err
	})
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			logging.Info("no usable previous briefing", "date", date)
		} else {
			logging.Warn("cannot load previous briefing", "date", date, "err", err)
		}
		return empty()
	}
	return td
}

// FromDocument compares signals against an already loaded previous briefing.
func FromDocument(doc *archive.Document, signals []types.Signal) (types.TrendData, error) {
	var prev previousBriefing
	if err := doc.Decode(&prev); err != nil {
		return empty(), err
	}

	td := empty()
	td.HasPrevious = true

	if ti := prev.TensionIndex; ti != nil {
		td.PreviousComposite = ti.Composite
		for _, c := range ti.Components {
			if name := strings.ToLower(c.Name.English()); name != "" {
				td.PreviousComponents[name] = c.Score
			}
		}
	}

	td.PreviousSignalCount = len(prev.Signals)
	td.NewSignalsDelta = len(signals) - len(prev.Signals)

	previousCounts := map[types.Category]int{}
	for _, s := range prev.Signals {
		if s.Category != "" {
			previousCounts[s.Category]++
		}
	}
	currentCounts := map[types.Category]int{}
	for _, s := range signals {
		if s.Category != "" {
			currentCounts[s.Category]++
		}
	}
	for cat, n := range previousCounts {
		td.CategoryShifts[cat] = types.Compare(currentCounts[cat], n)
	}
	for cat, n := range currentCounts {
		td.CategoryShifts[cat] = types.Compare(n, previousCounts[cat])
	}
	return td, nil
}

// Previous extracts the tension baseline carried by the trend data.
func Previous(td types.TrendData) tension.Previous {
	if !td.HasPrevious {
		return tension.Previous{}
	}
	return tension.Previous{Composite: td.PreviousComposite, Components: td.PreviousComponents}
}

func empty() types.TrendData {
	return types.TrendData{
		PreviousComponents: map[string]int{},
		CategoryShifts:     map[types.Category]types.Trend{},
	}
}
