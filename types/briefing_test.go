package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBriefing() *Briefing {
	components := make([]ComponentScore, 6)
	for i := range components {
		components[i] = ComponentScore{Name: Bilingual("Trade", "贸易"), Score: 3, Weight: 0.1, Trend: TrendStable}
	}
	return &Briefing{
		Date:   "2026-02-01",
		Volume: 1,
		Signals: []Signal{
			{ID: "a", Title: Plain("t"), Category: CategoryTrade, Severity: SeverityLow},
		},
		TensionIndex: &TensionIndex{Composite: 3.2, Components: components},
	}
}

func TestValidateAcceptsWellFormedBriefing(t *testing.T) {
	require.NoError(t, validBriefing().Validate())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	b := validBriefing()
	b.Date = "Feb 1"
	b.Volume = 0
	b.Signals[0].Category = "sports"
	b.TensionIndex.Components = b.TensionIndex.Components[:5]

	err := b.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidBriefing))
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
	assert.Contains(t, err.Error(), "volume")
	assert.Contains(t, err.Error(), "sports")
	assert.Contains(t, err.Error(), "5 components")
}

func TestValidateRequiresTensionIndex(t *testing.T) {
	b := validBriefing()
	b.TensionIndex = nil
	assert.ErrorIs(t, b.Validate(), ErrInvalidBriefing)
}

func TestDedupStatsIncludesTotalDropped(t *testing.T) {
	data, err := json.Marshal(DedupStats{TotalBefore: 5, TotalAfter: 2, DroppedURL: 1, DroppedTitle: 1, DroppedTitleBody: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_before":5,"total_after":2,"dropped_url":1,"dropped_title":1,"dropped_title_body":1,"total_dropped":3}`, string(data))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, TrendUp, Compare(3, 1))
	assert.Equal(t, TrendDown, Compare(0, 5))
	assert.Equal(t, TrendStable, Compare(0, 0))
}
