package tension

import (
	"testing"

	"compass/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(category types.Category, severity types.Severity, n int) []types.Signal {
	out := make([]types.Signal, n)
	for i := range out {
		out[i] = types.Signal{Title: types.Plain(string(category)), Category: category, Severity: severity}
	}
	return out
}

// seedSignals yields raw sums diplomatic 14, trade 16, military 12,
// political 10, technology 14, social 6.
func seedSignals() []types.Signal {
	var s []types.Signal
	s = append(s, repeat(types.CategoryDiplomatic, types.SeverityHigh, 3)...)
	s = append(s, repeat(types.CategoryDiplomatic, types.SeverityModerate, 1)...)
	s = append(s, repeat(types.CategoryTrade, types.SeverityHigh, 4)...)
	s = append(s, repeat(types.CategoryMilitary, types.SeverityHigh, 3)...)
	s = append(s, repeat(types.CategoryPolitical, types.SeverityCritical, 2)...)
	s = append(s, repeat(types.CategoryTechnology, types.SeverityCritical, 2)...)
	s = append(s, repeat(types.CategoryTechnology, types.SeverityHigh, 1)...)
	s = append(s, repeat(types.CategorySocial, types.SeverityElevated, 2)...)
	return s
}

func scores(ti types.TensionIndex) []int {
	out := make([]int, len(ti.Components))
	for i, c := range ti.Components {
		out[i] = c.Score
	}
	return out
}

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, c := range Components {
		sum += c.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
	assert.Len(t, Components, 6)
}

func TestRawPoints(t *testing.T) {
	points := RawPoints(seedSignals())
	assert.Equal(t, map[types.Category]int{
		types.CategoryDiplomatic: 14,
		types.CategoryTrade:      16,
		types.CategoryMilitary:   12,
		types.CategoryPolitical:  10,
		types.CategoryTechnology: 14,
		types.CategorySocial:     6,
	}, points)
}

func TestComputeSeedScenario(t *testing.T) {
	ti := Compute(seedSignals(), Previous{}, Config{})

	assert.Equal(t, []int{7, 8, 6, 5, 7, 3}, scores(ti))
	assert.Equal(t, 6.4, ti.Composite)
	assert.Equal(t, "Elevated", ti.Level.English())
	assert.Equal(t, "升高", ti.Level.ZH)
	assert.Equal(t, 0.0, ti.Delta)
	assert.Equal(t, "No change from previous day", ti.DeltaDescription.English())
}

func TestComputeMaxOut(t *testing.T) {
	var signals []types.Signal
	for _, c := range Components {
		signals = append(signals, repeat(c.Category, types.SeverityCritical, 5)...)
	}
	ti := Compute(signals, Previous{}, Config{})

	assert.Equal(t, 10.0, ti.Composite)
	assert.Equal(t, "Critical", ti.Level.English())
	assert.Equal(t, []int{10, 10, 10, 10, 10, 10}, scores(ti))
}

func TestComputeCapsBeyondTen(t *testing.T) {
	ti := Compute(repeat(types.CategoryTrade, types.SeverityCritical, 20), Previous{}, Config{})
	assert.Equal(t, 10, ti.Components[1].Score)
	assert.Equal(t, 2.5, ti.Composite)
	assert.Equal(t, "Moderate", ti.Level.English())
}

func TestComputeEmpty(t *testing.T) {
	ti := Compute(nil, Previous{}, Config{})

	assert.Equal(t, 0.0, ti.Composite)
	assert.Equal(t, "Low", ti.Level.English())
	assert.Equal(t, 0.0, ti.Delta)
	require.Len(t, ti.Components, 6)
	for _, c := range ti.Components {
		assert.Equal(t, 0, c.Score)
		assert.Equal(t, types.TrendStable, c.Trend)
		assert.Equal(t, "No significant activity", c.KeyDriver.English())
		assert.Equal(t, "无重大活动", c.KeyDriver.ZH)
	}
}

func TestComputeIgnoresUnknownCategoryAndSeverity(t *testing.T) {
	signals := []types.Signal{
		{Title: types.Plain("a"), Category: types.CategoryEconomic, Severity: types.SeverityCritical},
		{Title: types.Plain("b"), Category: types.CategoryLegal, Severity: types.SeverityCritical},
		{Title: types.Plain("c"), Category: types.CategoryTrade, Severity: "catastrophic"},
	}
	ti := Compute(signals, Previous{}, Config{})
	assert.Equal(t, 0.0, ti.Composite)
}

func TestComputeRoundsHalfToEven(t *testing.T) {
	// 5 points / 20 * 10 = 2.5 rounds to 2; 7 points = 3.5 rounds to 4.
	signals := append(
		repeat(types.CategoryDiplomatic, types.SeverityCritical, 1),
		repeat(types.CategoryTrade, types.SeverityCritical, 1)...,
	)
	signals = append(signals, repeat(types.CategoryTrade, types.SeverityModerate, 1)...)
	ti := Compute(signals, Previous{}, Config{})
	assert.Equal(t, 2, ti.Components[0].Score)
	assert.Equal(t, 4, ti.Components[1].Score)
	// 0.25*2.5 + 0.25*3.5 = 1.5
	assert.Equal(t, 1.5, ti.Composite)
}

func TestComputeTrendsAgainstPrevious(t *testing.T) {
	prevComposite := 3.0
	signals := repeat(types.CategoryDiplomatic, types.SeverityHigh, 2)
	ti := Compute(signals, Previous{
		Composite:  &prevComposite,
		Components: map[string]int{"Diplomatic": 1, "trade": 5},
	}, Config{})

	assert.Equal(t, 4, ti.Components[0].Score)
	assert.Equal(t, types.TrendUp, ti.Components[0].Trend)
	assert.Equal(t, types.TrendDown, ti.Components[1].Trend)
	assert.Equal(t, types.TrendStable, ti.Components[2].Trend, "no previous score for military")

	// composite 0.25*4 = 1.0
	assert.Equal(t, 1.0, ti.Composite)
	assert.Equal(t, -2.0, ti.Delta)
	assert.Equal(t, "-2.0 from previous day", ti.DeltaDescription.English())
	assert.Equal(t, "比前一天-2.0", ti.DeltaDescription.ZH)
}

func TestComputeCustomCap(t *testing.T) {
	ti := Compute(repeat(types.CategorySocial, types.SeverityCritical, 2), Previous{}, Config{CapDenominator: 10})
	assert.Equal(t, 10, ti.Components[5].Score)
	assert.Equal(t, 1.0, ti.Composite)
}

func TestLevelBoundaries(t *testing.T) {
	cases := []struct {
		composite float64
		want      string
	}{
		{10, "Critical"},
		{9.0, "Critical"},
		{8.9, "High"},
		{7.0, "High"},
		{6.9, "Elevated"},
		{4.1, "Elevated"},
		{4.0, "Moderate"},
		{2.1, "Moderate"},
		{2.0, "Low"},
		{0, "Low"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Level(c.composite).English(), "composite %.1f", c.composite)
	}
}

func TestDeltaDescription(t *testing.T) {
	assert.Equal(t, "+1.2 from previous day", DeltaDescription(1.2).English())
	assert.Equal(t, "比前一天+1.2", DeltaDescription(1.2).ZH)
	assert.Equal(t, "No change from previous day", DeltaDescription(0).English())
}

func TestKeyDriver(t *testing.T) {
	signals := []types.Signal{
		{Title: types.Plain("moderate first"), Category: types.CategoryTrade, Severity: types.SeverityModerate},
		{Title: types.Bilingual("high one", "高一"), Category: types.CategoryTrade, Severity: types.SeverityHigh},
		{Title: types.Plain("high two"), Category: types.CategoryTrade, Severity: types.SeverityHigh},
		{Title: types.Plain("military"), Category: types.CategoryMilitary, Severity: types.SeverityCritical},
	}
	assert.Equal(t, types.Bilingual("high one", "高一"), KeyDriver(signals, types.CategoryTrade))
	assert.Equal(t, types.Bilingual("military", "military"), KeyDriver(signals, types.CategoryMilitary))
	assert.Equal(t, "No significant activity", KeyDriver(signals, types.CategorySocial).English())
}
