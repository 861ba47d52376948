package tension

import (
	"fmt"
	"math"
	"strings"

	"compass/types"
)

// DefaultCapDenominator is the raw point total that maps to a full score of 10.
const DefaultCapDenominator = 20

// Config tunes the index. CapDenominator is the only free parameter.
type Config struct {
	CapDenominator float64
}

// Previous carries yesterday's persisted values. A nil Composite means there
// was no previous run.
type Previous struct {
	Composite  *float64
	Components map[string]int
}

type levelBand struct {
	min   float64
	label types.Text
}

// Bands are checked top-down; the gaps at 4.0-4.1 and 2.0-2.1 are deliberate.
var levelBands = []levelBand{
	{9.0, types.Bilingual("Critical", "危急")},
	{7.0, types.Bilingual("High", "高")},
	{4.1, types.Bilingual("Elevated", "升高")},
	{2.1, types.Bilingual("Moderate", "中等")},
}

var (
	levelLow          = types.Bilingual("Low", "低")
	noActivity        = types.Bilingual("No significant activity", "无重大活动")
	noChange          = types.Bilingual("No change from previous day", "与前一天持平")
	deltaFromPrevious = "from previous day"
)

// Level maps a composite score to its bilingual label.
func Level(composite float64) types.Text {
	for _, band := range levelBands {
		if composite >= band.min {
			return band.label
		}
	}
	return levelLow
}

// DeltaDescription renders a signed one-decimal delta in both languages.
func DeltaDescription(delta float64) types.Text {
	switch {
	case delta > 0:
		return types.Bilingual(fmt.Sprintf("+%.1f %s", delta, deltaFromPrevious), fmt.Sprintf("比前一天+%.1f", delta))
	case delta < 0:
		return types.Bilingual(fmt.Sprintf("%.1f %s", delta, deltaFromPrevious), fmt.Sprintf("比前一天%.1f", delta))
	default:
		return noChange
	}
}

// Compute builds the day's tension index from deduplicated, classified signals.
//
// Each component score is min(points/cap*10, 10). The stored score is that
// value rounded half-to-even and capped at 10; the composite uses the
// unrounded values and is rounded to one decimal.
func Compute(signals []types.Signal, prev Previous, cfg Config) types.TensionIndex {
	capDenominator := cfg.CapDenominator
	if capDenominator <= 0 {
		capDenominator = DefaultCapDenominator
	}

	previous := make(map[string]int, len(prev.Components))
	for name, score := range prev.Components {
		previous[strings.ToLower(name)] = score
	}

	points := RawPoints(signals)
	components := make([]types.ComponentScore, 0, len(Components))
	composite := 0.0

	for _, comp := range Components {
		normalized := math.Min(float64(points[comp.Category])/capDenominator*10, 10)
		score := int(math.Min(math.RoundToEven(normalized), 10))

		trend := types.TrendStable
		if prevScore, ok := previous[strings.ToLower(comp.Name.English())]; ok {
			trend = types.Compare(score, prevScore)
		}

		components = append(components, types.ComponentScore{
			Name:      comp.Name,
			Score:     score,
			Weight:    comp.Weight,
			Trend:     trend,
			KeyDriver: KeyDriver(signals, comp.Category),
		})
		composite += normalized * comp.Weight
	}

	composite = round1(composite)
	delta := 0.0
	if prev.Composite != nil {
		delta = round1(composite - *prev.Composite)
	}

	return types.TensionIndex{
		Composite:        composite,
		Level:            Level(composite),
		Delta:            delta,
		DeltaDescription: DeltaDescription(delta),
		Components:       components,
	}
}

// KeyDriver returns the title of the most severe signal in the category.
// Ties keep the earliest signal.
func KeyDriver(signals []types.Signal, category types.Category) types.Text {
	best := -1
	bestRank := -1
	for i, s := range signals {
		if s.Category != category {
			continue
		}
		rank := s.Severity.Points()
		if rank > bestRank {
			best, bestRank = i, rank
		}
	}
	if best < 0 {
		return noActivity
	}
	return signals[best].Title.Pair()
}

func round1(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0 // avoid -0
	}
	return r
}
