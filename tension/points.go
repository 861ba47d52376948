package tension

import "compass/types"

// Component is one weighted slice of the index.
type Component struct {
	Category types.Category
	Name     types.Text
	Weight   float64
}

// Components are the six weighted categories in display order. Weights sum to 1.
var Components = []Component{
	{types.CategoryDiplomatic, types.Bilingual("Diplomatic", "外交"), 0.25},
	{types.CategoryTrade, types.Bilingual("Trade", "贸易"), 0.25},
	{types.CategoryMilitary, types.Bilingual("Military", "军事"), 0.15},
	{types.CategoryPolitical, types.Bilingual("Political", "政治"), 0.15},
	{types.CategoryTechnology, types.Bilingual("Technology", "科技"), 0.10},
	{types.CategorySocial, types.Bilingual("Social", "社会"), 0.10},
}

// IsComponent reports whether signals in c feed the index.
func IsComponent(c types.Category) bool {
	for _, comp := range Components {
		if comp.Category == c {
			return true
		}
	}
	return false
}

// RawPoints sums severity points per component category. Signals outside the
// six components contribute nothing.
func RawPoints(signals []types.Signal) map[types.Category]int {
	points := make(map[types.Category]int, len(Components))
	for _, comp := range Components {
		points[comp.Category] = 0
	}
	for _, s := range signals {
		if _, ok := points[s.Category]; ok {
			points[s.Category] += s.Severity.Points()
		}
	}
	return points
}
