package nutrition

import (
	"strings"

	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
)

// MaxQueries caps the number of sub-queries issued per retrieval.
const MaxQueries = 5

// BuildQueries derives the distinct retrieval queries for a profile in priority order.
func BuildQueries(p profile.Profile) []string {
	var queries []string
	switch p.Goal {
	case profile.GoalDeficit:
		queries = append(queries, "low calorie high protein filling foods", "low fat high fiber vegetables")
	case profile.GoalBulking:
		queries = append(queries, "high calorie high protein foods", "complex carbohydrates energy foods")
	default:
		queries = append(queries, "balanced nutritious whole foods")
	}

	for _, restriction := range p.DietaryRestrictions {
		r := strings.ToLower(restriction)
		switch {
		case strings.Contains(r, "vegan"):
			queries = append(queries, "vegan plant-based protein sources", "vegan whole foods legumes nuts seeds")
		case strings.Contains(r, "vegetarian"):
			queries = append(queries, "vegetarian protein sources eggs dairy")
		case strings.Contains(r, "keto"), strings.Contains(r, "low carb"):
			queries = append(queries, "low carb high fat keto foods", "fatty fish avocado nuts low carb vegetables")
		case strings.Contains(r, "paleo"):
			queries = append(queries, "paleo meat fish vegetables nuts")
		case strings.Contains(r, "gluten"):
			queries = append(queries, "gluten free grains alternatives")
		case strings.Contains(r, "dairy"):
			queries = append(queries, "dairy free alternatives calcium sources")
		}
	}

	queries = append(queries, "lean protein chicken fish turkey eggs", "healthy fats avocado nuts olive oil")

	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, MaxQueries)
	for _, q := range queries {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
		if len(out) == MaxQueries {
			break
		}
	}
	return out
}
