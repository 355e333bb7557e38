package nutrition

import "strings"

type exclusionRule struct {
	restriction string
	terms       []string
}

// Rules are matched in order; the first matching rule applies to a restriction.
var exclusionRules = []exclusionRule{
	{restriction: "vegan", terms: []string{"meat", "chicken", "beef", "pork", "fish", "egg", "dairy", "milk", "cheese", "yogurt", "whey"}},
	{restriction: "vegetarian", terms: []string{"meat", "chicken", "beef", "pork", "fish", "turkey", "lamb"}},
	{restriction: "gluten", terms: []string{"wheat", "barley", "rye", "bread", "pasta"}},
	{restriction: "dairy", terms: []string{"milk", "cheese", "yogurt", "cream", "butter"}},
}

// FilterByRestrictions drops foods whose description or ingredients mention
// a term excluded by any of the restrictions. Order is preserved.
func FilterByRestrictions(foods []Food, restrictions []string) []Food {
	var excluded [][]string
	for _, restriction := range restrictions {
		r := strings.ToLower(restriction)
		for _, rule := range exclusionRules {
			if strings.Contains(r, rule.restriction) {
				excluded = append(excluded, rule.terms)
				break
			}
		}
	}
	if len(excluded) == 0 {
		return foods
	}

	out := make([]Food, 0, len(foods))
	for _, food := range foods {
		text := strings.ToLower(food.Description + " " + food.Ingredients)
		if !containsAny(text, excluded) {
			out = append(out, food)
		}
	}
	return out
}

func containsAny(text string, groups [][]string) bool {
	for _, terms := range groups {
		for _, term := range terms {
			if strings.Contains(text, term) {
				return true
			}
		}
	}
	return false
}
