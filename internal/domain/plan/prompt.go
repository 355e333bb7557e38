package plan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
	"github.com/yanqian/ai-fitcoach/pkg/metrics"
)

const advancedStrengthGuidance = `IMPORTANT: This is an ADVANCED strength-focused athlete. Build the week on a proven strength program:
- 5x5: five sets of five on the main lifts
- 5/3/1: percentage based waves with a different rep scheme each week
- 3x5: classic strength building
- Texas Method: volume day, recovery day, intensity day
- Conjugate: max effort and dynamic effort days

Prescribe intensity with RPE (Rate of Perceived Exertion):
- RPE 7-8 for volume work
- RPE 9-10 for heavy singles and top sets
- Always give RPE for the main compound lifts

Main lifts are Squat, Bench Press, Deadlift and Overhead Press. Assistance work stays secondary.`

const workoutSchema = `{
  "introMessage": "Your in-character introduction that speaks to their goal and gets them fired up.",
  "cards": [
    {
      "day": "Day 1: Push",
      "focus": "Chest, Shoulders, Triceps",
      "warmup": "5 minutes dynamic stretching, arm circles",
      "exercises": [
        {
          "name": "Bench Press",
          "sets": 5,
          "reps": "5",
          "rest": "3 min",
          "rpe": "RPE 8",
          "notes": "Elbows at 45 degrees, drive through the heels"
        }
      ],
      "cooldown": "Light stretching for chest and shoulders",
      "notes": "Add weight every week you hit all reps"
    }
  ],
  "outroMessage": "Your in-character closing message."
}`

const nutritionSchema = `{
  "introMessage": "Your in-character introduction about their nutrition goal.",
  "cards": [
    {
      "name": "Meal 1: Breakfast",
      "time": "7:00 AM",
      "foods": [
        {
          "fdcId": 171477,
          "description": "Chicken breast, grilled",
          "servingSize": 150,
          "calories": 165,
          "protein": 31,
          "carbs": 0,
          "fat": 3.6
        }
      ],
      "totalCalories": 500,
      "totalProtein": 40,
      "totalCarbs": 50,
      "totalFat": 15
    }
  ],
  "outroMessage": "Your in-character closing message about sticking to the plan."
}`

const jsonOnly = "IMPORTANT: Return ONLY valid JSON, no other text. Do not wrap it in markdown code blocks."

// WorkoutPrompt builds the user message for a workout plan.
func WorkoutPrompt(p profile.Profile) string {
	advanced := p.IsAdvancedStrength()

	var b strings.Builder
	b.WriteString("Create a detailed workout plan for this user:\n\nProfile:\n")
	writeBodyLines(&b, p)
	fmt.Fprintf(&b, "- Activity Level: %s\n", p.ActivityLevel)
	fmt.Fprintf(&b, "- Experience Level: %s\n", p.ExperienceLevel)
	fmt.Fprintf(&b, "- Training Focus: %s\n", focusOrGeneral(p.FocusArea))
	writeListLine(&b, "Target Muscles", p.TargetMuscles)
	writeListLine(&b, "Health Issues", p.HealthIssues)

	if advanced {
		b.WriteString("\n")
		b.WriteString(advancedStrengthGuidance)
		b.WriteString("\n")
	}

	b.WriteString("\nCRITICAL: Return your response as a JSON object with this EXACT structure:\n")
	b.WriteString(workoutSchema)
	b.WriteString("\n\n")
	if advanced {
		b.WriteString("If you use RPE, explain what it means and how to use it in your outro message, in plain words and in your own voice.\n\n")
	}

	requirements := []string{
		"Create 3-6 workout day cards depending on experience level and goals",
		"Each card is a complete training day with specific exercises",
		"Include sets, reps and rest periods for each exercise",
	}
	if advanced {
		requirements = append(requirements, "Include RPE for the main compound lifts and explain it in your outro")
	}
	requirements = append(requirements,
		"Add warmup and cooldown recommendations",
		"Include form tips and important notes",
		"Stay completely in character for the intro and outro messages",
	)
	writeRequirements(&b, requirements)
	b.WriteString("\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// NutritionPrompt builds the user message for a nutrition plan. foodsJSON is
// the serialized list of foods the model may choose from.
func NutritionPrompt(p profile.Profile, targets nutrition.Targets, foodsJSON string) string {
	var b strings.Builder
	b.WriteString("Create a detailed nutrition and meal plan for this user:\n\nProfile:\n")
	writeBodyLines(&b, p)
	writeListLine(&b, "Dietary Restrictions", p.DietaryRestrictions)
	writeListLine(&b, "Health Issues", p.HealthIssues)

	b.WriteString("\nNutritional Targets:\n")
	fmt.Fprintf(&b, "- Daily Calories: %d\n", targets.Calories)
	fmt.Fprintf(&b, "- Protein: %dg\n", targets.Macros.Protein)
	fmt.Fprintf(&b, "- Carbs: %dg\n", targets.Macros.Carbs)
	fmt.Fprintf(&b, "- Fat: %dg\n", targets.Macros.Fat)

	b.WriteString("\nAvailable Foods Database (use ONLY these foods):\n")
	b.WriteString(foodsJSON)
	b.WriteString("\n\nCRITICAL: Return your response as a JSON object with this EXACT structure:\n")
	b.WriteString(nutritionSchema)
	b.WriteString("\n\n")
	writeRequirements(&b, []string{
		"Create 4-6 meal cards (breakfast, lunch, dinner, snacks)",
		"Use ONLY foods from the provided database with their EXACT fdcId",
		"Each food must have: fdcId, description, servingSize (in grams), calories, protein, carbs, fat",
		"Calculate accurate totals for each meal",
		"Distribute macros across meals to meet daily targets",
		"Stay completely in character for the intro and outro messages",
		"Make the meals practical and realistic",
	})
	b.WriteString("\n")
	b.WriteString(jsonOnly)
	return b.String()
}

func writeBodyLines(b *strings.Builder, p profile.Profile) {
	fmt.Fprintf(b, "- Height: %gcm\n", p.Height)
	fmt.Fprintf(b, "- Weight: %gkg\n", p.Weight)
	fmt.Fprintf(b, "- Age: %d\n", p.Age)
	fmt.Fprintf(b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(b, "- Goal: %s\n", p.Goal)
}

func writeListLine(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(values, ", "))
}

func writeRequirements(b *strings.Builder, items []string) {
	b.WriteString("Requirements:\n")
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}

func focusOrGeneral(f profile.FocusArea) profile.FocusArea {
	if f == "" {
		return profile.FocusGeneral
	}
	return f
}

type promptFood struct {
	FDCID       int     `json:"fdcId"`
	Description string  `json:"description"`
	Category    string  `json:"category,omitempty"`
	ServingSize float64 `json:"servingSize"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber,omitempty"`
}

// FoodCatalog serializes up to maxFoods foods for the prompt, stopping early
// once the token budget would be exceeded. A budget <= 0 means unlimited.
// It returns the JSON and the number of foods included.
func FoodCatalog(foods []nutrition.Food, maxFoods, tokenBudget int, counter *metrics.TokenCounter) (string, int, error) {
	if maxFoods > 0 && len(foods) > maxFoods {
		foods = foods[:maxFoods]
	}
	selected := make([]promptFood, 0, len(foods))
	used := 0
	for _, f := range foods {
		entry := promptFood{
			FDCID:       f.FDCID,
			Description: f.Description,
			Category:    f.Category,
			ServingSize: f.ServingSize,
			Calories:    f.Calories,
			Protein:     f.Protein,
			Carbs:       f.Carbs,
			Fat:         f.Fat,
			Fiber:       f.Fiber,
		}
		if tokenBudget > 0 {
			raw, err := json.Marshal(entry)
			if err != nil {
				return "", 0, err
			}
			cost := counter.Count(string(raw))
			if used+cost > tokenBudget && len(selected) > 0 {
				break
			}
			used += cost
		}
		selected = append(selected, entry)
	}
	raw, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return "", 0, err
	}
	return string(raw), len(selected), nil
}
