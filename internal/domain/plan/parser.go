package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const fence = "```"

// StripFences removes a surrounding markdown code fence, with or without a
// json language tag, and surrounding whitespace.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "\r")
		s = strings.TrimPrefix(s, "\n")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

type documentWire struct {
	IntroMessage Text             `json:"introMessage"`
	OutroMessage Text             `json:"outroMessage"`
	Cards        *json.RawMessage `json:"cards"`
}

type mealWire struct {
	Name          Text    `json:"name"`
	Time          Text    `json:"time"`
	Foods         []Food  `json:"foods"`
	TotalCalories *Number `json:"totalCalories"`
	TotalProtein  *Number `json:"totalProtein"`
	TotalCarbs    *Number `json:"totalCarbs"`
	TotalFat      *Number `json:"totalFat"`
}

// UnmarshalJSON decodes a meal; anything but an object is an empty meal and
// a foods value that is not a list has no foods.
func (m *mealWire) UnmarshalJSON(data []byte) error {
	*m = mealWire{}
	if !isObject(data) {
		return nil
	}
	var wire struct {
		Name          Text            `json:"name"`
		Time          Text            `json:"time"`
		Foods         json.RawMessage `json:"foods"`
		TotalCalories *Number         `json:"totalCalories"`
		TotalProtein  *Number         `json:"totalProtein"`
		TotalCarbs    *Number         `json:"totalCarbs"`
		TotalFat      *Number         `json:"totalFat"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	foods, err := decodeItems[Food](wire.Foods)
	if err != nil {
		return err
	}
	*m = mealWire{
		Name:          wire.Name,
		Time:          wire.Time,
		Foods:         foods,
		TotalCalories: wire.TotalCalories,
		TotalProtein:  wire.TotalProtein,
		TotalCarbs:    wire.TotalCarbs,
		TotalFat:      wire.TotalFat,
	}
	return nil
}

// ParseDocument parses a complete model response into a Document. It fails
// with a *MalformedPlanError only when the response is not JSON or cards is
// missing or not a list; odd card contents are decoded leniently.
func ParseDocument(raw string, planType Type) (Document, error) {
	malformed := func(err error) (Document, error) {
		return Document{}, &MalformedPlanError{Raw: raw, Err: err}
	}

	body := StripFences(raw)
	if body == "" {
		return malformed(errors.New("empty response"))
	}

	var wire documentWire
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return malformed(err)
	}
	if wire.Cards == nil || strings.TrimSpace(string(*wire.Cards)) == "null" {
		return malformed(errors.New("missing cards"))
	}

	doc := Document{
		Type:         planType,
		IntroMessage: string(wire.IntroMessage),
		OutroMessage: string(wire.OutroMessage),
	}

	switch planType {
	case TypeWorkout:
		var cards []WorkoutCard
		if err := json.Unmarshal(*wire.Cards, &cards); err != nil {
			return malformed(fmt.Errorf("workout cards: %w", err))
		}
		doc.Workouts = cards
	case TypeNutrition:
		var meals []mealWire
		if err := json.Unmarshal(*wire.Cards, &meals); err != nil {
			return malformed(fmt.Errorf("meal cards: %w", err))
		}
		doc.Meals = make([]MealCard, 0, len(meals))
		for _, m := range meals {
			doc.Meals = append(doc.Meals, m.card())
		}
	default:
		return malformed(fmt.Errorf("unsupported plan type %q", planType))
	}
	return doc, nil
}

// card converts the wire form, filling any missing total from the foods.
func (m mealWire) card() MealCard {
	var sum MealTotals
	for _, f := range m.Foods {
		sum.TotalCalories += f.Calories
		sum.TotalProtein += f.Protein
		sum.TotalCarbs += f.Carbs
		sum.TotalFat += f.Fat
	}
	pick := func(provided *Number, computed Number) Number {
		if provided != nil {
			return *provided
		}
		return computed
	}
	return MealCard{
		Name:  m.Name,
		Time:  m.Time,
		Foods: m.Foods,
		MealTotals: MealTotals{
			TotalCalories: pick(m.TotalCalories, sum.TotalCalories),
			TotalProtein:  pick(m.TotalProtein, sum.TotalProtein),
			TotalCarbs:    pick(m.TotalCarbs, sum.TotalCarbs),
			TotalFat:      pick(m.TotalFat, sum.TotalFat),
		},
	}
}
