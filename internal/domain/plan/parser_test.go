package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "{}", want: "{}"},
		{in: "```json\n{}\n```", want: "{}"},
		{in: "```\n{}\n```", want: "{}"},
		{in: "  ```json{}```  ", want: "{}"},
		{in: "```json\r\n{\"a\":1}\r\n```", want: "{\"a\":1}"},
		{in: "\n\n{\"a\":1}\n", want: "{\"a\":1}"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, StripFences(tc.in), "input %q", tc.in)
	}
}

func TestParseDocumentFenceIdempotence(t *testing.T) {
	plain, err := ParseDocument(workoutDoc, TypeWorkout)
	require.NoError(t, err)
	fenced, err := ParseDocument("```json\n"+workoutDoc+"\n```", TypeWorkout)
	require.NoError(t, err)
	require.Equal(t, plain, fenced)
}

func TestParseDocumentWorkout(t *testing.T) {
	doc, err := ParseDocument(workoutDoc, TypeWorkout)
	require.NoError(t, err)
	require.Equal(t, TypeWorkout, doc.Type)
	require.Equal(t, "Stay hard! 💪", doc.OutroMessage)
	require.Len(t, doc.Workouts, 2)
	require.Equal(t, 2, doc.CardCount())

	press := doc.Workouts[0].Exercises[1]
	require.Equal(t, "3", press.Sets.String())
	require.Equal(t, Text("8"), press.Reps)
	require.Equal(t, Text("RPE 8"), doc.Workouts[0].Exercises[0].RPE)
}

func TestParseDocumentMealTotals(t *testing.T) {
	doc, err := ParseDocument(mealDoc, TypeNutrition)
	require.NoError(t, err)
	require.Len(t, doc.Meals, 2)

	require.Equal(t, Number(315), doc.Meals[0].TotalCalories)
	require.Equal(t, Number(40), doc.Meals[0].Foods[1].ServingSize)

	snack := doc.Meals[1].MealTotals
	require.InDelta(t, 110, float64(snack.TotalCalories), 1e-9)
	require.InDelta(t, 2.4, float64(snack.TotalProtein), 1e-9)
	require.InDelta(t, 16.2, float64(snack.TotalCarbs), 1e-9)
	require.InDelta(t, 5.2, float64(snack.TotalFat), 1e-9)
}

func TestParseDocumentMalformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		planType Type
	}{
		{name: "invalid json", raw: "{ invalid json", planType: TypeWorkout},
		{name: "empty", raw: "  ", planType: TypeWorkout},
		{name: "missing cards", raw: `{"introMessage": "hi"}`, planType: TypeWorkout},
		{name: "null cards", raw: `{"cards": null}`, planType: TypeWorkout},
		{name: "cards not a list", raw: `{"cards": {"day": "1"}}`, planType: TypeWorkout},
		{name: "cards a string", raw: `{"cards": "Day 1: squats"}`, planType: TypeNutrition},
		{name: "top level array", raw: `[{"cards": []}]`, planType: TypeWorkout},
		{name: "trailing prose", raw: `{"cards": []} hope this helps`, planType: TypeWorkout},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDocument(tc.raw, tc.planType)
			var malformed *MalformedPlanError
			require.ErrorAs(t, err, &malformed)
			require.Equal(t, tc.raw, malformed.Raw)
		})
	}
}

func TestParseDocumentEmptyCardsIsValid(t *testing.T) {
	doc, err := ParseDocument(`{"cards": []}`, TypeWorkout)
	require.NoError(t, err)
	require.Zero(t, doc.CardCount())
	require.Empty(t, doc.IntroMessage)
}

func TestParseDocumentLenientWorkoutFields(t *testing.T) {
	t.Parallel()
	raw := `{
  "introMessage": 42,
  "cards": [
    {"day": 1, "focus": ["Legs", "Core"], "warmup": null, "exercises": [
      {"name": "Squat", "sets": "3-4", "reps": 8, "rest": {"min": 2}},
      {"name": "Plank", "sets": 3, "reps": "60s", "rpe": 7.5},
      "Farmer carry 3x40m"
    ]},
    "rest day",
    {"day": "Day 3", "exercises": "none"}
  ],
  "outroMessage": true
}`
	doc, err := ParseDocument(raw, TypeWorkout)
	require.NoError(t, err)
	require.Equal(t, "42", doc.IntroMessage)
	require.Equal(t, "true", doc.OutroMessage)
	require.Len(t, doc.Workouts, 3)

	first := doc.Workouts[0]
	require.Equal(t, Text("1"), first.Day)
	require.Equal(t, Text("Legs, Core"), first.Focus)
	require.Empty(t, first.Warmup)
	require.Len(t, first.Exercises, 3)
	require.Equal(t, "3-4", first.Exercises[0].Sets.String())
	require.Equal(t, Text("8"), first.Exercises[0].Reps)
	require.Empty(t, first.Exercises[0].Rest)
	require.Equal(t, Text("7.5"), first.Exercises[1].RPE)
	require.Equal(t, Text("Farmer carry 3x40m"), first.Exercises[2].Name)

	require.Equal(t, WorkoutCard{}, doc.Workouts[1])
	require.Equal(t, Text("Day 3"), doc.Workouts[2].Day)
	require.Empty(t, doc.Workouts[2].Exercises)

	// sets keep the type the model used
	require.JSONEq(t, `{"name":"Squat","sets":"3-4","reps":"8"}`, mustJSON(first.Exercises[0]))
	require.JSONEq(t, `{"name":"Plank","sets":3,"reps":"60s","rpe":"7.5"}`, mustJSON(first.Exercises[1]))
}

func TestParseDocumentLenientMealFields(t *testing.T) {
	t.Parallel()
	raw := `{
  "cards": [
    {"name": "Breakfast", "time": 7, "foods": [
      {"fdcId": "173944", "description": "Oats", "servingSize": "80g", "calories": "300 kcal", "protein": "10.5", "carbs": 54, "fat": "n/a"},
      {"fdcId": 1.0, "description": 7, "servingSize": "1,200", "calories": 60}
    ]},
    {"name": "Snack", "foods": {"apple": 1}, "totalCalories": "95"},
    "dinner"
  ]
}`
	doc, err := ParseDocument(raw, TypeNutrition)
	require.NoError(t, err)
	require.Len(t, doc.Meals, 3)

	breakfast := doc.Meals[0]
	require.Equal(t, Text("7"), breakfast.Time)
	oats := breakfast.Foods[0]
	require.Equal(t, Int(173944), oats.FDCID)
	require.Equal(t, Number(80), oats.ServingSize)
	require.Equal(t, Number(300), oats.Calories)
	require.Equal(t, Number(10.5), oats.Protein)
	require.Zero(t, oats.Fat)
	require.Equal(t, Text("7"), breakfast.Foods[1].Description)
	require.Equal(t, Number(1200), breakfast.Foods[1].ServingSize)
	require.Equal(t, Number(360), breakfast.TotalCalories)

	require.Empty(t, doc.Meals[1].Foods)
	require.Equal(t, Number(95), doc.Meals[1].TotalCalories)
	require.Equal(t, MealCard{}, doc.Meals[2])
}

func TestValueDecoding(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in       string
		number   Number
		integer  Int
		text     Text
		scalar   string
		scalarJS string
	}{
		{in: `12`, number: 12, integer: 12, text: "12", scalar: "12", scalarJS: `12`},
		{in: `"12.6g"`, number: 12.6, integer: 13, text: "12.6g", scalar: "12.6g", scalarJS: `"12.6g"`},
		{in: `"-3"`, number: -3, integer: -3, text: "-3", scalar: "-3", scalarJS: `"-3"`},
		{in: `"about 5"`, number: 0, integer: 0, text: "about 5", scalar: "about 5", scalarJS: `"about 5"`},
		{in: `null`, number: 0, integer: 0, text: "", scalar: "", scalarJS: `null`},
		{in: `false`, number: 0, integer: 0, text: "false", scalar: "false", scalarJS: `"false"`},
		{in: `["3", 4]`, number: 0, integer: 0, text: "3, 4", scalar: "3, 4", scalarJS: `"3, 4"`},
		{in: `{"a": 1}`, number: 0, integer: 0, text: "", scalar: "", scalarJS: `null`},
	}
	for _, tc := range tests {
		var (
			n  Number
			i  Int
			tx Text
			sc Scalar
		)
		require.NoError(t, n.UnmarshalJSON([]byte(tc.in)), tc.in)
		require.NoError(t, i.UnmarshalJSON([]byte(tc.in)), tc.in)
		require.NoError(t, tx.UnmarshalJSON([]byte(tc.in)), tc.in)
		require.NoError(t, sc.UnmarshalJSON([]byte(tc.in)), tc.in)
		require.Equal(t, tc.number, n, tc.in)
		require.Equal(t, tc.integer, i, tc.in)
		require.Equal(t, tc.text, tx, tc.in)
		require.Equal(t, tc.scalar, sc.String(), tc.in)
		require.JSONEq(t, tc.scalarJS, mustJSON(sc), tc.in)
	}
}
