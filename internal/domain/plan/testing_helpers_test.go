package plan

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

type sliceStream struct {
	fragments []string
	err       error
	pos       int
	closed    bool
}

func (s *sliceStream) Next() (string, error) {
	if s.pos < len(s.fragments) {
		f := s.fragments[s.pos]
		s.pos++
		return f, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func splitEvery(s string, n int) []string {
	var out []string
	for len(s) > 0 {
		if len(s) < n {
			n = len(s)
		}
		out = append(out, s[:n])
		s = s[n:]
	}
	return out
}

func collect(events *[]Event) Sink {
	return func(ev Event) error {
		*events = append(*events, ev)
		return nil
	}
}

func concatContent(events []Event, typ EventType) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Type == typ {
			b.WriteString(ev.Content.(string))
		}
	}
	return b.String()
}

func countType(events []Event, typ EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

var background = context.Background()

const workoutDoc = `{
  "introMessage": "Alright, listen up! \"Stay hard\"\nWe start today.\tNo excuses \\ ever. Café 💪",
  "cards": [
    {
      "day": "Day 1: Push",
      "focus": "Chest, Shoulders",
      "warmup": "Arm circles",
      "exercises": [
        {"name": "Bench Press", "sets": 5, "reps": "5", "rest": "3 min", "rpe": "RPE 8"},
        {"name": "Overhead Press", "sets": "3", "reps": 8}
      ],
      "cooldown": "Stretch",
      "notes": "Add weight weekly"
    },
    {
      "day": "Day 2: Pull",
      "focus": "Back",
      "exercises": [
        {"name": "Deadlift", "sets": 1, "reps": "5"}
      ]
    }
  ],
  "outroMessage": "Stay hard! 💪"
}`

const mealDoc = `{
  "introMessage": "Food is fuel.",
  "cards": [
    {
      "name": "Meal 1: Breakfast",
      "time": "7:00 AM",
      "foods": [
        {"fdcId": 171477, "description": "Chicken breast", "servingSize": 150, "calories": 165, "protein": 31, "carbs": 0, "fat": 3.6},
        {"fdcId": 173944, "description": "Oats", "servingSize": "40", "calories": 150, "protein": 5, "carbs": 27, "fat": 2.5}
      ],
      "totalCalories": 315,
      "totalProtein": 36,
      "totalCarbs": 27,
      "totalFat": 6.1
    },
    {
      "name": "Meal 2: Snack",
      "foods": [
        {"fdcId": 1, "description": "Apple", "servingSize": 100, "calories": 52, "protein": 0.3, "carbs": 14, "fat": 0.2},
        {"fdcId": 2, "description": "Almonds", "servingSize": 10, "calories": 58, "protein": 2.1, "carbs": 2.2, "fat": 5}
      ]
    }
  ],
  "outroMessage": "Eat clean."
}`
