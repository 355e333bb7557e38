package plan

import (
	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
)

// Type selects the kind of plan being generated.
type Type string

const (
	TypeWorkout   Type = "workout"
	TypeNutrition Type = "nutrition"
)

// Valid reports whether the plan type is supported.
func (t Type) Valid() bool {
	return t == TypeWorkout || t == TypeNutrition
}

// Role of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn sent to a completion provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the input to a plan generation.
type GenerateRequest struct {
	Profile      profile.Profile
	Persona      string
	Type         Type
	SystemPrompt string
}

// Exercise is one item of a workout card.
type Exercise struct {
	Name  Text   `json:"name"`
	Sets  Scalar `json:"sets"`
	Reps  Text   `json:"reps"`
	Rest  Text   `json:"rest,omitempty"`
	RPE   Text   `json:"rpe,omitempty"`
	Notes Text   `json:"notes,omitempty"`
}

// WorkoutCard is one training day.
type WorkoutCard struct {
	Day       Text       `json:"day"`
	Focus     Text       `json:"focus"`
	Warmup    Text       `json:"warmup,omitempty"`
	Cooldown  Text       `json:"cooldown,omitempty"`
	Notes     Text       `json:"notes,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

// Food is one item of a meal card.
type Food struct {
	FDCID       Int    `json:"fdcId"`
	Description Text   `json:"description"`
	ServingSize Number `json:"servingSize"`
	Calories    Number `json:"calories"`
	Protein     Number `json:"protein"`
	Carbs       Number `json:"carbs"`
	Fat         Number `json:"fat"`
}

// MealTotals aggregates the nutrients of a meal.
type MealTotals struct {
	TotalCalories Number `json:"totalCalories"`
	TotalProtein  Number `json:"totalProtein"`
	TotalCarbs    Number `json:"totalCarbs"`
	TotalFat      Number `json:"totalFat"`
}

// MealCard is one meal of a nutrition plan.
type MealCard struct {
	Name  Text   `json:"name"`
	Time  Text   `json:"time,omitempty"`
	Foods []Food `json:"foods"`
	MealTotals
}

// Document is a fully parsed plan. Exactly one of Workouts or Meals is
// populated, according to Type.
type Document struct {
	Type         Type
	IntroMessage string
	OutroMessage string
	Workouts     []WorkoutCard
	Meals        []MealCard
}

// CardCount returns the number of cards for the document's type.
func (d Document) CardCount() int {
	if d.Type == TypeNutrition {
		return len(d.Meals)
	}
	return len(d.Workouts)
}

// EventType discriminates stream events on the wire.
type EventType string

const (
	EventChunk           EventType = "chunk"
	EventTargets         EventType = "targets"
	EventParsing         EventType = "parsing"
	EventWorkoutHeader   EventType = "workout_header"
	EventWorkoutExercise EventType = "workout_exercise"
	EventWorkoutComplete EventType = "workout_complete"
	EventMealHeader      EventType = "meal_header"
	EventMealFood        EventType = "meal_food"
	EventMealComplete    EventType = "meal_complete"
	EventOutroChunk      EventType = "outro_chunk"
	EventDone            EventType = "done"
	EventError           EventType = "error"
)

// Event is a single server-sent event. Index fields are pointers so that
// index zero is still written.
type Event struct {
	Type          EventType `json:"type"`
	Content       any       `json:"content,omitempty"`
	WorkoutIndex  *int      `json:"workoutIndex,omitempty"`
	ExerciseIndex *int      `json:"exerciseIndex,omitempty"`
	MealIndex     *int      `json:"mealIndex,omitempty"`
	FoodIndex     *int      `json:"foodIndex,omitempty"`
	PlanType      Type      `json:"planType,omitempty"`
}

// Terminal reports whether no event may follow this one.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// WorkoutHeader is the content of a workout_header event.
type WorkoutHeader struct {
	Day      Text `json:"day"`
	Focus    Text `json:"focus"`
	Warmup   Text `json:"warmup,omitempty"`
	Cooldown Text `json:"cooldown,omitempty"`
	Notes    Text `json:"notes,omitempty"`
	Index    int  `json:"index"`
}

// MealHeader is the content of a meal_header event.
type MealHeader struct {
	Name  Text `json:"name"`
	Time  Text `json:"time,omitempty"`
	Index int  `json:"index"`
}

// CardComplete is the content of a workout_complete event.
type CardComplete struct {
	Index int `json:"index"`
}

// MealComplete is the content of a meal_complete event.
type MealComplete struct {
	Index int `json:"index"`
	MealTotals
}

// TargetsContent is the content of a targets event.
type TargetsContent = nutrition.Targets

func intPtr(v int) *int {
	return &v
}

// ChunkEvent builds an incremental text event.
func ChunkEvent(text string) Event {
	return Event{Type: EventChunk, Content: text}
}

// DoneEvent builds the terminal success event.
func DoneEvent(planType Type) Event {
	return Event{Type: EventDone, PlanType: planType}
}

// ErrorEvent builds the terminal failure event.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Content: message}
}
