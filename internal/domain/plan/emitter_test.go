package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
)

type recordingPacer struct {
	pauses []time.Duration
}

func (p *recordingPacer) Pause(ctx context.Context, d time.Duration) error {
	p.pauses = append(p.pauses, d)
	return ctx.Err()
}

func TestEmitterWorkoutSequence(t *testing.T) {
	doc, err := ParseDocument(workoutDoc, TypeWorkout)
	require.NoError(t, err)

	var events []Event
	require.NoError(t, NewEmitter(DefaultPacing(), nil).Emit(background, doc, nil, collect(&events)))

	require.Equal(t, EventParsing, events[0].Type)
	require.Equal(t, DoneEvent(TypeWorkout), events[len(events)-1])
	require.Zero(t, countType(events, EventTargets))

	require.Equal(t, 2, countType(events, EventWorkoutHeader))
	require.Equal(t, 3, countType(events, EventWorkoutExercise))
	require.Equal(t, 2, countType(events, EventWorkoutComplete))

	card := -1
	nextExercise := 0
	for _, ev := range events {
		switch ev.Type {
		case EventWorkoutHeader:
			card++
			nextExercise = 0
			require.Equal(t, card, ev.Content.(WorkoutHeader).Index)
		case EventWorkoutExercise:
			require.Equal(t, card, *ev.WorkoutIndex)
			require.Equal(t, nextExercise, *ev.ExerciseIndex)
			require.Equal(t, doc.Workouts[card].Exercises[nextExercise], ev.Content.(Exercise))
			nextExercise++
		case EventWorkoutComplete:
			require.Equal(t, card, ev.Content.(CardComplete).Index)
			require.Len(t, doc.Workouts[card].Exercises, nextExercise)
		}
	}
	require.Equal(t, 1, card)
}

func TestEmitterOutroExactness(t *testing.T) {
	doc, err := ParseDocument(workoutDoc, TypeWorkout)
	require.NoError(t, err)

	var events []Event
	require.NoError(t, NewEmitter(DefaultPacing(), NoopPacer{}).Emit(background, doc, nil, collect(&events)))

	require.Equal(t, doc.OutroMessage, concatContent(events, EventOutroChunk))
	require.Equal(t, len([]rune(doc.OutroMessage)), countType(events, EventOutroChunk))
}

func TestEmitterNutritionSequence(t *testing.T) {
	doc, err := ParseDocument(mealDoc, TypeNutrition)
	require.NoError(t, err)
	targets := nutrition.Targets{Calories: 2749, Macros: nutrition.Macros{Protein: 150, Carbs: 330, Fat: 92}}

	var events []Event
	require.NoError(t, NewEmitter(DefaultPacing(), NoopPacer{}).Emit(background, doc, &targets, collect(&events)))

	require.Equal(t, Event{Type: EventTargets, Content: targets}, events[0])
	require.Equal(t, EventParsing, events[1].Type)
	require.Equal(t, EventMealHeader, events[2].Type)
	require.Equal(t, MealHeader{Name: "Meal 1: Breakfast", Time: "7:00 AM", Index: 0}, events[2].Content)
	require.Equal(t, 4, countType(events, EventMealFood))
	require.Equal(t, 2, countType(events, EventMealComplete))
	require.Equal(t, DoneEvent(TypeNutrition), events[len(events)-1])

	var completes []MealComplete
	for _, ev := range events {
		if ev.Type == EventMealComplete {
			completes = append(completes, ev.Content.(MealComplete))
		}
		if ev.Type == EventMealFood {
			require.NotNil(t, ev.MealIndex)
			require.NotNil(t, ev.FoodIndex)
		}
	}
	require.Equal(t, Number(315), completes[0].TotalCalories)
	require.Equal(t, 1, completes[1].Index)
}

func TestEmitterPacing(t *testing.T) {
	doc := Document{
		Type:         TypeWorkout,
		OutroMessage: "ok",
		Workouts:     []WorkoutCard{{Day: "1", Exercises: []Exercise{{Name: "Squat"}}}},
	}
	pacer := &recordingPacer{}
	pacing := DefaultPacing()
	require.NoError(t, NewEmitter(pacing, pacer).Emit(background, doc, nil, func(Event) error { return nil }))

	require.Equal(t, []time.Duration{
		pacing.Header, pacing.Item, pacing.Complete,
		pacing.PreOutro, pacing.OutroChar, pacing.OutroChar,
	}, pacer.pauses)
}

func TestEmitterEmptyOutroSkipsPause(t *testing.T) {
	pacer := &recordingPacer{}
	var events []Event
	require.NoError(t, NewEmitter(DefaultPacing(), pacer).Emit(background, Document{Type: TypeWorkout}, nil, collect(&events)))
	require.Empty(t, pacer.pauses)
	require.Equal(t, []Event{{Type: EventParsing}, DoneEvent(TypeWorkout)}, events)
}

func TestEmitterStopsOnSinkError(t *testing.T) {
	doc, err := ParseDocument(workoutDoc, TypeWorkout)
	require.NoError(t, err)
	gone := errors.New("client gone")
	sent := 0
	err = NewEmitter(DefaultPacing(), NoopPacer{}).Emit(background, doc, nil, func(Event) error {
		sent++
		if sent == 3 {
			return gone
		}
		return nil
	})
	require.ErrorIs(t, err, gone)
	require.Equal(t, 3, sent)
}

func TestSleepPacerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := SleepPacer{}.Pause(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}
