package plan

import (
	"context"
	"time"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
)

// Sink receives events in order. A non-nil error stops emission.
type Sink func(Event) error

// Pacer waits between events. Implementations must return early with the
// context error when ctx is done.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration) error
}

// Pacing holds the pauses between progressive events.
type Pacing struct {
	Header    time.Duration
	Item      time.Duration
	Complete  time.Duration
	PreOutro  time.Duration
	OutroChar time.Duration
}

// DefaultPacing returns the pauses used by the web client's animations.
func DefaultPacing() Pacing {
	return Pacing{
		Header:    100 * time.Millisecond,
		Item:      150 * time.Millisecond,
		Complete:  100 * time.Millisecond,
		PreOutro:  300 * time.Millisecond,
		OutroChar: 20 * time.Millisecond,
	}
}

// SleepPacer waits on a timer.
type SleepPacer struct{}

func (SleepPacer) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoopPacer never waits.
type NoopPacer struct{}

func (NoopPacer) Pause(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Emitter replays a parsed document as progressive card events.
type Emitter struct {
	pacing Pacing
	pacer  Pacer
}

// NewEmitter returns an emitter. A nil pacer disables pauses.
func NewEmitter(pacing Pacing, pacer Pacer) *Emitter {
	if pacer == nil {
		pacer = NoopPacer{}
	}
	return &Emitter{pacing: pacing, pacer: pacer}
}

// Emit sends the full post-parse event sequence for doc, ending with done.
// targets is only sent for nutrition documents.
func (e *Emitter) Emit(ctx context.Context, doc Document, targets *nutrition.Targets, sink Sink) error {
	if doc.Type == TypeNutrition && targets != nil {
		if err := sink(Event{Type: EventTargets, Content: *targets}); err != nil {
			return err
		}
	}
	if err := sink(Event{Type: EventParsing}); err != nil {
		return err
	}

	var err error
	switch doc.Type {
	case TypeNutrition:
		err = e.emitMeals(ctx, doc.Meals, sink)
	default:
		err = e.emitWorkouts(ctx, doc.Workouts, sink)
	}
	if err != nil {
		return err
	}

	if err := e.emitOutro(ctx, doc.OutroMessage, sink); err != nil {
		return err
	}
	return sink(DoneEvent(doc.Type))
}

func (e *Emitter) emitWorkouts(ctx context.Context, cards []WorkoutCard, sink Sink) error {
	for i, card := range cards {
		header := WorkoutHeader{
			Day:      card.Day,
			Focus:    card.Focus,
			Warmup:   card.Warmup,
			Cooldown: card.Cooldown,
			Notes:    card.Notes,
			Index:    i,
		}
		if err := e.send(ctx, sink, Event{Type: EventWorkoutHeader, Content: header}, e.pacing.Header); err != nil {
			return err
		}
		for j, exercise := range card.Exercises {
			ev := Event{
				Type:          EventWorkoutExercise,
				Content:       exercise,
				WorkoutIndex:  intPtr(i),
				ExerciseIndex: intPtr(j),
			}
			if err := e.send(ctx, sink, ev, e.pacing.Item); err != nil {
				return err
			}
		}
		if err := e.send(ctx, sink, Event{Type: EventWorkoutComplete, Content: CardComplete{Index: i}}, e.pacing.Complete); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitMeals(ctx context.Context, meals []MealCard, sink Sink) error {
	for i, meal := range meals {
		if err := e.send(ctx, sink, Event{Type: EventMealHeader, Content: MealHeader{Name: meal.Name, Time: meal.Time, Index: i}}, e.pacing.Header); err != nil {
			return err
		}
		for j, food := range meal.Foods {
			ev := Event{
				Type:      EventMealFood,
				Content:   food,
				MealIndex: intPtr(i),
				FoodIndex: intPtr(j),
			}
			if err := e.send(ctx, sink, ev, e.pacing.Item); err != nil {
				return err
			}
		}
		complete := MealComplete{Index: i, MealTotals: meal.MealTotals}
		if err := e.send(ctx, sink, Event{Type: EventMealComplete, Content: complete}, e.pacing.Complete); err != nil {
			return err
		}
	}
	return nil
}

// emitOutro sends the outro one rune per event.
func (e *Emitter) emitOutro(ctx context.Context, outro string, sink Sink) error {
	if outro == "" {
		return nil
	}
	if err := e.pacer.Pause(ctx, e.pacing.PreOutro); err != nil {
		return err
	}
	for _, r := range outro {
		if err := e.send(ctx, sink, Event{Type: EventOutroChunk, Content: string(r)}, e.pacing.OutroChar); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) send(ctx context.Context, sink Sink, ev Event, pause time.Duration) error {
	if err := sink(ev); err != nil {
		return err
	}
	return e.pacer.Pause(ctx, pause)
}
