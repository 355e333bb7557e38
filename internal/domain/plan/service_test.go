package plan

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
	apperrors "github.com/yanqian/ai-fitcoach/pkg/errors"
	"github.com/yanqian/ai-fitcoach/pkg/metrics"
)

type stubProvider struct {
	stream  FragmentStream
	err     error
	request CompletionRequest
}

func (p *stubProvider) Stream(_ context.Context, req CompletionRequest) (FragmentStream, error) {
	p.request = req
	if p.err != nil {
		return nil, p.err
	}
	return p.stream, nil
}

type stubPrompts struct {
	prompts map[string]string
}

func (s stubPrompts) SystemPrompt(_ context.Context, id string) (string, error) {
	prompt, ok := s.prompts[id]
	if !ok {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "unknown persona", nil)
	}
	return prompt, nil
}

type stubFoods struct {
	foods []nutrition.Food
	err   error
	calls int
}

func (s *stubFoods) Retrieve(context.Context, profile.Profile) ([]nutrition.Food, error) {
	s.calls++
	return s.foods, s.err
}

// blockingStream never yields until its context is done.
type blockingStream struct {
	ctx context.Context
}

func (s blockingStream) Next() (string, error) {
	<-s.ctx.Done()
	return "", s.ctx.Err()
}

func (blockingStream) Close() error { return nil }

func testProfile() profile.Profile {
	return profile.Profile{
		Height:          187,
		Weight:          75,
		Age:             30,
		Gender:          profile.GenderMale,
		Goal:            profile.GoalMaintenance,
		ActivityLevel:   profile.ActivityModerate,
		ExperienceLevel: profile.ExperienceAdvanced,
		FocusArea:       profile.FocusStrength,
	}
}

func newTestService(provider CompletionProvider, foods FoodRetriever, cfg Config) Service {
	prompts := stubPrompts{prompts: map[string]string{"goggins": "You are David Goggins."}}
	return NewService(cfg, provider, prompts, foods, metrics.NewEstimatingCounter(), NoopPacer{}, discardLogger())
}

func drain(ch <-chan Event) []Event {
	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestGenerateWorkoutEndToEnd(t *testing.T) {
	provider := &stubProvider{stream: &sliceStream{fragments: splitEvery(workoutDoc, 4)}}
	svc := newTestService(provider, &stubFoods{}, Config{Pacing: DefaultPacing(), Temperature: 0.7, MaxTokens: 8000})

	ch, err := svc.Generate(context.Background(), GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeWorkout})
	require.NoError(t, err)
	events := drain(ch)

	doc, err := ParseDocument(workoutDoc, TypeWorkout)
	require.NoError(t, err)

	firstNonChunk := 0
	for firstNonChunk < len(events) && events[firstNonChunk].Type == EventChunk {
		firstNonChunk++
	}
	require.Equal(t, doc.IntroMessage, concatContent(events[:firstNonChunk], EventChunk))
	require.Equal(t, EventParsing, events[firstNonChunk].Type)
	require.Equal(t, doc.OutroMessage, concatContent(events, EventOutroChunk))
	require.Equal(t, DoneEvent(TypeWorkout), events[len(events)-1])
	require.Equal(t, 1, countType(events, EventDone))

	require.Equal(t, "You are David Goggins.", provider.request.SystemPrompt)
	require.Equal(t, float32(0.7), provider.request.Temperature)
	require.Equal(t, 8000, provider.request.MaxTokens)
	require.Contains(t, provider.request.Messages[0].Content, "RPE")
}

func TestGenerateNutritionEmitsTargets(t *testing.T) {
	foods := &stubFoods{foods: []nutrition.Food{{ID: "fdc_171477", FDCID: 171477, Description: "Chicken breast", Calories: 165}}}
	provider := &stubProvider{stream: &sliceStream{fragments: []string{"```json\n", mealDoc, "\n```"}}}
	svc := newTestService(provider, foods, Config{Pacing: DefaultPacing(), MaxPromptFoods: 150})

	ch, err := svc.Generate(context.Background(), GenerateRequest{Profile: testProfile(), SystemPrompt: "Custom coach", Type: TypeNutrition})
	require.NoError(t, err)
	events := drain(ch)

	targets, err := nutrition.CalculateTargets(testProfile())
	require.NoError(t, err)

	var sawChunk, sawTargets bool
	for _, ev := range events {
		switch ev.Type {
		case EventChunk:
			require.False(t, sawTargets, "chunk after targets")
			sawChunk = true
		case EventTargets:
			require.Equal(t, targets, ev.Content)
			sawTargets = true
		case EventParsing:
			require.True(t, sawTargets, "parsing before targets")
		}
	}
	require.True(t, sawChunk)
	require.Equal(t, DoneEvent(TypeNutrition), events[len(events)-1])
	require.Equal(t, "Custom coach", provider.request.SystemPrompt)
	require.Contains(t, provider.request.Messages[0].Content, "171477")
	require.Contains(t, provider.request.Messages[0].Content, "Daily Calories: 2749")
}

func TestGenerateMalformedYieldsOnlyError(t *testing.T) {
	provider := &stubProvider{stream: &sliceStream{fragments: []string{"{ invalid json"}}}
	svc := newTestService(provider, &stubFoods{}, Config{Pacing: DefaultPacing()})

	ch, err := svc.Generate(context.Background(), GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeNutrition})
	require.NoError(t, err)
	events := drain(ch)

	require.Len(t, events, 1)
	require.Equal(t, EventError, events[0].Type)
	require.NotEmpty(t, events[0].Content)
}

func TestGenerateProviderFailureAfterChunks(t *testing.T) {
	stream := &sliceStream{fragments: []string{`{"introMessage": "Let's go`}, err: errors.New("reset")}
	svc := newTestService(&stubProvider{stream: stream}, &stubFoods{}, Config{})

	ch, err := svc.Generate(context.Background(), GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeWorkout})
	require.NoError(t, err)
	events := drain(ch)

	require.Len(t, events, 2)
	require.Equal(t, ChunkEvent("Let's go"), events[0])
	require.Equal(t, EventError, events[1].Type)
	require.True(t, stream.closed)
}

func TestGenerateSynchronousErrors(t *testing.T) {
	t.Parallel()
	invalid := testProfile()
	invalid.Weight = 0

	tests := []struct {
		name     string
		provider CompletionProvider
		foods    *stubFoods
		req      GenerateRequest
		code     string
	}{
		{
			name:     "invalid plan type",
			provider: &stubProvider{},
			req:      GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: "yoga"},
			code:     apperrors.CodeInvalidInput,
		},
		{
			name:     "invalid nutrition profile",
			provider: &stubProvider{},
			req:      GenerateRequest{Profile: invalid, Persona: "goggins", Type: TypeNutrition},
			code:     apperrors.CodeInvalidInput,
		},
		{
			name: "missing provider",
			req:  GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeWorkout},
			code: apperrors.CodeConfig,
		},
		{
			name:     "provider reports missing credentials",
			provider: &stubProvider{err: ErrProviderNotConfigured},
			req:      GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeWorkout},
			code:     apperrors.CodeConfig,
		},
		{
			name:     "unknown persona",
			provider: &stubProvider{},
			req:      GenerateRequest{Profile: testProfile(), Persona: "nobody", Type: TypeWorkout},
			code:     apperrors.CodeInvalidInput,
		},
		{
			name:     "retrieval failure",
			provider: &stubProvider{},
			foods:    &stubFoods{err: &nutrition.RetrievalError{Err: errors.New("down")}},
			req:      GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeNutrition},
			code:     apperrors.CodeRetrieval,
		},
		{
			name:     "stream open failure",
			provider: &stubProvider{err: errors.New("401")},
			req:      GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeWorkout},
			code:     apperrors.CodeLLM,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			foods := tc.foods
			if foods == nil {
				foods = &stubFoods{}
			}
			svc := newTestService(tc.provider, foods, Config{})
			ch, err := svc.Generate(context.Background(), tc.req)
			require.Nil(t, ch)
			require.Error(t, err)
			require.Equal(t, tc.code, apperrors.CodeOf(err))
		})
	}
}

func TestGenerateTimeoutSendsError(t *testing.T) {
	provider := &ctxProvider{}
	svc := newTestService(provider, &stubFoods{}, Config{GenerationTimeout: 20 * time.Millisecond})

	ch, err := svc.Generate(context.Background(), GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeWorkout})
	require.NoError(t, err)
	events := drain(ch)

	require.Len(t, events, 1)
	require.Equal(t, EventError, events[0].Type)
	require.True(t, strings.Contains(events[0].Content.(string), "too long"))
}

func TestGenerateClientCancelClosesChannel(t *testing.T) {
	provider := &ctxProvider{}
	svc := newTestService(provider, &stubFoods{}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := svc.Generate(ctx, GenerateRequest{Profile: testProfile(), Persona: "goggins", Type: TypeWorkout})
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}

type ctxProvider struct{}

func (ctxProvider) Stream(ctx context.Context, _ CompletionRequest) (FragmentStream, error) {
	return blockingStream{ctx: ctx}, nil
}
