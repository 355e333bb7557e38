package plan

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	apperrors "github.com/yanqian/ai-fitcoach/pkg/errors"
	"github.com/yanqian/ai-fitcoach/pkg/metrics"
)

var tracer = otel.Tracer("github.com/yanqian/ai-fitcoach/internal/domain/plan")

// Service generates plans as event streams.
type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (<-chan Event, error)
}

type service struct {
	cfg      Config
	provider CompletionProvider
	prompts  PromptResolver
	foods    FoodRetriever
	counter  *metrics.TokenCounter
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewService is a wire provider for the plan domain. provider may be nil
// when no credentials are configured; Generate then fails with config_error.
func NewService(cfg Config, provider CompletionProvider, prompts PromptResolver, foods FoodRetriever, counter *metrics.TokenCounter, pacer Pacer, logger *slog.Logger) Service {
	log := logger.With("component", "plan.service")
	return &service{
		cfg:      cfg,
		provider: provider,
		prompts:  prompts,
		foods:    foods,
		counter:  counter,
		pipeline: NewPipeline(NewEmitter(cfg.Pacing, pacer), log),
		logger:   log,
	}
}

// Generate validates the request, prepares the prompt, opens the provider
// stream and returns the event channel. Errors before the stream opens are
// returned directly; later failures arrive as a terminal error event. The
// channel is closed after the terminal event or when ctx is cancelled.
func (s *service) Generate(ctx context.Context, req GenerateRequest) (<-chan Event, error) {
	if !req.Type.Valid() {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "plan type must be workout or nutrition", nil)
	}
	if req.Type == TypeNutrition {
		if err := req.Profile.ValidateBody(); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid profile", err)
		}
	}
	if s.provider == nil {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "language model provider is not configured", ErrProviderNotConfigured)
	}

	systemPrompt := strings.TrimSpace(req.SystemPrompt)
	if systemPrompt == "" {
		resolved, err := s.prompts.SystemPrompt(ctx, req.Persona)
		if err != nil {
			return nil, err
		}
		systemPrompt = resolved
	}

	var (
		userPrompt string
		targets    *nutrition.Targets
	)
	switch req.Type {
	case TypeWorkout:
		userPrompt = WorkoutPrompt(req.Profile)
	case TypeNutrition:
		t, prompt, err := s.prepareNutrition(ctx, req)
		if err != nil {
			return nil, err
		}
		targets = &t
		userPrompt = prompt
	}

	generationID := uuid.NewString()
	log := s.logger.With("generation_id", generationID, "plan_type", req.Type, "persona", req.Persona)
	usage := s.counter.PromptUsage(systemPrompt, userPrompt)
	log.Info("plan generation started", "prompt_tokens", usage.PromptTokens)

	var (
		genCtx context.Context
		cancel context.CancelFunc
	)
	if s.cfg.GenerationTimeout > 0 {
		genCtx, cancel = context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	} else {
		genCtx, cancel = context.WithCancel(ctx)
	}
	genCtx, span := tracer.Start(genCtx, "plan.generate")
	span.SetAttributes(
		attribute.String("plan.type", string(req.Type)),
		attribute.String("plan.generation_id", generationID),
		attribute.Int("plan.prompt_tokens", usage.PromptTokens),
	)

	stream, err := s.provider.Stream(genCtx, CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []Message{{Role: RoleUser, Content: userPrompt}},
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.End()
		cancel()
		if errors.Is(err, ErrProviderNotConfigured) {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "language model provider is not configured", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeLLM, "failed to open completion stream", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer span.End()
		defer cancel()
		defer stream.Close()

		// Sends use the request context so a timeout error can still be delivered.
		send := func(ev Event) error {
			select {
			case out <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		recorded := &recordingStream{FragmentStream: stream}
		runErr := s.pipeline.Run(genCtx, recorded, req.Type, targets, send)
		total := usage.Add(s.counter.CompletionUsage(recorded.text.String()))
		span.SetAttributes(attribute.Int("plan.total_tokens", total.TotalTokens))
		if runErr == nil {
			log.Info("plan generation completed",
				"prompt_tokens", total.PromptTokens,
				"completion_tokens", total.CompletionTokens,
				"total_tokens", total.TotalTokens,
			)
			return
		}
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())

		if ctx.Err() != nil {
			log.Info("plan generation cancelled by client", "error", runErr)
			return
		}

		var malformed *MalformedPlanError
		if errors.As(runErr, &malformed) {
			log.Error("plan document malformed", "error", runErr, "raw", malformed.Raw)
		} else {
			log.Error("plan generation failed", "error", runErr)
		}
		_ = send(ErrorEvent(ClientMessage(runErr)))
	}()

	return out, nil
}

func (s *service) prepareNutrition(ctx context.Context, req GenerateRequest) (nutrition.Targets, string, error) {
	targets, err := nutrition.CalculateTargets(req.Profile)
	if err != nil {
		return nutrition.Targets{}, "", err
	}

	foods, err := s.foods.Retrieve(ctx, req.Profile)
	if err != nil {
		return nutrition.Targets{}, "", apperrors.Wrap(apperrors.CodeRetrieval, "failed to retrieve foods", err)
	}

	catalog, included, err := FoodCatalog(foods, s.cfg.MaxPromptFoods, s.cfg.FoodTokenBudget, s.counter)
	if err != nil {
		return nutrition.Targets{}, "", apperrors.Wrap(apperrors.CodeRetrieval, "failed to serialize foods", err)
	}
	s.logger.Debug("nutrition prompt prepared",
		"calories", targets.Calories,
		"protein", targets.Macros.Protein,
		"carbs", targets.Macros.Carbs,
		"fat", targets.Macros.Fat,
		"foods_retrieved", len(foods),
		"foods_included", included,
	)
	return targets, NutritionPrompt(req.Profile, targets, catalog), nil
}

// recordingStream keeps a copy of every fragment for usage accounting.
type recordingStream struct {
	FragmentStream
	text strings.Builder
}

func (r *recordingStream) Next() (string, error) {
	fragment, err := r.FragmentStream.Next()
	r.text.WriteString(fragment)
	return fragment, err
}
