package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
	apperrors "github.com/yanqian/ai-fitcoach/pkg/errors"
	"github.com/yanqian/ai-fitcoach/pkg/metrics"
)

// Config tunes persona chat.
type Config struct {
	Temperature float32
	MaxTokens   int
	MaxMessages int
	// Timeout bounds one reply. Zero disables it.
	Timeout time.Duration
}

// Request is a chat turn with the conversation so far.
type Request struct {
	Messages     []plan.Message   `json:"messages"`
	Persona      string           `json:"persona"`
	UserProfile  *profile.Profile `json:"userProfile,omitempty"`
	SystemPrompt string           `json:"systemPrompt,omitempty"`
}

// Service streams persona replies.
type Service interface {
	Stream(ctx context.Context, req Request) (<-chan plan.Event, error)
}

type service struct {
	cfg      Config
	provider plan.CompletionProvider
	prompts  plan.PromptResolver
	counter  *metrics.TokenCounter
	logger   *slog.Logger
}

// NewService is a wire provider for the chat domain.
func NewService(cfg Config, provider plan.CompletionProvider, prompts plan.PromptResolver, counter *metrics.TokenCounter, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		provider: provider,
		prompts:  prompts,
		counter:  counter,
		logger:   logger.With("component", "chat.service"),
	}
}

func (s *service) Stream(ctx context.Context, req Request) (<-chan plan.Event, error) {
	messages, err := s.normalize(req.Messages)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return nil, apperrors.Wrap(apperrors.CodeConfig, "language model provider is not configured", plan.ErrProviderNotConfigured)
	}

	systemPrompt := strings.TrimSpace(req.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt, err = s.prompts.SystemPrompt(ctx, req.Persona)
		if err != nil {
			return nil, err
		}
	}
	if req.UserProfile != nil {
		systemPrompt += ProfileContext(*req.UserProfile)
	}

	parts := []string{systemPrompt}
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	promptUsage := s.counter.PromptUsage(parts...)
	s.logger.Debug("chat started", "persona", req.Persona, "messages", len(messages), "prompt_tokens", promptUsage.PromptTokens)

	var (
		genCtx context.Context
		cancel context.CancelFunc
	)
	if s.cfg.Timeout > 0 {
		genCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
	} else {
		genCtx, cancel = context.WithCancel(ctx)
	}

	stream, err := s.provider.Stream(genCtx, plan.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     messages,
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
	})
	if err != nil {
		cancel()
		if errors.Is(err, plan.ErrProviderNotConfigured) {
			return nil, apperrors.Wrap(apperrors.CodeConfig, "language model provider is not configured", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeLLM, "failed to open completion stream", err)
	}

	out := make(chan plan.Event)
	go func() {
		defer close(out)
		defer cancel()
		defer stream.Close()

		// Sends use the request context so a timeout error can still be delivered.
		send := func(ev plan.Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var reply strings.Builder
		for {
			fragment, recvErr := stream.Next()
			if errors.Is(recvErr, io.EOF) {
				if usage := promptUsage.Add(s.counter.CompletionUsage(reply.String())); !usage.IsZero() {
					s.logger.Info("chat completed", "persona", req.Persona, "prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens)
				}
				send(plan.Event{Type: plan.EventDone})
				return
			}
			if recvErr != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(recvErr, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
					s.logger.Warn("chat reply timed out", "persona", req.Persona, "timeout", s.cfg.Timeout)
					send(plan.ErrorEvent("The coach took too long to respond. Please try again."))
					return
				}
				s.logger.Error("chat stream failed", "error", recvErr)
				send(plan.ErrorEvent("The coach stopped responding. Please try again."))
				return
			}
			if fragment == "" {
				continue
			}
			reply.WriteString(fragment)
			if !send(plan.ChunkEvent(fragment)) {
				return
			}
		}
	}()
	return out, nil
}

// normalize drops empty turns and keeps the most recent MaxMessages. The
// conversation must end with a user turn.
func (s *service) normalize(in []plan.Message) ([]plan.Message, error) {
	out := make([]plan.Message, 0, len(in))
	for _, m := range in {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := plan.RoleAssistant
		if m.Role == plan.RoleUser {
			role = plan.RoleUser
		}
		out = append(out, plan.Message{Role: role, Content: content})
	}
	if len(out) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "messages cannot be empty", nil)
	}
	if out[len(out)-1].Role != plan.RoleUser {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "last message must come from the user", nil)
	}
	if s.cfg.MaxMessages > 0 && len(out) > s.cfg.MaxMessages {
		out = out[len(out)-s.cfg.MaxMessages:]
	}
	return out, nil
}

// ProfileContext renders the profile block appended to the system prompt.
func ProfileContext(p profile.Profile) string {
	var b strings.Builder
	b.WriteString("\n\nUser Profile:\n")
	fmt.Fprintf(&b, "- Height: %gcm\n", p.Height)
	fmt.Fprintf(&b, "- Weight: %gkg\n", p.Weight)
	fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Goal: %s\n", p.Goal)
	fmt.Fprintf(&b, "- Activity Level: %s\n", p.ActivityLevel)
	fmt.Fprintf(&b, "- Experience Level: %s\n", p.ExperienceLevel)
	focus := p.FocusArea
	if focus == "" {
		focus = profile.FocusGeneral
	}
	fmt.Fprintf(&b, "- Training Focus: %s\n", focus)
	for _, list := range []struct {
		label  string
		values []string
	}{
		{"Dietary Restrictions", p.DietaryRestrictions},
		{"Health Issues", p.HealthIssues},
		{"Target Muscles", p.TargetMuscles},
	} {
		if len(list.values) > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", list.label, strings.Join(list.values, ", "))
		}
	}
	b.WriteString("\nUse this information to personalize your advice and recommendations.")
	if p.IsAdvancedStrength() {
		b.WriteString("\nNote: This user is advanced and strength-focused. Use technical terminology when it helps and mention RPE when discussing training intensity.")
	}
	return b.String()
}
