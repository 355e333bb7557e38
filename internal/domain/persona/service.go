package persona

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
	apperrors "github.com/yanqian/ai-fitcoach/pkg/errors"
)

const (
	maxNameLen         = 80
	maxDescriptionLen  = 500
	maxSystemPromptLen = 20000
	maxCatchphrases    = 10
)

// Service manages personas and resolves them for generation.
type Service interface {
	List(ctx context.Context) ([]Persona, error)
	Resolve(ctx context.Context, id string) (Persona, error)
	SystemPrompt(ctx context.Context, id string) (string, error)
	Create(ctx context.Context, req CreateRequest) (Persona, error)
	Delete(ctx context.Context, id string) error
	Recommend(p profile.Profile) []Recommendation
}

type service struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// NewService is a wire provider for the persona domain.
func NewService(store Store, logger *slog.Logger) Service {
	return &service{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With("component", "persona.service"),
	}
}

// List returns built-in personas followed by custom ones, without system prompts.
func (s *service) List(ctx context.Context) ([]Persona, error) {
	out := make([]Persona, 0, len(builtIn))
	for _, p := range BuiltIn() {
		out = append(out, p.Public())
	}
	custom, err := s.store.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersona, "failed to list custom personas", err)
	}
	sort.SliceStable(custom, func(i, j int) bool { return custom[i].CreatedAt.Before(custom[j].CreatedAt) })
	for _, p := range custom {
		out = append(out, p.Public())
	}
	return out, nil
}

func (s *service) Resolve(ctx context.Context, id string) (Persona, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Persona{}, apperrors.Wrap(apperrors.CodeInvalidInput, "persona is required", nil)
	}
	if IsCustomID(id) {
		p, err := s.store.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return Persona{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown persona "+id, err)
		}
		if err != nil {
			return Persona{}, apperrors.Wrap(apperrors.CodePersona, "failed to load custom persona", err)
		}
		return p, nil
	}
	p, ok := lookupBuiltIn(id)
	if !ok {
		return Persona{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown persona "+id, nil)
	}
	return p, nil
}

// SystemPrompt resolves id and returns its system prompt.
func (s *service) SystemPrompt(ctx context.Context, id string) (string, error) {
	p, err := s.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	return p.SystemPrompt, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (Persona, error) {
	p := Persona{
		ID:           CustomPrefix + uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Avatar:       strings.TrimSpace(req.Avatar),
		Image:        strings.TrimSpace(req.Image),
		Description:  strings.TrimSpace(req.Description),
		SystemPrompt: strings.TrimSpace(req.SystemPrompt),
		Custom:       true,
		CreatedAt:    s.now(),
	}
	for _, phrase := range req.Catchphrases {
		if phrase = strings.TrimSpace(phrase); phrase != "" {
			p.Catchphrases = append(p.Catchphrases, phrase)
		}
	}
	if err := validate(p); err != nil {
		return Persona{}, err
	}
	if err := s.store.Save(ctx, p); err != nil {
		return Persona{}, apperrors.Wrap(apperrors.CodePersona, "failed to save custom persona", err)
	}
	s.logger.Info("custom persona created", "persona_id", p.ID)
	return p, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if !IsCustomID(id) {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "only custom personas can be deleted", nil)
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "persona not found", err)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodePersona, "failed to delete custom persona", err)
	}
	s.logger.Info("custom persona deleted", "persona_id", id)
	return nil
}

func validate(p Persona) error {
	switch {
	case p.Name == "":
		return apperrors.Wrap(apperrors.CodeInvalidInput, "name is required", nil)
	case utf8.RuneCountInString(p.Name) > maxNameLen:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "name is too long", nil)
	case utf8.RuneCountInString(p.Description) > maxDescriptionLen:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "description is too long", nil)
	case p.SystemPrompt == "":
		return apperrors.Wrap(apperrors.CodeInvalidInput, "systemPrompt is required", nil)
	case utf8.RuneCountInString(p.SystemPrompt) > maxSystemPromptLen:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "systemPrompt is too long", nil)
	case len(p.Catchphrases) > maxCatchphrases:
		return apperrors.Wrap(apperrors.CodeInvalidInput, "too many catchphrases", nil)
	}
	return nil
}
