package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/ai-fitcoach/internal/domain/chat"
	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/domain/persona"
	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
)

// FoodLookup resolves stored foods by FoodData Central id.
type FoodLookup interface {
	LookupByFDCIDs(ctx context.Context, ids []int) ([]nutrition.Food, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	planSvc    plan.Service
	chatSvc    chat.Service
	personaSvc persona.Service
	foods      FoodLookup
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(planSvc plan.Service, chatSvc chat.Service, personaSvc persona.Service, foods FoodLookup, logger *slog.Logger) *Handler {
	return &Handler{
		planSvc:    planSvc,
		chatSvc:    chatSvc,
		personaSvc: personaSvc,
		foods:      foods,
		logger:     logger.With("component", "http.handler"),
	}
}

type planRequest struct {
	UserProfile  profile.Profile `json:"userProfile"`
	Persona      string          `json:"persona"`
	PlanType     plan.Type       `json:"planType"`
	SystemPrompt string          `json:"systemPrompt,omitempty"`
}

// StreamPlan streams a generated plan as Server-Sent Events.
func (h *Handler) StreamPlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	events, err := h.planSvc.Generate(c.Request.Context(), plan.GenerateRequest{
		Profile:      req.UserProfile,
		Persona:      req.Persona,
		Type:         req.PlanType,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		abortWithError(c, fromDomainError(err, "plan_failed"))
		return
	}
	h.streamEvents(c, events)
}

// StreamChat streams a persona reply as Server-Sent Events.
func (h *Handler) StreamChat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	events, err := h.chatSvc.Stream(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "chat_failed"))
		return
	}
	h.streamEvents(c, events)
}

// NutritionTargets returns daily calories and macros for a profile.
func (h *Handler) NutritionTargets(c *gin.Context) {
	var req struct {
		UserProfile profile.Profile `json:"userProfile"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := req.UserProfile.ValidateBody(); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	targets, err := nutrition.CalculateTargets(req.UserProfile)
	if err != nil {
		abortWithError(c, fromDomainError(err, "targets_failed"))
		return
	}
	c.JSON(http.StatusOK, targets)
}

const maxLookupIDs = 100

// LookupFoods returns stored foods for the requested FDC ids.
func (h *Handler) LookupFoods(c *gin.Context) {
	var req struct {
		FDCIDs []int `json:"fdcIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if len(req.FDCIDs) == 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "fdcIds cannot be empty", nil))
		return
	}
	if len(req.FDCIDs) > maxLookupIDs {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "too many fdcIds", nil))
		return
	}

	foods, err := h.foods.LookupByFDCIDs(c.Request.Context(), req.FDCIDs)
	if err != nil {
		abortWithError(c, fromDomainError(err, "food_lookup_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

// ListPersonas returns built-in and custom personas without system prompts.
func (h *Handler) ListPersonas(c *gin.Context) {
	personas, err := h.personaSvc.List(c.Request.Context())
	if err != nil {
		abortWithError(c, fromDomainError(err, "persona_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"personas": personas})
}

// CreatePersona stores a custom persona.
func (h *Handler) CreatePersona(c *gin.Context) {
	var req persona.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	created, err := h.personaSvc.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "persona_failed"))
		return
	}
	c.JSON(http.StatusCreated, created.Public())
}

// DeletePersona removes a custom persona.
func (h *Handler) DeletePersona(c *gin.Context) {
	if err := h.personaSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, fromDomainError(err, "persona_failed"))
		return
	}
	c.Status(http.StatusNoContent)
}

// RecommendTrainers ranks built-in trainers for a profile.
func (h *Handler) RecommendTrainers(c *gin.Context) {
	var req struct {
		UserProfile profile.Profile `json:"userProfile"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": h.personaSvc.Recommend(req.UserProfile)})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
