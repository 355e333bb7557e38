package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yanqian/ai-fitcoach/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger := handler.logger

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", handler.Health)

	limited := rateLimitMiddleware(cfg.HTTP.RateLimit, logger)
	api := router.Group("/api/v1")
	{
		api.POST("/plans/stream", limited, handler.StreamPlan)
		api.POST("/chat/stream", limited, handler.StreamChat)

		api.POST("/nutrition/targets", handler.NutritionTargets)
		api.POST("/nutrition/foods", handler.LookupFoods)

		api.GET("/personas", handler.ListPersonas)
		api.POST("/personas", handler.CreatePersona)
		api.DELETE("/personas/:id", handler.DeletePersona)
		api.POST("/personas/recommendations", handler.RecommendTrainers)
	}

	var root http.Handler = withRetry(router, cfg.HTTP.Retry, logger)
	if cfg.HTTP.Tracing.Enabled {
		root = otelhttp.NewHandler(root, "fitcoach",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        root,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

