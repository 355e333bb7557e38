//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/ai-fitcoach/internal/bootstrap"
	"github.com/yanqian/ai-fitcoach/internal/domain/chat"
	"github.com/yanqian/ai-fitcoach/internal/domain/nutrition"
	"github.com/yanqian/ai-fitcoach/internal/domain/persona"
	"github.com/yanqian/ai-fitcoach/internal/domain/plan"
	"github.com/yanqian/ai-fitcoach/internal/infra/config"
	"github.com/yanqian/ai-fitcoach/internal/infra/foodstore"
	httpiface "github.com/yanqian/ai-fitcoach/internal/interface/http"
	"github.com/yanqian/ai-fitcoach/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		providePlanConfig,
		provideChatConfig,
		providePacer,
		provideTokenCounter,
		provideCompletionProvider,
		provideEmbedder,
		provideFoodIndex,
		provideFoodSearcher,
		provideNutritionGateway,
		providePersonaStore,
		providePromptResolver,
		provideTracer,
		persona.NewService,
		plan.NewService,
		chat.NewService,
		wire.Bind(new(nutrition.Searcher), new(*foodstore.Searcher)),
		wire.Bind(new(nutrition.Catalog), new(*foodstore.Searcher)),
		wire.Bind(new(plan.FoodRetriever), new(*nutrition.Gateway)),
		wire.Bind(new(httpiface.FoodLookup), new(*nutrition.Gateway)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
