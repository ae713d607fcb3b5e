//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/ndelacroix/depanneur/internal/bootstrap"
	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
	"github.com/ndelacroix/depanneur/internal/infra/config"
	httpiface "github.com/ndelacroix/depanneur/internal/interface/http"
	"github.com/ndelacroix/depanneur/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideDiagnosticConfig,
		provideEmbedder,
		provideRepository,
		provideCache,
		provideManualLibrary,
		diagnostic.NewService,
		diagnostic.NewSeeder,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
