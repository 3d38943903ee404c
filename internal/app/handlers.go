package app

import (
	"github.com/krafton-jungle/mediagen-backend/internal/http/handlers"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Generate *handlers.GenerateHandler
	Job      *handlers.JobHandler
	Asset    *handlers.AssetHandler
	Admin    *handlers.AdminHandler
	Health   *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:     handlers.NewAuthHandler(serviceset.Auth),
		Generate: handlers.NewGenerateHandler(serviceset.Generation),
		Job:      handlers.NewJobHandler(log, serviceset.Job, serviceset.Registry),
		Asset:    handlers.NewAssetHandler(serviceset.Asset),
		Admin:    handlers.NewAdminHandler(reposet.Job, serviceset.Registry, serviceset.Queue, serviceset.Vertex),
		Health:   handlers.NewHealthHandler(),
	}
}
