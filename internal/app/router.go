package app

import (
	httpserver "github.com/krafton-jungle/mediagen-backend/internal/http"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlerset Handlers, middlewareset Middleware) *httpserver.Server {
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:             log,
		AuthHandler:     handlerset.Auth,
		AuthMiddleware:  middlewareset.Auth,
		GenerateHandler: handlerset.Generate,
		JobHandler:      handlerset.Job,
		AssetHandler:    handlerset.Asset,
		AdminHandler:    handlerset.Admin,
		HealthHandler:   handlerset.Health,
		StorageRoot:     cfg.StorageRoot,
		CORSOrigins:     cfg.CORSOrigins,
	})
}
