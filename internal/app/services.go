package app

import (
	"gorm.io/gorm"

	"github.com/krafton-jungle/mediagen-backend/internal/jobs"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/mediastore"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/vertex"
	"github.com/krafton-jungle/mediagen-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Generation services.GenerationService
	Job        services.JobService
	Asset      services.AssetService

	Registry *jobs.Registry
	Queue    *jobs.Queue
	Worker   *jobs.Worker
	Recovery *jobs.Recovery
	Vertex   *vertex.Client
	Store    *mediastore.Store
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	store, err := mediastore.New(cfg.StorageRoot, log)
	if err != nil {
		return Services{}, err
	}
	vertexClient, err := vertex.New(cfg.Vertex, log)
	if err != nil {
		return Services{}, err
	}

	registry := jobs.NewRegistry(log)
	queue := jobs.NewQueue()
	worker := jobs.NewWorker(log, reposet.Job, reposet.Asset, registry, queue, vertexClient, store, cfg.WorkerCount)
	recovery := jobs.NewRecovery(log, reposet.Job, registry, queue)

	return Services{
		Auth:       services.NewAuthService(db, log, reposet.User, reposet.RefreshToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Generation: services.NewGenerationService(log, reposet.Job, reposet.Asset, registry, queue, store),
		Job:        services.NewJobService(log, reposet.Job, registry),
		Asset:      services.NewAssetService(log, reposet.Asset, store),

		Registry: registry,
		Queue:    queue,
		Worker:   worker,
		Recovery: recovery,
		Vertex:   vertexClient,
		Store:    store,
	}, nil
}
