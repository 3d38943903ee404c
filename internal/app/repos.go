package app

import (
	"gorm.io/gorm"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
)

type Repos struct {
	User         repos.UserRepo
	RefreshToken repos.RefreshTokenRepo
	Job          repos.JobRepo
	Asset        repos.AssetRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		RefreshToken: repos.NewRefreshTokenRepo(db, log),
		Job:          repos.NewJobRepo(db, log),
		Asset:        repos.NewAssetRepo(db, log),
	}
}
