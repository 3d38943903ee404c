package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/krafton-jungle/mediagen-backend/internal/http/handlers"
	httpMW "github.com/krafton-jungle/mediagen-backend/internal/http/middleware"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	AuthHandler     *httpH.AuthHandler
	AuthMiddleware  *httpMW.AuthMiddleware
	GenerateHandler *httpH.GenerateHandler
	JobHandler      *httpH.JobHandler
	AssetHandler    *httpH.AssetHandler
	AdminHandler    *httpH.AdminHandler
	HealthHandler   *httpH.HealthHandler

	// StorageRoot, when set, is served at /storage for generated artifacts.
	StorageRoot string
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.HealthCheck)
	}
	if cfg.StorageRoot != "" {
		r.Static("/storage", cfg.StorageRoot)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/auth/signup", cfg.AuthHandler.Signup)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
			api.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// Job status is keyed by an unguessable uuid; no credentials.
		if cfg.JobHandler != nil {
			api.GET("/generate/jobs/:id", cfg.JobHandler.GetJob)
			api.GET("/generate/jobs/:id/stream", cfg.JobHandler.StreamJob)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
		}

		if cfg.GenerateHandler != nil {
			protected.POST("/generate/text-to-image", cfg.GenerateHandler.TextToImage)
			protected.POST("/generate/text-to-video", cfg.GenerateHandler.TextToVideo)
			protected.POST("/generate/image-to-video", cfg.GenerateHandler.ImageToVideo)
		}

		if cfg.AssetHandler != nil {
			protected.GET("/assets", cfg.AssetHandler.ListAssets)
			protected.GET("/assets/:id", cfg.AssetHandler.GetAsset)
			protected.DELETE("/assets/:id", cfg.AssetHandler.DeleteAsset)
		}

		if cfg.AdminHandler != nil {
			protected.GET("/admin/queue-status", cfg.AdminHandler.QueueStatus)
		}
	}

	return r
}
