package app

import (
	"time"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/envutil"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/vertex"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	WorkerCount int
	StorageRoot string
	CORSOrigins []string

	Vertex vertex.Config
}

func LoadConfig() Config {
	return Config{
		JWTSecretKey:    envutil.Str("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:  time.Duration(envutil.Int("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL: time.Duration(envutil.Int("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,

		WorkerCount: envutil.Int("WORKER_COUNT", 5),
		StorageRoot: envutil.Str("STORAGE_PATH", "/app/storage"),

		Vertex: vertex.Config{
			Project:         envutil.Str("GOOGLE_CLOUD_PROJECT", ""),
			Region:          envutil.Str("GOOGLE_CLOUD_REGION", "us-central1"),
			CredentialsFile: envutil.Str("GOOGLE_APPLICATION_CREDENTIALS", "./service-account.json"),
			LoadTestMode:    envutil.Bool("LOAD_TEST_MODE", false),
		},
	}
}
