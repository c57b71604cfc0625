package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "5020", cfg.Server.Port)
	require.Equal(t, "BuildReviewer", cfg.MongoDB.Database)
	require.Equal(t, "Businesses", cfg.MongoDB.BusinessCollection)
	require.Equal(t, "Reviews", cfg.MongoDB.ReviewCollection)
	require.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, int32(0), cfg.MongoDB.PageSize)
	require.False(t, cfg.RateLimit.Enabled)
	require.Equal(t, "reviewer-videos", cfg.MinIO.Bucket)
	require.False(t, cfg.MinIO.Enabled())
	require.Equal(t, time.Hour, cfg.Videos.LinkTTL)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db.example:10255/?ssl=true")
	t.Setenv("MONGODB_DATABASE", "reviewer_test")
	t.Setenv("MONGODB_PAGE_SIZE", "50")
	t.Setenv("MONGODB_TIMEOUT", "3")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("ALLOW_INSECURE_TOKEN", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "reviewer_test", cfg.MongoDB.Database)
	require.Equal(t, int32(50), cfg.MongoDB.PageSize)
	require.Equal(t, 3*time.Second, cfg.MongoDB.Timeout)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 2.5, cfg.RateLimit.RPS)
	require.True(t, cfg.MinIO.Enabled())
	require.True(t, cfg.Keycloak.AllowInsecure)
}

func TestLoadConfigRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrMissingMongoURI)
}
