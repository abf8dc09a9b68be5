package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocalDriverDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Local")
	t.Setenv("STORAGE_LOCAL_ROOT", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, FileNamingTimestamp, cfg.Render.FileNaming)
	assert.False(t, cfg.Render.SanitizeHTML)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileBytes)
	assert.Empty(t, cfg.Clamd.Address)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "minio")
	t.Setenv("MINIO_ACCESS_KEY_ID", "key")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "secret")
	t.Setenv("RENDER_FILE_NAMING", "overwrite")
	t.Setenv("RENDER_SANITIZE_HTML", "true")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("API_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "portfolios", cfg.MinIO.Bucket)
	assert.Equal(t, FileNamingOverwrite, cfg.Render.FileNaming)
	assert.True(t, cfg.Render.SanitizeHTML)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
}

func TestLoadValidation(t *testing.T) {
	t.Run("minio without credentials", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "minio")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "minio access key id")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "ftp")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown naming policy", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "local")
		t.Setenv("RENDER_FILE_NAMING", "random")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file naming")
	})
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "n", User: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", d.DSN())
}
