package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the tests touch; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CMS_APP_ENV", "CMS_APP_PORT", "CMS_DATABASE_DRIVER", "CMS_DATABASE_HOST",
		"CMS_DATABASE_PASSWORD", "CMS_DATABASE_MAX_OPEN_CONNS", "CMS_DATABASE_MAX_IDLE_CONNS",
		"CMS_JWT_SECRET", "CMS_STORAGE_BACKEND", "CMS_STORAGE_BUCKET", "CMS_COUNTS_CACHE",
		"CMS_COUNTS_CACHE_TTL", "CMS_MEDIA_ROOT", "CMS_MEDIA_MAX_VIDEO_MB", "CMS_MEDIA_JPEG_QUALITY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "catalog-admin", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "catalog", cfg.Database.DBName)
		assert.Equal(t, "local", cfg.Storage.Backend)
		assert.Equal(t, "memory", cfg.Counts.Cache)
		assert.Equal(t, 30*time.Second, cfg.Counts.CacheTTL)
		assert.Equal(t, 400, cfg.Media.ThumbWidth)
		assert.Equal(t, int64(50), cfg.Media.MaxImageMB)
		assert.Equal(t, int64(300), cfg.Media.MaxVideoMB)
		assert.Equal(t, "token", cfg.JWT.CookieName)
	})

	t.Run("loads values from environment variables with CMS prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CMS_APP_PORT", "9000")
		t.Setenv("CMS_DATABASE_DRIVER", "sqlite")
		t.Setenv("CMS_COUNTS_CACHE", "redis")
		t.Setenv("CMS_COUNTS_CACHE_TTL", "5s")
		t.Setenv("CMS_MEDIA_ROOT", "/srv/media")
		t.Setenv("CMS_MEDIA_MAX_VIDEO_MB", "500")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "redis", cfg.Counts.Cache)
		assert.Equal(t, 5*time.Second, cfg.Counts.CacheTTL)
		assert.Equal(t, "/srv/media", cfg.Media.Root)

		_, video, _, _ := cfg.Media.LimitsBytes()
		assert.Equal(t, int64(500<<20), video)
	})

	t.Run("rejects unknown backends", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CMS_STORAGE_BACKEND", "ftp")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.backend")

		clearEnv(t)
		t.Setenv("CMS_COUNTS_CACHE", "memcached")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "counts.cache")

		clearEnv(t)
		t.Setenv("CMS_DATABASE_DRIVER", "mysql")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("s3 backend requires a bucket", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CMS_STORAGE_BACKEND", "s3")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")

		t.Setenv("CMS_STORAGE_BUCKET", "media")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "media", cfg.Storage.Bucket)
	})

	t.Run("validates connection pool settings", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CMS_DATABASE_MAX_OPEN_CONNS", "5")
		t.Setenv("CMS_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates jpeg quality", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CMS_MEDIA_JPEG_QUALITY", "101")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jpeg_quality")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CMS_APP_ENV", "production")
		t.Setenv("CMS_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("CMS_DATABASE_PASSWORD", "secure-password")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CMS_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CMS_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("refuses sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CMS_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be sqlite in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "cache.local:6380", RedisConfig{Host: "cache.local", Port: 6380}.Addr())
}
