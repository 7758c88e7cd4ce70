// clipwebapi/config/config_test.go
package config_test

import (
	"clipwebapi/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default values correctly", func(t *testing.T) {
		// Ensure no env vars are lingering from other tests
		t.Setenv("CLIPWEBAPI_PORT", "")
		t.Setenv("CLIPWEBAPI_STORE_DRIVER", "")
		t.Setenv("CLIPWEBAPI_MIN_DOWNLOAD_SIZE", "")
		t.Setenv("CLIPWEBAPI_JOB_TIMEOUT", "")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "3001", cfg.Port)
		assert.Equal(t, "http://localhost:5173", cfg.AllowedOrigin)
		assert.Equal(t, "yt-dlp", cfg.YtDlpBin)
		assert.Equal(t, "ffmpeg", cfg.FFBin)
		assert.Equal(t, "ffprobe", cfg.FFProbeBin)
		assert.Equal(t, int64(1024), cfg.MinDownloadSize)
		assert.Equal(t, time.Duration(0), cfg.JobTimeout)
		assert.Equal(t, time.Second, cfg.EventsPollInterval)
		assert.True(t, cfg.LogCommands)
		assert.Equal(t, "memory", cfg.StoreDriver)
		assert.Equal(t, 168*time.Hour, cfg.JobTTL)
		assert.Equal(t, "local", cfg.StorageDriver)
		assert.Equal(t, "videos", cfg.StorageBucket)
		assert.True(t, cfg.StorageUseSSL)
		assert.Equal(t, int64(200*1024*1024), cfg.ThrottleFreeMem)
	})

	t.Run("overrides defaults with environment variables", func(t *testing.T) {
		t.Setenv("CLIPWEBAPI_PORT", "9999")
		t.Setenv("CLIPWEBAPI_ALLOWED_ORIGIN", "https://clips.example.com")
		t.Setenv("CLIPWEBAPI_MIN_DOWNLOAD_SIZE", "4KB")
		t.Setenv("CLIPWEBAPI_JOB_TIMEOUT", "15m")
		t.Setenv("CLIPWEBAPI_LOG_COMMANDS", "false")
		t.Setenv("CLIPWEBAPI_STORE_DRIVER", "postgres")
		t.Setenv("CLIPWEBAPI_DATABASE_URL", "postgres://u:p@localhost:5432/clips")
		t.Setenv("CLIPWEBAPI_STORAGE_DRIVER", "s3")
		t.Setenv("CLIPWEBAPI_STORAGE_ENDPOINT", "project.supabase.co")
		t.Setenv("CLIPWEBAPI_STORAGE_ACCESS_KEY", "ak")
		t.Setenv("CLIPWEBAPI_STORAGE_SECRET_KEY", "sk")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, "https://clips.example.com", cfg.AllowedOrigin)
		assert.Equal(t, int64(4*1024), cfg.MinDownloadSize)
		assert.Equal(t, 15*time.Minute, cfg.JobTimeout)
		assert.False(t, cfg.LogCommands)
		assert.Equal(t, "postgres", cfg.StoreDriver)
		assert.Equal(t, "s3", cfg.StorageDriver)
	})

	t.Run("rejects postgres without database url", func(t *testing.T) {
		t.Setenv("CLIPWEBAPI_STORE_DRIVER", "postgres")
		t.Setenv("CLIPWEBAPI_DATABASE_URL", "")

		_, err := config.Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL is required")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			StoreDriver:        "memory",
			StorageDriver:      "local",
			LocalStorageDir:    "uploads",
			EventsPollInterval: time.Second,
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.StoreDriver = "mongo"
	assert.ErrorContains(t, c.Validate(), "STORE_DRIVER must be one of")

	c = valid()
	c.StoreDriver = "redis"
	assert.ErrorContains(t, c.Validate(), "REDIS_URL is required")

	c = valid()
	c.StorageDriver = "s3"
	assert.ErrorContains(t, c.Validate(), "STORAGE_ENDPOINT")

	c = valid()
	c.StorageDriver = "gcs"
	assert.ErrorContains(t, c.Validate(), "STORAGE_DRIVER must be one of")

	c = valid()
	c.JobTimeout = -time.Second
	assert.ErrorContains(t, c.Validate(), "JOB_TIMEOUT")
}
