package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	c := NewConfig()

	require.Equal(t, "localhost:8000", c.ListenAddr)
	require.Equal(t, "info", c.LogLevel)
	require.Equal(t, "production", c.Environment)
	require.Equal(t, 15*time.Minute, c.AccessTokenTTL)
	require.Equal(t, 10*24*time.Hour, c.RefreshTokenTTL)
	require.Equal(t, "us-east-1", c.MediaRegion)
	require.Equal(t, int64(5<<20), c.MaxUploadSize)
	require.NotEmpty(t, c.UploadTempDir)
	require.Empty(t, c.DatabaseDSN, "no default database")
	require.Empty(t, c.AccessTokenSecret, "secrets have no defaults")
	require.Empty(t, c.RefreshTokenSecret, "secrets have no defaults")
}

func TestConfig_LoadEnv(t *testing.T) {
	t.Parallel()

	t.Run("values loaded", func(t *testing.T) {
		t.Parallel()

		env := map[string]string{
			"RUN_ADDRESS":          "0.0.0.0:9000",
			"DATABASE_URI":         "postgres://db/streamtube",
			"ACCESS_TOKEN_SECRET":  "access-secret",
			"REFRESH_TOKEN_SECRET": "refresh-secret",
			"ACCESS_TOKEN_TTL":     "30m",
			"REFRESH_TOKEN_TTL":    "72h",
			"MEDIA_BUCKET":         "media-bucket",
			"MEDIA_REGION":         "eu-west-1",
			"MEDIA_BASE_URL":       "https://cdn.example.com",
			"LOG_LEVEL":            "debug",
			"ENVIRONMENT":          "dev",
		}

		c := NewConfig()
		err := c.LoadEnv(func(key string) string { return env[key] })

		require.NoError(t, err)
		require.Equal(t, "0.0.0.0:9000", c.ListenAddr)
		require.Equal(t, "postgres://db/streamtube", c.DatabaseDSN)
		require.Equal(t, "access-secret", c.AccessTokenSecret)
		require.Equal(t, "refresh-secret", c.RefreshTokenSecret)
		require.Equal(t, 30*time.Minute, c.AccessTokenTTL)
		require.Equal(t, 72*time.Hour, c.RefreshTokenTTL)
		require.Equal(t, "media-bucket", c.MediaBucket)
		require.Equal(t, "eu-west-1", c.MediaRegion)
		require.Equal(t, "https://cdn.example.com", c.MediaBaseURL)
		require.Equal(t, "debug", c.LogLevel)
		require.Equal(t, "dev", c.Environment)
	})

	t.Run("empty values keep defaults", func(t *testing.T) {
		t.Parallel()

		c := NewConfig()
		err := c.LoadEnv(func(string) string { return "" })

		require.NoError(t, err)
		require.Equal(t, NewConfig(), c)
	})

	t.Run("broken duration fails", func(t *testing.T) {
		t.Parallel()

		env := map[string]string{"ACCESS_TOKEN_TTL": "not-a-duration"}

		c := NewConfig()
		err := c.LoadEnv(func(key string) string { return env[key] })

		require.Error(t, err)
		require.Contains(t, err.Error(), "ACCESS_TOKEN_TTL")
	})
}

func TestConfig_ParseFlags(t *testing.T) {
	t.Parallel()

	t.Run("flags parsed", func(t *testing.T) {
		t.Parallel()

		c := NewConfig()
		err := c.ParseFlags([]string{
			"-a", "0.0.0.0:9000",
			"-d", "postgres://db/streamtube",
			"--access-secret", "access-secret",
			"--refresh-secret", "refresh-secret",
			"--access-ttl", "30m",
			"--media-bucket", "media-bucket",
			"-l", "debug",
			"-e", "dev",
		})

		require.NoError(t, err)
		require.Equal(t, "0.0.0.0:9000", c.ListenAddr)
		require.Equal(t, "postgres://db/streamtube", c.DatabaseDSN)
		require.Equal(t, "access-secret", c.AccessTokenSecret)
		require.Equal(t, "refresh-secret", c.RefreshTokenSecret)
		require.Equal(t, 30*time.Minute, c.AccessTokenTTL)
		require.Equal(t, "media-bucket", c.MediaBucket)
		require.Equal(t, "debug", c.LogLevel)
		require.Equal(t, "dev", c.Environment)
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Parallel()

		env := map[string]string{"RUN_ADDRESS": "from-env:1111"}

		c := NewConfig()
		require.NoError(t, c.LoadEnv(func(key string) string { return env[key] }))
		require.NoError(t, c.ParseFlags([]string{"-a", "from-flag:2222"}))

		require.Equal(t, "from-flag:2222", c.ListenAddr)
	})

	t.Run("unknown flag fails", func(t *testing.T) {
		t.Parallel()

		c := NewConfig()
		err := c.ParseFlags([]string{"--no-such-flag"})

		require.Error(t, err)
	})
}

func TestConfig_LoadDotEnv(t *testing.T) {
	t.Parallel()

	t.Run("reads dotenv from working directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		content := "RUN_ADDRESS=from-dotenv:3333\nLOG_LEVEL=warn\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

		c := NewConfig()
		err := c.LoadDotEnv(func() (string, error) { return dir, nil })

		require.NoError(t, err)
		require.Equal(t, "from-dotenv:3333", c.ListenAddr)
		require.Equal(t, "warn", c.LogLevel)
	})

	t.Run("missing dotenv is fine", func(t *testing.T) {
		t.Parallel()

		c := NewConfig()
		err := c.LoadDotEnv(func() (string, error) { return t.TempDir(), nil })

		require.NoError(t, err)
		require.Equal(t, NewConfig(), c)
	})
}
