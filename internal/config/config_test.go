package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/blog")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, "images", cfg.UploadDir)
	assert.Equal(t, "access.log", cfg.AccessLogPath)
	assert.Equal(t, 2, cfg.FeedPageSize)
	assert.Equal(t, int64(102400), cfg.JSONBodyLimit)
	assert.False(t, cfg.UseMongo())
}

func TestLoadMongoWins(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/blog")
	t.Setenv("MONGO_CONNECTION_STRING", "mongodb://localhost:27017")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UseMongo())
	assert.Equal(t, ":9090", cfg.Addr())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/blog")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresStore(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_CONNECTION_STRING", "")

	_, err := Load()
	assert.Error(t, err)
}
