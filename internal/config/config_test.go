package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 256, cfg.UndoMaxLength)
	assert.Equal(t, 30*time.Second, cfg.SnapshotInterval)
	assert.True(t, cfg.SeedSample)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.AnonymousWS)
	assert.Empty(t, cfg.DevSubject)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNDO_MAX_LENGTH", "3")
	t.Setenv("SNAPSHOT_INTERVAL", "5m")
	t.Setenv("ALLOWED_ORIGINS", " a.example , ,b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 3, cfg.UndoMaxLength)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotInterval)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Origins())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}
