package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/models/tetris"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AUTOPLAY_CONFIG", "PORT", "DATABASE_URL", "JWT_SECRET", "BYPASS_AUTH", "ALLOWED_ORIGINS", "STEP_INTERVAL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Simulation.BoardWidth)
	assert.Equal(t, 20, cfg.Simulation.BoardHeight)
	assert.Equal(t, 200*time.Millisecond, cfg.Simulation.StepInterval.Duration)
	assert.Equal(t, 10, cfg.Simulation.AttackPerLine)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.BypassAuth)
}

func TestLoad_TOMLAndEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "autoplay.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[simulation]
board_width = 10
board_height = 22
step_interval = "50ms"
seed = 99
pieces = "IOT"
`), 0o600))

	t.Setenv("PORT", "9090")
	t.Setenv("BYPASS_AUTH", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Simulation.BoardWidth)
	assert.Equal(t, 22, cfg.Simulation.BoardHeight)
	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.StepInterval.Duration)
	assert.Equal(t, int64(99), cfg.Simulation.Seed)
	assert.Equal(t, "IOT", cfg.Simulation.Pieces)
	assert.Equal(t, 64, cfg.Simulation.MaxSessions, "unset keys keep their defaults")

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.BypassAuth)
	assert.Equal(t, "secret", cfg.Server.JWTSecret)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_EnvPathAndInterval(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "autoplay.toml")
	require.NoError(t, os.WriteFile(path, []byte("[simulation]\nboard_width = 8\n"), 0o600))
	t.Setenv("AUTOPLAY_CONFIG", path)
	t.Setenv("STEP_INTERVAL", "1s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Simulation.BoardWidth)
	assert.Equal(t, time.Second, cfg.Simulation.StepInterval.Duration)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[simulation]\nboard_width = 0\npieces = \"IQ\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, tetris.ErrInvalidDimensions)
	assert.ErrorIs(t, err, tetris.ErrUnknownPieceType)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	t.Setenv("STEP_INTERVAL", "soon")
	_, err = Load("")
	assert.Error(t, err)
}
