package rigid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, mgl32.Vec3{0, -9.81, 0}, cfg.Gravity)
	assert.Equal(t, 20, cfg.VelocityIterations)
	assert.Equal(t, 4, cfg.PositionIterations)
	assert.Equal(t, float32(0.005), cfg.LinearSlop)
	assert.Equal(t, 10<<20, cfg.StackSize)
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelocityIterations = 0
	cfg.TimeToSleep = -1
	cfg.PositionCorrection = 2

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "velocity_iterations")
	assert.Contains(t, err.Error(), "time_to_sleep")
	assert.Contains(t, err.Error(), "position_correction")
}

func TestParseConfigYAML(t *testing.T) {
	data := []byte(`
gravity: [0, -3.5, 0]
velocity_iterations: 8
allow_sleep: false
`)
	cfg, err := ParseConfig(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0, -3.5, 0}, cfg.Gravity)
	assert.Equal(t, 8, cfg.VelocityIterations)
	assert.False(t, cfg.AllowSleep)
	// Omitted keys keep their defaults.
	assert.Equal(t, 4, cfg.PositionIterations)
	assert.Equal(t, float32(0.1), cfg.AABBExtension)
}

func TestParseConfigTOML(t *testing.T) {
	data := []byte(`
gravity = [0.0, -1.5, 0.0]
position_iterations = 6
linear_slop = 0.01
`)
	cfg, err := ParseConfig(data, FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{0, -1.5, 0}, cfg.Gravity)
	assert.Equal(t, 6, cfg.PositionIterations)
	assert.InDelta(t, 0.01, cfg.LinearSlop, 1e-6)
	assert.Equal(t, 20, cfg.VelocityIterations)
}

func TestParseConfigRejects(t *testing.T) {
	_, err := ParseConfig([]byte("velocity_iterations: -1\n"), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseConfig([]byte("no_such_key: 1\n"), FormatYAML)
	assert.Error(t, err)

	_, err = ParseConfig([]byte("no_such_key = 1\n"), FormatTOML)
	assert.Error(t, err)

	_, err = ParseConfig([]byte("{}"), Format("json"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseConfigEmptyYAML(t *testing.T) {
	cfg, err := ParseConfig(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "world.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("time_to_sleep: 2\n"), 0o644))
	cfg, err := LoadConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, float32(2), cfg.TimeToSleep)

	tomlPath := filepath.Join(dir, "world.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("debug = true\n"), 0o644))
	cfg, err = LoadConfig(tomlPath)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)

	_, err = LoadConfig(filepath.Join(dir, "world.ini"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
