package rigid

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekko3d/rigid/arena"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format selects the decoder ParseConfig uses.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Config holds the tunables of a World. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	Gravity mgl32.Vec3 `yaml:"gravity" toml:"gravity"`

	VelocityIterations int     `yaml:"velocity_iterations" toml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations" toml:"position_iterations"`
	LinearSlop         float32 `yaml:"linear_slop" toml:"linear_slop"`
	PositionCorrection float32 `yaml:"position_correction" toml:"position_correction"`

	// Broad-phase fattening margin and the displacement prediction factor.
	AABBExtension  float32 `yaml:"aabb_extension" toml:"aabb_extension"`
	AABBMultiplier float32 `yaml:"aabb_multiplier" toml:"aabb_multiplier"`

	AllowSleep           bool    `yaml:"allow_sleep" toml:"allow_sleep"`
	SleepLinearVelocity  float32 `yaml:"sleep_linear_velocity" toml:"sleep_linear_velocity"`
	SleepAngularVelocity float32 `yaml:"sleep_angular_velocity" toml:"sleep_angular_velocity"`
	TimeToSleep          float32 `yaml:"time_to_sleep" toml:"time_to_sleep"`

	// StackSize is the scratch budget in bytes, split between the narrow
	// phase and the island solver.
	StackSize int  `yaml:"stack_size" toml:"stack_size"`
	Debug     bool `yaml:"debug" toml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Gravity:              mgl32.Vec3{0, -9.81, 0},
		VelocityIterations:   20,
		PositionIterations:   4,
		LinearSlop:           0.005,
		PositionCorrection:   1.0,
		AABBExtension:        0.1,
		AABBMultiplier:       2,
		AllowSleep:           true,
		SleepLinearVelocity:  0.05,
		SleepAngularVelocity: 0.05,
		TimeToSleep:          0.5,
		StackSize:            arena.StackSize,
	}
}

// Validate reports every out-of-range field at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
		}
	}
	check(c.VelocityIterations > 0, "velocity_iterations must be positive, got %d", c.VelocityIterations)
	check(c.PositionIterations >= 0, "position_iterations must not be negative, got %d", c.PositionIterations)
	check(c.LinearSlop >= 0, "linear_slop must not be negative, got %v", c.LinearSlop)
	check(c.PositionCorrection >= 0 && c.PositionCorrection <= 1, "position_correction must be in [0, 1], got %v", c.PositionCorrection)
	check(c.AABBExtension >= 0, "aabb_extension must not be negative, got %v", c.AABBExtension)
	check(c.AABBMultiplier >= 0, "aabb_multiplier must not be negative, got %v", c.AABBMultiplier)
	check(c.SleepLinearVelocity >= 0, "sleep_linear_velocity must not be negative, got %v", c.SleepLinearVelocity)
	check(c.SleepAngularVelocity >= 0, "sleep_angular_velocity must not be negative, got %v", c.SleepAngularVelocity)
	check(c.TimeToSleep > 0, "time_to_sleep must be positive, got %v", c.TimeToSleep)
	check(c.StackSize > 0, "stack_size must be positive, got %d", c.StackSize)
	return errors.Join(errs...)
}

// LoadConfig reads a yaml (.yaml, .yml) or toml (.toml) file on top of
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".toml":
		format = FormatTOML
	default:
		return Config{}, fmt.Errorf("failed to load config %q: %w: unknown extension", path, ErrInvalidConfig)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config %q: %w", path, err)
	}
	cfg, err := ParseConfig(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config %q: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data over DefaultConfig, so omitted fields keep their
// defaults, and validates the result. Unknown keys are rejected.
func ParseConfig(data []byte, format Format) (Config, error) {
	cfg := DefaultConfig()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse toml config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
