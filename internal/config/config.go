// Package config loads viewer and CLI settings from defaults, an optional
// terra.{yaml,json,toml} file, TERRA_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mr-Dark-debug/terra/internal/panel"
	"github.com/Mr-Dark-debug/terra/internal/scene"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DBConfig holds journal database settings.
type DBConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// JournalConfig holds motion journal settings.
type JournalConfig struct {
	Enabled       bool          `json:"enabled" mapstructure:"enabled"`
	BatchSize     int           `json:"batchSize" mapstructure:"batchSize"`
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
}

// RenderConfig holds terminal rendering settings.
type RenderConfig struct {
	FPS        int     `json:"fps" mapstructure:"fps"`
	CellAspect float64 `json:"cellAspect" mapstructure:"cellAspect"`
}

// SceneConfig holds scene construction settings.
type SceneConfig struct {
	Stars     int     `json:"stars" mapstructure:"stars"`
	Seed      int64   `json:"seed" mapstructure:"seed"`
	EarthSpin float64 `json:"earthSpin" mapstructure:"earthSpin"`
	CloudSpin float64 `json:"cloudSpin" mapstructure:"cloudSpin"`
}

// TexturesConfig holds texture file paths. Empty paths use built-in maps.
type TexturesConfig struct {
	Day        string `json:"day" mapstructure:"day"`
	Night      string `json:"night" mapstructure:"night"`
	Clouds     string `json:"clouds" mapstructure:"clouds"`
	Background string `json:"background" mapstructure:"background"`
}

// LightingConfig holds lighting settings.
type LightingConfig struct {
	Sun string `json:"sun" mapstructure:"sun"`
}

// MotionConfig holds camera motion settings.
type MotionConfig struct {
	ToggleDuration time.Duration `json:"toggleDuration" mapstructure:"toggleDuration"`
	CurveDuration  time.Duration `json:"curveDuration" mapstructure:"curveDuration"`
	CurveLift      float64       `json:"curveLift" mapstructure:"curveLift"`
	AuxYawStep     float64       `json:"auxYawStep" mapstructure:"auxYawStep"`
}

// UIConfig holds panel settings.
type UIConfig struct {
	FadeDuration time.Duration `json:"fadeDuration" mapstructure:"fadeDuration"`
}

// Config is the full settings tree.
type Config struct {
	LogLevel string         `json:"logLevel" mapstructure:"logLevel"`
	LogsDir  string         `json:"logsDir" mapstructure:"logsDir"`
	DB       DBConfig       `json:"db" mapstructure:"db"`
	Journal  JournalConfig  `json:"journal" mapstructure:"journal"`
	Render   RenderConfig   `json:"render" mapstructure:"render"`
	Scene    SceneConfig    `json:"scene" mapstructure:"scene"`
	Textures TexturesConfig `json:"textures" mapstructure:"textures"`
	Lighting LightingConfig `json:"lighting" mapstructure:"lighting"`
	Motion   MotionConfig   `json:"motion" mapstructure:"motion"`
	UI       UIConfig       `json:"ui" mapstructure:"ui"`
}

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// HomeDir returns ~/.terra, or .terra when the home directory is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".terra"
	}
	return filepath.Join(home, ".terra")
}

func setDefaults() {
	dir := HomeDir()

	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", filepath.Join(dir, "logs"))

	viper.SetDefault("db.path", filepath.Join(dir, "terra.db"))

	viper.SetDefault("journal.enabled", true)
	viper.SetDefault("journal.batchSize", 64)
	viper.SetDefault("journal.flushInterval", "2s")

	viper.SetDefault("render.fps", 30)
	viper.SetDefault("render.cellAspect", 0.5)

	viper.SetDefault("scene.stars", 5000)
	viper.SetDefault("scene.seed", 1)
	viper.SetDefault("scene.earthSpin", 0.0005)
	viper.SetDefault("scene.cloudSpin", 0.0006)

	viper.SetDefault("textures.day", "")
	viper.SetDefault("textures.night", "")
	viper.SetDefault("textures.clouds", "")
	viper.SetDefault("textures.background", "")

	viper.SetDefault("lighting.sun", string(scene.SunFixed))

	viper.SetDefault("motion.toggleDuration", "1500ms")
	viper.SetDefault("motion.curveDuration", "1200ms")
	viper.SetDefault("motion.curveLift", 1.2)
	viper.SetDefault("motion.auxYawStep", 0.005)

	viper.SetDefault("ui.fadeDuration", "400ms")
}

// Flags returns the flag set shared by the terra binaries.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to a config file")
	fs.String("log-level", "", "Log level: trace, debug, info, warn, error")
	fs.String("logs-dir", "", "Directory for log files")
	fs.String("db", "", "Path to the journal SQLite database")
	fs.Int("fps", 0, "Frames per second")
	fs.Int("stars", -1, "Number of stars")
	fs.String("sun", "", "Sun mode: fixed or realtime")
	fs.Bool("no-journal", false, "Do not record motions")
	return fs
}

var flagKeys = map[string]string{
	"log-level": "logLevel",
	"logs-dir":  "logsDir",
	"db":        "db.path",
	"fps":       "render.fps",
	"stars":     "scene.stars",
	"sun":       "lighting.sun",
}

// Load reads configuration. configFile may be empty, in which case
// terra.{yaml,json,toml} is looked up in ~/.terra and the working
// directory and a missing file is not an error. Only flags that were set
// on fs override the file and environment.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("TERRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := viper.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flag, err)
				}
			}
		}
		if f := fs.Lookup("no-journal"); f != nil && f.Changed && f.Value.String() == "true" {
			viper.Set("journal.enabled", false)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		viper.SetConfigName("terra")
		viper.AddConfigPath(HomeDir())
		viper.AddConfigPath(".")
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Render.FPS <= 0 || c.Render.FPS > 120:
		return fmt.Errorf("%w: render.fps %d out of [1, 120]", ErrInvalid, c.Render.FPS)
	case c.Render.CellAspect <= 0:
		return fmt.Errorf("%w: render.cellAspect must be positive", ErrInvalid)
	case c.Journal.BatchSize <= 0:
		return fmt.Errorf("%w: journal.batchSize must be positive", ErrInvalid)
	case c.Journal.FlushInterval <= 0:
		return fmt.Errorf("%w: journal.flushInterval must be positive", ErrInvalid)
	case c.Scene.Stars < 0:
		return fmt.Errorf("%w: scene.stars must not be negative", ErrInvalid)
	case c.UI.FadeDuration < 0:
		return fmt.Errorf("%w: ui.fadeDuration must not be negative", ErrInvalid)
	}
	switch scene.SunMode(c.Lighting.Sun) {
	case scene.SunFixed, scene.SunRealtime:
	default:
		return fmt.Errorf("%w: lighting.sun %q", ErrInvalid, c.Lighting.Sun)
	}
	return nil
}

// FrameInterval is the time between frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Render.FPS)
}

// SceneOptions converts the settings into scene options.
func (c *Config) SceneOptions() scene.Options {
	opts := scene.DefaultOptions()
	opts.Stars = c.Scene.Stars
	opts.Seed = c.Scene.Seed
	opts.EarthSpin = c.Scene.EarthSpin
	opts.CloudSpin = c.Scene.CloudSpin
	opts.DayTexture = c.Textures.Day
	opts.NightTexture = c.Textures.Night
	opts.CloudTexture = c.Textures.Clouds
	opts.BackgroundTexture = c.Textures.Background
	opts.Sun = scene.SunMode(c.Lighting.Sun)
	return opts
}

// PanelConfig converts the settings into panel controller settings. The
// Earth rotator is left for the caller to fill in.
func (c *Config) PanelConfig() panel.Config {
	return panel.Config{
		Front:          scene.FixedPose,
		Orbit:          scene.OrbitPose,
		Learn:          scene.LearnPose,
		ToggleDuration: c.Motion.ToggleDuration,
		CurveDuration:  c.Motion.CurveDuration,
	}
}
