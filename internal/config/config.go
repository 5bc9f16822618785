// Package config loads formcheck configuration from YAML and the environment.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Count store backends.
const (
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Camera     CameraConfig     `yaml:"camera"`
	Detector   DetectorConfig   `yaml:"detector"`
	Session    SessionConfig    `yaml:"session"`
	CountStore CountStoreConfig `yaml:"count_store"`
	Store      StoreConfig      `yaml:"store"`
	Hooks      HooksConfig      `yaml:"hooks"`
	Log        LogConfig        `yaml:"log"`
	Exercises  []ExerciseConfig `yaml:"exercises"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type CameraConfig struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	FPS      int `yaml:"fps"`
}

type DetectorConfig struct {
	// Mock replaces MediaPipe with a detector that never sees a pose.
	Mock                   bool    `yaml:"mock"`
	ScriptPath             string  `yaml:"script_path"`
	PythonPath             string  `yaml:"python_path"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
}

type SessionConfig struct {
	MaxCount          int           `yaml:"max_count"`
	Cooldown          time.Duration `yaml:"cooldown"`
	FrameDelay        time.Duration `yaml:"frame_delay"`
	StoreTimeout      time.Duration `yaml:"store_timeout"`
	MaxDetectorErrors int           `yaml:"max_detector_errors"`
}

type CountStoreConfig struct {
	Backend string        `yaml:"backend"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type HooksConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 5000,
		},
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    640,
			Height:   480,
			FPS:      10,
		},
		Detector: DetectorConfig{
			MinDetectionConfidence: 0.8,
			MinTrackingConfidence:  0.8,
		},
		Session: SessionConfig{
			MaxCount:          10,
			Cooldown:          time.Second,
			FrameDelay:        100 * time.Millisecond,
			StoreTimeout:      5 * time.Second,
			MaxDetectorErrors: 30,
		},
		CountStore: CountStoreConfig{
			Backend: BackendSQLite,
			URL:     "http://127.0.0.1:3001",
			Timeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Path: DefaultDBPath(),
		},
		Hooks: HooksConfig{
			Enabled: true,
			Dir:     DefaultHooksDir(),
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path over the defaults, applies FORMCHECK_*
// environment overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be > 0")
	}
	if c.Session.MaxCount <= 0 {
		return fmt.Errorf("session.max_count must be > 0")
	}
	if c.Session.Cooldown < 0 {
		return fmt.Errorf("session.cooldown cannot be negative")
	}
	if c.Session.FrameDelay <= 0 {
		return fmt.Errorf("session.frame_delay must be > 0")
	}
	if c.Session.StoreTimeout <= 0 {
		return fmt.Errorf("session.store_timeout must be > 0")
	}
	if c.Session.MaxDetectorErrors <= 0 {
		return fmt.Errorf("session.max_detector_errors must be > 0")
	}
	for _, v := range []float64{c.Detector.MinDetectionConfidence, c.Detector.MinTrackingConfidence} {
		if v < 0 || v > 1 {
			return fmt.Errorf("detector confidences must be in [0, 1]")
		}
	}
	switch c.CountStore.Backend {
	case BackendSQLite:
	case BackendHTTP:
		if c.CountStore.URL == "" {
			return fmt.Errorf("count_store.url cannot be empty for the http backend")
		}
	default:
		return fmt.Errorf("count_store.backend must be %q or %q, got %q", BackendSQLite, BackendHTTP, c.CountStore.Backend)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path cannot be empty")
	}
	if c.Hooks.Enabled && c.Hooks.Dir == "" {
		return fmt.Errorf("hooks.dir cannot be empty when hooks are enabled")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	for i, ex := range c.Exercises {
		if _, err := ex.Exercise(); err != nil {
			return fmt.Errorf("exercises[%d]: %w", i, err)
		}
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
