package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides file values with FORMCHECK_* environment variables.
func (c *Config) applyEnv() {
	c.Server.Host = getEnv("FORMCHECK_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("FORMCHECK_PORT", c.Server.Port)
	c.Server.StaticDir = getEnv("FORMCHECK_STATIC_DIR", c.Server.StaticDir)
	if origins := os.Getenv("FORMCHECK_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.Camera.DeviceID = getEnvInt("FORMCHECK_CAMERA_DEVICE", c.Camera.DeviceID)
	c.Camera.FPS = getEnvInt("FORMCHECK_CAMERA_FPS", c.Camera.FPS)

	c.Detector.Mock = getEnvBool("FORMCHECK_DETECTOR_MOCK", c.Detector.Mock)
	c.Detector.ScriptPath = getEnv("FORMCHECK_POSE_SCRIPT", c.Detector.ScriptPath)
	c.Detector.PythonPath = getEnv("FORMCHECK_PYTHON", c.Detector.PythonPath)

	c.Session.MaxCount = getEnvInt("FORMCHECK_MAX_COUNT", c.Session.MaxCount)
	c.Session.Cooldown = getEnvDuration("FORMCHECK_COOLDOWN", c.Session.Cooldown)
	c.Session.FrameDelay = getEnvDuration("FORMCHECK_FRAME_DELAY", c.Session.FrameDelay)

	c.CountStore.Backend = getEnv("FORMCHECK_COUNT_STORE_BACKEND", c.CountStore.Backend)
	c.CountStore.URL = getEnv("FORMCHECK_COUNT_STORE_URL", c.CountStore.URL)
	c.CountStore.Timeout = getEnvDuration("FORMCHECK_COUNT_STORE_TIMEOUT", c.CountStore.Timeout)

	c.Store.Path = getEnv("FORMCHECK_DB_PATH", c.Store.Path)

	c.Hooks.Enabled = getEnvBool("FORMCHECK_HOOKS_ENABLED", c.Hooks.Enabled)
	c.Hooks.Dir = getEnv("FORMCHECK_HOOKS_DIR", c.Hooks.Dir)

	c.Log.Level = getEnv("FORMCHECK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("FORMCHECK_LOG_FORMAT", c.Log.Format)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
