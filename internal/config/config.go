package config

import (
	"fmt"
	"os"
	"strings"

	dserrors "github.com/systmms/keymixer/internal/errors"
	"github.com/systmms/keymixer/internal/logging"
)

// Environment variables recognised by FromEnv
const (
	EnvKeystorePath   = "KEYMIXER_KEYSTORE_PATH"
	EnvAppID          = "KEYMIXER_APP_ID"
	EnvLogPath        = "KEYMIXER_LOG_PATH"
	EnvDisableSync    = "KEYMIXER_DISABLE_SYNC"
	EnvDisableLogging = "KEYMIXER_DISABLE_LOGGING"
	EnvDebug          = "KEYMIXER_DEBUG"
	EnvMetricsFile    = "KEYMIXER_METRICS_FILE"
)

// Defaults
const (
	DefaultKeystorePath = "keystore.json"
	DefaultAppID        = "default"
	DefaultLogPath      = ".keymixer.log"
)

// Config holds the runtime configuration
type Config struct {
	KeystorePath string
	AppID        string
	LogPath      string
	SyncEnv      bool
	AuditLog     bool
	Debug        bool
	NoColor      bool

	// MetricsFile, when set, receives Prometheus metrics in text format
	// after each command, for the node_exporter textfile collector.
	MetricsFile string

	Logger *logging.Logger
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		KeystorePath: DefaultKeystorePath,
		AppID:        DefaultAppID,
		LogPath:      DefaultLogPath,
		SyncEnv:      true,
		AuditLog:     true,
	}
}

// LookupFunc matches os.LookupEnv
type LookupFunc func(string) (string, bool)

// FromEnv builds a Config from the process environment
func FromEnv() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, starting from Default
func FromLookup(lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvKeystorePath); ok && v != "" {
		cfg.KeystorePath = v
	}
	if v, ok := lookup(EnvAppID); ok && v != "" {
		cfg.AppID = v
	}
	if v, ok := lookup(EnvLogPath); ok && v != "" {
		cfg.LogPath = v
	}
	if v, ok := lookup(EnvMetricsFile); ok && v != "" {
		cfg.MetricsFile = v
	}

	flags := []struct {
		name   string
		target *bool
		invert bool
	}{
		{EnvDisableSync, &cfg.SyncEnv, true},
		{EnvDisableLogging, &cfg.AuditLog, true},
		{EnvDebug, &cfg.Debug, false},
	}

	for _, f := range flags {
		v, ok := lookup(f.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b, err := ParseBool(v)
		if err != nil {
			return nil, dserrors.ConfigError{
				Field:      f.name,
				Value:      v,
				Message:    err.Error(),
				Suggestion: "Use one of: true, false, 1, 0, yes, no, on, off",
			}
		}
		if f.invert {
			b = !b
		}
		*f.target = b
	}

	return cfg, nil
}

// ParseBool accepts the usual spellings of a boolean toggle
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on", "y", "t":
		return true, nil
	case "0", "false", "no", "off", "n", "f":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q", s)
}

// GetLogger returns the configured logger, creating one if needed
func (c *Config) GetLogger() *logging.Logger {
	if c.Logger == nil {
		c.Logger = logging.New(c.Debug, c.NoColor)
	}
	return c.Logger
}
