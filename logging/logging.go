// Package logging configures the process zerolog logger and hands out
// per-component child loggers.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "NCMGR_LOG_LEVEL"
	EnvLogTimestamp = "NCMGR_LOG_TIMESTAMP"
	EnvLogNoColor   = "NCMGR_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the logger configuration
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	// Output defaults to os.Stderr
	Output io.Writer
}

var (
	mu   sync.RWMutex
	base = newLogger(DefaultConfig(ProfileRuntime))

	configureOnce sync.Once
)

// DefaultConfig returns the configuration for profile
func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, NoColor: true}
	default:
		return Config{Level: zerolog.InfoLevel, Timestamp: true}
	}
}

// ConfigureTests sets the test profile once per process.
func ConfigureTests() { configureOnce.Do(func() { Configure(DefaultConfig(ProfileTest)) }) }

// Configure replaces the process logger. Environment overrides are
// applied on top of cfg.
func Configure(cfg Config) {
	applyEnvOverrides(&cfg)
	l := newLogger(cfg)
	mu.Lock()
	base = l
	mu.Unlock()
}

func newLogger(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: out, NoColor: cfg.NoColor, TimeFormat: time.RFC3339}
	if !cfg.Timestamp {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	return zerolog.New(cw).Level(cfg.Level).With().Timestamp().Logger()
}

// For returns a child of the process logger tagged with component.
func For(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("component", component).Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// ParseLevel parses a level name. ok is false for an empty or unknown
// name.
func ParseLevel(raw string) (lvl zerolog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
