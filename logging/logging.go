// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "LEDTICKER_LOG_LEVEL"
	EnvLogTimestamp = "LEDTICKER_LOG_TIMESTAMP"
	EnvLogNoColor   = "LEDTICKER_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config controls the console output.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	Out       io.Writer
}

var configureOnce sync.Once

func DefaultConfig(profile Profile) Config {
	cfg := Config{Out: os.Stderr}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

// InitLogger builds the runtime logger for app and installs it as log.Logger.
// level comes from the config file and may be empty; environment variables
// win over it.
func InitLogger(app, level string) zerolog.Logger {
	cfg := DefaultConfig(ProfileRuntime)
	if lvl, ok := ParseLevel(level); ok {
		cfg.Level = lvl
	}
	applyEnvOverrides(&cfg, os.Getenv)

	logger := New(app, cfg)
	log.Logger = logger
	return logger
}

// ConfigureTests installs a debug logger without timestamps, once per
// process.
func ConfigureTests() {
	configureOnce.Do(func() {
		cfg := DefaultConfig(ProfileTest)
		applyEnvOverrides(&cfg, os.Getenv)
		log.Logger = New("test", cfg)
	})
}

// New builds a console logger tagged with app.
func New(app string, cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}

	ctx := zerolog.New(output).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Str("app", app).Logger()
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if lvl, ok := ParseLevel(getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// ParseLevel maps a level name to a zerolog level. ok is false for empty or
// unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
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
	case "disabled", "disable", "off", "none":
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
