// Package logging builds the zerolog loggers used by the server, the alarm
// sweep and the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvKey overrides the configured log level.
const EnvKey = "SCHEDR_LOG_LEVEL"

const (
	DefaultLevel      = zerolog.InfoLevel
	consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"
)

// Format selects how log lines are rendered.
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
)

// ParseLevel accepts zerolog level names, "warning", and numeric levels.
// An empty value yields DefaultLevel.
func ParseLevel(raw string) (zerolog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return DefaultLevel, nil
	}
	if value == "warning" {
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		if numeric < int(zerolog.TraceLevel) || numeric > int(zerolog.Disabled) {
			return DefaultLevel, fmt.Errorf("invalid log level %q", raw)
		}
		return zerolog.Level(numeric), nil
	}

	switch value {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return DefaultLevel, fmt.Errorf("invalid log level %q", raw)
	}
	level, err := zerolog.ParseLevel(value)
	if err != nil {
		return DefaultLevel, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// SelectLevel picks the raw level by precedence flag > env > config and
// reports which source won.
func SelectLevel(flagLevel, envLevel, configLevel string) (string, string) {
	if strings.TrimSpace(flagLevel) != "" {
		return flagLevel, "flag"
	}
	if strings.TrimSpace(envLevel) != "" {
		return envLevel, "env"
	}
	if strings.TrimSpace(configLevel) != "" {
		return configLevel, "config"
	}
	return "", "default"
}

// New returns a timestamped logger writing to out.
func New(out io.Writer, level zerolog.Level, format Format) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat, NoColor: true}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Configure resolves the effective level and builds a logger. An invalid
// flag value is an error; an invalid env or config value falls back to
// DefaultLevel and returns a warning for the caller to print.
func Configure(out io.Writer, format Format, flagLevel, configLevel string) (zerolog.Logger, string, error) {
	envLevel := os.Getenv(EnvKey)
	raw, source := SelectLevel(flagLevel, envLevel, configLevel)

	level, err := ParseLevel(raw)
	if err == nil {
		return New(out, level, format), "", nil
	}

	var warning string
	switch source {
	case "flag":
		return zerolog.Nop(), "", fmt.Errorf("invalid --log-level %q", flagLevel)
	case "env":
		warning = fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", EnvKey, envLevel, DefaultLevel)
	case "config":
		warning = fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", configLevel, DefaultLevel)
	}
	return New(out, DefaultLevel, format), warning, nil
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorFieldName = "err"
}
