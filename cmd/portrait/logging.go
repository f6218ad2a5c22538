package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"portrait/internal/config"
)

const (
	logLevelEnvKey  = "PORTRAIT_LOG_LEVEL"
	logFormatEnvKey = "PORTRAIT_LOG_FORMAT"
)

// logSource names where the effective log level came from.
type logSource string

const (
	logSourceFlag    logSource = "flag"
	logSourceEnv     logSource = "env"
	logSourceConfig  logSource = "config"
	logSourceDefault logSource = "default"
)

// configureLoggerForCLI installs the default slog logger. An invalid flag is
// an error; an invalid env or config value falls back to the default level
// and returns a warning for stderr.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	envLevel := os.Getenv(logLevelEnvKey)
	rawLevel, source := selectedLogLevel(flagLevel, envLevel, configLevel)

	level, err := parseLogLevel(rawLevel)
	if err == nil {
		slog.SetDefault(newLogger(os.Stderr, level))
		return "", nil
	}

	var warning string
	switch source {
	case logSourceFlag:
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	case logSourceEnv:
		warning = fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, envLevel, config.DefaultLogLevel)
	case logSourceConfig:
		warning = fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", configLevel, config.DefaultLogLevel)
	}
	fallback, _ := parseLogLevel("")
	slog.SetDefault(newLogger(os.Stderr, fallback))
	return warning, nil
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) (string, logSource) {
	switch {
	case strings.TrimSpace(flagLevel) != "":
		return flagLevel, logSourceFlag
	case strings.TrimSpace(envLevel) != "":
		return envLevel, logSourceEnv
	case strings.TrimSpace(configLevel) != "":
		return configLevel, logSourceConfig
	}
	return "", logSourceDefault
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = config.DefaultLogLevel
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

// newLogger writes text records unless PORTRAIT_LOG_FORMAT=json.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(logFormatEnvKey)), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
