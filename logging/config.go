package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/vademecum-api/config"
)

// Options configures SetupLogger
type Options struct {
	LogDir         string // empty disables file logging
	ConsoleLevel   slog.Level
	FileLevel      slog.Level
	RetentionWeeks int
	MaxFileSize    int64
}

// OptionsFromConfig derives logger options from the app configuration
func OptionsFromConfig(cfg *config.Config, verbose bool) Options {
	return Options{
		LogDir:         cfg.LogDir,
		ConsoleLevel:   GetConsoleLogLevel(cfg.Env, cfg.LogLevel, verbose),
		FileLevel:      GetFileLogLevel(),
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	}
}

// parseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. An explicit LOG_LEVEL wins,
// except under test where the console stays quiet unless verbose.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel returns the level for the JSON file handler. Files keep
// everything so incidents can be replayed.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// SetupLogger builds a console text logger and, when a log dir is set, fans
// out to a JSON rotating file too. The returned rotator is nil for console-only.
func SetupLogger(opts Options) (*slog.Logger, *RotatingLogger) {
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: opts.ConsoleLevel,
	})

	if opts.LogDir == "" {
		return slog.New(consoleHandler), nil
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}

	rotator, err := NewRotatingLogger(opts.LogDir, retention, opts.MaxFileSize)
	if err != nil {
		consoleLogger := slog.New(consoleHandler)
		consoleLogger.Error("Failed to initialize rotating logger, logging to console only", "error", err)
		return consoleLogger, nil
	}

	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level: opts.FileLevel,
	})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rotator
}

// multiHandler implements slog.Handler to write to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}
