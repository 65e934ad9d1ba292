package logging

import (
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger  *slog.Logger
	rotator *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger at info level. An empty logDir
// logs to the console only.
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{LogDir: logDir, ConsoleLevel: slog.LevelInfo})
}

// InitLoggerWithOptions initializes the global logger with explicit options
func InitLoggerWithOptions(opts Options) {
	if DefaultLoggingService != nil {
		DefaultLoggingService.Close()
	}

	logger, rotator := SetupLogger(opts)
	DefaultLoggingService = &LoggingService{
		Logger:  logger,
		rotator: rotator,
	}
	slog.SetDefault(logger)
}

// Close stops the cleanup goroutine and closes the current log file
func (s *LoggingService) Close() {
	if s == nil || s.rotator == nil {
		return
	}
	if err := s.rotator.Close(); err != nil {
		slog.Warn("Failed to close rotating logger", "error", err)
	}
	s.rotator = nil
}

// Logger returns the configured logger or a console fallback
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
