// Package infrastructure wires the process-wide concerns that every command
// shares, currently the structured logger.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"kitacli/internal/config"
)

var (
	globalLogger     *slog.Logger
	globalLoggerOnce sync.Once
	globalLogFile    *os.File
	logFileMu        sync.Mutex
)

// InitializeLogger creates the global slog logger and installs it as the
// default. Call once during startup.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	globalLoggerOnce.Do(func() {
		globalLogger, err = createLogger(cfg)
		if globalLogger != nil {
			slog.SetDefault(globalLogger)
		}
	})
	return globalLogger, err
}

// GetLogger returns the global logger, or slog's default before initialization.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

func createLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Level),
	}

	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "file":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		globalLogFile = file
		output = file
	case "both":
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		globalLogFile = file
		output = io.MultiWriter(os.Stderr, file)
	default:
		output = os.Stderr
	}

	return slog.New(slog.NewJSONHandler(output, opts)), nil
}

func openLogFile(path string) (*os.File, error) {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// CloseLogFile flushes and closes the log file if one is open.
func CloseLogFile() error {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if globalLogFile == nil {
		return nil
	}
	err := globalLogFile.Close()
	globalLogFile = nil
	return err
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
