// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for AleutianTasks components.
//
// Every component logs through the same wrapper so that output is uniform
// whether it comes from the HTTP API, the MCP server, the web UI, or the
// tasks CLI:
//
//   - Default: stderr output for CLI compatibility (follows Unix conventions)
//   - Optional: file logging with automatic directory creation
//   - Optional: an extra writer for log capture in tests and supervisors
//
// # Basic Usage
//
// For simple CLI usage with stderr output:
//
//	logger := logging.Default()
//	logger.Info("store opened", "path", storePath)
//	logger.Error("request failed", "error", err)
//
// # File Logging
//
// To enable file logging alongside stderr:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.aleutiantasks/logs",  // Supports ~ expansion
//	    Service: "todo-api",
//	})
//	defer logger.Close()  // Important: flushes and closes file
//
// This creates log files named `{service}_{date}.log` in JSON format.
//
// # Log Levels
//
// Four levels are supported, matching slog conventions:
//
//   - Debug: Development troubleshooting, verbose output
//   - Info: Normal operations (request start/end, state changes)
//   - Warn: Recoverable issues (corrupt data file reset, retry attempts)
//   - Error: Operation failures (but the component continues)
//
// # Thread Safety
//
// Logger is safe for concurrent use. Internal state is protected by a
// mutex, and the underlying slog.Logger is thread-safe.
//
// # Security Considerations
//
// This package does NOT automatically redact sensitive data. Callers must
// ensure API keys and secrets are not logged:
//
//	// BAD: logs sensitive data
//	logger.Info("auth", "api_key", key)
//
//	// GOOD: log metadata only
//	logger.Info("auth", "api_key_present", key != "")
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels.
//
// Levels follow the slog convention and are ordered by severity:
// Debug < Info < Warn < Error
//
// Setting a minimum level filters out all logs below that level.
// For example, LevelWarn filters out Debug and Info messages.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	// Example: "entering handler", "loaded 12 records"
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	// Example: "server started", "seeded initial todos"
	LevelInfo

	// LevelWarn is for potentially problematic situations.
	// Example: "data file corrupt, starting empty", "retry attempt 2 of 3"
	LevelWarn

	// LevelError is for error conditions.
	// Example: "save failed", "backend unreachable"
	LevelError
)

// String returns the human-readable name of the level.
//
// Returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel converts our Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// All fields have sensible defaults. A zero-value Config creates
// a logger that writes Info+ messages to stderr in text format.
//
// Example configurations:
//
// Minimal (CLI default):
//
//	Config{}  // Info level, stderr, text format
//
// Development:
//
//	Config{
//	    Level: LevelDebug,
//	    JSON:  false,  // Human-readable
//	}
//
// Service with file logging:
//
//	Config{
//	    Level:   LevelInfo,
//	    LogDir:  "~/.aleutiantasks/logs",
//	    Service: "todo-api",
//	    JSON:    true,
//	}
type Config struct {
	// Level sets the minimum log level.
	//
	// Messages below this level are discarded.
	// Default: LevelInfo
	Level Level

	// LogDir enables file logging to the specified directory.
	//
	// When set, logs are written to both stderr and a file.
	// The file is named "{Service}_{YYYY-MM-DD}.log" in JSON format.
	// Directory is created with 0750 permissions if it doesn't exist.
	//
	// Supports ~ for home directory expansion:
	//   "~/.aleutiantasks/logs" -> "/home/user/.aleutiantasks/logs"
	//
	// Default: "" (file logging disabled)
	LogDir string

	// Service identifies the component generating logs.
	//
	// This value is included in every log entry as the "service" attribute,
	// making it easy to filter logs by component in aggregated output.
	//
	// Recommended values: "cli", "todo-api", "todo-mcp", "todo-ui"
	// Default: "" (no service attribute)
	Service string

	// JSON enables JSON output format on stderr.
	//
	// When true, logs are formatted as JSON objects (machine-parseable).
	// When false, logs are formatted as human-readable text.
	//
	// Note: File logs are always JSON regardless of this setting,
	// as they're intended for machine processing.
	//
	// Default: false (text format for stderr)
	JSON bool

	// Quiet disables stderr output.
	//
	// When true, logs are only written to file (if LogDir is set)
	// and to ExtraWriter (if configured). With neither set, a stderr
	// fallback keeps logs from disappearing entirely.
	//
	// Useful for the MCP server, where stdout carries the protocol and
	// stderr noise can confuse some clients.
	//
	// Default: false (stderr enabled)
	Quiet bool

	// ExtraWriter adds one more JSON log destination.
	//
	// Tests use this to capture output in a bytes.Buffer, and supervisors
	// can use it to tee logs into their own pipes. The slog handler
	// serializes writes, so the writer does not need its own locking.
	//
	// Default: nil (no extra destination)
	ExtraWriter io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger provides structured logging with multi-destination output.
//
// Logger wraps slog.Logger with additional functionality:
//   - Multi-destination output (stderr + file + extra writer)
//   - Proper cleanup via Close()
//
// # Thread Safety
//
// Logger is safe for concurrent use from multiple goroutines.
//
// # Resource Management
//
// Always call Close() when done with a logger that has file logging
// configured, to ensure the file handle is flushed and closed:
//
//	logger := logging.New(config)
//	defer logger.Close()
//
// # Creating Child Loggers
//
// Use With() to create a logger with additional attributes:
//
//	reqLogger := logger.With("todo_id", id)
//	reqLogger.Info("updating todo")  // Includes todo_id
type Logger struct {
	// slog is the underlying structured logger
	slog *slog.Logger

	// config stores the configuration for reference
	config Config

	// file is the optional log file handle (nil if file logging disabled)
	file *os.File

	// mu protects mutable state (file)
	mu sync.Mutex
}

// New creates a new Logger with the given configuration.
//
// This constructor sets up all logging destinations based on config:
//   - stderr handler (unless Quiet is true)
//   - file handler (if LogDir is set)
//   - extra writer handler (if ExtraWriter is set)
//
// The returned Logger should be closed with Close() when file logging
// is enabled.
//
// Parameters:
//   - config: Logger configuration (see Config for options)
//
// Returns:
//   - *Logger: Configured logger ready for use
//
// Example:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    LogDir:  "~/.aleutiantasks/logs",
//	    Service: "todo-api",
//	})
//	defer logger.Close()
func New(config Config) *Logger {
	var handlers []slog.Handler

	// Configure log level filter
	opts := &slog.HandlerOptions{
		Level: config.Level.toSlogLevel(),
	}

	// Add stderr handler (unless quiet mode)
	if !config.Quiet {
		var stderrHandler slog.Handler
		if config.JSON {
			stderrHandler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			stderrHandler = slog.NewTextHandler(os.Stderr, opts)
		}
		handlers = append(handlers, stderrHandler)
	}

	logger := &Logger{
		config: config,
	}

	// Add file handler (if LogDir specified)
	if config.LogDir != "" {
		logDir := ExpandPath(config.LogDir)
		if err := os.MkdirAll(logDir, 0750); err == nil {
			// Filename: {service}_{date}.log
			serviceName := config.Service
			if serviceName == "" {
				serviceName = "tasks"
			}
			filename := fmt.Sprintf("%s_%s.log", serviceName, time.Now().Format("2006-01-02"))
			logPath := filepath.Join(logDir, filename)

			// Open file with append mode, create if not exists
			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
			if err == nil {
				logger.file = file
				// Always use JSON for file logs (machine-parseable)
				fileHandler := slog.NewJSONHandler(file, opts)
				handlers = append(handlers, fileHandler)
			}
		}
	}

	// Add extra writer handler (if configured)
	if config.ExtraWriter != nil {
		handlers = append(handlers, slog.NewJSONHandler(config.ExtraWriter, opts))
	}

	// Create combined handler
	var handler slog.Handler
	switch len(handlers) {
	case 0:
		// Fallback: at least write to stderr
		handler = slog.NewTextHandler(os.Stderr, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	// Add service attribute to all logs
	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", config.Service),
		})
	}

	logger.slog = slog.New(handler)
	return logger
}

// Default returns a logger with default settings.
//
// The default configuration:
//   - Level: Info
//   - Output: stderr only
//   - Format: text (human-readable)
//   - Service: "tasks"
//
// This is suitable for simple CLI usage that doesn't need file logging.
//
// Returns:
//   - *Logger: Default-configured logger
func Default() *Logger {
	return New(Config{
		Level:   LevelInfo,
		Service: "tasks",
	})
}

// Debug logs a message at Debug level.
//
// Parameters:
//   - msg: The log message
//   - args: Key-value pairs of attributes (e.g., "todo_id", id)
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs a message at Info level.
//
// Example:
//
//	logger.Info("request completed",
//	    "path", c.Request.URL.Path,
//	    "duration_ms", elapsed.Milliseconds(),
//	)
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a message at Warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs a message at Error level.
//
// Error messages indicate operation failures. The component continues
// but the specific operation did not succeed. For fatal errors that
// should terminate the program, use Error() followed by os.Exit().
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a new Logger with additional attributes.
//
// The returned logger includes all attributes from the parent plus the
// new ones. The parent logger is not modified.
//
// Example:
//
//	reqLogger := logger.With("todo_id", id)
//	reqLogger.Info("processing")  // Includes todo_id
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
		file:   l.file, // Share file handle
	}
}

// Slog returns the underlying slog.Logger.
//
// This provides direct access to slog features not exposed by this
// wrapper, such as LogAttrs or handing the logger to libraries that
// accept *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close flushes and closes the logger's file destination.
//
// Loggers without file logging can skip Close, but calling it is
// always safe.
//
// Returns:
//   - error: First error encountered during cleanup
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	var errs []error
	if err := l.file.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("sync log file: %w", err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	l.file = nil

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// =============================================================================
// Multi-Handler (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
//
// This enables simultaneous output to stderr and file with
// potentially different formats (text vs JSON).
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithAttrs returns a new handler with additional attributes.
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

// WithGroup returns a new handler with a group name.
func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// =============================================================================
// Helper Functions
// =============================================================================

// ExpandPath expands a leading ~ to the user's home directory.
//
// Examples:
//   - "~/.aleutiantasks/logs" -> "/home/user/.aleutiantasks/logs"
//   - "/var/log" -> "/var/log" (unchanged)
//   - "relative/path" -> "relative/path" (unchanged)
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
