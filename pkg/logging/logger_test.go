// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

// =============================================================================
// Output Tests
// =============================================================================

// captureLogger builds a logger whose only inspectable destination is buf.
// Quiet suppresses stderr so tests stay silent.
func captureLogger(buf *bytes.Buffer, level Level, service string) *Logger {
	return New(Config{
		Level:       level,
		Service:     service,
		Quiet:       true,
		ExtraWriter: buf,
	})
}

// decodeLines parses each newline-delimited JSON log entry in buf.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_WritesJSONWithServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, LevelInfo, "todo-api")

	logger.Info("store opened", "path", "/tmp/todos.json")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0]["msg"] != "store opened" {
		t.Errorf("msg = %v, want %q", entries[0]["msg"], "store opened")
	}
	if entries[0]["service"] != "todo-api" {
		t.Errorf("service = %v, want %q", entries[0]["service"], "todo-api")
	}
	if entries[0]["path"] != "/tmp/todos.json" {
		t.Errorf("path = %v, want %q", entries[0]["path"], "/tmp/todos.json")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, LevelWarn, "")

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept warn")
	logger.Error("kept error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after filtering, got %d", len(entries))
	}
	if entries[0]["level"] != "WARN" || entries[1]["level"] != "ERROR" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestLogger_WithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, LevelInfo, "cli")

	child := logger.With("todo_id", "abc-123")
	child.Info("updating todo")
	logger.Info("parent unchanged")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["todo_id"] != "abc-123" {
		t.Errorf("child entry missing todo_id: %v", entries[0])
	}
	if _, ok := entries[1]["todo_id"]; ok {
		t.Errorf("parent entry should not carry todo_id: %v", entries[1])
	}
}

func TestLogger_ConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	logger := captureLogger(&buf, LevelInfo, "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.Info("concurrent", "worker", n, "iteration", j)
			}
		}(i)
	}
	wg.Wait()

	entries := decodeLines(t, &buf)
	if len(entries) != 160 {
		t.Errorf("expected 160 intact entries, got %d", len(entries))
	}
}

// =============================================================================
// File Logging Tests
// =============================================================================

func TestLogger_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "todo-api",
		Quiet:   true,
	})

	logger.Info("written to file", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	wantName := "todo-api_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, wantName))
	if err != nil {
		t.Fatalf("expected log file %s: %v", wantName, err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("file log is not JSON: %v", err)
	}
	if entry["msg"] != "written to file" {
		t.Errorf("msg = %v, want %q", entry["msg"], "written to file")
	}
	if entry["service"] != "todo-api" {
		t.Errorf("service = %v, want %q", entry["service"], "todo-api")
	}
}

func TestLogger_FileLoggingCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	logger := New(Config{
		LogDir:  dir,
		Service: "cli",
		Quiet:   true,
	})

	logger.Info("creates parents")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("log directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dir)
	}
}

func TestLogger_CloseWithoutFileIsNoOp(t *testing.T) {
	logger := New(Config{Quiet: true})
	if err := logger.Close(); err != nil {
		t.Errorf("Close on file-less logger: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tilde prefix", "~/.aleutiantasks/logs", filepath.Join(home, ".aleutiantasks/logs")},
		{"absolute unchanged", "/var/log", "/var/log"},
		{"relative unchanged", "relative/path", "relative/path"},
		{"empty unchanged", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	if logger == nil {
		t.Fatal("Default returned nil")
	}
	if logger.Slog() == nil {
		t.Fatal("Default logger has no slog backend")
	}
}
