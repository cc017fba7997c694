// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestDefaultConfig verifies the built-in defaults point at the local
// stack.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.BaseURL != "http://localhost:12310" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://localhost:12310")
	}
	if cfg.Chat.Backend != "anthropic" {
		t.Errorf("Chat.Backend = %q, want %q", cfg.Chat.Backend, "anthropic")
	}
	if cfg.UX.Personality != "" {
		t.Errorf("UX.Personality = %q, want empty (auto)", cfg.UX.Personality)
	}
	if cfg.Data.File != "todo_data.json" {
		t.Errorf("Data.File = %q, want %q", cfg.Data.File, "todo_data.json")
	}
}

// TestDefaultConfig_YAMLShape verifies the file the loader writes uses
// the documented keys.
func TestDefaultConfig_YAMLShape(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("yaml.Marshal() failed: %v", err)
	}
	text := string(data)

	for _, key := range []string{"api:", "base_url:", "chat:", "backend:", "data:", "file:"} {
		if !strings.Contains(text, key) {
			t.Errorf("default config YAML is missing key %q:\n%s", key, text)
		}
	}
	// Empty personality stays out of the file entirely.
	if strings.Contains(text, "personality:") {
		t.Errorf("default config YAML should omit the unset personality key:\n%s", text)
	}
}
