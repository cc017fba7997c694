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

// TasksConfig is the persisted CLI configuration. Flags and environment
// variables override anything set here; empty fields mean "use the
// built-in default".
type TasksConfig struct {
	// API: how the CLI reaches the todo HTTP service
	API APIConfig `yaml:"api"`

	// Chat: which model backend the assistant talks to
	Chat ChatConfig `yaml:"chat"`

	// UX: presentation preferences
	UX UXConfig `yaml:"ux"`

	// Data: the todo data file for commands that read it directly
	Data DataConfig `yaml:"data"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"` // e.g. http://localhost:12310
}

type ChatConfig struct {
	// Backend can be "anthropic" or "openai".
	Backend string `yaml:"backend"`
}

type UXConfig struct {
	// Personality can be "full", "standard", "minimal", or "machine".
	// Empty selects automatically based on the terminal.
	Personality string `yaml:"personality,omitempty"`
}

type DataConfig struct {
	File string `yaml:"file"` // e.g. todo_data.json
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() TasksConfig {
	return TasksConfig{
		API:  APIConfig{BaseURL: "http://localhost:12310"},
		Chat: ChatConfig{Backend: "anthropic"},
		UX:   UXConfig{Personality: ""},
		Data: DataConfig{File: "todo_data.json"},
	}
}
