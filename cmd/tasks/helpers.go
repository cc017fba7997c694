// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/AleutianTasks/cmd/tasks/config"
	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
	"github.com/AleutianAI/AleutianTasks/pkg/ux"
)

const defaultAPIBaseURL = "http://localhost:12310"

// configFilePath resolves where the CLI config file lives. The --config
// flag wins; otherwise it sits with the rest of the CLI state.
func configFilePath() string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(cliDataDir(), "config.yaml")
}

// loadCLIConfig loads the config file before any command runs. A broken
// or unreadable config never blocks a command: the defaults stay in
// place and the problem goes to stderr as a warning.
func loadCLIConfig() {
	if err := config.Load(configFilePath()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load CLI config: %v\n", err)
	}
}

// apiBaseURL resolves the todo API base URL. The --api flag wins, then
// TASKS_API_URL, then the config file, then the default local address.
func apiBaseURL() string {
	if apiURL != "" {
		return apiURL
	}
	if env := os.Getenv("TASKS_API_URL"); env != "" {
		return env
	}
	if cfg := config.Global.API.BaseURL; cfg != "" {
		return cfg
	}
	return defaultAPIBaseURL
}

// newAPIClient builds a todo API client against the resolved base URL.
func newAPIClient() *todoclient.Client {
	return todoclient.New(apiBaseURL())
}

// apiContext returns a context suitable for a single CLI API call.
func apiContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// cliDataDir resolves the directory for CLI-local state such as saved
// chat sessions. TASKS_CLI_DATA_DIR overrides the default under the
// user's home directory.
func cliDataDir() string {
	if env := os.Getenv("TASKS_CLI_DATA_DIR"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to a relative directory when HOME is unset.
		return ".aleutian/tasks"
	}
	return filepath.Join(home, ".aleutian", "tasks")
}

// sessionDBDir is where the chat session store keeps its data.
func sessionDBDir() string {
	return filepath.Join(cliDataDir(), "sessions")
}

// dataFilePath resolves the todo data file used by the watch command.
// It mirrors the server's TASKS_DATA_FILE resolution so both sides
// observe the same file by default.
func dataFilePath() string {
	if env := os.Getenv("TASKS_DATA_FILE"); env != "" {
		return env
	}
	if cfg := config.Global.Data.File; cfg != "" {
		return cfg
	}
	return "todo_data.json"
}

// statusIcon picks the list icon for a todo's completion state.
func statusIcon(t todoclient.Todo) ux.Icon {
	if t.Completed {
		return ux.IconSuccess
	}
	return ux.IconPending
}

// todoNote builds the muted annotation shown next to a todo in list
// output: the ID plus the due date when one is set.
func todoNote(t todoclient.Todo) string {
	note := t.ID
	if t.DueDate != nil {
		note += " · due " + t.DueDate.Format("2006-01-02")
	}
	return note
}
