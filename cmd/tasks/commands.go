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
	"os"
	"time"

	"github.com/AleutianAI/AleutianTasks/cmd/tasks/config"
	"github.com/AleutianAI/AleutianTasks/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	apiURL           string // CLI override for the todo API base URL
	configPath       string // CLI override for the config file location
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	listOpen bool
	listDone bool
	listAll  bool

	addDescription string
	addDue         string
	addCompleted   bool
	addInteractive bool

	editTitle       string
	editDescription string
	editDue         string
	editCompleted   bool

	watchDebounce time.Duration

	chatBackend string

	rootCmd = &cobra.Command{
		Use:   "tasks",
		Short: "A cli to manage your todo list from the terminal",
		Long: `Tasks is a command line companion for the Aleutian todo service.
				It covers the usual list management plus an LLM-powered assistant
				that turns natural language into todo items.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadCLIConfig()
			// Personality precedence: flag, then ALEUTIAN_PERSONALITY,
			// then the config file, then terminal auto-detection.
			switch {
			case personalityLevel != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			case os.Getenv("ALEUTIAN_PERSONALITY") == "" && config.Global.UX.Personality != "":
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(config.Global.UX.Personality))
			default:
				ux.InitPersonality()
			}
		},
	}

	// --- List / Inspect ---
	listCmd = &cobra.Command{
		Use:     "list",
		Short:   "List todos, optionally filtered by completion state",
		Aliases: []string{"ls"},
		Run:     runListCommand, // Defined in cmd_list.go
	}
	getCmd = &cobra.Command{
		Use:   "get [todo_id]",
		Short: "Show the full details of a single todo",
		Args:  cobra.ExactArgs(1),
		Run:   runGetCommand, // Defined in cmd_list.go
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics for the todo list",
		Run:   runStatsCommand, // Defined in cmd_list.go
	}

	// --- Create / Modify ---
	addCmd = &cobra.Command{
		Use:   "add [title]",
		Short: "Add a new todo",
		Run:   runAddCommand, // Defined in cmd_add.go
	}
	doneCmd = &cobra.Command{
		Use:   "done [todo_id]",
		Short: "Mark a todo as completed",
		Args:  cobra.ExactArgs(1),
		Run:   runDoneCommand, // Defined in cmd_edit.go
	}
	undoneCmd = &cobra.Command{
		Use:   "undone [todo_id]",
		Short: "Mark a completed todo as open again",
		Args:  cobra.ExactArgs(1),
		Run:   runUndoneCommand, // Defined in cmd_edit.go
	}
	editCmd = &cobra.Command{
		Use:   "edit [todo_id]",
		Short: "Edit the fields of an existing todo",
		Args:  cobra.ExactArgs(1),
		Run:   runEditCommand, // Defined in cmd_edit.go
	}
	rmCmd = &cobra.Command{
		Use:     "rm [todo_id]",
		Short:   "Delete a todo",
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		Run:     runRmCommand, // Defined in cmd_edit.go
	}

	// --- Watch ---
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Watch the todo data file and print change events",
		Run:   runWatchCommand, // Defined in cmd_watch.go
	}

	// --- Sessions ---
	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Manage saved assistant chat sessions",
	}
	listSessionsCmd = &cobra.Command{
		Use:   "list",
		Short: "List all saved chat sessions",
		Run:   runListSessions, // Defined in cmd_session.go
	}
	showSessionCmd = &cobra.Command{
		Use:   "show [session_id]",
		Short: "Print the transcript of a saved chat session",
		Args:  cobra.ExactArgs(1),
		Run:   runShowSession, // Defined in cmd_session.go
	}
	deleteSessionCmd = &cobra.Command{
		Use:   "delete [session_id]",
		Short: "Delete a specific chat session",
		Args:  cobra.ExactArgs(1),
		Run:   runDeleteSession, // Defined in cmd_session.go
	}

	// --- Chat ---
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session with the todo assistant",
		Run:   runChatCommand, // Defined in cmd_chat.go
	}
)

// init runs when the Go program starts
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (rich), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "",
		"Todo API base URL (default: $TASKS_API_URL or http://localhost:12310)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to the CLI config file (default: <data dir>/config.yaml)")

	// List / inspect commands
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listAll, "all", false, "Show every todo (default)")
	listCmd.Flags().BoolVar(&listOpen, "open", false, "Show only todos that are not completed")
	listCmd.Flags().BoolVar(&listDone, "done", false, "Show only completed todos")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statsCmd)

	// Create / modify commands
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Longer description for the todo")
	addCmd.Flags().StringVar(&addDue, "due", "", "Due date (YYYY-MM-DD, YYYY-MM-DDTHH:MM, or RFC 3339)")
	addCmd.Flags().BoolVar(&addCompleted, "completed", false, "Create the todo already marked completed")
	addCmd.Flags().BoolVarP(&addInteractive, "interactive", "i", false, "Fill in the todo through an interactive form")

	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)

	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")
	editCmd.Flags().StringVar(&editDue, "due", "", "New due date (empty string clears it)")
	editCmd.Flags().BoolVar(&editCompleted, "completed", false, "New completion state")

	rootCmd.AddCommand(rmCmd)

	// Watch command
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0,
		"Debounce window for change events (0 uses the store default)")

	// Session commands
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(listSessionsCmd)
	sessionCmd.AddCommand(showSessionCmd)
	sessionCmd.AddCommand(deleteSessionCmd)

	// Chat command
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Resume a conversation using a specific session ID.")
	chatCmd.Flags().StringVar(&chatBackend, "backend", "",
		"LLM backend (anthropic, openai). Default: $TASKS_CHAT_BACKEND or anthropic.")
}
