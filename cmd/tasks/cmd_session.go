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
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/AleutianAI/AleutianTasks/pkg/ux"
	"github.com/AleutianAI/AleutianTasks/services/llm"
	"github.com/spf13/cobra"
)

func runListSessions(cmd *cobra.Command, args []string) {
	store, err := OpenSessionStore(sessionDBDir())
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	sessions, err := store.List()
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No saved sessions found.")
		return
	}

	fmt.Println("Saved Sessions:")
	fmt.Println("------------------------------------------------------------------")
	for _, s := range sessions {
		fmt.Printf("ID: %s\nUpdated: %s | Turns: %d\nSummary: %s\n\n",
			s.ID, ux.FormatRelativeTime(s.UpdatedAt), s.TurnCount(), s.Summary())
	}
}

func runShowSession(cmd *cobra.Command, args []string) {
	sessionID := args[0]

	store, err := OpenSessionStore(sessionDBDir())
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	session, err := store.Load(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			ux.Warning("No session found with ID " + sessionID)
			os.Exit(1)
		}
		log.Fatalf("Failed to load session: %v", err)
	}

	fmt.Printf("Session: %s\n", session.ID)
	if session.Backend != "" {
		fmt.Printf("Backend: %s", session.Backend)
		if session.Model != "" {
			fmt.Printf(" (%s)", session.Model)
		}
		fmt.Println()
	}
	fmt.Printf("Updated: %s\n", ux.FormatRelativeTime(session.UpdatedAt))
	fmt.Println("------------------------------------------------------------------")

	for _, m := range session.Messages {
		switch {
		case m.Role == llm.RoleUser && m.Content != "":
			fmt.Printf("You: %s\n\n", m.Content)
		case m.Role == llm.RoleAssistant && m.Content != "":
			fmt.Printf("Assistant: %s\n\n", m.Content)
		}
		// Tool results are omitted; the calls alone show what happened.
		for _, call := range m.ToolCalls {
			fmt.Printf("  [tool] %s %s\n\n", call.Name, call.Arguments)
		}
	}
}

func runDeleteSession(cmd *cobra.Command, args []string) {
	sessionID := args[0]

	store, err := OpenSessionStore(sessionDBDir())
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	if err := store.Delete(sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			ux.Warning("No session found with ID " + sessionID)
			os.Exit(1)
		}
		log.Fatalf("Failed to delete session: %v", err)
	}

	fmt.Printf("Successfully deleted session: %s\n", sessionID)
}
