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
	"fmt"
	"log"
	"os"
	"time"

	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
	"github.com/AleutianAI/AleutianTasks/pkg/ux"
	"github.com/spf13/cobra"
)

func runListCommand(cmd *cobra.Command, args []string) {
	if listOpen && listDone {
		log.Fatalf("--open and --done are mutually exclusive")
	}

	client := newAPIClient()
	ctx, cancel := apiContext()
	defer cancel()

	todos, err := client.List(ctx)
	if err != nil {
		log.Fatalf("Failed to list todos: %v", err)
	}

	shown := 0
	completed := 0
	for _, t := range todos {
		if t.Completed {
			completed++
		}
		if listOpen && t.Completed {
			continue
		}
		if listDone && !t.Completed {
			continue
		}
		ux.ItemStatus(statusIcon(t), t.Title, todoNote(t))
		shown++
	}

	if shown == 0 {
		switch {
		case listOpen:
			ux.Info("No open todos. All caught up.")
		case listDone:
			ux.Info("No completed todos yet.")
		default:
			ux.Info("No todos yet. Add one with 'tasks add'.")
		}
		return
	}

	// The filtered views already say what they contain; only the full
	// listing gets the completion summary.
	if !listOpen && !listDone {
		ux.Summary(completed, len(todos)-completed, len(todos))
	}
}

func runGetCommand(cmd *cobra.Command, args []string) {
	todoID := args[0]

	client := newAPIClient()
	ctx, cancel := apiContext()
	defer cancel()

	todo, err := client.Get(ctx, todoID)
	if err != nil {
		if todoclient.IsNotFound(err) {
			ux.Warning("No todo found with ID " + todoID)
			os.Exit(1)
		}
		log.Fatalf("Failed to fetch todo %s: %v", todoID, err)
	}

	status := "open"
	if todo.Completed {
		status = "completed"
	}

	fmt.Printf("ID:          %s\n", todo.ID)
	fmt.Printf("Title:       %s\n", todo.Title)
	if todo.Description != "" {
		fmt.Printf("Description: %s\n", todo.Description)
	}
	fmt.Printf("Status:      %s\n", status)
	if todo.DueDate != nil {
		fmt.Printf("Due:         %s\n", todo.DueDate.Format(time.RFC3339))
	}
	fmt.Printf("Created:     %s\n", todo.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:     %s\n", todo.UpdatedAt.Format(time.RFC3339))
}

func runStatsCommand(cmd *cobra.Command, args []string) {
	client := newAPIClient()
	ctx, cancel := apiContext()
	defer cancel()

	stats, err := client.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch todo statistics: %v", err)
	}

	if !stats.HasTodos {
		ux.Info("No todos yet. Add one with 'tasks add'.")
		return
	}

	ux.Title("Todo Statistics")
	fmt.Println(ux.ProgressBar(stats.CompletedCount, stats.TotalCount, 30))
	ux.Summary(stats.CompletedCount, stats.IncompleteCount, stats.TotalCount)
}
