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

	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
	"github.com/AleutianAI/AleutianTasks/pkg/ux"
	"github.com/AleutianAI/AleutianTasks/pkg/validation"
	"github.com/spf13/cobra"
)

func runEditCommand(cmd *cobra.Command, args []string) {
	todoID := args[0]

	// Only flags the user actually passed become part of the update, so
	// unset fields keep their current values. An explicitly empty --due
	// clears the due date.
	var params todoclient.UpdateParams
	changed := false

	if cmd.Flags().Changed("title") {
		if err := validation.ValidateTitle(editTitle); err != nil {
			log.Fatalf("Invalid --title value: %v", err)
		}
		params.Title = &editTitle
		changed = true
	}
	if cmd.Flags().Changed("description") {
		if err := validation.ValidateDescription(editDescription); err != nil {
			log.Fatalf("Invalid --description value: %v", err)
		}
		params.Description = &editDescription
		changed = true
	}
	if cmd.Flags().Changed("due") {
		if _, err := validation.ParseOptionalDueDate(editDue); err != nil {
			log.Fatalf("Invalid --due value: %v", err)
		}
		params.DueDate = &editDue
		changed = true
	}
	if cmd.Flags().Changed("completed") {
		params.Completed = &editCompleted
		changed = true
	}

	if !changed {
		log.Fatalf("Nothing to update. Pass at least one of --title, --description, --due, --completed.")
	}

	client := newAPIClient()
	ctx, cancel := apiContext()
	defer cancel()

	todo, err := client.Update(ctx, todoID, params)
	if err != nil {
		if todoclient.IsNotFound(err) {
			ux.Warning("No todo found with ID " + todoID)
			os.Exit(1)
		}
		log.Fatalf("Failed to update todo %s: %v", todoID, err)
	}

	ux.Success(fmt.Sprintf("Updated todo %s: %s", todo.ID, todo.Title))
}

func runDoneCommand(cmd *cobra.Command, args []string) {
	setCompleted(args[0], true)
}

func runUndoneCommand(cmd *cobra.Command, args []string) {
	setCompleted(args[0], false)
}

func setCompleted(todoID string, completed bool) {
	client := newAPIClient()
	ctx, cancel := apiContext()
	defer cancel()

	todo, err := client.Update(ctx, todoID, todoclient.UpdateParams{Completed: &completed})
	if err != nil {
		if todoclient.IsNotFound(err) {
			ux.Warning("No todo found with ID " + todoID)
			os.Exit(1)
		}
		log.Fatalf("Failed to update todo %s: %v", todoID, err)
	}

	if todo.Completed {
		ux.Success("Completed: " + todo.Title)
	} else {
		ux.Info("Reopened: " + todo.Title)
	}
}

func runRmCommand(cmd *cobra.Command, args []string) {
	todoID := args[0]

	client := newAPIClient()
	ctx, cancel := apiContext()
	defer cancel()

	if err := client.Delete(ctx, todoID); err != nil {
		if todoclient.IsNotFound(err) {
			ux.Warning("No todo found with ID " + todoID)
			os.Exit(1)
		}
		log.Fatalf("Failed to delete todo %s: %v", todoID, err)
	}

	ux.Success("Deleted todo " + todoID)
}
