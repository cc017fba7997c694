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
	"strings"

	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
	"github.com/AleutianAI/AleutianTasks/pkg/ux"
	"github.com/AleutianAI/AleutianTasks/pkg/validation"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func runAddCommand(cmd *cobra.Command, args []string) {
	title := strings.TrimSpace(strings.Join(args, " "))

	if addInteractive {
		runInteractiveAdd(title)
		return
	}

	if title == "" {
		log.Fatalf("Usage: tasks add \"Buy groceries\" (or: tasks add --interactive)")
	}
	// Catch bad dates before the round trip. The server validates again.
	if addDue != "" {
		if _, err := validation.ParseDueDate(addDue); err != nil {
			log.Fatalf("Invalid --due value: %v", err)
		}
	}

	createTodo(todoclient.CreateParams{
		Title:       title,
		Description: addDescription,
		Completed:   addCompleted,
		DueDate:     addDue,
	})
}

func runInteractiveAdd(initialTitle string) {
	title := initialTitle
	description := addDescription
	due := addDue
	completed := addCompleted

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description("What needs doing?").
				CharLimit(validation.TitleMaxLen).
				Validate(validation.ValidateTitle).
				Value(&title),
			huh.NewText().
				Title("Description").
				Description("Optional details.").
				CharLimit(validation.DescriptionMaxLen).
				Lines(3).
				Value(&description),
			huh.NewInput().
				Title("Due date").
				Description("Optional. YYYY-MM-DD, YYYY-MM-DDTHH:MM, or RFC 3339.").
				Validate(func(s string) error {
					_, err := validation.ParseOptionalDueDate(s)
					return err
				}).
				Value(&due),
			huh.NewConfirm().
				Title("Already completed?").
				Value(&completed),
		),
	).WithTheme(ux.AleutianTheme())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("Aborted.")
			return
		}
		log.Fatalf("Form error: %v", err)
	}

	createTodo(todoclient.CreateParams{
		Title:       title,
		Description: description,
		Completed:   completed,
		DueDate:     strings.TrimSpace(due),
	})
}

func createTodo(params todoclient.CreateParams) {
	client := newAPIClient()
	ctx, cancel := apiContext()
	defer cancel()

	todo, err := client.Create(ctx, params)
	if err != nil {
		log.Fatalf("Failed to create todo: %v", err)
	}

	ux.Success(fmt.Sprintf("Created todo %s: %s", todo.ID, todo.Title))
}
