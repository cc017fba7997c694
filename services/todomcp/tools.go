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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianTasks/pkg/validation"
	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

// toolHandler executes one tool call against the store. The returned value
// is serialized into the tool result; a nil value serializes as JSON null
// (a lookup that found nothing). A non-nil error becomes an isError result,
// not a protocol error.
type toolHandler func(store todostore.Store, args json.RawMessage) (any, error)

// toolHandlers pairs registry entries with their implementations. The
// server verifies at startup that this table and the registry name the
// same tools.
var toolHandlers = map[string]toolHandler{
	"list_todos":     handleListTodos,
	"get_todo":       handleGetTodo,
	"create_todo":    handleCreateTodo,
	"update_todo":    handleUpdateTodo,
	"delete_todo":    handleDeleteTodo,
	"get_todo_stats": handleGetTodoStats,
}

// toolValidate validates decoded tool arguments. Initialized in init()
// with the notblank rule shared with the API datatypes.
var toolValidate *validator.Validate

func init() {
	toolValidate = validator.New()
	_ = toolValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// =============================================================================
// ARGUMENT TYPES
// =============================================================================

// todoIDArgs are the arguments for tools addressing a single todo.
type todoIDArgs struct {
	TodoID string `json:"todo_id" validate:"required"`
}

// createTodoArgs are the arguments for create_todo. Bounds match the API
// create request.
type createTodoArgs struct {
	Title       string  `json:"title" validate:"required,notblank,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Completed   bool    `json:"completed"`
	DueDate     *string `json:"due_date"`
}

// updateTodoArgs are the arguments for update_todo. Absent fields leave
// the stored values unchanged.
type updateTodoArgs struct {
	TodoID      string  `json:"todo_id" validate:"required"`
	Title       *string `json:"title" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Completed   *bool   `json:"completed"`
	DueDate     *string `json:"due_date"`
}

// decodeArgs unmarshals tool arguments into the given struct and runs the
// validator over it. Missing arguments decode as an empty object so that
// required-field errors come from the validator, not the JSON decoder.
func decodeArgs(args json.RawMessage, into any) error {
	if len(args) == 0 || string(args) == "null" {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, into); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := toolValidate.Struct(into); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// =============================================================================
// HANDLERS
// =============================================================================

// handleListTodos returns every todo in the store.
func handleListTodos(store todostore.Store, _ json.RawMessage) (any, error) {
	todos, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	if todos == nil {
		todos = []todostore.Record{}
	}
	return todos, nil
}

// handleGetTodo looks up one todo. An unknown id yields a null result.
func handleGetTodo(store todostore.Store, args json.RawMessage) (any, error) {
	var in todoIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	rec, found, err := store.Get(in.TodoID)
	if err != nil {
		return nil, fmt.Errorf("reading todo: %w", err)
	}
	if !found {
		return nil, nil
	}
	return rec, nil
}

// handleCreateTodo creates a todo from validated arguments.
func handleCreateTodo(store todostore.Store, args json.RawMessage) (any, error) {
	var in createTodoArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	var due *time.Time
	if in.DueDate != nil {
		parsed, err := validation.ParseOptionalDueDate(*in.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		due = parsed
	}

	rec, err := store.Create(in.Title, in.Description, in.Completed, due)
	if err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}
	return rec, nil
}

// handleUpdateTodo applies a partial update. An unknown id yields a null
// result; no write happens.
func handleUpdateTodo(store todostore.Store, args json.RawMessage) (any, error) {
	var in updateTodoArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}

	patch := todostore.Patch{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
	}
	if in.DueDate != nil {
		due, err := validation.ParseOptionalDueDate(*in.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		patch.DueDate = due
	}

	rec, found, err := store.Update(in.TodoID, patch)
	if err != nil {
		return nil, fmt.Errorf("updating todo: %w", err)
	}
	if !found {
		return nil, nil
	}
	return rec, nil
}

// handleDeleteTodo removes a todo. The result is whether a record was
// actually deleted.
func handleDeleteTodo(store todostore.Store, args json.RawMessage) (any, error) {
	var in todoIDArgs
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	deleted, err := store.Delete(in.TodoID)
	if err != nil {
		return nil, fmt.Errorf("deleting todo: %w", err)
	}
	return deleted, nil
}

// handleGetTodoStats summarizes completion progress.
func handleGetTodoStats(store todostore.Store, _ json.RawMessage) (any, error) {
	todos, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("listing todos: %w", err)
	}
	return todostore.ComputeStats(todos), nil
}
