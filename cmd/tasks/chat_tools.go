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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
	"github.com/AleutianAI/AleutianTasks/services/llm"
)

// =============================================================================
// Tool Catalog
// =============================================================================

// todoTools returns the tool catalog advertised to the model.
//
// The names and schemas mirror the tool server's registry, so the
// assistant behaves the same whether it reaches todos through this CLI
// or through the MCP transport.
func todoTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "list_todos",
			Description: "List all todos in the system.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "get_todo",
			Description: "Get a specific todo by its ID.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"todo_id": map[string]any{
						"type":        "string",
						"description": "ID of the todo item",
					},
				},
				"required": []string{"todo_id"},
			},
		},
		{
			Name:        "create_todo",
			Description: "Create a new todo item.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Title of the todo item",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "Detailed description of the todo item",
					},
					"completed": map[string]any{
						"type":        "boolean",
						"description": "Whether the todo is completed",
					},
					"due_date": map[string]any{
						"type":        "string",
						"description": "Optional due date (ISO format)",
					},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        "update_todo",
			Description: "Update an existing todo item.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"todo_id": map[string]any{
						"type":        "string",
						"description": "ID of the todo item to update",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "New title for the todo item",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "New description for the todo item",
					},
					"completed": map[string]any{
						"type":        "boolean",
						"description": "New completion status",
					},
					"due_date": map[string]any{
						"type":        "string",
						"description": "New due date (ISO format)",
					},
				},
				"required": []string{"todo_id"},
			},
		},
		{
			Name:        "delete_todo",
			Description: "Delete a todo by ID.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"todo_id": map[string]any{
						"type":        "string",
						"description": "ID of the todo item to delete",
					},
				},
				"required": []string{"todo_id"},
			},
		},
		{
			Name:        "get_todo_stats",
			Description: "Get statistics about todos in the system.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

// =============================================================================
// Tool Execution
// =============================================================================

// executeToolCall runs one model-requested tool against the todo API.
//
// # Description
//
// Dispatches on the tool name, parses the JSON arguments, performs the
// API call, and packages the outcome as a tool result. Failures become
// error results rather than Go errors so the model can see what went
// wrong and recover in conversation.
//
// Missing todos are not errors: get and update return "null" and
// delete returns "false", matching what the underlying store reports
// for absent IDs.
//
// # Inputs
//
//   - ctx: Cancels the API call.
//   - api: Todo API client.
//   - call: The model's tool invocation.
//
// # Outputs
//
//   - llm.ToolResult: Result content, or an error result with IsError set.
func executeToolCall(ctx context.Context, api *todoclient.Client, call llm.ToolCall) llm.ToolResult {
	content, err := runTool(ctx, api, call)
	if err != nil {
		return llm.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}
	}
	return llm.ToolResult{ToolCallID: call.ID, Content: content}
}

func runTool(ctx context.Context, api *todoclient.Client, call llm.ToolCall) (string, error) {
	args := call.Arguments
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}

	switch call.Name {
	case "list_todos":
		todos, err := api.List(ctx)
		if err != nil {
			return "", err
		}
		return marshalToolResult(todos)

	case "get_todo":
		var in struct {
			TodoID string `json:"todo_id"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("bad arguments for %s: %w", call.Name, err)
		}
		todo, err := api.Get(ctx, in.TodoID)
		if todoclient.IsNotFound(err) {
			return "null", nil
		}
		if err != nil {
			return "", err
		}
		return marshalToolResult(todo)

	case "create_todo":
		var in struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Completed   bool   `json:"completed"`
			DueDate     string `json:"due_date"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("bad arguments for %s: %w", call.Name, err)
		}
		todo, err := api.Create(ctx, todoclient.CreateParams{
			Title:       in.Title,
			Description: in.Description,
			Completed:   in.Completed,
			DueDate:     in.DueDate,
		})
		if err != nil {
			return "", err
		}
		return marshalToolResult(todo)

	case "update_todo":
		var in struct {
			TodoID      string  `json:"todo_id"`
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Completed   *bool   `json:"completed"`
			DueDate     *string `json:"due_date"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("bad arguments for %s: %w", call.Name, err)
		}
		todo, err := api.Update(ctx, in.TodoID, todoclient.UpdateParams{
			Title:       in.Title,
			Description: in.Description,
			Completed:   in.Completed,
			DueDate:     in.DueDate,
		})
		if todoclient.IsNotFound(err) {
			return "null", nil
		}
		if err != nil {
			return "", err
		}
		return marshalToolResult(todo)

	case "delete_todo":
		var in struct {
			TodoID string `json:"todo_id"`
		}
		if err := json.Unmarshal([]byte(args), &in); err != nil {
			return "", fmt.Errorf("bad arguments for %s: %w", call.Name, err)
		}
		err := api.Delete(ctx, in.TodoID)
		if todoclient.IsNotFound(err) {
			return "false", nil
		}
		if err != nil {
			return "", err
		}
		return "true", nil

	case "get_todo_stats":
		stats, err := api.Stats(ctx)
		if err != nil {
			return "", err
		}
		return marshalToolResult(stats)
	}

	return "", fmt.Errorf("unknown tool %q", call.Name)
}

func marshalToolResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(b), nil
}

// =============================================================================
// System Prompt
// =============================================================================

// buildSystemPrompt returns the assistant's standing instructions.
// The date is injected so relative phrases like "tomorrow" resolve to
// real future dates.
func buildSystemPrompt(now time.Time) string {
	return fmt.Sprintf(`You are Todo Assistant, an AI that helps users manage their todo list through natural language.
Your primary function is to create and manage todo items by intelligently converting user statements into todo items.
Today's date is %s

Key behaviors:
- When a user mentions a task or action they need to do, ALWAYS assume they want to create a todo item for it.
- If the user implies a due date for the task, unless they specify the exact date, always calculate
  the due date to be in the future relative to today. For example, "call mom tomorrow" should be
  (today's date + one day). If today is 01-01-2025, then tomorrow is 01-02-2025.
- Interpret statements like "call mom tomorrow" as a request to create a todo with that title.
- Extract relevant details from user input to create todo items with descriptive titles and useful descriptions.
- ALWAYS use the provided tools to interact with the todo list.
- Be helpful, friendly, and concise in your responses.
- Focus on confirming the task was added and providing the essential details.

Your available tools allow you to:
- Create new todo items
- Update existing todo items
- List all todo items
- Delete todo items
- Get a specific todo item by ID
- View statistics about the todo list

For any user input that might reasonably be interpreted as a task, convert it to a todo item without asking for confirmation first.`,
		now.Format("2006-01-02"))
}
