// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides chat clients for the todo assistant.
//
// This package defines the provider-agnostic conversation types and the
// Client interface the chat loop talks to. Implementations exist for the
// Anthropic Messages API (raw HTTP) and for OpenAI-compatible backends
// (go-openai). A MockClient supports testing the tool loop without a
// network.
package llm

import (
	"context"
)

// Roles for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Stop reasons reported on a Turn. Providers map their native values
// onto these.
const (
	StopEnd       = "end"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
	StopSequence  = "stop_sequence"
)

// Client defines the interface for chat-with-tools backends.
//
// Implementations must be safe for concurrent use.
type Client interface {
	// Chat sends the system prompt, the conversation so far, and the
	// available tools to the model and returns its next turn.
	//
	// Inputs:
	//   ctx - Context for cancellation and timeout
	//   system - System prompt ("" to omit)
	//   messages - Conversation history, oldest first
	//   tools - Tools the model may call (nil for plain chat)
	//
	// Outputs:
	//   *Turn - The model's reply (text, tool calls, or both)
	//   error - Non-nil if the request failed
	Chat(ctx context.Context, system string, messages []Message, tools []Tool) (*Turn, error)

	// Name returns the provider name (e.g., "anthropic", "openai").
	Name() string

	// Model returns the model being used.
	Model() string
}

// Tool describes a callable tool advertised to the model.
type Tool struct {
	// Name is the tool name.
	Name string `json:"name"`

	// Description tells the model what the tool does.
	Description string `json:"description"`

	// InputSchema is a JSON Schema for the tool's arguments.
	InputSchema map[string]any `json:"input_schema"`
}

// Message represents one conversation turn.
type Message struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the text content.
	Content string `json:"content,omitempty"`

	// ToolCalls contains tool invocations (for assistant messages).
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolResults contains tool results (for user messages answering
	// a prior assistant turn's tool calls).
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolCall represents a tool invocation by the model.
type ToolCall struct {
	// ID is a unique identifier for this call.
	ID string `json:"id"`

	// Name is the tool name.
	Name string `json:"name"`

	// Arguments are the tool arguments as JSON text.
	Arguments string `json:"arguments"`
}

// ToolResult contains the result of a tool call.
type ToolResult struct {
	// ToolCallID links back to the tool call.
	ToolCallID string `json:"tool_call_id"`

	// Content is the result content.
	Content string `json:"content"`

	// IsError indicates if this is an error result.
	IsError bool `json:"is_error,omitempty"`
}

// Turn is one assistant reply.
type Turn struct {
	// Content is the text response. Empty when the model only called tools.
	Content string `json:"content"`

	// ToolCalls contains any tool calls the model wants to make.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// StopReason indicates why generation stopped.
	// Values: "end", "max_tokens", "tool_use", "stop_sequence"
	StopReason string `json:"stop_reason"`

	// Model is the model that generated this turn.
	Model string `json:"model,omitempty"`
}

// HasToolCalls returns true if the turn contains tool calls.
func (t *Turn) HasToolCalls() bool {
	return len(t.ToolCalls) > 0
}

// AssistantMessage converts the turn into a history message so the next
// request carries it.
func (t *Turn) AssistantMessage() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   t.Content,
		ToolCalls: t.ToolCalls,
	}
}

// UserMessage builds a plain text user message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// ToolResultMessage builds the user message that answers an assistant
// turn's tool calls.
func ToolResultMessage(results ...ToolResult) Message {
	return Message{Role: RoleUser, ToolResults: results}
}
