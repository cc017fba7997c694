// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianTasks/pkg/secrets"
)

const (
	anthropicAPIVersion  = "2023-06-01"
	defaultAnthropicURL  = "https://api.anthropic.com/v1/messages"
	defaultClaudeModel   = "claude-3-5-sonnet-20240620"
	anthropicSecretFile  = "/run/secrets/anthropic_api_key"
	defaultMaxTokens     = 4096
	cacheControlMinChars = 1024
)

// --- Wire Types ---

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    []systemBlock      `json:"system,omitempty"` // Top-level system prompt
	MaxTokens int                `json:"max_tokens"`

	Tools      []toolDefinition `json:"tools,omitempty"`
	ToolChoice *toolChoice      `json:"tool_choice,omitempty"`
	Stream     bool             `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

// anthropicContent is the single-level discriminated union the Messages
// API uses for content blocks. Which fields matter depends on Type:
// "text" uses Text, "tool_use" uses ID/Name/Input, "tool_result" uses
// ToolUseID/Content/IsError.
type anthropicContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type systemBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"` // Must be "ephemeral"
}

type toolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"` // JSON Schema
}

type toolChoice struct {
	Type string `json:"type"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Model      string             `json:"model"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Error      *anthropicError    `json:"error,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// --- Client Implementation ---

type AnthropicClient struct {
	httpClient *http.Client
	apiKey     *secrets.Key
	model      string
	baseURL    string
}

func NewAnthropicClient() (*AnthropicClient, error) {
	apiKey, err := secrets.Load("ANTHROPIC_API_KEY", anthropicSecretFile)
	if err != nil {
		slog.Warn("Anthropic API Key is missing.")
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is missing: %w", err)
	}

	model := os.Getenv("CLAUDE_MODEL")
	if model == "" {
		model = defaultClaudeModel
		slog.Info("CLAUDE_MODEL not set, defaulting to", "model", model)
	}

	return &AnthropicClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultAnthropicURL,
	}, nil
}

// Name implements the Client interface.
func (a *AnthropicClient) Name() string { return "anthropic" }

// Model implements the Client interface.
func (a *AnthropicClient) Model() string { return a.model }

// Chat implements the Client interface.
func (a *AnthropicClient) Chat(ctx context.Context, system string, messages []Message, tools []Tool) (*Turn, error) {
	reqPayload := anthropicRequest{
		Model:     a.model,
		Messages:  toAnthropicMessages(messages),
		MaxTokens: defaultMaxTokens,
	}

	// Handle System Prompt with Caching
	if system != "" {
		block := systemBlock{
			Type: "text",
			Text: system,
		}
		if len(system) > cacheControlMinChars {
			block.CacheControl = &cacheControl{Type: "ephemeral"}
		}
		reqPayload.System = []systemBlock{block}
	}

	if len(tools) > 0 {
		defs := make([]toolDefinition, 0, len(tools))
		for _, tool := range tools {
			defs = append(defs, toolDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
			})
		}
		reqPayload.Tools = defs
		reqPayload.ToolChoice = &toolChoice{Type: "auto"}
	}

	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("content-type", "application/json")

	slog.Debug("Sending REST request to Anthropic", "model", a.model, "tools", len(tools))

	// The exposed key is only valid inside the callback, so the whole
	// round trip happens while it is unsealed.
	var resp *http.Response
	err = a.apiKey.Expose(func(v string) error {
		req.Header.Set("x-api-key", v)
		var doErr error
		resp, doErr = a.httpClient.Do(req)
		return doErr
	})
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	slog.Debug("Raw Anthropic response", "status", resp.StatusCode, "body_length", len(bodyBytes))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("anthropic API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("received empty content from Anthropic")
	}

	turn := &Turn{
		StopReason: mapAnthropicStopReason(apiResp.StopReason),
		Model:      apiResp.Model,
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			turn.ToolCalls = append(turn.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	turn.Content = text.String()

	if turn.Content == "" && len(turn.ToolCalls) == 0 {
		return nil, fmt.Errorf("received content but no text or tool_use block found")
	}

	return turn, nil
}

// toAnthropicMessages converts generic messages to the Messages API
// content-block format. Tool results lead their message because the API
// requires tool_result blocks before any text in a user turn.
func toAnthropicMessages(messages []Message) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(messages))
	for _, msg := range messages {
		wire := anthropicMessage{Role: msg.Role}

		for _, result := range msg.ToolResults {
			// The wire format wants content as JSON, so a plain string
			// result is marshaled to a JSON string value.
			content, _ := json.Marshal(result.Content)
			wire.Content = append(wire.Content, anthropicContent{
				Type:      "tool_result",
				ToolUseID: result.ToolCallID,
				Content:   content,
				IsError:   result.IsError,
			})
		}

		if msg.Content != "" {
			wire.Content = append(wire.Content, anthropicContent{
				Type: "text",
				Text: msg.Content,
			})
		}

		for _, call := range msg.ToolCalls {
			wire.Content = append(wire.Content, anthropicContent{
				Type:  "tool_use",
				ID:    call.ID,
				Name:  call.Name,
				Input: json.RawMessage(call.Arguments),
			})
		}

		out = append(out, wire)
	}
	return out
}

func mapAnthropicStopReason(reason string) string {
	switch reason {
	case "end_turn":
		return StopEnd
	case "tool_use":
		return StopToolUse
	case "max_tokens":
		return StopMaxTokens
	case "stop_sequence":
		return StopSequence
	default:
		return reason
	}
}
