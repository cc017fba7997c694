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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianTasks/pkg/secrets"
)

// capturedRequest holds what the fake Anthropic endpoint received.
type capturedRequest struct {
	header http.Header
	body   []byte
}

// fakeAnthropic starts a server that records the request and replies
// with the given JSON body.
func fakeAnthropic(t *testing.T, status int, responseBody string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.header = r.Header.Clone()
		captured.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, responseBody)
	}))
	t.Cleanup(server.Close)

	return server, captured
}

// newTestAnthropicClient builds a client pointed at the fake server with
// a sealed test key.
func newTestAnthropicClient(t *testing.T, server *httptest.Server) *AnthropicClient {
	t.Helper()

	if ok, _ := secrets.MlockAvailable(); !ok {
		t.Setenv("ALEUTIAN_INSECURE_MEMORY", "true")
	}
	t.Setenv("ANTHROPIC_API_KEY", "test-key-123")

	key, err := secrets.Load("ANTHROPIC_API_KEY", "")
	if err != nil {
		t.Fatalf("failed to seal test key: %v", err)
	}
	t.Cleanup(key.Destroy)

	return &AnthropicClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		apiKey:     key,
		model:      "claude-test",
		baseURL:    server.URL,
	}
}

func TestAnthropicChat_TextResponse(t *testing.T) {
	server, captured := fakeAnthropic(t, http.StatusOK, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-test",
		"content": [{"type": "text", "text": "Hello there"}],
		"stop_reason": "end_turn"
	}`)
	client := newTestAnthropicClient(t, server)

	turn, err := client.Chat(context.Background(), "be brief", []Message{UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if turn.Content != "Hello there" {
		t.Errorf("Content = %q, want 'Hello there'", turn.Content)
	}
	if turn.StopReason != StopEnd {
		t.Errorf("StopReason = %q, want %q", turn.StopReason, StopEnd)
	}
	if turn.HasToolCalls() {
		t.Errorf("unexpected tool calls: %+v", turn.ToolCalls)
	}
	if turn.Model != "claude-test" {
		t.Errorf("Model = %q, want 'claude-test'", turn.Model)
	}

	if got := captured.header.Get("x-api-key"); got != "test-key-123" {
		t.Errorf("x-api-key = %q, want 'test-key-123'", got)
	}
	if got := captured.header.Get("anthropic-version"); got != anthropicAPIVersion {
		t.Errorf("anthropic-version = %q, want %q", got, anthropicAPIVersion)
	}
}

func TestAnthropicChat_ToolUse(t *testing.T) {
	server, _ := fakeAnthropic(t, http.StatusOK, `{
		"id": "msg_2",
		"type": "message",
		"role": "assistant",
		"model": "claude-test",
		"content": [
			{"type": "text", "text": "Let me add that."},
			{"type": "tool_use", "id": "toolu_1", "name": "create_todo", "input": {"title": "Call mom"}}
		],
		"stop_reason": "tool_use"
	}`)
	client := newTestAnthropicClient(t, server)

	turn, err := client.Chat(context.Background(), "", []Message{UserMessage("call mom tomorrow")}, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if turn.Content != "Let me add that." {
		t.Errorf("Content = %q", turn.Content)
	}
	if turn.StopReason != StopToolUse {
		t.Errorf("StopReason = %q, want %q", turn.StopReason, StopToolUse)
	}
	if len(turn.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(turn.ToolCalls))
	}

	call := turn.ToolCalls[0]
	if call.ID != "toolu_1" {
		t.Errorf("call.ID = %q, want 'toolu_1'", call.ID)
	}
	if call.Name != "create_todo" {
		t.Errorf("call.Name = %q, want 'create_todo'", call.Name)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		t.Fatalf("arguments are not valid JSON: %v", err)
	}
	if args["title"] != "Call mom" {
		t.Errorf("args = %v, want title 'Call mom'", args)
	}
}

func TestAnthropicChat_RequestEncoding(t *testing.T) {
	server, captured := fakeAnthropic(t, http.StatusOK, `{
		"content": [{"type": "text", "text": "ok"}],
		"stop_reason": "end_turn"
	}`)
	client := newTestAnthropicClient(t, server)

	messages := []Message{
		UserMessage("call mom tomorrow"),
		{
			Role:      RoleAssistant,
			Content:   "Adding it.",
			ToolCalls: []ToolCall{{ID: "toolu_1", Name: "create_todo", Arguments: `{"title":"Call mom"}`}},
		},
		ToolResultMessage(ToolResult{ToolCallID: "toolu_1", Content: `{"id":"abc"}`}),
	}
	tools := []Tool{{
		Name:        "create_todo",
		Description: "Create a todo item",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"title": map[string]any{"type": "string"}},
			"required":   []any{"title"},
		},
	}}

	_, err := client.Chat(context.Background(), "You are Todo Assistant.", messages, tools)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	var wire anthropicRequest
	if err := json.Unmarshal(captured.body, &wire); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}

	if wire.Model != "claude-test" {
		t.Errorf("model = %q", wire.Model)
	}
	if wire.MaxTokens != defaultMaxTokens {
		t.Errorf("max_tokens = %d, want %d", wire.MaxTokens, defaultMaxTokens)
	}

	if len(wire.System) != 1 || wire.System[0].Text != "You are Todo Assistant." {
		t.Fatalf("system = %+v", wire.System)
	}
	if wire.System[0].CacheControl != nil {
		t.Error("short system prompt should not request caching")
	}

	if len(wire.Tools) != 1 || wire.Tools[0].Name != "create_todo" {
		t.Fatalf("tools = %+v", wire.Tools)
	}
	if wire.Tools[0].InputSchema["type"] != "object" {
		t.Errorf("input_schema = %v", wire.Tools[0].InputSchema)
	}
	if wire.ToolChoice == nil || wire.ToolChoice.Type != "auto" {
		t.Errorf("tool_choice = %+v, want auto", wire.ToolChoice)
	}

	if len(wire.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(wire.Messages))
	}

	user := wire.Messages[0]
	if user.Role != "user" || len(user.Content) != 1 || user.Content[0].Type != "text" {
		t.Errorf("first message = %+v", user)
	}

	assistant := wire.Messages[1]
	if assistant.Role != "assistant" || len(assistant.Content) != 2 {
		t.Fatalf("assistant message = %+v", assistant)
	}
	if assistant.Content[0].Type != "text" || assistant.Content[1].Type != "tool_use" {
		t.Errorf("assistant blocks out of order: %+v", assistant.Content)
	}
	if assistant.Content[1].ID != "toolu_1" || assistant.Content[1].Name != "create_todo" {
		t.Errorf("tool_use block = %+v", assistant.Content[1])
	}

	resultMsg := wire.Messages[2]
	if resultMsg.Role != "user" || len(resultMsg.Content) != 1 {
		t.Fatalf("tool result message = %+v", resultMsg)
	}
	block := resultMsg.Content[0]
	if block.Type != "tool_result" || block.ToolUseID != "toolu_1" {
		t.Errorf("tool_result block = %+v", block)
	}
	var resultContent string
	if err := json.Unmarshal(block.Content, &resultContent); err != nil {
		t.Fatalf("tool_result content is not a JSON string: %v", err)
	}
	if resultContent != `{"id":"abc"}` {
		t.Errorf("tool_result content = %q", resultContent)
	}
}

func TestAnthropicChat_LongSystemPromptRequestsCaching(t *testing.T) {
	server, captured := fakeAnthropic(t, http.StatusOK, `{
		"content": [{"type": "text", "text": "ok"}],
		"stop_reason": "end_turn"
	}`)
	client := newTestAnthropicClient(t, server)

	longSystem := strings.Repeat("You are Todo Assistant. ", 100)
	if _, err := client.Chat(context.Background(), longSystem, []Message{UserMessage("hi")}, nil); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	var wire anthropicRequest
	if err := json.Unmarshal(captured.body, &wire); err != nil {
		t.Fatalf("failed to decode request body: %v", err)
	}
	if len(wire.System) != 1 || wire.System[0].CacheControl == nil {
		t.Fatalf("long system prompt should request caching: %+v", wire.System)
	}
	if wire.System[0].CacheControl.Type != "ephemeral" {
		t.Errorf("cache_control.type = %q", wire.System[0].CacheControl.Type)
	}
}

func TestAnthropicChat_APIError(t *testing.T) {
	server, _ := fakeAnthropic(t, http.StatusBadRequest, `{
		"type": "error",
		"error": {"type": "invalid_request_error", "message": "max_tokens required"}
	}`)
	client := newTestAnthropicClient(t, server)

	_, err := client.Chat(context.Background(), "", []Message{UserMessage("hi")}, nil)
	if err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Errorf("error %q should mention the status code", err)
	}
}

func TestAnthropicChat_EmptyContent(t *testing.T) {
	server, _ := fakeAnthropic(t, http.StatusOK, `{"content": [], "stop_reason": "end_turn"}`)
	client := newTestAnthropicClient(t, server)

	_, err := client.Chat(context.Background(), "", []Message{UserMessage("hi")}, nil)
	if err == nil || !strings.Contains(err.Error(), "empty content") {
		t.Errorf("expected empty content error, got %v", err)
	}
}

func TestMapAnthropicStopReason(t *testing.T) {
	cases := map[string]string{
		"end_turn":      StopEnd,
		"tool_use":      StopToolUse,
		"max_tokens":    StopMaxTokens,
		"stop_sequence": StopSequence,
		"weird_reason":  "weird_reason",
	}
	for in, want := range cases {
		if got := mapAnthropicStopReason(in); got != want {
			t.Errorf("mapAnthropicStopReason(%q) = %q, want %q", in, got, want)
		}
	}
}
