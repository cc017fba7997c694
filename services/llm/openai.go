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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/AleutianTasks/pkg/secrets"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	openaiSecretFile   = "/run/secrets/openai_api_key"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey, err := secrets.Load("OPENAI_API_KEY", openaiSecretFile)
	if err != nil {
		slog.Error("OPENAI_API_KEY not set and secret not found", "path", openaiSecretFile)
		return nil, fmt.Errorf("OPENAI_API_KEY is missing: %w", err)
	}
	defer apiKey.Destroy()

	model := os.Getenv("OPENAI_MODEL") // e.g., "gpt-4o"
	if model == "" {
		model = defaultOpenAIModel
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}

	// OPENAI_BASE_URL points the SDK at OpenAI-compatible local backends
	// (llama.cpp server, Ollama's /v1, vLLM).
	baseURL := os.Getenv("OPENAI_BASE_URL")

	// The SDK keeps the key in its config for the life of the client, so
	// it gets an ordinary heap copy; the sealed original is destroyed on
	// return.
	var client *openai.Client
	err = apiKey.Expose(func(v string) error {
		config := openai.DefaultConfig(strings.Clone(v))
		if baseURL != "" {
			config.BaseURL = baseURL
		}
		client = openai.NewClientWithConfig(config)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unseal API key: %w", err)
	}

	slog.Info("Initializing OpenAI client", "model", model, "base_url", baseURL)
	return &OpenAIClient{
		client: client,
		model:  model,
	}, nil
}

// Name implements the Client interface.
func (o *OpenAIClient) Name() string { return "openai" }

// Model implements the Client interface.
func (o *OpenAIClient) Model() string { return o.model }

// Chat implements the Client interface.
func (o *OpenAIClient) Chat(ctx context.Context, system string, messages []Message, tools []Tool) (*Turn, error) {
	slog.Debug("Generating chat completion via OpenAI", "model", o.model, "tools", len(tools))

	apiMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		apiMessages = append(apiMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range messages {
		// Tool results become individual "tool" role messages keyed by
		// the call they answer.
		for _, result := range msg.ToolResults {
			apiMessages = append(apiMessages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result.Content,
				ToolCallID: result.ToolCallID,
			})
		}

		if msg.Content == "" && len(msg.ToolCalls) == 0 {
			continue
		}

		apiMsg := openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
		for _, call := range msg.ToolCalls {
			apiMsg.ToolCalls = append(apiMsg.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		apiMessages = append(apiMessages, apiMsg)
	}

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: apiMessages,
	}
	for _, tool := range tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices or empty content")
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	choice := resp.Choices[0]
	slog.Debug("Received response from OpenAI", "finish_reason", choice.FinishReason)

	turn := &Turn{
		Content:    choice.Message.Content,
		StopReason: mapOpenAIFinishReason(choice.FinishReason),
		Model:      resp.Model,
	}
	for _, call := range choice.Message.ToolCalls {
		if call.Type != openai.ToolTypeFunction {
			continue
		}
		turn.ToolCalls = append(turn.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}

	return turn, nil
}

func mapOpenAIFinishReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonStop:
		return StopEnd
	case openai.FinishReasonToolCalls:
		return StopToolUse
	case openai.FinishReasonLength:
		return StopMaxTokens
	default:
		return string(reason)
	}
}
