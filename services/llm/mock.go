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
	"fmt"
	"sync"
	"time"
)

// MockClient is a mock chat client for testing the tool loop.
//
// Thread Safety:
//
//	MockClient is safe for concurrent use.
type MockClient struct {
	mu sync.RWMutex

	// name is the provider name.
	name string

	// model is the model name.
	model string

	// turns are queued replies to return in order.
	turns []*Turn

	// defaultTurn is returned when no queued turns remain.
	defaultTurn *Turn

	// calls records all calls made to Chat.
	calls []ChatCall

	// errorToReturn causes Chat to return this error.
	errorToReturn error
}

// ChatCall records a call to Chat.
type ChatCall struct {
	System    string
	Messages  []Message
	Tools     []Tool
	Timestamp time.Time
}

// NewMockClient creates a new mock chat client.
func NewMockClient() *MockClient {
	return &MockClient{
		name:  "mock",
		model: "mock-model",
		defaultTurn: &Turn{
			Content:    "Mock response",
			StopReason: StopEnd,
		},
		calls: make([]ChatCall, 0),
	}
}

// WithName sets the provider name.
func (c *MockClient) WithName(name string) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
	return c
}

// WithModel sets the model name.
func (c *MockClient) WithModel(model string) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
	return c
}

// WithError configures the client to return an error.
func (c *MockClient) WithError(err error) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorToReturn = err
	return c
}

// QueueTurn adds a reply to the queue.
func (c *MockClient) QueueTurn(turn *Turn) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
	return c
}

// QueueToolCall queues a reply that invokes a tool.
func (c *MockClient) QueueToolCall(toolName string, arguments map[string]any) *MockClient {
	argsJSON, _ := json.Marshal(arguments)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, &Turn{
		StopReason: StopToolUse,
		ToolCalls: []ToolCall{{
			ID:        fmt.Sprintf("call_%d", len(c.turns)),
			Name:      toolName,
			Arguments: string(argsJSON),
		}},
	})
	return c
}

// QueueFinalTurn queues a text reply with no tool calls.
func (c *MockClient) QueueFinalTurn(content string) *MockClient {
	return c.QueueTurn(&Turn{
		Content:    content,
		StopReason: StopEnd,
	})
}

// Chat implements the Client interface.
func (c *MockClient) Chat(ctx context.Context, system string, messages []Message, tools []Tool) (*Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, ChatCall{
		System:    system,
		Messages:  messages,
		Tools:     tools,
		Timestamp: time.Now(),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.errorToReturn != nil {
		return nil, c.errorToReturn
	}

	if len(c.turns) > 0 {
		turn := c.turns[0]
		c.turns = c.turns[1:]
		turn.Model = c.model
		return turn, nil
	}

	turn := *c.defaultTurn
	turn.Model = c.model
	return &turn, nil
}

// Name implements the Client interface.
func (c *MockClient) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// Model implements the Client interface.
func (c *MockClient) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// CallCount returns the number of calls made.
func (c *MockClient) CallCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.calls)
}

// LastCall returns the most recent call, or nil if none were made.
func (c *MockClient) LastCall() *ChatCall {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.calls) == 0 {
		return nil
	}
	call := c.calls[len(c.calls)-1]
	return &call
}

// Verify ensures all queued turns were consumed.
func (c *MockClient) Verify() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.turns) > 0 {
		return fmt.Errorf("mock: %d queued turns not consumed", len(c.turns))
	}
	return nil
}

// Reset clears all state.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = nil
	c.calls = make([]ChatCall, 0)
	c.errorToReturn = nil
}
