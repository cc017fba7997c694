// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main contains the AssistantChatRunner implementation.
//
// This file implements the ChatRunner interface for the todo assistant.
// It coordinates the model backend, the todo API client, the session
// store, and the UI to turn natural language into todo operations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianTasks/cmd/tasks/config"
	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
	"github.com/AleutianAI/AleutianTasks/pkg/ux"
	"github.com/AleutianAI/AleutianTasks/services/llm"
	"github.com/google/uuid"
)

// assistantWelcome is the greeting shown when a new conversation starts.
const assistantWelcome = "Hello! I'm your Todo Assistant. I can help you manage " +
	"your todo list through natural language. What would you like to do with your todos today?"

// maxToolRounds bounds how many model/tool round trips one user message
// may trigger before the runner gives up on the exchange.
const maxToolRounds = 8

// =============================================================================
// AssistantChatRunner Implementation
// =============================================================================

// AssistantChatRunner implements ChatRunner for the todo assistant.
//
// # Description
//
// AssistantChatRunner manages the interactive chat loop. Each user
// message goes to the model together with the todo tool catalog; when
// the model calls tools, the runner executes them against the todo API
// and feeds the results back until the model produces a final answer.
//
// Conversations persist locally through SessionStore, so any session
// can be resumed later by ID.
//
// # Fields
//
//   - backend: Model client (Anthropic or OpenAI)
//   - api: Todo API client for tool execution
//   - ui: ChatUI for display formatting
//   - input: InputReader for user input (injectable for testing)
//   - sessions: Local session store; nil disables persistence
//   - sessionID: Stable ID for this conversation
//   - resume: Whether an existing session is being continued
//   - messages: Conversation history sent with every model call
//   - createdAt: First-save timestamp carried across saves
//   - sessionStartTime: When this process started the session
//   - sessionStats: Accumulated statistics for the session summary
//   - closed: Flag to ensure Close() is idempotent
//   - mu: Mutex protecting closed flag
//
// # Thread Safety
//
// The runner is not designed for concurrent Run() calls. Close() is
// thread-safe and can be called from any goroutine.
//
// # Limitations
//
//   - Single use: cannot restart after Run() completes
//   - Stdin reads cannot be interrupted mid-line (OS limitation)
//
// # Assumptions
//
//   - The todo API is reachable (tool calls fail visibly otherwise)
//   - The backend's API key environment variable is set
type AssistantChatRunner struct {
	backend          llm.Client
	api              *todoclient.Client
	ui               ux.ChatUI
	input            InputReader
	sessions         *SessionStore
	sessionID        string
	resume           bool
	messages         []llm.Message
	createdAt        int64
	sessionStartTime time.Time
	sessionStats     ux.SessionStats
	closed           bool
	mu               sync.Mutex
}

// NewAssistantChatRunner creates an assistant runner with production
// dependencies.
//
// # Description
//
// Builds the model client for the configured backend, the todo API
// client, the terminal UI, the interactive input reader, and the local
// session store.
//
// A missing SessionID starts a fresh conversation under a new UUID.
// When the session store cannot be opened (commonly because another
// chat holds the lock), a fresh conversation continues without
// persistence; a resume, which cannot work without the store, fails.
//
// # Inputs
//
//   - cfg: Backend selection, API URL, and optional session to resume
//
// # Outputs
//
//   - ChatRunner: Ready to run the chat session
//   - error: Non-nil if the backend is unknown, its API key is missing,
//     or a requested resume has no usable session store
//
// # Examples
//
//	runner, err := NewAssistantChatRunner(AssistantChatRunnerConfig{
//	    APIURL: "http://localhost:12310",
//	})
//	if err != nil {
//	    log.Fatalf("Chat setup failed: %v", err)
//	}
//	defer runner.Close()
//	runner.Run(ctx)
//
// # Limitations
//
//   - Creates real clients and stdin reader (not for unit tests)
//   - Use NewAssistantChatRunnerWithDeps for testing
func NewAssistantChatRunner(cfg AssistantChatRunnerConfig) (ChatRunner, error) {
	backend, err := newLLMClient(cfg.Backend)
	if err != nil {
		return nil, err
	}

	api := todoclient.New(cfg.APIURL)

	sessionID := cfg.SessionID
	resume := sessionID != ""
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	sessions, err := OpenSessionStore(sessionDBDir())
	if err != nil {
		if resume {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		// A fresh chat can proceed without persistence.
		ux.Warning("Session persistence unavailable: " + err.Error())
		sessions = nil
	}

	return &AssistantChatRunner{
		backend:   backend,
		api:       api,
		ui:        ux.NewChatUI(),
		input:     NewInteractiveInputReader(50),
		sessions:  sessions,
		sessionID: sessionID,
		resume:    resume,
	}, nil
}

// NewAssistantChatRunnerWithDeps creates an assistant runner with
// injected dependencies.
//
// # Description
//
// Creates an AssistantChatRunner with injected dependencies for
// testing. Allows mocking of the model, the API client, the UI, the
// input reader, and the session store.
//
// # Inputs
//
//   - backend: Model client (use llm.NewMockClient for testing)
//   - api: Todo API client (point it at an httptest server)
//   - ui: ChatUI instance (use ux.NewChatUIWithWriter for testing)
//   - input: InputReader implementation (use NewMockInputReader)
//   - sessions: Session store; nil disables persistence
//   - sessionID: Session ID to resume, or empty for a fresh one
//
// # Outputs
//
//   - *AssistantChatRunner: Concrete type for test access
//
// # Examples
//
//	mock := llm.NewMockClient().QueueFinalTurn("Done!")
//	input := NewMockInputReader([]string{"buy milk", "exit"})
//	var buf bytes.Buffer
//	ui := ux.NewChatUIWithWriter(&buf, ux.PersonalityStandard)
//
//	runner := NewAssistantChatRunnerWithDeps(mock, api, ui, input, nil, "")
//	err := runner.Run(context.Background())
//
// # Assumptions
//
//   - backend, api, ui, and input are non-nil
func NewAssistantChatRunnerWithDeps(
	backend llm.Client,
	api *todoclient.Client,
	ui ux.ChatUI,
	input InputReader,
	sessions *SessionStore,
	sessionID string,
) *AssistantChatRunner {
	resume := sessionID != ""
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	return &AssistantChatRunner{
		backend:   backend,
		api:       api,
		ui:        ui,
		input:     input,
		sessions:  sessions,
		sessionID: sessionID,
		resume:    resume,
	}
}

// newLLMClient builds the model client for the named backend. An empty
// name falls back to TASKS_CHAT_BACKEND, then the config file, then
// Anthropic.
func newLLMClient(backend string) (llm.Client, error) {
	if backend == "" {
		backend = os.Getenv("TASKS_CHAT_BACKEND")
	}
	if backend == "" {
		backend = config.Global.Chat.Backend
	}
	switch strings.ToLower(backend) {
	case "", "anthropic":
		return llm.NewAnthropicClient()
	case "openai":
		return llm.NewOpenAIClient()
	}
	return nil, fmt.Errorf("unknown chat backend %q (expected anthropic or openai)", backend)
}

// Run executes the interactive assistant chat loop.
//
// # Description
//
// Runs the main chat loop. The loop:
//  1. Loads session history if resuming
//  2. Displays the chat header and, for new sessions, the welcome
//  3. Prompts for user input
//  4. Checks for exit commands ("exit", "quit", "bye")
//  5. Sends the message to the model with the tool catalog
//  6. Executes requested tools against the todo API and loops until
//     the model answers in text
//  7. Repeats until exit, EOF, or context cancellation
//
// Session resume:
//   - If a session ID was provided, loads the saved transcript and
//     shows how many turns were restored
//   - Fatal error if the session cannot be loaded (user expects to
//     resume)
//
// Graceful shutdown:
//   - On context cancellation, saves the conversation and returns
//   - The session ID is printed so the conversation can be resumed
//
// # Inputs
//
//   - ctx: Context for cancellation. Cancel to trigger graceful shutdown.
//
// # Outputs
//
//   - error: nil on normal exit, context.Canceled on shutdown, or the
//     fatal error
//
// # Limitations
//
//   - Blocks until an exit condition
//   - Runner cannot be reused after Run() returns
func (r *AssistantChatRunner) Run(ctx context.Context) error {
	// Record session start time for duration tracking
	r.sessionStartTime = time.Now()

	// Load session history if resuming
	if r.resume {
		if err := r.loadHistory(); err != nil {
			// Fatal error: user expects to resume an existing session
			log.Fatalf("Failed to load session %s: %v", r.sessionID, err)
		}
	}

	r.displayHeader(ctx)
	if !r.resume {
		r.ui.Welcome(assistantWelcome)
	}

	// Main chat loop
	for {
		// Check for context cancellation before blocking on input
		select {
		case <-ctx.Done():
			return r.handleShutdown(ctx)
		default:
			// Continue to read input
		}

		// Interactive readers render the prompt themselves; plain
		// readers need it printed here.
		if p, ok := r.input.(PromptingInputReader); ok {
			p.SetPrompt(r.ui.Prompt())
		} else {
			fmt.Print(r.ui.Prompt())
		}
		input, err := r.input.ReadLine()
		if err != nil {
			if err == io.EOF {
				// Input exhausted (e.g. piped input ended)
				r.displaySessionEndWithStats()
				return nil
			}
			slog.Error("failed to read input", "error", err)
			return fmt.Errorf("read input: %w", err)
		}

		// Skip empty input
		if input == "" {
			continue
		}

		// Check for exit command
		if isExitCommand(input) {
			r.displaySessionEndWithStats()
			return nil
		}

		// Process the message
		if err := r.handleMessage(ctx, input); err != nil {
			// Check if error is due to context cancellation
			if ctx.Err() != nil {
				return r.handleShutdown(ctx)
			}
			// Non-fatal error: display and continue
			r.ui.Error(err)
			continue
		}
	}
}

// displayHeader shows the chat header, decorated with live todo counts
// when the API answers quickly enough.
func (r *AssistantChatRunner) displayHeader(ctx context.Context) {
	cfg := ux.HeaderConfig{
		Backend:   r.backend.Name(),
		Model:     r.backend.Model(),
		SessionID: r.sessionID,
	}

	statsCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if stats, err := r.api.Stats(statsCtx); err == nil {
		cfg.TodoStats = &ux.TodoListStats{
			TotalCount:      stats.TotalCount,
			IncompleteCount: stats.IncompleteCount,
		}
	}

	r.ui.HeaderWithConfig(cfg)
}

// loadHistory restores a saved transcript for resume.
func (r *AssistantChatRunner) loadHistory() error {
	if r.sessions == nil {
		return errors.New("session store unavailable")
	}

	session, err := r.sessions.Load(r.sessionID)
	if err != nil {
		return err
	}

	r.messages = session.Messages
	r.createdAt = session.CreatedAt
	r.ui.SessionResume(r.sessionID, session.TurnCount())
	return nil
}

// handleMessage processes a single user message.
//
// # Description
//
// Appends the message to the history and calls the model with the tool
// catalog. When the model requests tools, they run against the todo
// API, their results join the history, and the model is called again.
// The exchange ends when the model answers in plain text or the round
// limit is hit.
//
// The conversation is saved after the exchange so an interrupt loses
// at most the in-flight message.
//
// # Inputs
//
//   - ctx: Context for cancellation
//   - message: User's input message
//
// # Outputs
//
//   - error: Non-nil if a model call failed or the tool loop exceeded
//     maxToolRounds
//
// # Assumptions
//
//   - Message is non-empty (caller validates)
func (r *AssistantChatRunner) handleMessage(ctx context.Context, message string) error {
	r.messages = append(r.messages, llm.UserMessage(message))
	r.sessionStats.MessageCount++

	exchangeStart := time.Now()
	firstTurn := true
	spinnerMsg := "Generating response"

	for round := 0; round < maxToolRounds; round++ {
		spinner := ux.NewSpinner(spinnerMsg)
		spinner.Start()
		turn, err := r.backend.Chat(ctx, buildSystemPrompt(time.Now()), r.messages, todoTools())
		spinner.Stop()
		if err != nil {
			return err
		}

		if firstTurn {
			firstTurn = false
			if r.sessionStats.MessageCount == 1 {
				r.sessionStats.FirstResponseLatency = time.Since(exchangeStart)
			}
		}

		r.messages = append(r.messages, turn.AssistantMessage())
		if turn.Content != "" {
			r.ui.Response(turn.Content)
		}

		if !turn.HasToolCalls() {
			r.saveSession()
			return nil
		}

		// The model wants tools; run them and ask again with the results.
		results := make([]llm.ToolResult, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			r.ui.ToolCall(call.Name, call.Arguments)
			result := executeToolCall(ctx, r.api, call)
			r.ui.ToolResult(result.Content, result.IsError)
			r.sessionStats.ToolCallCount++
			results = append(results, result)
		}
		r.messages = append(r.messages, llm.ToolResultMessage(results...))

		spinnerMsg = "Processing results"
	}

	r.saveSession()
	return fmt.Errorf("tool loop exceeded %d rounds without a final answer", maxToolRounds)
}

// saveSession persists the conversation (best effort).
func (r *AssistantChatRunner) saveSession() {
	if r.sessions == nil {
		return
	}

	session := &ChatSession{
		ID:        r.sessionID,
		CreatedAt: r.createdAt,
		Backend:   r.backend.Name(),
		Model:     r.backend.Model(),
		Messages:  r.messages,
	}
	if err := r.sessions.Save(session); err != nil {
		slog.Warn("failed to save chat session",
			"session_id", r.sessionID,
			"error", err,
		)
		return
	}
	// Save stamps CreatedAt on the first write; keep it for later saves.
	r.createdAt = session.CreatedAt
}

// displaySessionEndWithStats finalizes statistics and shows the
// session summary.
func (r *AssistantChatRunner) displaySessionEndWithStats() {
	r.sessionStats.Duration = time.Since(r.sessionStartTime)
	r.ui.SessionEndRich(r.sessionID, &r.sessionStats)
}

// handleShutdown performs graceful shutdown.
//
// # Description
//
// Called when the context is cancelled. Saves the conversation so it
// can be resumed, displays the session summary, and returns the
// context's error.
//
// # Inputs
//
//   - ctx: The cancelled context
//
// # Outputs
//
//   - error: The context's error (typically context.Canceled)
func (r *AssistantChatRunner) handleShutdown(ctx context.Context) error {
	slog.Info("graceful shutdown initiated", "session_id", r.sessionID)

	// Save conversation state (best effort)
	r.saveSession()

	// Display session end with statistics
	fmt.Println() // New line after interrupted input
	r.displaySessionEndWithStats()

	return ctx.Err()
}

// Close releases all resources held by the runner.
//
// # Description
//
// Closes the session store and marks the runner as closed. Safe to
// call multiple times (idempotent). Should be called after Run()
// returns, typically via defer.
//
// # Outputs
//
//   - error: Non-nil if the session store failed to close
func (r *AssistantChatRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil // Already closed, idempotent
	}
	r.closed = true

	if r.sessions != nil {
		return r.sessions.Close()
	}
	return nil
}
