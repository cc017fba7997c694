// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main contains the tasks CLI including the interactive todo
// assistant.
//
// This file defines the ChatRunner interface for the chat loop plus the
// input reading abstractions that make the loop testable.
//
// Architecture:
//
//	cmd_chat.go → ChatRunner Interface → AssistantChatRunner
//	                                     ↓
//	                                     llm.Client (model backend)
//	                                     todoclient.Client (tool execution)
//	                                     SessionStore (local history)
//	                                     InputReader (stdin abstraction)
//	                                     ChatUI (from pkg/ux)
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// =============================================================================
// ChatRunner Interface
// =============================================================================

// ChatRunner defines the contract for running interactive chat sessions.
//
// # Description
//
// ChatRunner abstracts the chat loop so the chat command does not care
// how messages are produced or answered. Implementations handle user
// input, model communication, tool execution, and output rendering.
//
// ChatRunner embeds resource cleanup through Close. Callers MUST call
// Close() when done, typically via defer.
//
// # Inputs
//
// Run accepts a context for cancellation support. When the context is
// cancelled, Run performs graceful shutdown:
//   - Stops accepting new input
//   - Saves the conversation for later resume
//   - Cleans up resources
//
// # Outputs
//
// Run returns an error if the session failed to start or hit an
// unrecoverable error. Normal exit (user types "exit", "quit", or
// "bye") returns nil. Context cancellation returns context.Canceled.
//
// # Examples
//
//	runner, err := NewAssistantChatRunner(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Close()
//
//	ctx, cancel := context.WithCancel(context.Background())
//	// Set up signal handler to call cancel() on SIGINT/SIGTERM
//
//	if err := runner.Run(ctx); err != nil && err != context.Canceled {
//	    log.Fatal(err)
//	}
//
// # Limitations
//
//   - Implementations are not reusable after Run() returns
//
// # Assumptions
//
//   - Caller sets up signal handling for graceful shutdown
type ChatRunner interface {
	// Run executes the interactive chat loop until exit, error, or
	// context cancellation.
	//
	// Exits when:
	//   - User types an exit command (returns nil)
	//   - Input reaches EOF (returns nil)
	//   - Context is cancelled (returns context.Canceled)
	//   - Fatal error occurs (returns the error)
	Run(ctx context.Context) error

	// Close releases all resources held by the runner. Safe to call
	// multiple times. Must be called after Run() returns.
	Close() error
}

// =============================================================================
// InputReader Interface
// =============================================================================

// InputReader abstracts user input reading for testability.
//
// # Description
//
// InputReader enables mocking of stdin in unit tests. The production
// implementations wrap bufio.Reader or bubbletea; the test
// implementation returns predetermined inputs.
//
// # Outputs
//
// ReadLine returns the line read (trimmed) and any error. It returns
// io.EOF when input is exhausted.
//
// # Limitations
//
//   - Line-oriented; no multi-line input
type InputReader interface {
	// ReadLine reads a single line of input, trimmed of surrounding
	// whitespace. Blocks until input is available. Returns io.EOF
	// when input is exhausted.
	ReadLine() (string, error)
}

// PromptingInputReader extends InputReader with prompt display.
//
// # Description
//
// Implemented by input readers that render their own prompt (the
// interactive bubbletea reader). The chat runner checks for this
// interface to avoid printing the prompt twice.
//
// # Usage
//
//	if p, ok := reader.(PromptingInputReader); ok {
//	    p.SetPrompt(promptString)
//	} else {
//	    fmt.Print(promptString)
//	}
//	line, err := reader.ReadLine()
type PromptingInputReader interface {
	InputReader
	// SetPrompt sets the prompt string to display before input.
	SetPrompt(prompt string)
}

// =============================================================================
// StdinReader Implementation
// =============================================================================

// StdinReader implements InputReader for plain stdin reading.
//
// # Description
//
// StdinReader wraps bufio.Reader to read lines from os.Stdin. Used
// when stdin is not a terminal (piped input, CI) and as the fallback
// for the interactive reader.
//
// # Thread Safety
//
// Not thread-safe. Single reader per stdin.
//
// # Limitations
//
//   - Blocks until input available; the read cannot be cancelled
//   - No line editing or history
type StdinReader struct {
	reader *bufio.Reader
}

// NewStdinReader creates a StdinReader wrapping os.Stdin.
func NewStdinReader() *StdinReader {
	return &StdinReader{
		reader: bufio.NewReader(os.Stdin),
	}
}

// ReadLine reads a single line from stdin, trimmed. Returns io.EOF
// when stdin closes.
func (r *StdinReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// InteractiveInputReader Implementation (with history)
// =============================================================================

// InteractiveInputReader implements InputReader with history navigation.
//
// # Description
//
// InteractiveInputReader uses charmbracelet/bubbletea to provide an
// interactive input experience:
//   - Up/down arrow history navigation
//   - Line editing
//   - Proper terminal handling
//
// Falls back to StdinReader for non-TTY environments.
//
// # Thread Safety
//
// Not thread-safe. Single reader per stdin.
//
// # Limitations
//
//   - History is in-memory only, not persisted across sessions
type InteractiveInputReader struct {
	history      []string
	historyIndex int
	maxHistory   int
	prompt       string
}

// inputModel is the bubbletea model for interactive input.
type inputModel struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	currentInput string // Stores in-progress input while navigating history
	done         bool
	cancelled    bool
}

// NewInteractiveInputReader creates an interactive input reader with
// history.
//
// # Description
//
// Returns an InteractiveInputReader when stdin is a TTY and a plain
// StdinReader otherwise, so piped input keeps working.
//
// The interactive reader renders its own prompt; set it through
// SetPrompt. The plain reader does not, so the caller prints the
// prompt itself.
//
// # Inputs
//
//   - maxHistory: Maximum number of history entries to keep
//
// # Outputs
//
//   - InputReader: Interactive reader if TTY, StdinReader otherwise
func NewInteractiveInputReader(maxHistory int) InputReader {
	// Fall back to basic stdin reader for non-TTY (piped input, CI/CD)
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewStdinReader()
	}

	return &InteractiveInputReader{
		history:      make([]string, 0, maxHistory),
		historyIndex: -1,
		maxHistory:   maxHistory,
		prompt:       "> ", // Overridden via SetPrompt
	}
}

// SetPrompt sets the prompt string displayed by the input component.
func (r *InteractiveInputReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

// ReadLine reads a single line with interactive history support.
//
// # Description
//
// Displays the prompt and reads user input:
//   - Up arrow: Previous history entry
//   - Down arrow: Next history entry
//   - Enter: Submit input
//   - Ctrl+C: Cancel current input (returns empty string)
//   - Ctrl+D: EOF (returns io.EOF)
//
// Submitted non-empty inputs are added to history.
func (r *InteractiveInputReader) ReadLine() (string, error) {
	ti := textinput.New()
	ti.Prompt = r.prompt
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 80

	m := inputModel{
		textInput:    ti,
		history:      r.history,
		historyIndex: -1,
	}

	// Render to stderr so machine-readable stdout stays clean.
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := finalModel.(inputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}

	// Ctrl+D on an empty line means EOF
	if result.cancelled && result.textInput.Value() == "" {
		return "", io.EOF
	}

	input := strings.TrimSpace(result.textInput.Value())
	if input != "" {
		r.addToHistory(input)
	}

	return input, nil
}

// addToHistory appends an input, skipping consecutive duplicates and
// trimming to maxHistory.
func (r *InteractiveInputReader) addToHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}

	r.history = append(r.history, input)

	if len(r.history) > r.maxHistory {
		r.history = r.history[1:]
	}
}

// Init initializes the bubbletea model.
func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input events for the bubbletea model.
func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlC:
			// Clear input and return empty
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			// EOF - signal to exit
			m.cancelled = true
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyUp:
			if len(m.history) == 0 {
				return m, nil
			}

			// Save current input when first entering history
			if m.historyIndex == -1 {
				m.currentInput = m.textInput.Value()
				m.historyIndex = len(m.history) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}

			m.textInput.SetValue(m.history[m.historyIndex])
			m.textInput.CursorEnd()
			return m, nil

		case tea.KeyDown:
			if m.historyIndex == -1 {
				return m, nil
			}

			if m.historyIndex < len(m.history)-1 {
				m.historyIndex++
				m.textInput.SetValue(m.history[m.historyIndex])
			} else {
				// Walked past the newest entry; restore what was typed
				m.historyIndex = -1
				m.textInput.SetValue(m.currentInput)
			}
			m.textInput.CursorEnd()
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the input prompt.
func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}

// =============================================================================
// MockInputReader Implementation (for testing)
// =============================================================================

// MockInputReader implements InputReader for testing.
//
// # Description
//
// Returns predetermined inputs in sequence so chat runners can be
// tested without a terminal. After the inputs are consumed, ReadLine
// returns io.EOF.
//
// # Examples
//
//	mock := NewMockInputReader([]string{"buy milk", "exit"})
//	line1, _ := mock.ReadLine() // "buy milk"
//	line2, _ := mock.ReadLine() // "exit"
//	_, err := mock.ReadLine()   // io.EOF
//
// # Thread Safety
//
// Not thread-safe. Designed for single-threaded tests.
type MockInputReader struct {
	inputs []string
	index  int
}

// NewMockInputReader creates a MockInputReader with predetermined
// inputs.
func NewMockInputReader(inputs []string) *MockInputReader {
	return &MockInputReader{
		inputs: inputs,
	}
}

// ReadLine returns the next predetermined input, then io.EOF.
func (m *MockInputReader) ReadLine() (string, error) {
	if m.index >= len(m.inputs) {
		return "", io.EOF
	}
	line := m.inputs[m.index]
	m.index++
	return line, nil
}

// =============================================================================
// Configuration
// =============================================================================

// AssistantChatRunnerConfig holds configuration for creating
// AssistantChatRunner.
//
// # Fields
//
//   - Backend: Optional. Model backend, "anthropic" or "openai".
//     Default: TASKS_CHAT_BACKEND, then the config file, then "anthropic".
//   - APIURL: Required. Todo API base URL.
//   - SessionID: Optional. Resume a saved session by its ID. If empty,
//     a fresh session is started.
//
// # Examples
//
//	cfg := AssistantChatRunnerConfig{
//	    APIURL: "http://localhost:12310",
//	}
//
//	// Resume an earlier conversation
//	cfg := AssistantChatRunnerConfig{
//	    APIURL:    "http://localhost:12310",
//	    SessionID: "2f9c4a1e-8d17-4b6f-9be2-6f1a50c3d441",
//	}
type AssistantChatRunnerConfig struct {
	Backend   string // Model backend name (optional)
	APIURL    string // Todo API base URL (required)
	SessionID string // Session ID to resume (optional)
}

// =============================================================================
// Helper Functions
// =============================================================================

// isExitCommand checks if the input ends the conversation.
//
// # Description
//
// Returns true for "exit", "quit", and "bye" in any letter case. These
// inputs get a goodbye from the assistant instead of a model call.
//
// # Examples
//
//	isExitCommand("exit")  // true
//	isExitCommand("Bye")   // true
//	isExitCommand("hello") // false
//
// # Assumptions
//
//   - Input is already trimmed
func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit", "bye":
		return true
	}
	return false
}
