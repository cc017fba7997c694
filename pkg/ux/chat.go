// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// HeaderConfig contains configuration for displaying the chat header.
//
// # Description
//
// HeaderConfig groups all optional parameters for the chat header display.
// This allows extending the header with new fields without breaking existing
// callers of the Header() method.
//
// # Fields
//
//   - Backend: Required. LLM backend name (e.g., "anthropic", "openai").
//   - Model: Model identifier reported by the backend client. May be empty.
//   - SessionID: Session identifier for resume. May be empty for new sessions.
//   - TodoStats: Optional aggregated stats for the todo list.
type HeaderConfig struct {
	Backend   string
	Model     string
	SessionID string
	TodoStats *TodoListStats // Optional stats from the todo API
}

// TodoListStats contains aggregated metrics for the todo list.
//
// # Description
//
// TodoListStats captures aggregate information about the todo list.
// This is fetched from the todo API at session start and displayed
// in the chat header so users see the list state before chatting.
//
// # Fields
//
//   - TotalCount: Number of todos in the list
//   - IncompleteCount: Number of todos not yet completed
type TodoListStats struct {
	TotalCount      int `json:"total_count"`
	IncompleteCount int `json:"incomplete_count"`
}

// SessionStats aggregates metrics from a chat session for display.
//
// # Description
//
// SessionStats captures accumulated metrics across all exchanges in a
// chat session. It's designed to be displayed when the session ends,
// giving users visibility into their session's activity.
//
// # Fields
//
//   - MessageCount: Number of user messages sent
//   - ToolCallCount: Number of tool calls the assistant executed
//   - Duration: Total session duration
//   - FirstResponseLatency: Time to the first response
//   - AverageResponseTime: Average time per response
type SessionStats struct {
	MessageCount         int
	ToolCallCount        int
	Duration             time.Duration
	FirstResponseLatency time.Duration
	AverageResponseTime  time.Duration
}

// ChatUI defines the interface for chat user interface operations.
// Implementations handle rendering chat elements to different outputs.
type ChatUI interface {
	// Header displays the chat session header with backend and session info.
	Header(backend, model, sessionID string)

	// HeaderWithConfig displays the chat session header with full configuration.
	// This method supports displaying todo list stats and other metadata.
	HeaderWithConfig(config HeaderConfig)

	// Welcome displays the assistant's opening greeting
	Welcome(text string)

	// Prompt returns the styled input prompt string
	Prompt() string

	// Response displays the assistant's response
	Response(answer string)

	// ToolCall displays a tool invocation made by the assistant
	ToolCall(name, arguments string)

	// ToolResult displays the outcome of a tool invocation
	ToolResult(content string, isErr bool)

	// Error displays a chat error message
	Error(err error)

	// SessionResume displays session resume information
	SessionResume(sessionID string, turnCount int)

	// SessionEnd displays session end information
	SessionEnd(sessionID string)

	// SessionEndRich displays rich session end information with stats.
	//
	// This is the "maximalist" session end experience, showing:
	//   - Session ID with copy hint
	//   - Session statistics (messages, tool calls, duration)
	//   - Commands for interacting with the session (resume, history)
	//
	// Use this instead of SessionEnd when you have accumulated stats.
	SessionEndRich(sessionID string, stats *SessionStats)
}

// terminalChatUI implements ChatUI for terminal output
type terminalChatUI struct {
	writer      io.Writer
	personality PersonalityLevel
}

// write is a helper that writes formatted output and handles errors.
// Errors are silently ignored as there's no meaningful recovery for terminal output.
func (u *terminalChatUI) write(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(u.writer, format, args...); err != nil {
		// Terminal write errors are non-recoverable; silently ignore
		return
	}
}

// writeln is a helper that writes a line and handles errors.
func (u *terminalChatUI) writeln(args ...interface{}) {
	if _, err := fmt.Fprintln(u.writer, args...); err != nil {
		// Terminal write errors are non-recoverable; silently ignore
		return
	}
}

// NewChatUI creates a new terminal-based ChatUI
func NewChatUI() ChatUI {
	return &terminalChatUI{
		writer:      os.Stdout,
		personality: GetPersonality().Level,
	}
}

// NewChatUIWithWriter creates a ChatUI with a custom writer (for testing)
func NewChatUIWithWriter(w io.Writer, personality PersonalityLevel) ChatUI {
	return &terminalChatUI{
		writer:      w,
		personality: personality,
	}
}

// Header displays the chat session header.
func (u *terminalChatUI) Header(backend, model, sessionID string) {
	u.HeaderWithConfig(HeaderConfig{
		Backend:   backend,
		Model:     model,
		SessionID: sessionID,
	})
}

// HeaderWithConfig displays the chat session header with full configuration.
//
// # Description
//
// Renders the chat header box with backend, model, and optional metadata
// including session ID and todo list stats. Adapts output based on
// personality level.
//
// # Inputs
//
//   - config: HeaderConfig with backend, model, sessionID, todo stats
//
// # Outputs
//
// None. Writes directly to the configured writer.
func (u *terminalChatUI) HeaderWithConfig(config HeaderConfig) {
	if u.personality == PersonalityMachine {
		u.headerMachine(config)
		return
	}

	if u.personality == PersonalityMinimal {
		u.headerMinimal(config)
		return
	}

	u.headerFull(config)
}

// headerMachine renders the header in machine-readable format.
func (u *terminalChatUI) headerMachine(config HeaderConfig) {
	parts := []string{fmt.Sprintf("backend=%s", config.Backend)}
	if config.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", config.Model))
	}
	if config.SessionID != "" {
		parts = append(parts, fmt.Sprintf("session=%s", config.SessionID))
	}
	if config.TodoStats != nil {
		parts = append(parts, fmt.Sprintf("todo_count=%d", config.TodoStats.TotalCount))
		parts = append(parts, fmt.Sprintf("open_count=%d", config.TodoStats.IncompleteCount))
	}
	u.write("CHAT_START: %s\n", strings.Join(parts, " "))
}

// headerMinimal renders the header in minimal format.
func (u *terminalChatUI) headerMinimal(config HeaderConfig) {
	u.write("Todo Assistant (%s)\n", config.Backend)
	if config.TodoStats != nil {
		u.write("Todos: %d total, %d open\n",
			config.TodoStats.TotalCount, config.TodoStats.IncompleteCount)
	}
	u.writeln("Type 'exit', 'quit', or 'bye' to end.")
}

// headerFull renders the header with full styling.
func (u *terminalChatUI) headerFull(config HeaderConfig) {
	var content strings.Builder
	content.WriteString(Styles.Highlight.Render(string(IconChat) + " Todo Assistant"))
	content.WriteString("\n")
	if config.Model != "" {
		content.WriteString(fmt.Sprintf("Backend: %s %s",
			Styles.Success.Render(config.Backend),
			Styles.Muted.Render(fmt.Sprintf("(%s)", config.Model))))
	} else {
		content.WriteString(fmt.Sprintf("Backend: %s", Styles.Success.Render(config.Backend)))
	}

	if config.TodoStats != nil {
		content.WriteString("\n")
		content.WriteString(fmt.Sprintf("Todos: %s %s",
			Styles.Success.Render(fmt.Sprintf("%d", config.TodoStats.TotalCount)),
			Styles.Muted.Render(fmt.Sprintf("(%d open)", config.TodoStats.IncompleteCount))))
	}

	if config.SessionID != "" {
		content.WriteString("\n")
		content.WriteString(fmt.Sprintf("Session: %s", Styles.Muted.Render(config.SessionID)))
	}

	boxStyle := Styles.Box.Width(60)
	u.writeln(boxStyle.Render(content.String()))
	u.writeln()
	u.writeln(Styles.Muted.Render("Type 'exit', 'quit', or 'bye' to end."))
	u.writeln()
}

// Welcome displays the assistant's opening greeting
func (u *terminalChatUI) Welcome(text string) {
	switch u.personality {
	case PersonalityMachine:
		u.write("RESPONSE: %s\n", text)
	case PersonalityMinimal:
		u.writeln(text)
	default:
		boxStyle := Styles.InfoBox.Width(68)
		u.writeln(boxStyle.Render(text))
	}
}

// Prompt returns the styled input prompt string
func (u *terminalChatUI) Prompt() string {
	if u.personality == PersonalityMachine {
		return "You: "
	}
	return Styles.Highlight.Render("You: ")
}

// Response displays the assistant's response
func (u *terminalChatUI) Response(answer string) {
	if u.personality == PersonalityMachine {
		u.write("RESPONSE: %s\n", answer)
		return
	}
	u.writeln()
	if u.personality == PersonalityMinimal {
		u.write("Todo Assistant: %s\n", answer)
		return
	}
	u.write("%s %s\n", Styles.Highlight.Render("Todo Assistant:"), answer)
}

// ToolCall displays a tool invocation made by the assistant
func (u *terminalChatUI) ToolCall(name, arguments string) {
	switch u.personality {
	case PersonalityMachine:
		u.write("TOOL_CALL: name=%s arguments=%s\n", name, arguments)
	case PersonalityMinimal:
		u.write("  [%s]\n", name)
	default:
		args := truncate(arguments, 60)
		if args == "" || args == "{}" {
			u.write("  %s %s\n", IconArrow.Render(), Styles.Subtitle.Render(name))
			return
		}
		u.write("  %s %s %s\n", IconArrow.Render(),
			Styles.Subtitle.Render(name), Styles.Muted.Render(args))
	}
}

// ToolResult displays the outcome of a tool invocation.
// Successful results are shown only at full personality; errors are
// always surfaced so the user knows why the assistant is retrying.
func (u *terminalChatUI) ToolResult(content string, isErr bool) {
	if u.personality == PersonalityMachine {
		status := "ok"
		if isErr {
			status = "error"
		}
		u.write("TOOL_RESULT: status=%s content=%s\n", status, content)
		return
	}
	if isErr {
		u.write("  %s %s\n", IconWarning.Render(), Styles.Warning.Render(truncate(content, 120)))
		return
	}
	if u.personality == PersonalityFull {
		u.write("  %s %s\n", IconSuccess.Render(), Styles.Muted.Render(truncate(content, 72)))
	}
}

// Error displays a chat error message
func (u *terminalChatUI) Error(err error) {
	if u.personality == PersonalityMachine {
		u.write("CHAT_ERROR: %v\n", err)
		return
	}
	u.write("%s %s\n", IconError.Render(), Styles.Error.Render(fmt.Sprintf("Chat error: %v", err)))
}

// SessionResume displays session resume information
func (u *terminalChatUI) SessionResume(sessionID string, turnCount int) {
	if u.personality == PersonalityMachine {
		u.write("SESSION_RESUME: session=%s turns=%d\n", sessionID, turnCount)
		return
	}
	u.write("%s %s\n", IconSuccess.Render(),
		Styles.Success.Render(fmt.Sprintf("Resumed session %s (%d previous turns)", sessionID, turnCount)))
}

// SessionEnd displays session end information.
//
// # Description
//
// Displays a simple goodbye message with the session ID. For a richer
// experience with statistics and next steps, use SessionEndRich instead.
//
// # Inputs
//
//   - sessionID: The session identifier. May be empty for anonymous sessions.
//
// # Outputs
//
// None. Writes directly to the configured writer.
//
// # Examples
//
//	ui.SessionEnd("sess-abc123")
//	// Output (full personality):
//	// Session: sess-abc123
//	// Todo Assistant: Goodbye! Have a great day!
//
// # Limitations
//
//   - Does not display session statistics
//   - Does not show resume commands
//
// # Assumptions
//
//   - Writer is available and writable
func (u *terminalChatUI) SessionEnd(sessionID string) {
	if u.personality == PersonalityMachine {
		u.write("CHAT_END: session=%s\n", sessionID)
		return
	}
	if sessionID != "" {
		u.writeln(Styles.Muted.Render(fmt.Sprintf("Session: %s", sessionID)))
	}
	u.writeln("Todo Assistant: Goodbye! Have a great day!")
}

// SessionEndRich displays rich session end information with statistics.
//
// # Description
//
// Displays a comprehensive session summary including:
//   - Session ID with visual prominence
//   - Session statistics (messages, tool calls, duration)
//   - Performance metrics (time to first response)
//   - Commands for resuming the session later
//
// This is the "maximalist" session end experience, designed to give
// users full visibility into their session and clear next steps.
//
// # Inputs
//
//   - sessionID: The session identifier. May be empty for anonymous sessions.
//   - stats: Session statistics. If nil, falls back to SessionEnd behavior.
//
// # Outputs
//
// None. Writes directly to the configured writer.
//
// # Examples
//
//	stats := &SessionStats{
//	    MessageCount:  5,
//	    ToolCallCount: 3,
//	    Duration:      2 * time.Minute,
//	}
//	ui.SessionEndRich("sess-abc123", stats)
//
// # Limitations
//
//   - Box rendering requires terminal width of at least 68 characters
//   - Emoji icons may not render on all terminals
//
// # Assumptions
//
//   - Writer is available and writable
//   - Terminal supports ANSI colors (for full personality)
func (u *terminalChatUI) SessionEndRich(sessionID string, stats *SessionStats) {
	// Fall back to simple end if no stats
	if stats == nil {
		u.SessionEnd(sessionID)
		return
	}

	if u.personality == PersonalityMachine {
		u.sessionEndRichMachine(sessionID, stats)
		return
	}

	if u.personality == PersonalityMinimal {
		u.sessionEndRichMinimal(sessionID, stats)
		return
	}

	u.sessionEndRichFull(sessionID, stats)
}

// sessionEndRichMachine renders session end in machine-readable format.
//
// Output format:
// CHAT_END: session=<id> messages=<n> tool_calls=<n> duration=<d>
func (u *terminalChatUI) sessionEndRichMachine(sessionID string, stats *SessionStats) {
	u.write("CHAT_END: session=%s messages=%d tool_calls=%d duration=%s\n",
		sessionID, stats.MessageCount, stats.ToolCallCount, stats.Duration.Round(time.Millisecond))
}

// sessionEndRichMinimal renders session end in minimal format.
func (u *terminalChatUI) sessionEndRichMinimal(sessionID string, stats *SessionStats) {
	u.writeln()
	if sessionID != "" {
		u.write("Session: %s\n", sessionID)
	}
	u.write("Messages: %d | Tool calls: %d | Duration: %s\n",
		stats.MessageCount, stats.ToolCallCount, formatDuration(stats.Duration))
	u.writeln("Todo Assistant: Goodbye! Have a great day!")
}

// sessionEndRichFull renders session end with full styling.
//
// # Description
//
// Outputs a comprehensive, styled session summary in a bordered box.
// Includes all available statistics and hints for continuing the session.
//
// # Inputs
//
//   - sessionID: The session identifier.
//   - stats: Session statistics to display.
//
// # Outputs
//
// None. Writes styled box with:
//   - Session Summary header with ID
//   - Statistics section with icons
//   - Continue Later section with resume command
//   - Goodbye message
//
// # Limitations
//
//   - Requires terminal width >= 68 characters for proper rendering
//   - Icons require Unicode support
//
// # Assumptions
//
//   - Stats is non-nil (caller validates)
//   - Terminal supports ANSI color codes
func (u *terminalChatUI) sessionEndRichFull(sessionID string, stats *SessionStats) {
	u.writeln()

	var content strings.Builder

	// Session section
	content.WriteString(Styles.Subtitle.Render("Session Summary"))
	content.WriteString("\n\n")

	// Session ID with visual prominence
	if sessionID != "" {
		content.WriteString(fmt.Sprintf("  %s  %s\n",
			Styles.Muted.Render("ID:"),
			Styles.Highlight.Render(sessionID)))
	}

	// Stats section
	content.WriteString("\n")
	content.WriteString(Styles.Subtitle.Render("Statistics"))
	content.WriteString("\n\n")

	// Core metrics with icons
	content.WriteString(fmt.Sprintf("  %s  %d messages exchanged\n",
		IconChat.Render(), stats.MessageCount))

	// Tool calls (conditional)
	if stats.ToolCallCount > 0 {
		content.WriteString(fmt.Sprintf("  %s  %d tool calls executed\n",
			IconInfo.Render(), stats.ToolCallCount))
	}

	// Duration
	content.WriteString(fmt.Sprintf("  %s  %s session duration\n",
		IconTime.Render(), formatDuration(stats.Duration)))

	// Performance metrics (conditional)
	if stats.FirstResponseLatency > 0 {
		content.WriteString(fmt.Sprintf("  %s  %s time to first response\n",
			Styles.Muted.Render("⚡"), formatDuration(stats.FirstResponseLatency)))
	}

	// Next steps section (only if session ID available)
	if sessionID != "" {
		content.WriteString("\n")
		content.WriteString(Styles.Subtitle.Render("Continue Later"))
		content.WriteString("\n\n")
		content.WriteString(fmt.Sprintf("  %s\n",
			Styles.Muted.Render("Resume this session:")))
		content.WriteString(fmt.Sprintf("  %s\n",
			Styles.Success.Render(fmt.Sprintf("./tasks chat --session %s", sessionID))))
	}

	// Render the styled box
	// Width 68 accommodates the resume command (21 chars + 36 char UUID + padding)
	boxStyle := Styles.Box.Width(68)
	u.writeln(boxStyle.Render(content.String()))
	u.writeln()
	u.writeln(Styles.Highlight.Render("Todo Assistant: Goodbye! Have a great day!"))
}

// formatDuration formats a duration for human-readable display.
//
// # Description
//
// Converts a time.Duration to a human-friendly string representation.
// Adapts the format based on the magnitude of the duration.
//
// # Inputs
//
//   - d: The duration to format.
//
// # Outputs
//
//   - string: Formatted duration string.
//
// # Examples
//
//	formatDuration(500*time.Millisecond) // "500ms"
//	formatDuration(5*time.Second)        // "5.0s"
//	formatDuration(90*time.Second)       // "1m 30s"
//	formatDuration(2*time.Hour)          // "2h 0m"
//
// # Limitations
//
//   - Does not handle durations longer than 24 hours specially
//
// # Assumptions
//
//   - Duration is non-negative
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// FormatRelativeTime converts a Unix milliseconds timestamp to a relative time string.
//
// # Description
//
// Converts a timestamp to a human-friendly relative time like "2h ago",
// "3 days ago", etc. Adapts the unit based on the time difference.
// Used by the session listing to show when each session was last active.
//
// # Inputs
//
//   - unixMs: Unix timestamp in milliseconds
//
// # Outputs
//
//   - string: Relative time string (e.g., "2h ago", "3 days ago")
//
// # Examples
//
//	FormatRelativeTime(time.Now().Add(-2*time.Hour).UnixMilli()) // "2h ago"
//	FormatRelativeTime(time.Now().Add(-3*24*time.Hour).UnixMilli()) // "3 days ago"
//
// # Limitations
//
//   - Returns "just now" for times within the last minute
//   - Does not handle future times specially
//
// # Assumptions
//
//   - Timestamp is in milliseconds (not seconds)
func FormatRelativeTime(unixMs int64) string {
	if unixMs == 0 {
		return "unknown"
	}

	t := time.UnixMilli(unixMs)
	diff := time.Since(t)

	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	}
	if diff < 24*time.Hour {
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	}
	if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	if diff < 30*24*time.Hour {
		weeks := int(diff.Hours() / (24 * 7))
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	}

	// For older times, show the date
	return t.Format("Jan 2, 2006")
}
