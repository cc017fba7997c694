// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package todoclient is a typed HTTP client for the todo API.
//
// The tasks CLI and the web UI both talk to the API through this package
// so request construction, error decoding, and timeouts live in one
// place. The zero-dependency wire types here mirror the server's JSON
// exactly; keeping them separate from the server packages lets this
// client be vendored into other tools without dragging the service in.
package todoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is where a locally started todo API listens.
const DefaultBaseURL = "http://localhost:12310"

// defaultTimeout bounds each request when the caller's context has no
// earlier deadline.
const defaultTimeout = 10 * time.Second

// =============================================================================
// Wire Types
// =============================================================================

// Todo mirrors one stored todo as the API serves it.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Stats mirrors the aggregate counts from /v1/todos/stats.
type Stats struct {
	TotalCount           int     `json:"total_count"`
	CompletedCount       int     `json:"completed_count"`
	IncompleteCount      int     `json:"incomplete_count"`
	CompletionPercentage float64 `json:"completion_percentage"`
	HasTodos             bool    `json:"has_todos"`
}

// CreateParams is the body for creating a todo. DueDate is passed through
// verbatim; the server validates the accepted layouts.
type CreateParams struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// UpdateParams is the body for a partial update. Nil fields are omitted
// from the request and stay unchanged on the server.
type UpdateParams struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// =============================================================================
// Errors
// =============================================================================

// APIError is a non-2xx response decoded from the server.
type APIError struct {
	// StatusCode is the HTTP status the server answered with.
	StatusCode int

	// Message is the server's error text, or the raw body when the
	// response was not the usual {"error": ...} shape.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todo API returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// =============================================================================
// Client
// =============================================================================

// Client talks to one todo API server. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, for tests or
// custom transports.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the API at baseURL. An empty baseURL uses
// DefaultBaseURL.
//
// Example:
//
//	client := todoclient.New("http://localhost:12310")
//	todos, err := client.List(ctx)
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches every todo, oldest first.
func (c *Client) List(ctx context.Context) ([]Todo, error) {
	var todos []Todo
	if err := c.do(ctx, http.MethodGet, "/v1/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// Get fetches one todo by ID. A missing ID surfaces as an APIError
// with status 404; use IsNotFound to branch on it.
func (c *Client) Get(ctx context.Context, id string) (Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodGet, "/v1/todos/"+id, nil, &todo); err != nil {
		return Todo{}, err
	}
	return todo, nil
}

// Create stores a new todo and returns it with server-assigned ID and
// timestamps.
func (c *Client) Create(ctx context.Context, params CreateParams) (Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodPost, "/v1/todos", params, &todo); err != nil {
		return Todo{}, err
	}
	return todo, nil
}

// Update applies a partial update and returns the stored result.
func (c *Client) Update(ctx context.Context, id string, params UpdateParams) (Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodPut, "/v1/todos/"+id, params, &todo); err != nil {
		return Todo{}, err
	}
	return todo, nil
}

// Delete removes a todo. Deleting a missing ID returns a 404 APIError.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/todos/"+id, nil, nil)
}

// Stats fetches the aggregate completion counts.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/v1/todos/stats", nil, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// Health checks whether the server is reachable and answering.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// do runs one request: marshal body, send, map non-2xx to APIError,
// decode the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach todo API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse todo API response: %w", err)
	}
	return nil
}

// decodeAPIError turns an error response into an *APIError, preferring
// the server's {"error": ...} message.
func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
