// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// newTestStore creates a file store in a per-test temp directory.
func newTestStore(t *testing.T) *todostore.FileStore {
	t.Helper()
	return todostore.NewFileStore(filepath.Join(t.TempDir(), "todos.json"))
}

// createTestRouter creates a Gin router with the specified handler for testing.
func createTestRouter(method, path string, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	switch method {
	case "GET":
		router.GET(path, handler)
	case "POST":
		router.POST(path, handler)
	case "PUT":
		router.PUT(path, handler)
	case "DELETE":
		router.DELETE(path, handler)
	}
	return router
}

// performRequest executes an HTTP request against the test router.
func performRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// mustCreate inserts a todo directly through the store.
func mustCreate(t *testing.T, store todostore.Store, title string, completed bool) todostore.Record {
	t.Helper()
	rec, err := store.Create(title, "", completed, nil)
	require.NoError(t, err)
	return rec
}

// =============================================================================
// Welcome and Health Tests
// =============================================================================

func TestWelcome_Message(t *testing.T) {
	router := createTestRouter("GET", "/", Welcome)
	w := performRequest(router, "GET", "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Welcome to the Todo API", response["message"])
}

func TestHealthCheck_ReturnsOK(t *testing.T) {
	router := createTestRouter("GET", "/health", HealthCheck)
	w := performRequest(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

// =============================================================================
// ListTodos Tests
// =============================================================================

// TestListTodos_EmptyStore verifies that an empty store serves an empty
// JSON array, not null.
func TestListTodos_EmptyStore(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("GET", "/v1/todos", ListTodos(store))

	w := performRequest(router, "GET", "/v1/todos", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestListTodos_ReturnsCreated(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, "first", false)
	mustCreate(t, store, "second", true)

	router := createTestRouter("GET", "/v1/todos", ListTodos(store))
	w := performRequest(router, "GET", "/v1/todos", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var todos []todostore.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todos))
	require.Len(t, todos, 2)
	titles := []string{todos[0].Title, todos[1].Title}
	assert.Contains(t, titles, "first")
	assert.Contains(t, titles, "second")
}

func TestListTodos_StoreError(t *testing.T) {
	mock := &todostore.MockStore{ListErr: errors.New("disk gone")}
	router := createTestRouter("GET", "/v1/todos", ListTodos(mock))

	w := performRequest(router, "GET", "/v1/todos", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// =============================================================================
// GetTodo Tests
// =============================================================================

func TestGetTodo_Found(t *testing.T) {
	store := newTestStore(t)
	created := mustCreate(t, store, "read me", false)

	router := createTestRouter("GET", "/v1/todos/:id", GetTodo(store))
	w := performRequest(router, "GET", "/v1/todos/"+created.ID, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var todo todostore.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	assert.Equal(t, created.ID, todo.ID)
	assert.Equal(t, "read me", todo.Title)
}

// TestGetTodo_NotFound verifies the 404 body names the missing ID.
func TestGetTodo_NotFound(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("GET", "/v1/todos/:id", GetTodo(store))

	w := performRequest(router, "GET", "/v1/todos/no-such-id", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Todo with ID no-such-id not found", response["error"])
}

// =============================================================================
// CreateTodo Tests
// =============================================================================

func TestCreateTodo_Success(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("POST", "/v1/todos", CreateTodo(store))

	body := map[string]interface{}{
		"title":       "Buy milk",
		"description": "Two cartons",
	}
	w := performRequest(router, "POST", "/v1/todos", body)

	assert.Equal(t, http.StatusCreated, w.Code)

	var todo todostore.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	assert.NotEmpty(t, todo.ID)
	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, "Two cartons", todo.Description)
	assert.False(t, todo.Completed)
	assert.False(t, todo.CreatedAt.IsZero())
	assert.True(t, todo.UpdatedAt.Equal(todo.CreatedAt))
}

func TestCreateTodo_CompletedAndDueDate(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("POST", "/v1/todos", CreateTodo(store))

	body := map[string]interface{}{
		"title":     "File taxes",
		"completed": true,
		"due_date":  "2026-04-15T09:00:00Z",
	}
	w := performRequest(router, "POST", "/v1/todos", body)

	assert.Equal(t, http.StatusCreated, w.Code)

	var todo todostore.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	assert.True(t, todo.Completed)
	require.NotNil(t, todo.DueDate)
	assert.Equal(t, "2026-04-15T09:00:00Z", todo.DueDate.UTC().Format("2006-01-02T15:04:05Z"))

	// The due date must survive persistence, not just the response.
	stored, found, err := store.Get(todo.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, stored.DueDate)
}

func TestCreateTodo_InvalidJSON(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("POST", "/v1/todos", CreateTodo(store))

	req, _ := http.NewRequest("POST", "/v1/todos", bytes.NewBufferString("{invalid json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(t, response["error"], "invalid request body")
}

func TestCreateTodo_ValidationFailures(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("POST", "/v1/todos", CreateTodo(store))

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"description": "no title"}},
		{"blank title", map[string]interface{}{"title": "   "}},
		{"title too long", map[string]interface{}{"title": strings.Repeat("a", 101)}},
		{"description too long", map[string]interface{}{
			"title":       "ok",
			"description": strings.Repeat("d", 501),
		}},
		{"bad due date", map[string]interface{}{"title": "ok", "due_date": "not a date"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/v1/todos", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// Nothing should have been stored.
	todos, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestCreateTodo_StoreError(t *testing.T) {
	mock := &todostore.MockStore{CreateErr: errors.New("disk full")}
	router := createTestRouter("POST", "/v1/todos", CreateTodo(mock))

	w := performRequest(router, "POST", "/v1/todos", map[string]interface{}{"title": "doomed"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// =============================================================================
// UpdateTodo Tests
// =============================================================================

func TestUpdateTodo_PartialTitle(t *testing.T) {
	store := newTestStore(t)
	created, err := store.Create("old title", "keep this", false, nil)
	require.NoError(t, err)

	router := createTestRouter("PUT", "/v1/todos/:id", UpdateTodo(store))
	w := performRequest(router, "PUT", "/v1/todos/"+created.ID,
		map[string]interface{}{"title": "new title"})

	assert.Equal(t, http.StatusOK, w.Code)

	var todo todostore.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	assert.Equal(t, "new title", todo.Title)
	assert.Equal(t, "keep this", todo.Description)
	assert.False(t, todo.Completed)
}

func TestUpdateTodo_CompletedOnly(t *testing.T) {
	store := newTestStore(t)
	created := mustCreate(t, store, "toggle me", false)

	router := createTestRouter("PUT", "/v1/todos/:id", UpdateTodo(store))
	w := performRequest(router, "PUT", "/v1/todos/"+created.ID,
		map[string]interface{}{"completed": true})

	assert.Equal(t, http.StatusOK, w.Code)

	var todo todostore.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	assert.True(t, todo.Completed)
	assert.Equal(t, "toggle me", todo.Title)
}

func TestUpdateTodo_EmptyBodyStillSucceeds(t *testing.T) {
	store := newTestStore(t)
	created := mustCreate(t, store, "untouched", false)

	router := createTestRouter("PUT", "/v1/todos/:id", UpdateTodo(store))
	w := performRequest(router, "PUT", "/v1/todos/"+created.ID, map[string]interface{}{})

	assert.Equal(t, http.StatusOK, w.Code)

	var todo todostore.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	assert.Equal(t, "untouched", todo.Title)
	assert.False(t, todo.UpdatedAt.Before(created.UpdatedAt))
}

func TestUpdateTodo_NotFound(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("PUT", "/v1/todos/:id", UpdateTodo(store))

	w := performRequest(router, "PUT", "/v1/todos/ghost",
		map[string]interface{}{"title": "never lands"})

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Todo with ID ghost not found", response["error"])
}

func TestUpdateTodo_BadDueDate(t *testing.T) {
	store := newTestStore(t)
	created := mustCreate(t, store, "dated", false)

	router := createTestRouter("PUT", "/v1/todos/:id", UpdateTodo(store))
	w := performRequest(router, "PUT", "/v1/todos/"+created.ID,
		map[string]interface{}{"due_date": "whenever"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// DeleteTodo Tests
// =============================================================================

func TestDeleteTodo_Success(t *testing.T) {
	store := newTestStore(t)
	created := mustCreate(t, store, "remove me", false)

	router := createTestRouter("DELETE", "/v1/todos/:id", DeleteTodo(store))
	w := performRequest(router, "DELETE", "/v1/todos/"+created.ID, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	_, found, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteTodo_NotFound(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("DELETE", "/v1/todos/:id", DeleteTodo(store))

	w := performRequest(router, "DELETE", "/v1/todos/ghost", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Todo with ID ghost not found", response["error"])
}

// =============================================================================
// GetTodoStats Tests
// =============================================================================

func TestGetTodoStats_Empty(t *testing.T) {
	store := newTestStore(t)
	router := createTestRouter("GET", "/v1/todos/stats", GetTodoStats(store))

	w := performRequest(router, "GET", "/v1/todos/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats todostore.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalCount)
	assert.Equal(t, 0.0, stats.CompletionPercentage)
	assert.False(t, stats.HasTodos)
}

func TestGetTodoStats_Counts(t *testing.T) {
	store := newTestStore(t)
	mustCreate(t, store, "done 1", true)
	mustCreate(t, store, "done 2", true)
	mustCreate(t, store, "open", false)

	router := createTestRouter("GET", "/v1/todos/stats", GetTodoStats(store))
	w := performRequest(router, "GET", "/v1/todos/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats todostore.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalCount)
	assert.Equal(t, 2, stats.CompletedCount)
	assert.Equal(t, 1, stats.IncompleteCount)
	assert.InDelta(t, 66.67, stats.CompletionPercentage, 0.001)
	assert.True(t, stats.HasTodos)
}
