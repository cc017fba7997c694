// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package todoclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeAPI builds a test server that records the last request and
// responds with the given status and body.
func fakeAPI(t *testing.T, status int, body interface{}) (*httptest.Server, *http.Request) {
	t.Helper()
	captured := &http.Request{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func TestNew_Defaults(t *testing.T) {
	c := New("")
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}

	c = New("http://example.test:9999/")
	if c.BaseURL() != "http://example.test:9999" {
		t.Errorf("trailing slash should be trimmed, got %q", c.BaseURL())
	}
}

func TestClient_List(t *testing.T) {
	todos := []Todo{
		{ID: "a", Title: "first"},
		{ID: "b", Title: "second", Completed: true},
	}
	server, captured := fakeAPI(t, http.StatusOK, todos)

	got, err := New(server.URL).List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 || got[0].Title != "first" || !got[1].Completed {
		t.Errorf("unexpected todos: %+v", got)
	}
	if captured.Method != "GET" || captured.URL.Path != "/v1/todos" {
		t.Errorf("wrong request: %s %s", captured.Method, captured.URL.Path)
	}
}

func TestClient_Get(t *testing.T) {
	server, captured := fakeAPI(t, http.StatusOK, Todo{ID: "abc", Title: "one"})

	got, err := New(server.URL).Get(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != "abc" {
		t.Errorf("got ID %q, want %q", got.ID, "abc")
	}
	if captured.URL.Path != "/v1/todos/abc" {
		t.Errorf("wrong path: %s", captured.URL.Path)
	}
}

func TestClient_Get_NotFound(t *testing.T) {
	server, _ := fakeAPI(t, http.StatusNotFound,
		map[string]string{"error": "Todo with ID abc not found"})

	_, err := New(server.URL).Get(context.Background(), "abc")
	if err == nil {
		t.Fatal("expected an error for 404")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound should be true for %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "Todo with ID abc not found" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestClient_Create(t *testing.T) {
	server, captured := fakeAPI(t, http.StatusCreated, Todo{ID: "new", Title: "made"})

	got, err := New(server.URL).Create(context.Background(), CreateParams{
		Title:   "made",
		DueDate: "2026-01-15",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got.ID != "new" {
		t.Errorf("got ID %q", got.ID)
	}
	if captured.Method != "POST" {
		t.Errorf("method = %s, want POST", captured.Method)
	}
	if ct := captured.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestClient_Update_OmitsNilFields(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Todo{ID: "x", Title: "renamed"})
	}))
	t.Cleanup(server.Close)

	title := "renamed"
	_, err := New(server.URL).Update(context.Background(), "x", UpdateParams{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if gotBody["title"] != "renamed" {
		t.Errorf("body title = %v", gotBody["title"])
	}
	for _, absent := range []string{"description", "completed", "due_date"} {
		if _, ok := gotBody[absent]; ok {
			t.Errorf("field %q should be omitted from a nil update", absent)
		}
	}
}

func TestClient_Delete(t *testing.T) {
	server, captured := fakeAPI(t, http.StatusNoContent, nil)

	if err := New(server.URL).Delete(context.Background(), "gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if captured.Method != "DELETE" || captured.URL.Path != "/v1/todos/gone" {
		t.Errorf("wrong request: %s %s", captured.Method, captured.URL.Path)
	}
}

func TestClient_Stats(t *testing.T) {
	server, _ := fakeAPI(t, http.StatusOK, Stats{
		TotalCount:           3,
		CompletedCount:       2,
		IncompleteCount:      1,
		CompletionPercentage: 66.67,
		HasTodos:             true,
	})

	stats, err := New(server.URL).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCount != 3 || stats.CompletionPercentage != 66.67 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestClient_ConnectionError(t *testing.T) {
	// A server that is immediately closed leaves a dead port behind.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	err := New(server.URL).Health(context.Background())
	if err == nil {
		t.Fatal("expected a connection error")
	}
	if IsNotFound(err) {
		t.Error("connection errors must not read as not-found")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := New(server.URL).Health(ctx)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
}

func TestDecodeAPIError_PlainBody(t *testing.T) {
	server, _ := fakeAPI(t, http.StatusInternalServerError, nil)

	err := New(server.URL).Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Message == "" {
		t.Error("message should fall back to something non-empty")
	}
}
