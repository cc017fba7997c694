// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianTasks/pkg/todoclient"
)

// newTestUI builds the page router against a stub API backend.
func newTestUI(t *testing.T, api http.Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := httptest.NewServer(api)
	t.Cleanup(backend.Close)

	server := &uiServer{api: todoclient.New(backend.URL)}
	router := gin.New()
	require.NoError(t, setupRoutes(router, server, newRefreshHub()))
	return router
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	return w
}

func TestIndexPageListsTodos(t *testing.T) {
	due := time.Date(2026, 9, 1, 12, 30, 0, 0, time.UTC)
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/todos", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]todoclient.Todo{
			{ID: "a", Title: "Buy milk", Description: "Whole, not skim", CreatedAt: due},
			{ID: "b", Title: "Ship release", Completed: true, DueDate: &due, CreatedAt: due},
		})
	})
	router := newTestUI(t, api)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Buy milk")
	assert.Contains(t, body, "Whole, not skim")
	assert.Contains(t, body, "Ship release")
	assert.Contains(t, body, "Due 2026-09-01 12:30:00")
}

func TestIndexPageAPIDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := httptest.NewServer(http.NotFoundHandler())
	backend.Close()

	server := &uiServer{api: todoclient.New(backend.URL)}
	router := gin.New()
	require.NoError(t, setupRoutes(router, server, newRefreshHub()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "API Connection Error")
	assert.Contains(t, w.Body.String(), "No todos yet")
}

func TestCreateTodoSubmitsFormAndRedirects(t *testing.T) {
	var got todoclient.CreateParams
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/todos", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(todoclient.Todo{ID: "new-id", Title: got.Title})
	})
	router := newTestUI(t, api)

	form := url.Values{}
	form.Set("title", "Call mom")
	form.Set("description", "This weekend")
	form.Set("completed", "on")
	w := postForm(router, "/todo/new", form)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, "Call mom", got.Title)
	assert.Equal(t, "This weekend", got.Description)
	assert.True(t, got.Completed)
}

func TestFlashShownOnceAfterRedirect(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(todoclient.Todo{ID: "x", Title: "t"})
			return
		}
		_ = json.NewEncoder(w).Encode([]todoclient.Todo{})
	})
	router := newTestUI(t, api)

	form := url.Values{}
	form.Set("title", "t")
	w := postForm(router, "/todo/new", form)
	require.Equal(t, http.StatusFound, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Todo created successfully!")

	// The banner is one-shot: rendering it clears the cookie.
	cleared := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == flashCookie && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "flash cookie should be cleared after render")
}

func TestCreateTodoAPIErrorRendersFormAgain(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": "title must not be blank or whitespace",
		})
	})
	router := newTestUI(t, api)

	form := url.Values{}
	form.Set("title", "   ")
	w := postForm(router, "/todo/new", form)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Error: title must not be blank or whitespace")
	assert.Contains(t, w.Body.String(), "<form class=\"todo-form\"")
}

func TestViewTodoShowsDetails(t *testing.T) {
	created := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/todos/abc", r.URL.Path)
		_ = json.NewEncoder(w).Encode(todoclient.Todo{
			ID: "abc", Title: "Water plants", Description: "Back porch too",
			CreatedAt: created, UpdatedAt: created,
		})
	})
	router := newTestUI(t, api)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todo/abc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Water plants")
	assert.Contains(t, body, "Back porch too")
	assert.Contains(t, body, "2026-08-20 09:00:00")
	assert.Contains(t, body, "Active")
}

func TestViewMissingTodoRedirectsWithError(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/todos" {
			_ = json.NewEncoder(w).Encode([]todoclient.Todo{})
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Todo item not found"})
	})
	router := newTestUI(t, api)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todo/nope", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// Follow the redirect with the flash cookie.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range w.Result().Cookies() {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "Error: Todo item not found")
}

func TestEditFormPrefilled(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(todoclient.Todo{
			ID: "abc", Title: "Original title", Description: "Original description",
			Completed: true,
		})
	})
	router := newTestUI(t, api)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/todo/abc/edit", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `value="Original title"`)
	assert.Contains(t, body, "Original description")
	assert.Contains(t, body, "checked")
	assert.Contains(t, body, `action="/todo/abc/edit"`)
}

func TestEditSubmitsFullUpdate(t *testing.T) {
	var got todoclient.UpdateParams
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/todos/abc", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(todoclient.Todo{ID: "abc", Title: *got.Title})
	})
	router := newTestUI(t, api)

	form := url.Values{}
	form.Set("title", "Renamed")
	form.Set("description", "")
	w := postForm(router, "/todo/abc/edit", form)

	require.Equal(t, http.StatusFound, w.Code)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Renamed", *got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "", *got.Description)
	require.NotNil(t, got.Completed)
	assert.False(t, *got.Completed, "unchecked box posts as not completed")
}

func TestToggleTodoInvertsCompleted(t *testing.T) {
	var got todoclient.UpdateParams
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(todoclient.Todo{ID: "abc", Title: "t", Completed: false})
		case http.MethodPut:
			require.Equal(t, "/v1/todos/abc", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(todoclient.Todo{ID: "abc", Title: "t", Completed: true})
		}
	})
	router := newTestUI(t, api)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/todo/abc/toggle", nil))

	require.Equal(t, http.StatusFound, w.Code)
	require.NotNil(t, got.Completed)
	assert.True(t, *got.Completed)
	assert.Nil(t, got.Title, "toggle only sends the completed field")
}

func TestDeleteTodoRedirectsWithSuccess(t *testing.T) {
	deleted := false
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			require.Equal(t, "/v1/todos/abc", r.URL.Path)
			deleted = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode([]todoclient.Todo{})
	})
	router := newTestUI(t, api)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/todo/abc/delete", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, deleted)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range w.Result().Cookies() {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), "Todo deleted successfully!")
}

func TestFormatDatetime(t *testing.T) {
	stamp := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "2026-01-02 15:04:05", formatDatetime(stamp))
	assert.Equal(t, "2026-01-02 15:04:05", formatDatetime(&stamp))
	assert.Equal(t, "", formatDatetime((*time.Time)(nil)))
	assert.Equal(t, "2026-01-02 15:04:05", formatDatetime("2026-01-02T15:04:05Z"))
	assert.Equal(t, "not a date", formatDatetime("not a date"))
}
