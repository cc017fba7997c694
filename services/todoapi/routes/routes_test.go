// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianTasks/services/todostore"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *todostore.FileStore) {
	t.Helper()
	router := gin.New()
	store := todostore.NewFileStore(filepath.Join(t.TempDir(), "todos.json"))
	SetupRoutes(router, store)
	return router, store
}

// ============================================================================
// Route Registration Tests
// ============================================================================

func TestSetupRoutes_RegistersCoreRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	coreRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/"},
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"GET", "/v1/todos"},
		{"POST", "/v1/todos"},
		{"GET", "/v1/todos/stats"},
		{"GET", "/v1/todos/:id"},
		{"PUT", "/v1/todos/:id"},
		{"DELETE", "/v1/todos/:id"},
	}

	routes := router.Routes()
	for _, expected := range coreRoutes {
		found := false
		for _, r := range routes {
			if r.Method == expected.method && r.Path == expected.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected route %s %s not found", expected.method, expected.path)
		}
	}
}

// ============================================================================
// Route Handler Tests
// ============================================================================

func TestSetupRoutes_WelcomeEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Welcome endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSetupRoutes_HealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Health endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSetupRoutes_MetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	// Prometheus metrics endpoint should return 200
	if w.Code != http.StatusOK {
		t.Errorf("Metrics endpoint returned %d, want %d", w.Code, http.StatusOK)
	}

	// Should return prometheus format
	contentType := w.Header().Get("Content-Type")
	if contentType == "" {
		t.Error("Metrics endpoint should return Content-Type header")
	}
}

// TestSetupRoutes_StatsNotShadowedByID guards the coexistence of the
// static /stats segment with the :id parameter route.
func TestSetupRoutes_StatsNotShadowedByID(t *testing.T) {
	router, store := newTestRouter(t)

	if _, err := store.Create("one", "", true, nil); err != nil {
		t.Fatalf("seed create failed: %v", err)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/todos/stats", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Stats endpoint returned %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("Stats response is not JSON: %v", err)
	}
	if _, ok := stats["total_count"]; !ok {
		t.Errorf("Stats response missing total_count: %v", stats)
	}
}

func TestSetupRoutes_UnknownRouteIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v2/nothing", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown route returned %d, want %d", w.Code, http.StatusNotFound)
	}
}
