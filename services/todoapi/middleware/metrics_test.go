// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/AleutianTasks/services/todoapi/observability"
)

// withTestMetrics swaps in a registry-isolated metrics instance for the
// duration of the test.
func withTestMetrics(t *testing.T) *observability.TodoMetrics {
	t.Helper()
	previous := observability.DefaultMetrics
	m := observability.NewMetrics(prometheus.NewRegistry())
	observability.DefaultMetrics = m
	t.Cleanup(func() { observability.DefaultMetrics = previous })
	return m
}

func TestMetrics_RecordsMatchedRoute(t *testing.T) {
	m := withTestMetrics(t)

	router := gin.New()
	router.Use(Metrics())
	router.GET("/v1/todos/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	req := httptest.NewRequest("GET", "/v1/todos/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// The label is the route pattern, not the concrete path.
	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/todos/:id", "2xx"))
	assert.Equal(t, 1.0, count)
}

func TestMetrics_LabelsUnmatchedRoutes(t *testing.T) {
	m := withTestMetrics(t)

	router := gin.New()
	router.Use(Metrics())

	req := httptest.NewRequest("GET", "/nowhere", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", "4xx"))
	assert.Equal(t, 1.0, count)
}

func TestMetrics_NoPanicWithoutInit(t *testing.T) {
	previous := observability.DefaultMetrics
	observability.DefaultMetrics = nil
	t.Cleanup(func() { observability.DefaultMetrics = previous })

	router := gin.New()
	router.Use(Metrics())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/ok", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		201: "2xx",
		204: "2xx",
		301: "3xx",
		404: "4xx",
		429: "4xx",
		500: "5xx",
	}
	for code, want := range cases {
		assert.Equal(t, want, statusClass(code), "status %d", code)
	}
}
